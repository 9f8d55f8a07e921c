package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/utils"
)

// WebSocketAuthMiddleware browser tidak bisa set header saat upgrade, jadi token lewat query.
// Token relay ditolak di sini; relay punya endpoint sendiri.
func WebSocketAuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := upgradeClaims(c, tokens)
		if !ok {
			return
		}
		if claims.Role == models.RoleRelay {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RelayAuthMiddleware untuk /realtime/ws: hanya token relay atau admin.
func RelayAuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := upgradeClaims(c, tokens)
		if !ok {
			return
		}
		if claims.Role != models.RoleRelay && claims.Role != models.RoleAdmin {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// upgradeClaims token dari ?token atau header Authorization. Abort 401 kalau tidak valid.
func upgradeClaims(c *gin.Context, tokens *utils.TokenManager) (*utils.CustomClaims, bool) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}

	claims, err := tokens.ParseToken(token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}
