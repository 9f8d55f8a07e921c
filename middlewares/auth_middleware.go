package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/utils"
)

const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextStaffRef = "staff_ref"
)

func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		if claims.Role == models.RoleRelay {
			utils.RespondError(c, http.StatusForbidden, errors.New("relay token cannot access this endpoint"))
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *utils.CustomClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextStaffRef, claims.StaffRef)
}

// StaffRef identitas staff dari token; disimpan apa adanya sebagai pemilik order.
func StaffRef(c *gin.Context) string {
	return c.GetString(ContextStaffRef)
}
