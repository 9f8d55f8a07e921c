package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders untuk API JSON + websocket. Respons API tidak boleh di-cache
// karena antrian order selalu berubah.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if !strings.HasPrefix(c.Request.URL.Path, "/menu") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
