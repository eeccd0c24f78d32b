package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DevUser trusts the X-User-Id header as the caller's uid.
// Use this ONLY for local development; config rejects it in production.
func DevUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing X-User-Id header"})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, uid)
		if email := strings.TrimSpace(c.GetHeader("X-User-Email")); email != "" {
			c.Set(CtxEmail, email)
		}
		c.Next()
	}
}
