// Package auth resolves who is calling. The Firebase uid is the only user
// key: projects, chat messages, uploaded assets and the credit account are all
// scoped by it, and there is no local user table. The credit account is the
// only per-user row the backend keeps.
package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys written by the auth middlewares.
const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
)

// UserFirebaseUID returns the caller's uid, or "" on routes mounted without
// FirebaseAuthMiddleware or DevUser. Repositories treat "" as no owner, so
// nothing is ever matched for it.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}
