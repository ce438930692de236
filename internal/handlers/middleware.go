package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the upstream auth middleware after token
// verification. This service never sees credentials, only the verified
// principal.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

const roleAdmin = "admin"

// requireUser rejects requests without a verified principal. The response
// deliberately reveals nothing about the target resource.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
			return
		}
		c.Set("user_id", userID)
		c.Set("is_admin", c.GetHeader(headerUserRole) == roleAdmin)
		c.Next()
	}
}

// requireAdmin rejects non-admin principals. Must run after requireUser.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
			return
		}
		c.Next()
	}
}
