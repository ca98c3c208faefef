package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/panelforge/panelforge/internal/auth"
)

const userIDKey = "userID"

// BearerAuth resolves the Authorization header against the configured
// tokens and stores the caller's user ID in the request context. Requests
// without a valid token never reach a handler.
func BearerAuth(authorizer *auth.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, ok := authorizer.ResolveToken(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}
