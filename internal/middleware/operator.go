package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// OperatorOnlyMiddleware rejects tokens issued to anyone but the configured operator.
// Tokens minted before the operator was renamed stop working at once.
func OperatorOnlyMiddleware(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, exists := c.Get(OperatorKey) // Get operator from context
		// Check if operator exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check the token subject against the configured operator
		if name, _ := operator.(string); name != username {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator access required"})
			return
		}
		c.Next()
	}
}
