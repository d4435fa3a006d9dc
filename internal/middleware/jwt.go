package middleware

import (
	"context"  // Context passed to the authenticator
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
)

// Authenticator resolves a bearer token to a user ID
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// JWTAuthMiddleware validates bearer tokens and stores the user ID in the context
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")          // Extract the token string
		userID, err := auth.Authenticate(c.Request.Context(), tokenStr) // Validate token and record
		if err != nil {
			// If validation fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set("userID", userID) // Store userID in context
		c.Next()                // Proceed to the next handler
	}
}

// UserID returns the authenticated user ID set by JWTAuthMiddleware
func UserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID") // Get userID from context
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
