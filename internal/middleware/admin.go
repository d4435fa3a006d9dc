package middleware

import (
	"context"                     // Context for the record lookup
	"net/http"                    // HTTP status codes
	"prize_wheel/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// RecordLookup loads a ledger record by user ID
type RecordLookup interface {
	Get(ctx context.Context, userID string) (*domain.LedgerRecord, error)
}

// AdminOnlyMiddleware checks the user's role from the store on each request
func AdminOnlyMiddleware(records RecordLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c) // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		rec, err := records.Get(c.Request.Context(), userID) // Fetch record from store
		if err != nil {
			// If record not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// Check if record role is admin
		if rec.Role != domain.RoleAdmin {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
