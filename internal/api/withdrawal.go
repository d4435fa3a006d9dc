package api

import (
	"net/http"                        // HTTP status codes
	"prize_wheel/internal/middleware" // Authenticated user ID
	"prize_wheel/internal/present"    // Presentation collector
	"prize_wheel/internal/withdrawal" // Withdrawal processor

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// QuoteRequest asks for a withdrawal preview
type QuoteRequest struct {
	Amount int64 `json:"amount"` // Robux amount being typed
}

// QuoteHandler previews the deduction and gamepass amount for a withdrawal
func QuoteHandler(proc *withdrawal.Processor, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.UserID(c) // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req QuoteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, log, bindError(err, "amount"))
			return
		}
		q, err := proc.Quote(c.Request.Context(), userID, req.Amount)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// WithdrawHandler submits a withdrawal for the authenticated user
func WithdrawHandler(proc *withdrawal.Processor, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.UserID(c) // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req withdrawal.Request // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// A fractional or non-numeric amount is an invalid amount
			respondError(c, log, bindError(err, "amount_requested"))
			return
		}
		col := present.NewCollector() // Buffer presentation output
		conf, err := proc.Execute(c.Request.Context(), userID, req, col)
		if err != nil {
			respondError(c, log, err) // Validation failures map to 400 with a code
			return
		}
		resp := gin.H{
			"confirmation": conf,                   // Deduction, gamepass amount, referral outcome
			"persisted":    conf.PersistErr == nil, // Whether the store accepted the write
			"messages":     col.Messages,           // User-facing messages
		}
		if conf.PersistErr != nil {
			resp["warning"] = persistWarning // Change is queued for retry
		}
		c.JSON(http.StatusOK, resp)
	}
}
