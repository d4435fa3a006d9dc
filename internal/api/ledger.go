package api

import (
	"net/http"                        // HTTP status codes
	"prize_wheel/internal/jackpot"    // Jackpot engine
	"prize_wheel/internal/ledger"     // Ledger service
	"prize_wheel/internal/middleware" // Authenticated user ID
	"prize_wheel/internal/present"    // Presentation collector
	"prize_wheel/internal/prize"      // Prize table
	"prize_wheel/internal/store"      // Cached record views
	"prize_wheel/internal/wheel"      // Wheel geometry

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// mutationResponse is the body returned by every ledger mutation
func mutationResponse(m *ledger.Mutation, col *present.Collector) gin.H {
	resp := gin.H{
		"record":    m.Record,      // Record after the change
		"persisted": m.Persisted(), // Whether the store accepted the write
		"messages":  col.Messages,  // User-facing messages
		"events":    col.Events,    // Animation events
	}
	if m.Spin != nil {
		resp["spin"] = m.Spin // Spin details
	}
	if !m.Persisted() {
		resp["warning"] = persistWarning // Change is queued for retry
	}
	return resp
}

// GetLedgerHandler returns the authenticated user's ledger record
func GetLedgerHandler(svc *ledger.Service, records *store.CachedRecords, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.UserID(c) // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		rec, cached, err := records.View(ctx, userID) // Cache-first read
		if err != nil {
			respondError(c, log, err)
			return
		}
		svc.FillJackpot(ctx, rec) // Jackpot always comes from the live pool
		c.JSON(http.StatusOK, gin.H{"record": rec, "cached": cached})
	}
}

// SpinHandler resolves one spin for the authenticated user
func SpinHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.UserID(c) // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		col := present.NewCollector() // Buffer presentation output for the response
		m, err := svc.Spin(c.Request.Context(), userID, col)
		if err != nil {
			respondError(c, log, err)
			return
		}
		// A spin already in flight makes this request a no-op
		if m.Ignored {
			c.JSON(http.StatusAccepted, gin.H{"ignored": true})
			return
		}
		c.JSON(http.StatusOK, mutationResponse(m, col))
	}
}

// ClearNotificationsHandler empties the authenticated user's notification log
func ClearNotificationsHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.UserID(c) // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		col := present.NewCollector()
		m, err := svc.ClearNotifications(c.Request.Context(), userID, col)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, mutationResponse(m, col))
	}
}

// JackpotHandler returns the current shared pool
func JackpotHandler(engine *jackpot.Engine, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pool, err := engine.Current(c.Request.Context()) // Accrues before reading
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"jackpot":         pool.Amount,                     // Pool in XD
			"label":           wheel.JackpotLabel(pool.Amount), // Display label
			"last_accrual_at": pool.LastAccrualAt,              // Start of the pending minute
		})
	}
}

// WheelSegment is one prize segment with its geometry
type WheelSegment struct {
	prize.Outcome
	Index        int     `json:"index"`         // Position on the wheel
	LandingAngle float64 `json:"landing_angle"` // Rotation that lands on this segment
}

// WheelHandler returns the prize table in wheel order
func WheelHandler(table *prize.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := table.Entries() // Copy of the outcomes
		segments := make([]WheelSegment, len(entries))
		for i, e := range entries {
			segments[i] = WheelSegment{Outcome: e, Index: i, LandingAngle: wheel.LandingAngle(i, len(entries))}
		}
		c.JSON(http.StatusOK, gin.H{
			"segments":    segments,                             // Segments in wheel order
			"arc":         wheel.SegmentArc(len(entries)),       // Degrees per segment
			"turns":       wheel.DefaultTurns,                   // Full turns before landing
			"duration_ms": wheel.DefaultDuration.Milliseconds(), // Animation length
		})
	}
}
