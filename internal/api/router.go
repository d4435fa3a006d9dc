package api

import (
	"prize_wheel/internal/identity"   // Sign-in and token checks
	"prize_wheel/internal/jackpot"    // Jackpot engine
	"prize_wheel/internal/ledger"     // Ledger service
	"prize_wheel/internal/middleware" // Auth middleware
	"prize_wheel/internal/outbox"     // Pending write reconciler
	"prize_wheel/internal/store"      // Record store
	"prize_wheel/internal/withdrawal" // Withdrawal processor

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Server bundles everything the routes need
type Server struct {
	Identity   *identity.Provider    // Sign-in and token checks
	Ledger     *ledger.Service       // Spins and notification log
	Withdrawal *withdrawal.Processor // Withdrawals
	Jackpot    *jackpot.Engine       // Shared pool
	Records    *store.CachedRecords  // Record store with cached views
	Reconciler *outbox.Reconciler    // Failed write replay
	Redis      *redis.Client         // Optional cache, nil disables caching
	Log        logrus.FieldLogger    // Request logger
}

// Register mounts every route on r
func (s *Server) Register(r gin.IRouter) {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Auth routes
	r.POST("/session/anonymous", AnonymousSessionHandler(s.Identity, log)) // Anonymous sign-in
	r.POST("/user", RegisterHandler(s.Identity, log))                      // Registration endpoint
	r.GET("/user", LoginHandler(s.Identity, log))                          // Login endpoint

	// Public game data
	r.GET("/jackpot", JackpotHandler(s.Jackpot, log)) // Current pool
	r.GET("/wheel", WheelHandler(s.Ledger.Table()))   // Prize table and geometry

	auth := middleware.JWTAuthMiddleware(s.Identity)

	// Ledger routes (protected by JWT)
	ledgerGroup := r.Group("/ledger")
	ledgerGroup.Use(auth)
	ledgerGroup.GET("", GetLedgerHandler(s.Ledger, s.Records, log))                // Current record
	ledgerGroup.POST("/spin", SpinHandler(s.Ledger, log))                          // Spin the wheel
	ledgerGroup.DELETE("/notifications", ClearNotificationsHandler(s.Ledger, log)) // Clear notification log

	// Withdrawal routes (protected by JWT)
	withdrawalGroup := r.Group("/withdrawals")
	withdrawalGroup.Use(auth)
	withdrawalGroup.POST("/quote", QuoteHandler(s.Withdrawal, log)) // Live quote
	withdrawalGroup.POST("", WithdrawHandler(s.Withdrawal, log))    // Submit withdrawal

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(auth, middleware.AdminOnlyMiddleware(s.Records))
	adminGroup.GET("/records", ListRecordsHandler(s.Records.Records, s.Redis, log)) // List records endpoint
	adminGroup.GET("/outbox", OutboxHandler(s.Reconciler, log))                     // Pending write count
	adminGroup.POST("/outbox/drain", DrainOutboxHandler(s.Reconciler, log))         // Replay now
}
