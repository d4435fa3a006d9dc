package main

import (
	"context"                         // context package is needed for Redis operations
	"errors"                          // Server close detection
	"net/http"                        // HTTP server
	"os"                              // Signals
	"os/signal"                       // Graceful shutdown
	"prize_wheel/internal/api"        // Custom package for API handlers
	"prize_wheel/internal/config"     // Custom package for configuration
	"prize_wheel/internal/db"         // Database connection
	"prize_wheel/internal/identity"   // Sign-in and tokens
	"prize_wheel/internal/jackpot"    // Jackpot engine
	"prize_wheel/internal/ledger"     // Ledger service
	"prize_wheel/internal/outbox"     // Failed write replay
	"prize_wheel/internal/prize"      // Prize table
	"prize_wheel/internal/store"      // Record and pool stores
	"prize_wheel/internal/withdrawal" // Withdrawal processor
	"syscall"                         // SIGTERM
	"time"                            // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.StandardLogger()

	// Connect to the database
	conn, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client; without an address caching is off and the outbox lives in memory
	var redisClient *redis.Client
	var queue outbox.Queue = outbox.NewMemoryQueue()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		queue = outbox.NewRedisQueue(redisClient, outbox.DefaultKey)
	} else {
		log.Warn("REDIS_ADDR not set, caching disabled and pending writes kept in memory")
	}

	// Stores and services
	records := store.NewCachedRecords(store.NewRecords(conn), redisClient, log)
	engine := jackpot.NewEngine(store.NewJackpot(conn), cfg.Game.JackpotIncrementPerMinute, log)
	reconciler := outbox.NewReconciler(queue, records, cfg.Game.OutboxMaxAttempts, log)
	ledgerSvc := ledger.NewService(ledger.Deps{
		Records:         records,
		Jackpot:         engine,
		Table:           prize.DefaultTable(),
		Outbox:          reconciler,
		Log:             log,
		NotificationCap: cfg.Game.NotificationCap,
	})
	policy := withdrawal.Policy{
		MinAmount:         cfg.Game.MinWithdraw,
		ExchangeRate:      cfg.Game.ExchangeRate,
		FeeRate:           cfg.Game.GamepassFeeRate,
		ReferralBonusRate: cfg.Game.ReferralBonusRate,
	}

	// Retry failed record writes in the background
	scheduler, err := reconciler.Start(cfg.Game.OutboxRetryInterval)
	if err != nil {
		logrus.Fatalf("failed to start outbox scheduler: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &api.Server{
		Identity:   identity.NewProvider(records, cfg.JWTSecret, log),
		Ledger:     ledgerSvc,
		Withdrawal: withdrawal.NewProcessor(policy, ledgerSvc, cfg.Game.NotificationCap, log),
		Jackpot:    engine,
		Records:    records,
		Reconciler: reconciler,
		Redis:      redisClient,
		Log:        log,
	}
	srv.Register(r)

	httpServer := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		log.Info("Server running on " + cfg.AppPort) // Log server start
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Error("HTTP shutdown failed")
	}
	if err := scheduler.Shutdown(); err != nil {
		log.WithField("error", err.Error()).Error("Scheduler shutdown failed")
	}
	// Last pass so queued writes are not lost with an in-memory queue
	if stats, err := reconciler.Drain(shutdownCtx); err == nil && stats != (outbox.Stats{}) {
		log.WithField("applied", stats.Applied).Info("Final outbox drain")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
