package api

import (
	"net/http"                    // HTTP status codes
	"prize_wheel/internal/domain" // Importing domain models
	"prize_wheel/internal/outbox" // Pending write reconciler
	"prize_wheel/internal/store"  // Record listing
	"prize_wheel/internal/utils"  // Utility functions
	"strconv"                     // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// recordsPage is the cached admin listing
type recordsPage struct {
	Records    []domain.LedgerRecord `json:"records"`     // Page of records
	Page       int                   `json:"page"`        // Current page
	PageSize   int                   `json:"page_size"`   // Page size
	Total      int64                 `json:"total"`       // Total number of records
	TotalPages int                   `json:"total_pages"` // Total pages
	Cached     bool                  `json:"cached"`      // Served from cache
}

// pagination reads page and page_size from the query, defaulting to 1 and 20
func pagination(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// ListRecordsHandler returns all ledger records, paginated
func ListRecordsHandler(records *store.Records, rdb *redis.Client, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)                   // Pagination parameters
		cacheKey := utils.AdminRecordsKey(page, pageSize) // Cache key for this page
		var cached recordsPage
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		recs, total, err := records.List(ctx, offset, pageSize)
		if err != nil {
			respondError(c, log, err)
			return
		}
		resp := recordsPage{
			Records:    recs,                                   // Page of records
			Page:       page,                                   // Current page
			PageSize:   pageSize,                               // Page size
			Total:      total,                                  // Total number of records
			TotalPages: (int(total) + pageSize - 1) / pageSize, // Total pages
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, store.ViewTTL)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// OutboxHandler reports how many writes are waiting for retry
func OutboxHandler(rec *outbox.Reconciler, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := rec.Queue().Len(c.Request.Context()) // Pending write count
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending": n})
	}
}

// DrainOutboxHandler runs one reconciliation pass immediately
func DrainOutboxHandler(rec *outbox.Reconciler, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := rec.Drain(c.Request.Context()) // Replay queued writes
		if err != nil {
			respondError(c, log, err)
			return
		}
		log.WithFields(logrus.Fields{
			"applied":   stats.Applied,   // Writes replayed
			"duplicate": stats.Duplicate, // Writes the store already held
			"requeued":  stats.Requeued,  // Writes retried later
			"dropped":   stats.Dropped,   // Writes given up on
		}).Info("Outbox drained on request")
		c.JSON(http.StatusOK, stats)
	}
}
