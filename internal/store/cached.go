package store

import (
	"context"
	"time"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ViewTTL is how long a cached ledger view lives.
const ViewTTL = 60 * time.Second

// CachedRecords decorates Records with a Redis cache for read-only views.
// Get and every write go to the database; only View may serve from cache.
// Every write invalidates.
type CachedRecords struct {
	*Records
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewCachedRecords wraps records. A nil client disables caching.
func NewCachedRecords(records *Records, rdb *redis.Client, log logrus.FieldLogger) *CachedRecords {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedRecords{Records: records, rdb: rdb, log: log}
}

// View returns a record for display, reporting whether it came from cache.
func (s *CachedRecords) View(ctx context.Context, userID string) (*domain.LedgerRecord, bool, error) {
	var rec domain.LedgerRecord
	found, err := utils.GetCache(ctx, s.rdb, utils.LedgerKey(userID), &rec)
	if err == nil && found {
		return &rec, true, nil
	}
	got, err := s.Records.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	_ = utils.SetCache(ctx, s.rdb, utils.LedgerKey(userID), got, ViewTTL)
	return got, false, nil
}

// Mutate writes through and invalidates the user's view and admin listings.
func (s *CachedRecords) Mutate(ctx context.Context, userID string, fn func(*domain.LedgerRecord) error) (*domain.LedgerRecord, error) {
	rec, err := s.Records.Mutate(ctx, userID, fn)
	s.invalidate(ctx, userID)
	return rec, err
}

// Apply writes patch through and invalidates the user's view and admin listings.
func (s *CachedRecords) Apply(ctx context.Context, userID string, patch domain.RecordPatch) (*domain.LedgerRecord, error) {
	rec, err := s.Records.Apply(ctx, userID, patch)
	s.invalidate(ctx, userID)
	return rec, err
}

// Create inserts and invalidates admin listings.
func (s *CachedRecords) Create(ctx context.Context, rec *domain.LedgerRecord) error {
	err := s.Records.Create(ctx, rec)
	s.invalidate(ctx, rec.UserID)
	return err
}

func (s *CachedRecords) invalidate(ctx context.Context, userID string) {
	if err := utils.DeleteCache(ctx, s.rdb, utils.LedgerKey(userID)); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Failed to invalidate ledger cache")
	}
	if err := utils.DeleteCachePattern(ctx, s.rdb, utils.AdminRecordsPattern()); err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to invalidate admin listing cache")
	}
}
