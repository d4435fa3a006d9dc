// Package store persists ledger records and the jackpot pool with GORM.
package store

import (
	"context"
	"errors"
	"time"

	"prize_wheel/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Records is the GORM-backed record store.
type Records struct {
	db *gorm.DB
}

// NewRecords creates a record store.
func NewRecords(db *gorm.DB) *Records {
	return &Records{db: db}
}

// Create inserts a new record.
func (s *Records) Create(ctx context.Context, rec *domain.LedgerRecord) error {
	if rec.Notifications == nil {
		rec.Notifications = []domain.Notification{}
	}
	if rec.Role == "" {
		rec.Role = domain.RoleUser
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return &domain.StoreError{Op: "create", UserID: rec.UserID, Err: err}
	}
	return nil
}

// Get loads a record by user ID.
func (s *Records) Get(ctx context.Context, userID string) (*domain.LedgerRecord, error) {
	return s.first(ctx, "get", userID, "user_id = ?", userID)
}

// FindByReferralCode loads the record owning a referral code.
func (s *Records) FindByReferralCode(ctx context.Context, code string) (*domain.LedgerRecord, error) {
	return s.first(ctx, "find_by_referral", code, "referral_code = ?", code)
}

// FindByUsername loads the record with a login name.
func (s *Records) FindByUsername(ctx context.Context, username string) (*domain.LedgerRecord, error) {
	return s.first(ctx, "find_by_username", username, "username = ?", username)
}

func (s *Records) first(ctx context.Context, op, key string, query string, args ...any) (*domain.LedgerRecord, error) {
	var rec domain.LedgerRecord
	err := s.db.WithContext(ctx).Where(query, args...).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StoreError{Op: op, UserID: key, Err: err}
	}
	if rec.Notifications == nil {
		rec.Notifications = []domain.Notification{}
	}
	return &rec, nil
}

// Mutate runs fn on the user's record inside a transaction holding the
// record's row lock, then writes balance and notifications back. Concurrent
// mutations of one record are serialised, so none of them is lost. An error
// from fn aborts the transaction and is returned unchanged.
func (s *Records) Mutate(ctx context.Context, userID string, fn func(*domain.LedgerRecord) error) (*domain.LedgerRecord, error) {
	return s.mutate(ctx, userID, "", fn)
}

// Apply writes patch atomically. A patch whose ID was applied before is
// skipped with domain.ErrAlreadyApplied.
func (s *Records) Apply(ctx context.Context, userID string, patch domain.RecordPatch) (*domain.LedgerRecord, error) {
	return s.mutate(ctx, userID, patch.ID, patch.ApplyTo)
}

func (s *Records) mutate(ctx context.Context, userID, patchID string, fn func(*domain.LedgerRecord) error) (*domain.LedgerRecord, error) {
	var out domain.LedgerRecord
	var aborted error // Error returned by fn, passed through as is
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.LedgerRecord
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("user_id = ?", userID).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return &domain.StoreError{Op: "lock", UserID: userID, Err: err}
		}

		if patchID != "" {
			var seen int64 // Rows already holding this patch ID
			if err := tx.Model(&domain.AppliedWrite{}).Where("id = ?", patchID).Count(&seen).Error; err != nil {
				return &domain.StoreError{Op: "check_applied", UserID: userID, Err: err}
			}
			if seen > 0 {
				return domain.ErrAlreadyApplied
			}
		}

		if rec.Notifications == nil {
			rec.Notifications = []domain.Notification{}
		}
		if err := fn(&rec); err != nil {
			aborted = err
			return err
		}
		rec.UpdatedAt = time.Now()

		err = tx.Model(&domain.LedgerRecord{}).
			Where("user_id = ?", userID).
			Select("balance", "notifications", "updated_at").
			Updates(&rec).Error
		if err != nil {
			return &domain.StoreError{Op: "update", UserID: userID, Err: err}
		}
		if patchID != "" {
			if err := tx.Create(&domain.AppliedWrite{ID: patchID, UserID: userID}).Error; err != nil {
				return &domain.StoreError{Op: "mark_applied", UserID: userID, Err: err}
			}
		}
		out = rec
		return nil
	})
	if err != nil {
		var storeErr *domain.StoreError
		switch {
		case aborted != nil && errors.Is(err, aborted):
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAlreadyApplied), errors.As(err, &storeErr):
		default:
			// Begin and commit failures surface here
			err = &domain.StoreError{Op: "commit", UserID: userID, Err: err}
		}
		return nil, err
	}
	return &out, nil
}

// PruneApplied forgets patch IDs applied before cutoff and reports how many
// were removed.
func (s *Records) PruneApplied(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.AppliedWrite{})
	if res.Error != nil {
		return 0, &domain.StoreError{Op: "prune_applied", Err: res.Error}
	}
	return res.RowsAffected, nil
}

// List returns a page of records ordered by creation time and the total count.
func (s *Records) List(ctx context.Context, offset, limit int) ([]domain.LedgerRecord, int64, error) {
	var total int64 // Total record count
	if err := s.db.WithContext(ctx).Model(&domain.LedgerRecord{}).Count(&total).Error; err != nil {
		return nil, 0, &domain.StoreError{Op: "count", Err: err}
	}
	var recs []domain.LedgerRecord // Page of records
	if err := s.db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, 0, &domain.StoreError{Op: "list", Err: err}
	}
	return recs, total, nil
}
