package store

import (
	"context"
	"errors"
	"time"

	"prize_wheel/internal/domain"

	"gorm.io/gorm"
)

// Jackpot persists the single pool row.
type Jackpot struct {
	db  *gorm.DB
	now func() time.Time
}

// NewJackpot creates a jackpot store.
func NewJackpot(db *gorm.DB) *Jackpot {
	return &Jackpot{db: db, now: time.Now}
}

// Load returns the pool, creating it on first use.
func (s *Jackpot) Load(ctx context.Context) (domain.JackpotPool, error) {
	var pool domain.JackpotPool
	err := s.db.WithContext(ctx).
		Attrs(domain.JackpotPool{LastAccrualAt: s.now()}).
		FirstOrCreate(&pool, domain.JackpotPool{ID: domain.JackpotPoolID}).Error
	if err == nil {
		return pool, nil
	}
	// A concurrent first session may have inserted the row first
	if retry := s.db.WithContext(ctx).First(&pool, domain.JackpotPoolID).Error; retry == nil {
		return pool, nil
	} else if !errors.Is(retry, gorm.ErrRecordNotFound) {
		err = retry
	}
	return domain.JackpotPool{}, &domain.StoreError{Op: "load_jackpot", Err: err}
}

// CompareAndSwap writes next when the stored version equals expected.
func (s *Jackpot) CompareAndSwap(ctx context.Context, expected int64, next domain.JackpotPool) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.JackpotPool{}).
		Where("id = ? AND version = ?", domain.JackpotPoolID, expected).
		Updates(map[string]any{
			"amount":          next.Amount,
			"last_accrual_at": next.LastAccrualAt,
			"version":         expected + 1,
		})
	if res.Error != nil {
		return false, &domain.StoreError{Op: "swap_jackpot", Err: res.Error}
	}
	return res.RowsAffected == 1, nil
}
