package jackpot

import (
	"context"
	"fmt"
	"time"

	"prize_wheel/internal/domain"

	"github.com/sirupsen/logrus"
)

// maxAttempts bounds compare-and-swap retries when another session wins the race.
const maxAttempts = 5

// Store persists the single pool row.
type Store interface {
	// Load returns the pool, creating it when missing.
	Load(ctx context.Context) (domain.JackpotPool, error)
	// CompareAndSwap writes next only if the stored version still equals
	// expected. It reports whether the write happened.
	CompareAndSwap(ctx context.Context, expected int64, next domain.JackpotPool) (bool, error)
}

// Engine is the authoritative jackpot: it accrues on read and pays out with
// an optimistic compare-and-swap on the pool version.
type Engine struct {
	store     Store
	perMinute int64
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewEngine creates an engine. A non-positive perMinute uses the default rate.
func NewEngine(store Store, perMinute int64, log logrus.FieldLogger) *Engine {
	if perMinute <= 0 {
		perMinute = DefaultIncrementPerMinute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{store: store, perMinute: perMinute, now: time.Now, log: log}
}

// WithClock overrides the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Current returns the accrued pool, persisting the accrual when it moved.
func (e *Engine) Current(ctx context.Context) (domain.JackpotPool, error) {
	_, pool, err := e.update(ctx, "accrue", func(p domain.JackpotPool) (int64, domain.JackpotPool) {
		return 0, p
	})
	return pool, err
}

// Claim accrues and pays the pool out, returning the amount paid and the
// pool after reset. An empty pool pays 0 without error.
func (e *Engine) Claim(ctx context.Context) (int64, domain.JackpotPool, error) {
	return e.update(ctx, "payout", Payout)
}

func (e *Engine) update(ctx context.Context, op string, apply func(domain.JackpotPool) (int64, domain.JackpotPool)) (int64, domain.JackpotPool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stored, err := e.store.Load(ctx)
		if err != nil {
			return 0, domain.JackpotPool{}, fmt.Errorf("load jackpot: %w", err)
		}
		accrued := Accrue(stored, e.now(), e.perMinute)
		paid, next := apply(accrued)
		if next.Amount == stored.Amount && next.LastAccrualAt.Equal(stored.LastAccrualAt) {
			return paid, stored, nil
		}
		ok, err := e.store.CompareAndSwap(ctx, stored.Version, next)
		if err != nil {
			return 0, stored, fmt.Errorf("%s jackpot: %w", op, err)
		}
		if ok {
			next.Version = stored.Version + 1
			if paid > 0 {
				e.log.WithFields(logrus.Fields{
					"paid":    paid,
					"version": next.Version,
				}).Info("Jackpot paid out")
			}
			return paid, next, nil
		}
		e.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"version": stored.Version,
		}).Debug("Jackpot version moved, retrying")
	}
	return 0, domain.JackpotPool{}, fmt.Errorf("%s jackpot: %w", op, domain.ErrConflict)
}
