// Package jackpot advances the shared jackpot pool over time and pays it out.
package jackpot

import (
	"time"

	"prize_wheel/internal/domain"
)

// DefaultIncrementPerMinute is the reference accrual rate in XD.
const DefaultIncrementPerMinute int64 = 100

// Accrue adds perMinute for every whole minute elapsed since pool.LastAccrualAt.
// LastAccrualAt moves forward by exactly the minutes credited, so a partial
// minute stays pending for the next call. A clock behind LastAccrualAt is a no-op.
func Accrue(pool domain.JackpotPool, now time.Time, perMinute int64) domain.JackpotPool {
	if perMinute <= 0 {
		return pool
	}
	if pool.LastAccrualAt.IsZero() {
		pool.LastAccrualAt = now
		return pool
	}
	minutes := int64(now.Sub(pool.LastAccrualAt) / time.Minute)
	if minutes <= 0 {
		return pool
	}
	pool.Amount += minutes * perMinute
	pool.LastAccrualAt = pool.LastAccrualAt.Add(time.Duration(minutes) * time.Minute)
	return pool
}

// Payout pays the whole pool and resets it. An empty pool pays 0 and is
// returned unchanged; that is a valid outcome, not an error.
func Payout(pool domain.JackpotPool) (int64, domain.JackpotPool) {
	if pool.Amount <= 0 {
		return 0, pool
	}
	paid := pool.Amount
	pool.Amount = 0
	return paid, pool
}
