package ledger

import (
	"testing"
	"time"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/prize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestApplySpinResultCreditsBaseValue(t *testing.T) {
	rec := domain.LedgerRecord{UserID: "u1", Balance: 5}
	next, res := ApplySpinResult(rec, prize.Outcome{Label: "10 XD", BaseValue: 10, Weight: 10}, 0, t0)

	assert.Equal(t, int64(15), next.Balance)
	assert.Equal(t, int64(10), res.Credited)
	assert.False(t, res.Jackpot)
	require.Len(t, next.Notifications, 1)
	assert.Equal(t, "You won 10 XD!", next.Notifications[0].Message)
	assert.Equal(t, t0, next.Notifications[0].Timestamp)
	assert.Equal(t, int64(5), rec.Balance, "input must not change")
	assert.Empty(t, rec.Notifications)
}

func TestApplySpinResultJackpot(t *testing.T) {
	rec := domain.LedgerRecord{UserID: "u1", Balance: 0}
	jp := prize.Outcome{Label: "Jackpot", Weight: 0.1, IsJackpot: true}

	next, res := ApplySpinResult(rec, jp, 1200, t0)
	assert.Equal(t, int64(1200), next.Balance)
	assert.True(t, res.Jackpot)
	assert.False(t, res.EmptyJackpot)
	assert.Equal(t, "Congratulations! You won the Jackpot of 1200 XD!", next.Notifications[0].Message)
}

func TestApplySpinResultEmptyJackpot(t *testing.T) {
	rec := domain.LedgerRecord{UserID: "u1", Balance: 42}
	jp := prize.Outcome{Label: "Jackpot", Weight: 0.1, IsJackpot: true}

	next, res := ApplySpinResult(rec, jp, 0, t0)
	assert.Equal(t, int64(42), next.Balance)
	assert.Zero(t, res.Credited)
	assert.True(t, res.EmptyJackpot)
	require.Len(t, next.Notifications, 1)
	assert.Equal(t, "Sorry, the Jackpot was empty. Better luck next time!", next.Notifications[0].Message)
}

func TestApplySpinResultKeepsLogMostRecentFirst(t *testing.T) {
	rec := domain.LedgerRecord{
		UserID:        "u1",
		Notifications: []domain.Notification{{Message: "old", Timestamp: t0.Add(time.Minute)}},
	}
	next, _ := ApplySpinResult(rec, prize.Outcome{Label: "2 XD", BaseValue: 2, Weight: 37}, 0, t0)

	require.Len(t, next.Notifications, 2)
	assert.Equal(t, "You won 2 XD!", next.Notifications[0].Message)
	assert.False(t, next.Notifications[0].Timestamp.Before(next.Notifications[1].Timestamp))
	assert.Len(t, rec.Notifications, 1)
}

func TestSessionTransitions(t *testing.T) {
	s := NewSessions().Acquire("u1")
	assert.Equal(t, Idle, s.State())

	require.True(t, s.Begin())
	assert.Equal(t, Spinning, s.State())
	assert.False(t, s.Begin(), "second spin while spinning")

	s.Resolve(SpinResult{Credited: 4})
	assert.Equal(t, Resolved, s.State())
	assert.False(t, s.Begin(), "no spin until the result is acknowledged")

	s.End()
	assert.Equal(t, Idle, s.State())
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, int64(4), last.Credited)
}

func TestSessionsForgetReleasedUsers(t *testing.T) {
	r := NewSessions()
	a := r.Acquire("u1")
	b := r.Acquire("u1")
	assert.Same(t, a, b)
	require.True(t, a.Begin())
	assert.Equal(t, Spinning, r.State("u1"))

	r.Release("u1")
	assert.Equal(t, 1, r.Len(), "still held once")
	a.End()
	r.Release("u1")
	assert.Zero(t, r.Len())
	assert.Equal(t, Idle, r.State("u1"))

	// a stray release is harmless
	r.Release("u1")
	assert.Zero(t, r.Len())
}

func TestSpinPatchCreditsOnce(t *testing.T) {
	res := ResolveSpin(prize.Outcome{Label: "20 XD", BaseValue: 20, Weight: 5}, 0)
	p := SpinPatch(res, t0)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, int64(20), p.BalanceDelta)
	require.Len(t, p.Notify, 1)
	assert.Equal(t, "You won 20 XD!", p.Notify[0].Message)
	assert.False(t, p.NoOverdraft)
}
