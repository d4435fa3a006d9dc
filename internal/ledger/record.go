// Package ledger applies spin results to a user's record and persists them.
package ledger

import (
	"fmt"
	"time"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/prize"
)

// SpinResult describes how a spin was credited.
type SpinResult struct {
	Outcome      prize.Outcome `json:"outcome"`
	Index        int           `json:"index"`
	Credited     int64         `json:"credited"`
	Jackpot      bool          `json:"jackpot"`
	EmptyJackpot bool          `json:"empty_jackpot"`
	Message      string        `json:"message"`
}

// ResolveSpin works out what outcome pays. A jackpot outcome pays
// jackpotPayout, which is zero when the pool was empty at spin time.
func ResolveSpin(outcome prize.Outcome, jackpotPayout int64) SpinResult {
	res := SpinResult{Outcome: outcome, Index: -1}
	switch {
	case outcome.IsJackpot && jackpotPayout > 0:
		res.Jackpot = true
		res.Credited = jackpotPayout
		res.Message = fmt.Sprintf("Congratulations! You won the Jackpot of %d XD!", jackpotPayout)
	case outcome.IsJackpot:
		res.Jackpot = true
		res.EmptyJackpot = true
		res.Message = "Sorry, the Jackpot was empty. Better luck next time!"
	default:
		res.Credited = outcome.BaseValue
		res.Message = fmt.Sprintf("You won %d XD!", outcome.BaseValue)
	}
	return res
}

// SpinPatch is the record change for res: the credit plus exactly one
// notification.
func SpinPatch(res SpinResult, now time.Time) domain.RecordPatch {
	return domain.NewPatch().Credit(res.Credited, res.Message, now)
}

// ApplySpinResult credits outcome to rec and prepends exactly one notification.
// rec is not modified; the updated copy is returned.
func ApplySpinResult(rec domain.LedgerRecord, outcome prize.Outcome, jackpotPayout int64, now time.Time) (domain.LedgerRecord, SpinResult) {
	res := ResolveSpin(outcome, jackpotPayout)
	next := rec.Clone()
	_ = SpinPatch(res, now).ApplyTo(&next) // credits never overdraw
	return next, res
}
