// Package withdrawal converts XD balance into a Robux redemption request.
package withdrawal

import "math"

// Policy holds the withdrawal parameters.
type Policy struct {
	MinAmount         int64   `json:"min_amount"`          // Smallest Robux amount that can be requested
	ExchangeRate      int64   `json:"exchange_rate"`       // XD per Robux
	FeeRate           float64 `json:"fee_rate"`            // Platform fee taken from the gamepass price
	ReferralBonusRate float64 `json:"referral_bonus_rate"` // Share of the deduction paid to the referrer
}

// DefaultPolicy returns the reference withdrawal policy.
func DefaultPolicy() Policy {
	return Policy{
		MinAmount:         7,
		ExchangeRate:      100,
		FeeRate:           0.40,
		ReferralBonusRate: 0.10,
	}
}

// Required is the XD deducted for amount Robux.
func (p Policy) Required(amount int64) int64 {
	return amount * p.ExchangeRate
}

// GamepassAmount is the price the user must put on the gamepass so that,
// after the platform fee, amount Robux arrive.
func (p Policy) GamepassAmount(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if p.FeeRate <= 0 || p.FeeRate >= 1 {
		return amount
	}
	raw := float64(amount) / (1 - p.FeeRate)
	// 7/0.6 is 11.666..., but 6/0.6 must stay 10 rather than float noise above it
	return int64(math.Ceil(raw - 1e-9))
}

// ReferralBonus is the referrer's share of a deduction.
func (p Policy) ReferralBonus(required int64) int64 {
	return int64(math.Round(float64(required) * p.ReferralBonusRate))
}

// Quote previews a withdrawal for the request form.
type Quote struct {
	Amount         int64 `json:"amount"`
	Required       int64 `json:"required"`
	GamepassAmount int64 `json:"gamepass_amount"`
	Balance        int64 `json:"balance"`
	Affordable     bool  `json:"affordable"`
}

// Quote computes the deduction and gamepass amount for amount against
// balance. Amounts below the minimum quote zeros.
func (p Policy) Quote(amount, balance int64) Quote {
	q := Quote{Amount: amount, Balance: balance}
	if amount < p.MinAmount {
		return q
	}
	q.Required = p.Required(amount)
	q.GamepassAmount = p.GamepassAmount(amount)
	q.Affordable = balance >= q.Required
	return q
}
