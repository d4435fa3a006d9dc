package withdrawal

import (
	"fmt"
	"strings"

	"prize_wheel/internal/domain"
)

// Request is a withdrawal as submitted by the user.
type Request struct {
	AmountRequested     int64  `json:"amount_requested"`
	RewardAccountHandle string `json:"reward_account_handle"`
}

// Validation is the result of checking a request. Err is nil when the
// request may be executed.
type Validation struct {
	Required       int64
	GamepassAmount int64
	Handle         string
	Err            error
}

// Validate checks req against the record's balance. Rules run in order and
// the first failure wins: minimum amount, handle, balance.
func (p Policy) Validate(req Request, rec domain.LedgerRecord) Validation {
	if req.AmountRequested < p.MinAmount {
		return Validation{Err: &domain.ValidationError{
			Reason:  domain.ReasonInvalidAmount,
			Message: fmt.Sprintf("The minimum withdrawal amount is %d Robux.", p.MinAmount),
		}}
	}
	handle := strings.TrimSpace(req.RewardAccountHandle)
	if handle == "" {
		return Validation{Err: &domain.ValidationError{
			Reason:  domain.ReasonInvalidHandle,
			Message: "Please enter your Roblox username.",
		}}
	}
	v := Validation{
		Required:       p.Required(req.AmountRequested),
		GamepassAmount: p.GamepassAmount(req.AmountRequested),
		Handle:         handle,
	}
	if rec.Balance < v.Required {
		v.Err = &domain.InsufficientBalanceError{Required: v.Required, Balance: rec.Balance}
	}
	return v
}
