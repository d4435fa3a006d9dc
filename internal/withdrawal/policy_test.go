package withdrawal

import (
	"errors"
	"testing"

	"prize_wheel/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMinimumAmount(t *testing.T) {
	p := DefaultPolicy()
	rec := domain.LedgerRecord{Balance: 100000}

	v := p.Validate(Request{AmountRequested: 6, RewardAccountHandle: "bob"}, rec)
	var verr *domain.ValidationError
	require.True(t, errors.As(v.Err, &verr))
	assert.Equal(t, domain.ReasonInvalidAmount, verr.Reason)

	v = p.Validate(Request{AmountRequested: 7, RewardAccountHandle: "bob"}, rec)
	assert.NoError(t, v.Err)
}

func TestValidateHandle(t *testing.T) {
	p := DefaultPolicy()
	v := p.Validate(Request{AmountRequested: 7, RewardAccountHandle: "   "}, domain.LedgerRecord{Balance: 700})
	var verr *domain.ValidationError
	require.True(t, errors.As(v.Err, &verr))
	assert.Equal(t, domain.ReasonInvalidHandle, verr.Reason)
	assert.Equal(t, domain.CodeInvalidHandle, domain.CodeOf(v.Err))

	v = p.Validate(Request{AmountRequested: 7, RewardAccountHandle: "  bob "}, domain.LedgerRecord{Balance: 700})
	require.NoError(t, v.Err)
	assert.Equal(t, "bob", v.Handle)
}

func TestValidateRuleOrder(t *testing.T) {
	p := DefaultPolicy()
	// below minimum, empty handle and broke: the amount rule reports first
	v := p.Validate(Request{AmountRequested: 1}, domain.LedgerRecord{})
	var verr *domain.ValidationError
	require.True(t, errors.As(v.Err, &verr))
	assert.Equal(t, domain.ReasonInvalidAmount, verr.Reason)

	v = p.Validate(Request{AmountRequested: 7}, domain.LedgerRecord{})
	require.True(t, errors.As(v.Err, &verr))
	assert.Equal(t, domain.ReasonInvalidHandle, verr.Reason)
}

func TestValidateInsufficientBalance(t *testing.T) {
	p := DefaultPolicy()
	v := p.Validate(Request{AmountRequested: 7, RewardAccountHandle: "bob"}, domain.LedgerRecord{Balance: 600})

	var ib *domain.InsufficientBalanceError
	require.True(t, errors.As(v.Err, &ib))
	assert.Equal(t, int64(700), ib.Required)
	assert.Equal(t, int64(100), ib.Deficit())
	assert.Equal(t, domain.CodeInsufficientBalance, domain.CodeOf(v.Err))
	assert.Contains(t, ib.Error(), "short by 100 XD")

	v = p.Validate(Request{AmountRequested: 7, RewardAccountHandle: "bob"}, domain.LedgerRecord{Balance: 700})
	require.NoError(t, v.Err)
	assert.Equal(t, int64(700), v.Required)
	assert.Equal(t, int64(12), v.GamepassAmount)
}

func TestGamepassAmount(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, int64(12), p.GamepassAmount(7))
	assert.Equal(t, int64(10), p.GamepassAmount(6))
	assert.Equal(t, int64(17), p.GamepassAmount(10))
	assert.Equal(t, int64(167), p.GamepassAmount(100))
	assert.Zero(t, p.GamepassAmount(0))
}

func TestReferralBonus(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, int64(70), p.ReferralBonus(700))
	assert.Equal(t, int64(1000), p.ReferralBonus(10000))
}

func TestQuote(t *testing.T) {
	p := DefaultPolicy()

	q := p.Quote(7, 650)
	assert.Equal(t, Quote{Amount: 7, Required: 700, GamepassAmount: 12, Balance: 650}, q)

	q = p.Quote(8, 800)
	assert.True(t, q.Affordable)
	assert.Equal(t, int64(800), q.Required)

	q = p.Quote(3, 5000)
	assert.Equal(t, Quote{Amount: 3, Balance: 5000}, q)
}
