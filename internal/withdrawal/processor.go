package withdrawal

import (
	"context"
	"fmt"
	"time"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/present"

	"github.com/sirupsen/logrus"
)

// Ledger is what the processor needs from the ledger service. Apply writes
// a patch atomically; on a store failure it returns fallback with the patch
// applied together with the *domain.StoreError.
type Ledger interface {
	Record(ctx context.Context, userID string) (*domain.LedgerRecord, error)
	Apply(ctx context.Context, userID string, fallback domain.LedgerRecord, patch domain.RecordPatch) (domain.LedgerRecord, error)
}

// Confirmation reports an executed withdrawal.
type Confirmation struct {
	Amount           int64               `json:"amount"`
	Handle           string              `json:"handle"`
	Deducted         int64               `json:"deducted"`
	GamepassAmount   int64               `json:"gamepass_amount"`
	ReferralBonus    int64               `json:"referral_bonus"`
	ReferrerCredited bool                `json:"referrer_credited"`
	Record           domain.LedgerRecord `json:"record"`
	PersistErr       error               `json:"-"`
}

// Processor executes withdrawals.
type Processor struct {
	policy Policy
	ledger Ledger
	cap    int
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewProcessor creates a processor. notificationCap <= 0 leaves logs unbounded.
func NewProcessor(policy Policy, ledger Ledger, notificationCap int, log logrus.FieldLogger) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{policy: policy, ledger: ledger, cap: notificationCap, now: time.Now, log: log}
}

// WithClock overrides the time source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Policy returns the policy in force.
func (p *Processor) Policy() Policy {
	return p.policy
}

// Quote loads the user's balance and previews amount.
func (p *Processor) Quote(ctx context.Context, userID string, amount int64) (Quote, error) {
	rec, err := p.ledger.Record(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	return p.policy.Quote(amount, rec.Balance), nil
}

// DebitPatch deducts a validated withdrawal and adds the request
// notification. The debit is refused at write time if the balance no longer
// covers it.
func DebitPatch(amount int64, v Validation, now time.Time) domain.RecordPatch {
	p := domain.NewPatch().Credit(-v.Required,
		fmt.Sprintf("Withdrawal request for %d RBX submitted for Roblox user %q. A total of %d XD was deducted.",
			amount, v.Handle, v.Required), now)
	p.NoOverdraft = true
	return p
}

// ReferralPatch credits bonus to a referrer with the bonus notification.
func ReferralPatch(bonus int64, now time.Time) domain.RecordPatch {
	return domain.NewPatch().Credit(bonus,
		fmt.Sprintf("Referral bonus! You received %d XD from a withdrawal by a user you referred.", bonus), now)
}

// Execute validates and applies req to the user's record. Validation runs on
// a snapshot first; the debit itself is re-checked under the record lock, so
// two withdrawals racing for one balance cannot both pass. The primary record
// is written first; the referral bonus is a separate best-effort write that
// is skipped when the referrer cannot be loaded. A failed primary write is
// reported in PersistErr, not as an error.
func (p *Processor) Execute(ctx context.Context, userID string, req Request, sink present.Sink) (*Confirmation, error) {
	if sink == nil {
		sink = present.Discard{}
	}
	rec, err := p.ledger.Record(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := p.policy.Validate(req, *rec)
	if v.Err != nil {
		return nil, p.reject(userID, req, v.Err, sink)
	}

	now := p.now()
	patch := DebitPatch(req.AmountRequested, v, now)
	patch.Cap = p.cap
	next, err := p.ledger.Apply(ctx, userID, *rec, patch)
	if err != nil && !domain.IsStoreError(err) {
		return nil, p.reject(userID, req, err, sink)
	}
	conf := &Confirmation{
		Amount:         req.AmountRequested,
		Handle:         v.Handle,
		Deducted:       v.Required,
		GamepassAmount: v.GamepassAmount,
		PersistErr:     err,
	}

	p.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    req.AmountRequested,
		"deducted":  v.Required,
		"gamepass":  v.GamepassAmount,
		"balance":   next.Balance,
		"persisted": conf.PersistErr == nil,
	}).Info("Withdrawal executed")

	if next.ReferredBy != nil && *next.ReferredBy != "" {
		p.creditReferrer(ctx, userID, *next.ReferredBy, v.Required, now, conf)
	}

	conf.Record = next
	sink.Render(next)
	sink.Message("Withdrawal Submitted", next.Notifications[0].Message, 0)
	return conf, nil
}

func (p *Processor) reject(userID string, req Request, err error, sink present.Sink) error {
	p.log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  req.AmountRequested,
		"reason":  err.Error(),
	}).Info("Withdrawal rejected")
	sink.Message("Withdrawal", err.Error(), 0)
	return err
}

func (p *Processor) creditReferrer(ctx context.Context, userID, referrerID string, required int64, now time.Time, conf *Confirmation) {
	fields := logrus.Fields{"user_id": userID, "referrer_id": referrerID}
	bonus := p.policy.ReferralBonus(required)
	if bonus <= 0 {
		return
	}
	ref, err := p.ledger.Record(ctx, referrerID)
	if err != nil {
		fields["error"] = err.Error()
		p.log.WithFields(fields).Warn("Referrer lookup failed, skipping referral bonus")
		return
	}
	patch := ReferralPatch(bonus, now)
	patch.Cap = p.cap
	_, err = p.ledger.Apply(ctx, referrerID, *ref, patch)
	if err != nil && !domain.IsStoreError(err) {
		fields["error"] = err.Error()
		p.log.WithFields(fields).Warn("Referrer vanished, skipping referral bonus")
		return
	}
	conf.ReferralBonus = bonus
	conf.ReferrerCredited = true
	if err != nil {
		fields["error"] = err.Error()
		p.log.WithFields(fields).Warn("Referral bonus credited but not persisted")
		return
	}
	fields["bonus"] = bonus
	p.log.WithFields(fields).Info("Referral bonus credited")
}
