package ledger

import (
	"context"
	"time"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/present"
	"prize_wheel/internal/prize"
	"prize_wheel/internal/wheel"

	"github.com/sirupsen/logrus"
)

// RecordStore is the persistence collaborator for ledger records. Apply must
// be atomic per record so concurrent patches all land.
type RecordStore interface {
	Get(ctx context.Context, userID string) (*domain.LedgerRecord, error)
	Apply(ctx context.Context, userID string, patch domain.RecordPatch) (*domain.LedgerRecord, error)
}

// JackpotEngine owns the shared pool.
type JackpotEngine interface {
	Current(ctx context.Context) (domain.JackpotPool, error)
	Claim(ctx context.Context) (int64, domain.JackpotPool, error)
}

// Outbox takes writes that failed to persist.
type Outbox interface {
	Enqueue(ctx context.Context, userID string, patch domain.RecordPatch, cause error) error
}

// Deps wires a Service.
type Deps struct {
	Records         RecordStore
	Jackpot         JackpotEngine
	Table           *prize.Table
	Selector        *prize.Selector
	Outbox          Outbox // optional
	Log             logrus.FieldLogger
	NotificationCap int
}

// Mutation is the outcome of a ledger operation. PersistErr is set when the
// change could not be stored; Record still holds the applied change, which
// is what the user is shown.
type Mutation struct {
	Record     domain.LedgerRecord `json:"record"`
	Spin       *SpinResult         `json:"spin,omitempty"`
	Ignored    bool                `json:"ignored"`
	PersistErr error               `json:"-"`
}

// Persisted reports whether the change reached the store.
func (m *Mutation) Persisted() bool {
	return m.PersistErr == nil
}

// Service resolves spins and mutates ledger records.
type Service struct {
	records  RecordStore
	jackpot  JackpotEngine
	table    *prize.Table
	selector *prize.Selector
	outbox   Outbox
	sessions *Sessions
	log      logrus.FieldLogger
	cap      int
	now      func() time.Time
}

// NewService creates a ledger service.
func NewService(d Deps) *Service {
	if d.Table == nil {
		d.Table = prize.DefaultTable()
	}
	if d.Selector == nil {
		d.Selector = prize.NewSelector(nil)
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Service{
		records:  d.Records,
		jackpot:  d.Jackpot,
		table:    d.Table,
		selector: d.Selector,
		outbox:   d.Outbox,
		sessions: NewSessions(),
		log:      d.Log,
		cap:      d.NotificationCap,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Table returns the prize table.
func (s *Service) Table() *prize.Table {
	return s.table
}

// SpinState reports where the user's spin session is.
func (s *Service) SpinState(userID string) State {
	return s.sessions.State(userID)
}

// Record loads the stored record without touching the jackpot.
func (s *Service) Record(ctx context.Context, userID string) (*domain.LedgerRecord, error) {
	return s.records.Get(ctx, userID)
}

// Load returns the record with its jackpot mirror filled from the shared pool.
func (s *Service) Load(ctx context.Context, userID string) (*domain.LedgerRecord, error) {
	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fillJackpot(ctx, rec)
	return rec, nil
}

// FillJackpot sets the jackpot mirror on a record loaded elsewhere.
func (s *Service) FillJackpot(ctx context.Context, rec *domain.LedgerRecord) {
	s.fillJackpot(ctx, rec)
}

func (s *Service) fillJackpot(ctx context.Context, rec *domain.LedgerRecord) {
	pool, err := s.jackpot.Current(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": rec.UserID,
			"error":   err.Error(),
		}).Warn("Failed to read jackpot")
		return
	}
	rec.Jackpot = pool.Amount
}

// Apply writes patch to the user's record and returns the stored result.
// When the store fails, the patch is logged and queued in the outbox, and
// the returned record is fallback with the patch applied, which is what the
// user is shown; the store error is returned alongside it. Any other error
// is a rejection and nothing is written or queued.
func (s *Service) Apply(ctx context.Context, userID string, fallback domain.LedgerRecord, patch domain.RecordPatch) (domain.LedgerRecord, error) {
	if patch.Cap == 0 {
		patch.Cap = s.cap
	}
	rec, err := s.records.Apply(ctx, userID, patch)
	if err == nil {
		return *rec, nil
	}
	if !domain.IsStoreError(err) {
		return domain.LedgerRecord{}, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"patch_id": patch.ID,
		"error":    err.Error(),
	}).Error("Error updating ledger record")
	if s.outbox != nil {
		_ = s.outbox.Enqueue(ctx, userID, patch, err)
	}
	next := fallback.Clone()
	_ = patch.ApplyTo(&next)
	return next, err
}

// Spin resolves one spin for userID. A spin requested while another is in
// flight for the same user is ignored. The outcome is drawn before the
// jackpot is touched; only a jackpot draw claims the pool.
func (s *Service) Spin(ctx context.Context, userID string, sink present.Sink) (*Mutation, error) {
	if sink == nil {
		sink = present.Discard{}
	}
	sess := s.sessions.Acquire(userID)
	defer s.sessions.Release(userID)
	if !sess.Begin() {
		s.log.WithField("user_id", userID).Debug("Spin already in progress, ignoring")
		return &Mutation{Ignored: true}, nil
	}
	defer sess.End()

	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := s.table.Entries()
	idx, outcome := s.selector.SelectIndex(entries)

	var payout int64
	var pool domain.JackpotPool
	if outcome.IsJackpot {
		payout, pool, err = s.jackpot.Claim(ctx)
	} else {
		pool, err = s.jackpot.Current(ctx)
	}
	if err != nil {
		return nil, err
	}

	res := ResolveSpin(outcome, payout)
	res.Index = idx
	sess.Resolve(res)

	next, persistErr := s.Apply(ctx, userID, *rec, SpinPatch(res, s.now()))
	if persistErr != nil && !domain.IsStoreError(persistErr) {
		return nil, persistErr
	}
	next.Jackpot = pool.Amount

	s.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"outcome":       outcome.Label,
		"credited":      res.Credited,
		"jackpot":       res.Jackpot,
		"empty_jackpot": res.EmptyJackpot,
		"balance":       next.Balance,
		"persisted":     persistErr == nil,
	}).Info("Spin resolved")

	sink.SpinEvent(present.SpinEvent{
		Index:          idx,
		Label:          outcome.Label,
		Credited:       res.Credited,
		Jackpot:        res.Jackpot,
		EmptyJackpot:   res.EmptyJackpot,
		TargetRotation: wheel.TargetRotation(idx, len(entries), wheel.DefaultTurns),
		Duration:       wheel.DefaultDuration,
	})
	sink.Render(next)
	sink.Message("Spin Result", res.Message, 0)

	return &Mutation{Record: next, Spin: &res, PersistErr: persistErr}, nil
}

// ClearNotifications empties the user's notification log.
func (s *Service) ClearNotifications(ctx context.Context, userID string, sink present.Sink) (*Mutation, error) {
	if sink == nil {
		sink = present.Discard{}
	}
	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch := domain.NewPatch()
	patch.Clear = true
	next, persistErr := s.Apply(ctx, userID, *rec, patch)
	if persistErr != nil && !domain.IsStoreError(persistErr) {
		return nil, persistErr
	}
	s.fillJackpot(ctx, &next)
	sink.Render(next)
	return &Mutation{Record: next, PersistErr: persistErr}, nil
}
