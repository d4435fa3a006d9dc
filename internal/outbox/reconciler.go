package outbox

import (
	"context"
	"errors"
	"time"

	"prize_wheel/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// DefaultMaxAttempts is used when the reconciler is built with a non-positive limit.
const DefaultMaxAttempts = 10

// AppliedRetention is how long applied patch IDs are remembered. It must
// outlive any pending write, which is bounded by max attempts times the
// drain interval.
const AppliedRetention = 24 * time.Hour

// Records is the store the reconciler replays into.
type Records interface {
	Apply(ctx context.Context, userID string, patch domain.RecordPatch) (*domain.LedgerRecord, error)
	PruneApplied(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stats summarises one drain pass.
type Stats struct {
	Applied   int `json:"applied"`
	Duplicate int `json:"duplicate"`
	Requeued  int `json:"requeued"`
	Dropped   int `json:"dropped"`
}

// Reconciler replays queued writes.
type Reconciler struct {
	queue       Queue
	records     Records
	maxAttempts int
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewReconciler creates a reconciler.
func NewReconciler(queue Queue, records Records, maxAttempts int, log logrus.FieldLogger) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{queue: queue, records: records, maxAttempts: maxAttempts, now: time.Now, log: log}
}

// Queue exposes the underlying queue.
func (r *Reconciler) Queue() Queue {
	return r.queue
}

// Enqueue records a failed write for later replay.
func (r *Reconciler) Enqueue(ctx context.Context, userID string, patch domain.RecordPatch, cause error) error {
	w := PendingWrite{UserID: userID, Patch: patch, Attempts: 1, EnqueuedAt: r.now()}
	if cause != nil {
		w.LastError = cause.Error()
	}
	if err := r.queue.Push(ctx, w); err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to enqueue pending write, change is lost")
		return err
	}
	r.log.WithFields(logrus.Fields{
		"user_id": userID,
		"cause":   w.LastError,
	}).Warn("Record write queued for retry")
	return nil
}

// Drain makes one pass over the entries queued when it started. Patches are
// deltas applied under the record lock, so a replay lands on top of whatever
// changed since it was queued. A patch the store already holds is counted as
// a duplicate and not applied twice.
func (r *Reconciler) Drain(ctx context.Context) (Stats, error) {
	var stats Stats
	n, err := r.queue.Len(ctx)
	if err != nil {
		return stats, err
	}
	for i := int64(0); i < n; i++ {
		w, ok, err := r.queue.Pop(ctx)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		fields := logrus.Fields{"user_id": w.UserID, "attempts": w.Attempts, "patch_id": w.Patch.ID}

		_, err = r.records.Apply(ctx, w.UserID, w.Patch)
		var short *domain.InsufficientBalanceError
		switch {
		case err == nil:
			stats.Applied++
			r.log.WithFields(fields).Info("Pending write applied")
		case errors.Is(err, domain.ErrAlreadyApplied):
			stats.Duplicate++
			r.log.WithFields(fields).Warn("Pending write was already applied")
		case errors.Is(err, domain.ErrNotFound):
			stats.Dropped++
			r.log.WithFields(fields).Error("Dropping pending write for missing record")
		case errors.As(err, &short):
			stats.Dropped++
			fields["balance"] = short.Balance
			fields["required"] = short.Required
			r.log.WithFields(fields).Error("Dropping pending debit the balance no longer covers")
		default:
			r.retry(ctx, w, err, &stats)
		}
	}
	return stats, nil
}

// Prune forgets applied patch IDs older than AppliedRetention.
func (r *Reconciler) Prune(ctx context.Context) (int64, error) {
	return r.records.PruneApplied(ctx, r.now().Add(-AppliedRetention))
}

func (r *Reconciler) retry(ctx context.Context, w PendingWrite, cause error, stats *Stats) {
	w.Attempts++
	w.LastError = cause.Error()
	fields := logrus.Fields{"user_id": w.UserID, "attempts": w.Attempts, "error": w.LastError}
	if w.Attempts > r.maxAttempts {
		stats.Dropped++
		r.log.WithFields(fields).Error("Pending write exceeded max attempts, dropping")
		return
	}
	if err := r.queue.Push(ctx, w); err != nil {
		stats.Dropped++
		fields["push_error"] = err.Error()
		r.log.WithFields(fields).Error("Failed to requeue pending write")
		return
	}
	stats.Requeued++
}

// Start schedules Drain every interval and Prune hourly, then starts the
// scheduler. The caller shuts it down with Shutdown.
func (r *Reconciler) Start(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			stats, err := r.Drain(context.Background())
			if err != nil {
				r.log.WithField("error", err.Error()).Error("Outbox drain failed")
				return
			}
			if stats != (Stats{}) {
				r.log.WithFields(logrus.Fields{
					"applied":   stats.Applied,
					"duplicate": stats.Duplicate,
					"requeued":  stats.Requeued,
					"dropped":   stats.Dropped,
				}).Info("Outbox drained")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			n, err := r.Prune(context.Background())
			if err != nil {
				r.log.WithField("error", err.Error()).Warn("Pruning applied writes failed")
				return
			}
			if n > 0 {
				r.log.WithField("pruned", n).Debug("Applied writes pruned")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
