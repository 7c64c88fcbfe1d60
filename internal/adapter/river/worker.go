package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// EventWorker processes lifecycle event jobs from the River queue.
// For now it logs the event; future versions will dispatch to
// webhooks or notification systems.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing lifecycle event",
		"event", job.Args.Event,
		"entity", job.Args.Entity,
		"entity_id", job.Args.EntityID,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// Sweeper is the slice of the coordinator the periodic workers drive.
// Declared here so the adapter depends on behavior, not the app package.
type Sweeper interface {
	Reconcile(ctx context.Context) (int, error)
	ExpireContracts(ctx context.Context, asOf time.Time) (int, error)
}

// ReconcileJobArgs triggers one reconciliation sweep over stale payments.
type ReconcileJobArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (ReconcileJobArgs) Kind() string { return "payment.reconcile" }

// ReconcileWorker re-drives interrupted payment cascades. The sweep itself
// is idempotent, so overlapping or retried runs are harmless.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJobArgs]

	// Sweeper is set after the coordinator is constructed, before the
	// River client starts.
	Sweeper Sweeper
}

// Work runs one reconciliation sweep.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJobArgs]) error {
	n, err := w.Sweeper.Reconcile(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "reconciliation sweep completed",
			"redriven", n, "job_id", job.ID)
	}
	return nil
}

// ExpireJobArgs triggers one sweep over contracts whose end date elapsed.
type ExpireJobArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (ExpireJobArgs) Kind() string { return "contract.expire" }

// ExpireWorker closes elapsed contracts and releases their rooms.
type ExpireWorker struct {
	river.WorkerDefaults[ExpireJobArgs]

	Sweeper Sweeper
}

// Work runs one contract-expiry sweep.
func (w *ExpireWorker) Work(ctx context.Context, job *river.Job[ExpireJobArgs]) error {
	n, err := w.Sweeper.ExpireContracts(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "contract expiry sweep completed",
			"expired", n, "job_id", job.ID)
	}
	return nil
}
