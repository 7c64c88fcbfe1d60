package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// Intervals for the periodic sweeps.
type Intervals struct {
	Reconcile time.Duration
	Expire    time.Duration
}

// Setup creates a River client with the lifecycle workers registered and
// runs River's internal migrations. The sweep workers' Sweeper fields must
// be set before the caller invokes client.Start(); client.Stop() handles
// graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, recon *ReconcileWorker, expire *ExpireWorker, intervals Intervals) (*Client, error) {
	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{})
	river.AddWorker(workers, recon)
	river.AddWorker(workers, expire)

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(intervals.Reconcile),
				func() (river.JobArgs, *river.InsertOpts) {
					return ReconcileJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
			river.NewPeriodicJob(
				river.PeriodicInterval(intervals.Expire),
				func() (river.JobArgs, *river.InsertOpts) {
					return ExpireJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
