package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/jobs"
)

// persistJob carries exactly one of a change set or an activity row.
type persistJob struct {
	changes *models.ChangeSet
	entry   *models.ActivityLog
}

// NopPersister drops persistence signals. Used when the store is memory only.
type NopPersister struct{}

// Persist implements Persister.
func (NopPersister) Persist(context.Context, models.ChangeSet) error { return nil }

// SnapshotWriter saves change sets durably.
type SnapshotWriter interface {
	Save(ctx context.Context, changes models.ChangeSet) error
}

// ActivityWriter stores activity rows.
type ActivityWriter interface {
	Insert(ctx context.Context, entry models.ActivityLog) error
}

// QueuedPersisterConfig tunes write retries.
type QueuedPersisterConfig struct {
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// QueuedPersister writes change sets and activity rows off the request path.
// A single worker keeps writes in commit order; failed writes are retried
// inline so a later change set never overtakes an earlier one.
type QueuedPersister struct {
	snapshots SnapshotWriter
	activity  ActivityWriter
	metrics   *MetricsService
	logger    *zap.Logger
	queue     *jobs.Queue[persistJob]
	cfg       QueuedPersisterConfig
}

// NewQueuedPersister builds the persister. activity may be nil.
func NewQueuedPersister(snapshots SnapshotWriter, activity ActivityWriter, metrics *MetricsService, logger *zap.Logger, cfg QueuedPersisterConfig) *QueuedPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	p := &QueuedPersister{
		snapshots: snapshots,
		activity:  activity,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
	p.queue = jobs.New("persistence", p.handle, jobs.Config{
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return p
}

// Start launches the writer.
func (p *QueuedPersister) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop flushes buffered writes and stops the writer.
func (p *QueuedPersister) Stop() {
	p.queue.Stop()
}

// Persist implements Persister.
func (p *QueuedPersister) Persist(_ context.Context, changes models.ChangeSet) error {
	if changes.Empty() {
		return nil
	}
	return p.queue.Enqueue(persistJob{changes: &changes})
}

// Record implements ActivityRecorder.
func (p *QueuedPersister) Record(_ context.Context, entry models.ActivityLog) error {
	if p.activity == nil {
		return nil
	}
	return p.queue.Enqueue(persistJob{entry: &entry})
}

// Flush waits for every write accepted so far.
func (p *QueuedPersister) Flush(ctx context.Context) error {
	return p.queue.Flush(ctx)
}

func (p *QueuedPersister) handle(ctx context.Context, job persistJob) error {
	// In-flight writes finish even while the queue is shutting down.
	ctx = context.WithoutCancel(ctx)
	var op func() error
	var label string
	switch {
	case job.changes != nil:
		op = func() error { return p.snapshots.Save(ctx, *job.changes) }
		label = "snapshot_save"
	case job.entry != nil:
		op = func() error { return p.activity.Insert(ctx, *job.entry) }
		label = "activity_insert"
	default:
		return nil
	}

	start := time.Now()
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.RetryDelay), uint64(p.cfg.Retries)), ctx)
	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		p.logger.Warn("persistence write failed, retrying", zap.String("job", label), zap.Duration("wait", wait), zap.Error(err))
	})
	p.metrics.ObservePersistWrite(label, time.Since(start))
	if err != nil {
		p.logger.Error("persistence write dropped", zap.String("job", label), zap.Error(err))
	}
	return nil
}

// ActivityFanout forwards each entry to every recorder and joins their errors.
type ActivityFanout []ActivityRecorder

// Record implements ActivityRecorder.
func (f ActivityFanout) Record(ctx context.Context, entry models.ActivityLog) error {
	var errs []error
	for _, recorder := range f {
		if recorder == nil {
			continue
		}
		if err := recorder.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
