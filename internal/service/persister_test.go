package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/placement-api/internal/models"
)

type flakySnapshotWriter struct {
	mu       sync.Mutex
	failures int
	saved    []string
}

func (w *flakySnapshotWriter) Save(_ context.Context, changes models.ChangeSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return errors.New("connection reset")
	}
	for _, item := range changes.Internships {
		w.saved = append(w.saved, item.ID)
	}
	return nil
}

func (w *flakySnapshotWriter) ids() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.saved...)
}

type memoryActivityWriter struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (w *memoryActivityWriter) Insert(_ context.Context, entry models.ActivityLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func (w *memoryActivityWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func TestQueuedPersisterKeepsCommitOrderAcrossRetries(t *testing.T) {
	snapshots := &flakySnapshotWriter{failures: 2}
	activity := &memoryActivityWriter{}
	p := NewQueuedPersister(snapshots, activity, NewMetricsService(), zap.NewNop(), QueuedPersisterConfig{
		Retries:    3,
		RetryDelay: time.Millisecond,
	})
	p.Start(context.Background())

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, p.Persist(context.Background(), models.ChangeSet{Internships: []models.Internship{{ID: id}}}))
	}
	require.NoError(t, p.Record(context.Background(), models.ActivityLog{ID: "log-1"}))
	require.NoError(t, p.Persist(context.Background(), models.ChangeSet{}), "empty change sets are skipped")

	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, []string{"first", "second", "third"}, snapshots.ids())
	assert.Equal(t, 1, activity.count())

	p.Stop()
	assert.Error(t, p.Persist(context.Background(), models.ChangeSet{Internships: []models.Internship{{ID: "late"}}}))
}

func TestQueuedPersisterDropsAfterRetries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	snapshots := &flakySnapshotWriter{failures: 10}
	p := NewQueuedPersister(snapshots, nil, nil, zap.New(core), QueuedPersisterConfig{
		Retries:    1,
		RetryDelay: time.Millisecond,
	})
	p.Start(context.Background())

	require.NoError(t, p.Persist(context.Background(), models.ChangeSet{Internships: []models.Internship{{ID: "lost"}}}))
	require.NoError(t, p.Record(context.Background(), models.ActivityLog{ID: "ignored"}))
	p.Stop()

	assert.Empty(t, snapshots.ids())
	assert.Equal(t, 1, logs.FilterMessage("persistence write dropped").Len())
	assert.Equal(t, 1, logs.FilterMessage("persistence write failed, retrying").Len())
}

func TestQueuedPersisterRequiresStart(t *testing.T) {
	p := NewQueuedPersister(&flakySnapshotWriter{}, nil, nil, nil, QueuedPersisterConfig{})
	err := p.Persist(context.Background(), models.ChangeSet{Internships: []models.Internship{{ID: "x"}}})
	assert.Error(t, err)
}

func TestActivityFanoutJoinsErrors(t *testing.T) {
	ok := &recordingRecorder{}
	broken := &recordingRecorder{err: errors.New("kafka down")}
	fanout := ActivityFanout{ok, nil, broken}

	err := fanout.Record(context.Background(), models.ActivityLog{Action: models.ActionLogin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka down")
	assert.Len(t, ok.actions(), 1)
	assert.Len(t, broken.actions(), 1)

	assert.NoError(t, ActivityFanout{ok}.Record(context.Background(), models.ActivityLog{}))
	assert.NoError(t, NopPersister{}.Persist(context.Background(), models.ChangeSet{}))
}
