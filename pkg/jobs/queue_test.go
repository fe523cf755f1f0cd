package jobs

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
)

type collector struct {
	mu   sync.Mutex
	seen []int
}

func (c *collector) handle(_ context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, n)
	return nil
}

func (c *collector) items() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.seen...)
}

func TestQueueKeepsEnqueueOrder(t *testing.T) {
	c := &collector{}
	q := New("ordered", c.handle, Config{BufferSize: 4})
	q.Start(context.Background())

	want := make([]int, 0, 50)
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(i))
		want = append(want, i)
	}
	q.Stop()

	assert.Equal(t, want, c.items())
	assert.EqualValues(t, 50, q.Handled())
}

func TestQueueFlushWaitsForAcceptedItems(t *testing.T) {
	release := make(chan struct{})
	c := &collector{}
	q := New("flush", func(ctx context.Context, n int) error {
		<-release
		return c.handle(ctx, n)
	}, Config{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, []int{1, 2}, c.items())
}

func TestQueueRejectsOutsideRunningState(t *testing.T) {
	q := New("idle", func(context.Context, int) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue(1), ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(2), ErrNotRunning)
}

func TestQueueLogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	q := New("faulty", func(_ context.Context, n int) error {
		if n == 1 {
			return errors.New("disk full")
		}
		panic("boom")
	}, Config{Logger: zap.New(core)})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	q.Stop()

	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("job panicked").Len())
	assert.EqualValues(t, 2, q.Handled())
}
