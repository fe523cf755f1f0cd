// Package jobs moves work off the request path.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("queue not running")

// Handler processes one item. A returned error is logged; the item is not retried.
type Handler[T any] func(ctx context.Context, item T) error

// Config tunes a queue.
type Config struct {
	BufferSize int
	Logger     *zap.Logger
}

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

// Queue hands items to a single consumer goroutine in the order Enqueue
// accepted them. Stop runs everything still buffered before returning.
type Queue[T any] struct {
	name   string
	handle Handler[T]
	logger *zap.Logger
	items  chan T

	mu    sync.RWMutex
	state int
	stop  chan struct{}
	done  chan struct{}

	progressMu sync.Mutex
	accepted   uint64
	handled    uint64
	tick       chan struct{}
}

// New builds a queue named name that feeds handle.
func New[T any](name string, handle Handler[T], cfg Config) *Queue[T] {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:   name,
		handle: handle,
		logger: cfg.Logger.With(zap.String("queue", name)),
		items:  make(chan T, cfg.BufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		tick:   make(chan struct{}),
	}
}

// Start launches the consumer. ctx is handed to the handler; cancelling it
// does not stop the queue.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.state = stateRunning
	go q.consume(ctx)
	q.logger.Info("queue started")
}

// Stop rejects new items, runs the buffered ones and waits for the consumer.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateStopped
	close(q.stop)
	q.mu.Unlock()

	<-q.done
	q.logger.Info("queue stopped", zap.Uint64("handled", q.Handled()))
}

// Enqueue appends item. It blocks while the buffer is full.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}

	q.progressMu.Lock()
	q.accepted++
	q.progressMu.Unlock()
	q.items <- item
	return nil
}

// Flush waits until every item accepted before the call has been handled.
func (q *Queue[T]) Flush(ctx context.Context) error {
	q.progressMu.Lock()
	target := q.accepted
	q.progressMu.Unlock()

	for {
		q.progressMu.Lock()
		reached, tick := q.handled >= target, q.tick
		q.progressMu.Unlock()
		if reached {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
}

// Pending reports the number of buffered items.
func (q *Queue[T]) Pending() int {
	return len(q.items)
}

// Handled reports how many items the consumer has finished.
func (q *Queue[T]) Handled() uint64 {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	return q.handled
}

func (q *Queue[T]) consume(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case item := <-q.items:
			q.run(ctx, item)
		case <-q.stop:
			for {
				select {
				case item := <-q.items:
					q.run(ctx, item)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue[T]) run(ctx context.Context, item T) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", zap.Any("panic", r))
		}
		q.progressMu.Lock()
		q.handled++
		close(q.tick)
		q.tick = make(chan struct{})
		q.progressMu.Unlock()
	}()
	if err := q.handle(ctx, item); err != nil {
		q.logger.Error("job failed", zap.Error(err))
	}
}
