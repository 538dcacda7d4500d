package persist

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/kv"
)

// ErrClosed is returned by Flush when the writer stopped before the
// requested snapshots were settled.
var ErrClosed = errors.New("write queue closed")

// Stats counts what happened to submitted snapshots.
type Stats struct {
	Submitted uint64
	Written   uint64
	Skipped   uint64 // superseded before being written
	Failed    uint64
}

// Queue serializes writes of one key to a kv.Store.
type Queue struct {
	store  kv.Store
	key    string
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	pending    []byte
	pendingSeq uint64
	hasPending bool
	submitted  uint64
	settled    uint64
	progress   chan struct{}
	closed     bool
	stats      Stats
	lastErr    error
}

// NewQueue starts a writer for key. The writer keeps running when ctx is
// cancelled so that a final Close can still flush; only Close stops it.
func NewQueue(ctx context.Context, store kv.Store, key string, logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q := &Queue{
		store:    store,
		key:      key,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		progress: make(chan struct{}),
	}
	go q.run()
	return q
}

// Key returns the key the queue writes to.
func (q *Queue) Key() string {
	return q.key
}

// Submit enqueues a snapshot. It never blocks on the store.
func (q *Queue) Submit(data []byte) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("write queue closed, dropping snapshot", "key", q.key)
		return
	}
	q.submitted++
	q.stats.Submitted++
	if q.hasPending {
		q.stats.Skipped++
	}
	q.pending = data
	q.pendingSeq = q.submitted
	q.hasPending = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return
		}
		q.drain()
	}
}

// drain writes pending snapshots until none is left.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if !q.hasPending {
			q.mu.Unlock()
			return
		}
		data, seq := q.pending, q.pendingSeq
		q.pending = nil
		q.hasPending = false
		q.mu.Unlock()

		err := q.store.Set(q.ctx, q.key, string(data))

		q.mu.Lock()
		if err != nil {
			q.stats.Failed++
			q.lastErr = err
		} else {
			q.stats.Written++
		}
		q.settled = seq
		close(q.progress)
		q.progress = make(chan struct{})
		q.mu.Unlock()

		if err != nil {
			q.logger.Error("failed to persist tasks", "key", q.key, "err", err)
		} else {
			q.logger.Debug("persisted tasks", "key", q.key, "bytes", len(data), "seq", seq)
		}
	}
}

// Flush blocks until every snapshot submitted before the call has been
// written, failed, or been superseded, or until ctx ends.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.submitted
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if q.settled >= target {
			q.mu.Unlock()
			return nil
		}
		ch := q.progress
		q.mu.Unlock()

		select {
		case <-ch:
		case <-q.done:
			q.mu.Lock()
			settled := q.settled
			q.mu.Unlock()
			if settled >= target {
				return nil
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending snapshots and stops the writer. Snapshots
// submitted afterwards are dropped.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	err := q.Flush(ctx)
	q.cancel()
	<-q.done
	return err
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// LastError returns the most recent write error, if any.
func (q *Queue) LastError() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}
