// Package store owns the in-memory task collection and persists it after
// every mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/persist"
	"github.com/nibzard/todo-go/internal/todo"
)

// DefaultKey is the key the collection is saved under.
const DefaultKey = "toDos"

// Option configures a Store.
type Option func(*options)

type options struct {
	key    string
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// WithKey sets the key the collection is saved under.
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets the logger for load and write failures.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDFunc sets the id generator for new tasks.
func WithIDFunc(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// Store holds the task collection. It is safe for concurrent use.
type Store struct {
	backend kv.Store
	queue   *persist.Queue
	key     string
	logger  *log.Logger
	now     func() time.Time
	newID   func() string

	mu      sync.RWMutex
	tasks   *todo.Collection
	ready   bool
	loadErr error
}

// New returns an empty, not yet ready store backed by backend.
// The store takes ownership of backend and closes it in Close.
func New(ctx context.Context, backend kv.Store, opts ...Option) *Store {
	o := options{
		key:    DefaultKey,
		logger: log.New(io.Discard),
		now:    time.Now,
		newID:  todo.NewID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		backend: backend,
		queue:   persist.NewQueue(ctx, backend, o.key, o.logger),
		key:     o.key,
		logger:  o.logger,
		now:     o.now,
		newID:   o.newID,
		tasks:   todo.NewCollection(),
	}
}

// Key returns the key the collection is saved under.
func (s *Store) Key() string {
	return s.key
}

// Load reads the saved collection and marks the store ready. A missing or
// undecodable value leaves the collection empty; the error is only logged.
//
// When the backend itself cannot be read, or ctx is already done, the
// collection also starts empty but LoadErr reports the failure and
// mutations stay in memory: saving would overwrite data that was never
// seen.
func (s *Store) Load(ctx context.Context) {
	tasks, readErr := s.read(ctx)

	s.mu.Lock()
	s.tasks = tasks
	s.loadErr = readErr
	s.ready = true
	s.mu.Unlock()

	s.logger.Debug("loaded tasks", "key", s.key, "count", tasks.Len())
}

// read returns the saved collection. Only backend failures are returned as
// errors; an undecodable value is logged and yields an empty collection.
func (s *Store) read(ctx context.Context) (*todo.Collection, error) {
	value, ok, err := "", false, ctx.Err()
	if err == nil {
		value, ok, err = s.backend.Get(ctx, s.key)
	}
	if err != nil {
		s.logger.Error("failed to read tasks, changes will not be saved", "key", s.key, "err", err)
		return todo.NewCollection(), fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok {
		return todo.NewCollection(), nil
	}
	tasks, err := todo.Decode([]byte(value))
	if err != nil {
		s.logger.Error("failed to load tasks, starting empty", "key", s.key, "err", err)
		return todo.NewCollection(), nil
	}
	return tasks, nil
}

// LoadErr returns the backend read error of the last Load, if any.
// Undecodable values are not reported here.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Ready reports whether Load has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Add creates an incomplete task with text. Text that is blank after
// trimming is ignored and ok is false.
func (s *Store) Add(text string) (task todo.Task, ok bool) {
	if strings.TrimSpace(text) == "" {
		return todo.Task{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task = todo.NewTask(s.newID(), text, s.now())
	s.tasks.Put(task)
	s.persistLocked()
	return task, true
}

// Delete removes the task with id. It reports whether the task existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tasks.Delete(id) {
		return false
	}
	s.persistLocked()
	return true
}

// SetCompleted sets the completion flag of the task with id.
func (s *Store) SetCompleted(id string, completed bool) bool {
	return s.update(id, func(t *todo.Task) {
		t.IsCompleted = completed
	})
}

// SetText replaces the text of the task with id.
func (s *Store) SetText(id, text string) bool {
	return s.update(id, func(t *todo.Task) {
		t.Text = text
	})
}

func (s *Store) update(id string, fn func(*todo.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tasks.Update(id, fn) {
		return false
	}
	s.persistLocked()
	return true
}

// persistLocked hands the whole collection to the write queue. Submitting
// under the lock keeps snapshots in mutation order. Nothing is saved after
// a failed read.
func (s *Store) persistLocked() {
	if s.loadErr != nil {
		s.logger.Warn("not saving tasks, saved value could not be read", "key", s.key)
		return
	}
	data, err := todo.Encode(s.tasks)
	if err != nil {
		s.logger.Error("failed to encode tasks", "key", s.key, "err", err)
		return
	}
	s.queue.Submit(data)
}

// Get returns the task with id.
func (s *Store) Get(id string) (todo.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Get(id)
}

// Tasks returns the tasks in display order.
func (s *Store) Tasks() []todo.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Tasks()
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Len()
}

// Snapshot returns an independent copy of the collection.
func (s *Store) Snapshot() *todo.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Clone()
}

// Flush waits until every mutation so far has been handed to the backend.
func (s *Store) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// WriteStats reports what the write queue did with submitted snapshots.
func (s *Store) WriteStats() persist.Stats {
	return s.queue.Stats()
}

// LastWriteError returns the most recent failed write, if any.
func (s *Store) LastWriteError() error {
	return s.queue.LastError()
}

// Close flushes pending writes and closes the backend.
func (s *Store) Close(ctx context.Context) error {
	qerr := s.queue.Close(ctx)
	if qerr != nil {
		qerr = fmt.Errorf("flush tasks: %w", qerr)
	}
	berr := s.backend.Close()
	if berr != nil {
		berr = fmt.Errorf("close storage: %w", berr)
	}
	return errors.Join(qerr, berr)
}
