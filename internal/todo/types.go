package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxCreatedAt is the largest createdAt accepted, in unix milliseconds.
// It matches the schema's maximum.
const MaxCreatedAt = 8640000000000000

// Task represents a single to-do item.
type Task struct {
	ID          string
	Text        string
	IsCompleted bool
	CreatedAt   time.Time
}

// taskJSON is the persisted shape of a task.
type taskJSON struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	IsCompleted bool    `json:"isCompleted"`
	CreatedAt   float64 `json:"createdAt"`
}

// NewTask returns an incomplete task created at now.
// The timestamp is truncated to the millisecond precision it is stored with.
func NewTask(id, text string, now time.Time) Task {
	return Task{
		ID:        id,
		Text:      text,
		CreatedAt: time.UnixMilli(now.UnixMilli()),
	}
}

// IsZero returns true if the task is empty (has no ID).
func (t Task) IsZero() bool {
	return t.ID == ""
}

// Equal reports whether two tasks hold the same values.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.Text == other.Text &&
		t.IsCompleted == other.IsCompleted &&
		t.CreatedAt.Equal(other.CreatedAt)
}

// MarshalJSON writes the task with createdAt in unix milliseconds.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string `json:"id"`
		Text        string `json:"text"`
		IsCompleted bool   `json:"isCompleted"`
		CreatedAt   int64  `json:"createdAt"`
	}{
		ID:          t.ID,
		Text:        t.Text,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads a task written by MarshalJSON.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.CreatedAt < 0 || raw.CreatedAt > MaxCreatedAt || raw.CreatedAt != math.Trunc(raw.CreatedAt) {
		return fmt.Errorf("createdAt %v is not a unix millisecond timestamp", raw.CreatedAt)
	}
	t.ID = raw.ID
	t.Text = raw.Text
	t.IsCompleted = raw.IsCompleted
	t.CreatedAt = time.UnixMilli(int64(raw.CreatedAt))
	return nil
}

// Collection maps task ids to tasks and remembers insertion order.
// The zero value is an empty collection ready to use.
type Collection struct {
	order []string
	tasks map[string]Task
}

// NewCollection returns a collection holding tasks in the given order.
func NewCollection(tasks ...Task) *Collection {
	c := &Collection{}
	for _, t := range tasks {
		c.Put(t)
	}
	return c
}

// Len returns the number of tasks.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get returns the task with id.
func (c *Collection) Get(id string) (Task, bool) {
	if c == nil || c.tasks == nil {
		return Task{}, false
	}
	t, ok := c.tasks[id]
	return t, ok
}

// Has reports whether a task with id exists.
func (c *Collection) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Put inserts the task, or replaces it in place when its id is present.
func (c *Collection) Put(t Task) {
	if c.tasks == nil {
		c.tasks = make(map[string]Task)
	}
	if _, ok := c.tasks[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.tasks[t.ID] = t
}

// Delete removes the task with id and reports whether it was present.
func (c *Collection) Delete(id string) bool {
	if c == nil || c.tasks == nil {
		return false
	}
	if _, ok := c.tasks[id]; !ok {
		return false
	}
	delete(c.tasks, id)
	for i, key := range c.order {
		if key == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Update applies fn to the task with id. It returns false if id is absent.
// The id is restored after fn runs so keys always match ids.
func (c *Collection) Update(id string, fn func(*Task)) bool {
	t, ok := c.Get(id)
	if !ok {
		return false
	}
	fn(&t)
	t.ID = id
	c.tasks[id] = t
	return true
}

// IDs returns the task ids in collection order.
func (c *Collection) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Tasks returns a copy of the tasks in collection order.
func (c *Collection) Tasks() []Task {
	if c == nil {
		return nil
	}
	tasks := make([]Task, 0, len(c.order))
	for _, id := range c.order {
		tasks = append(tasks, c.tasks[id])
	}
	return tasks
}

// Clone returns an independent copy of the collection.
func (c *Collection) Clone() *Collection {
	return NewCollection(c.Tasks()...)
}

// Equal reports whether both collections hold equal tasks in the same order.
func (c *Collection) Equal(other *Collection) bool {
	if c.Len() != other.Len() {
		return false
	}
	a, b := c.Tasks(), other.Tasks()
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Counts returns the number of active and completed tasks.
func (c *Collection) Counts() (active, completed int) {
	for _, t := range c.Tasks() {
		if t.IsCompleted {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}

// MarshalJSON writes the collection as an object keyed by id, in order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range c.Tasks() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal task %s: %w", t.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the collection with the decoded document.
func (c *Collection) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

// Encode serializes the whole collection.
func Encode(c *Collection) ([]byte, error) {
	if c == nil {
		c = &Collection{}
	}
	data, err := c.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode task collection: %w", err)
	}
	return data, nil
}

// Decode parses a persisted collection. An empty document or null yields
// an empty collection.
func Decode(data []byte) (*Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return &Collection{}, nil
	}

	if result := Validate(trimmed); !result.Valid {
		return nil, fmt.Errorf("decode task collection: %w", result.Err())
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode task collection: %w", err)
	}

	c := &Collection{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode task collection: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode task collection: unexpected token %v", tok)
		}
		var t Task
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", key, err)
		}
		if t.ID != key {
			return nil, &ValidationError{
				Path: key,
				Err:  fmt.Errorf("%w: id %q", ErrKeyMismatch, t.ID),
			}
		}
		c.Put(t)
	}
	return c, nil
}

// Preview shortens text to max runes for single-line display.
func Preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if max <= 3 || len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
