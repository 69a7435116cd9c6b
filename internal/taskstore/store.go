// Package taskstore holds the in-memory, ordered task list shared by the JSON API,
// the intent router and the MCP tools.
package taskstore

import (
	"strings"
	"sync"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

// Task is a single to-do item.
type Task struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// ChangeKind names a mutation applied to the store.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeCompleted ChangeKind = "completed"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change describes a successful mutation.
type Change struct {
	Kind ChangeKind
	Task Task
}

// ChangeHook observes successful mutations. It runs after the store lock is released.
type ChangeHook func(Change)

// Option configures a Store.
type Option func(*Store)

// WithChangeHook registers a hook called after every successful mutation.
func WithChangeHook(h ChangeHook) Option {
	return func(s *Store) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}

// Store is an ordered task collection with a monotonic id counter.
//
// All operations take the same lock, so ids are allocated atomically with the
// append that stores them.
type Store struct {
	mu     sync.Mutex
	tasks  []Task
	lastID int
	hooks  []ChangeHook
}

// New creates an empty store. The first allocated id is 1.
func New(opts ...Option) *Store {
	s := &Store{tasks: make([]Task, 0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stores a new task with the next id.
// The description is trimmed and must not be empty.
func (s *Store) Append(description string) (Task, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return Task{}, apperr.InvalidInput("description must be a non-empty string")
	}

	s.mu.Lock()
	s.lastID++
	t := Task{ID: s.lastID, Description: desc}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCreated, Task: t})
	return t, nil
}

// FindByID returns the task with the given id. Absence is not an error.
func (s *Store) FindByID(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

// MarkComplete sets completed=true on an existing task and returns it.
func (s *Store) MarkComplete(id int) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, apperr.NotFound("task not found")
	}
	s.tasks[i].Completed = true
	t := s.tasks[i]
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCompleted, Task: t})
	return t, nil
}

// Remove deletes an existing task and returns the removed record.
func (s *Store) Remove(id int) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, apperr.NotFound("task not found")
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDeleted, Task: t})
	return t, nil
}

// ListAll returns a snapshot of every task in insertion order.
func (s *Store) ListAll() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(c Change) {
	for _, h := range s.hooks {
		h(c)
	}
}
