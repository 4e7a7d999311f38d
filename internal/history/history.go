// Package history keeps the linear undo/redo stacks. It only records and
// hands back actions; applying their effects is up to the caller.
package history

import "sync"

type Manager struct {
	mu    sync.Mutex
	undo  []Action
	redo  []Action
	limit int
}

type Option func(*Manager)

// WithLimit caps the undo stack at n actions, dropping the oldest first.
// Zero or less means unbounded.
func WithLimit(n int) Option {
	return func(m *Manager) {
		m.limit = max(n, 0)
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Push records a new action and discards everything that could have been redone.
func (m *Manager) Push(action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo = append(m.undo, action)
	if m.limit > 0 && len(m.undo) > m.limit {
		m.undo = append([]Action(nil), m.undo[len(m.undo)-m.limit:]...)
	}
	m.redo = nil
}

func (m *Manager) Undo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := pop(&m.undo)
	if !ok {
		return Entry{}, false
	}
	m.redo = append(m.redo, action)
	return Entry{Action: action, Direction: DirectionUndo}, true
}

func (m *Manager) Redo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := pop(&m.redo)
	if !ok {
		return Entry{}, false
	}
	m.undo = append(m.undo, action)
	return Entry{Action: action, Direction: DirectionRedo}, true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Len returns the depth of both stacks.
func (m *Manager) Len() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}

func pop(stack *[]Action) (Action, bool) {
	n := len(*stack)
	if n == 0 {
		return Action{}, false
	}
	action := (*stack)[n-1]
	(*stack)[n-1] = Action{}
	*stack = (*stack)[:n-1]
	return action, true
}
