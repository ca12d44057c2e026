package theme

import (
	"slices"
	"sync"
)

// Store holds the active theme and notifies subscribers when it changes.
// It is created by main and handed to the pieces that need it.
type Store struct {
	mu      sync.RWMutex
	current Name
	subs    map[int]func(Theme)
	nextID  int
}

// NewStore returns a store starting at initial, or Default if initial is unknown.
func NewStore(initial Name) *Store {
	if _, ok := Get(initial); !ok {
		initial = Default
	}
	return &Store{
		current: initial,
		subs:    make(map[int]func(Theme)),
	}
}

// Current returns the active theme.
func (s *Store) Current() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MustGet(s.current)
}

// Set switches to name. Subscribers run only when the theme actually changes,
// outside the lock, in subscription order.
func (s *Store) Set(name Name) {
	t, ok := Get(name)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.current == name {
		s.mu.Unlock()
		return
	}
	s.current = name
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
}

// Toggle flips between matrix and regular and returns the new theme.
func (s *Store) Toggle() Theme {
	s.mu.RLock()
	next := s.current.Toggle()
	s.mu.RUnlock()
	s.Set(next)
	return MustGet(next)
}

// Subscribe registers fn for theme changes and returns its cancel func.
func (s *Store) Subscribe(fn func(Theme)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshot() []func(Theme) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Theme), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}
