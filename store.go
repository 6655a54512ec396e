package parley

import "sync"

// Store owns the State and serializes all mutations through Reduce. It is
// the explicit registry for transcript entries and active sessions;
// components hold a *Store reference instead of reaching for ambient
// globals, which keeps the reducer testable in isolation.
type Store struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewStore creates a Store with the given initial state.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Subscribe registers the single change listener (the render layer). The
// listener receives a snapshot after every dispatch, outside the store's
// lock, so it may dispatch further actions.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Dispatch applies the action and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
