package ledger

import "sync"

// State of a user's spin session.
type State int

const (
	Idle State = iota
	Spinning
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Spinning:
		return "spinning"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Session guards one user's spins: Idle -> Spinning -> Resolved -> Idle.
type Session struct {
	mu    sync.Mutex
	state State
	last  *SpinResult
}

// Begin moves Idle to Spinning. It returns false, changing nothing, when a
// spin is already in flight.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return false
	}
	s.state = Spinning
	return true
}

// Resolve records the result of the in-flight spin.
func (s *Session) Resolve(res SpinResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Spinning {
		s.state = Resolved
		s.last = &res
	}
}

// End returns the session to Idle.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the most recent resolved spin, if any.
func (s *Session) Last() (SpinResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return SpinResult{}, false
	}
	return *s.last, true
}

// Sessions hands out one Session per user. A session lives in the registry
// while someone holds it, so the map only holds users with a spin in flight.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*entry
}

type entry struct {
	sess *Session
	refs int
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*entry)}
}

// Acquire returns the user's session, creating it on first use. Every
// Acquire must be paired with a Release.
func (r *Sessions) Acquire(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[userID]
	if !ok {
		e = &entry{sess: &Session{}}
		r.m[userID] = e
	}
	e.refs++
	return e.sess
}

// Release drops a hold taken by Acquire and forgets the session once nobody
// holds it.
func (r *Sessions) Release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[userID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.m, userID)
	}
}

// State returns the user's state, Idle when no session is held.
func (r *Sessions) State(userID string) State {
	r.mu.Lock()
	e, ok := r.m[userID]
	r.mu.Unlock()
	if !ok {
		return Idle
	}
	return e.sess.State()
}

// Len is the number of sessions currently held.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
