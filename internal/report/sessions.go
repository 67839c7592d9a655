package report

import (
	"sync"

	"github.com/vigil/triage/internal/platform"
)

// Sessions is the in-memory registry of active report sessions, keyed by the
// reporting user's id. It is goroutine-safe; independent reporters can be
// handled concurrently.
type Sessions struct {
	mu     sync.Mutex
	active map[uint64]*Session
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{active: make(map[uint64]*Session)}
}

// Get returns the active session for a user, if any.
func (r *Sessions) Get(userID uint64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.active[userID]
	return s, ok
}

// GetOrCreate returns the user's active session, creating one if none exists.
// The second return value reports whether a new session was created.
func (r *Sessions) GetOrCreate(user platform.UserRef, resolver platform.Resolver) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.active[user.ID]; ok {
		return s, false
	}
	s := NewSession(user, resolver)
	r.active[user.ID] = s
	return s, true
}

// Remove retires a user's session.
func (r *Sessions) Remove(userID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}

// Len returns the number of active sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
