package identity

import (
	"sync"
	"time"
)

// sweepEvery is how often Touch opportunistically runs the expiry
// sweep. Sweeps ride on activity, so an idle registry costs nothing.
const sweepEvery = time.Minute

// Registry maps session IDs to their sessions. Safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		lastSweep: time.Now().UTC(),
	}
}

// Begin creates and stores a new session, returning its ID.
func (r *Registry) Begin() string {
	now := time.Now().UTC()
	s := &Session{
		ID:           NewSessionID(),
		CreatedAt:    now,
		LastActivity: now,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s.ID
}

// Touch updates the session's last-activity time. Unknown IDs are
// recreated: a session that was swept while its connection idled must
// not lose subsequent events.
func (r *Registry) Touch(sessionID string) {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.lastSweep) >= sweepEvery {
		r.sweepLocked(now)
	}
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &Session{ID: sessionID, CreatedAt: now}
		r.sessions[sessionID] = s
	}
	s.LastActivity = now
}

// Identify attaches actor data to a session. Later calls replace
// earlier ones; identity is whatever the embedding server last said.
func (r *Registry) Identify(sessionID string, actor Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		now := time.Now().UTC()
		s = &Session{ID: sessionID, CreatedAt: now, LastActivity: now}
		r.sessions[sessionID] = s
	}
	s.Actor = &actor
}

// ActorFor returns the identified actor for a session, or nil.
func (r *Registry) ActorFor(sessionID string) *Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Actor == nil {
		return nil
	}
	actor := *s.Actor
	return &actor
}

// Sweep removes sessions idle past the TTL and reports how many were
// dropped.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(now)
}

func (r *Registry) sweepLocked(now time.Time) int {
	r.lastSweep = now
	dropped := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastActivity) > sessionTTL {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
