package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live sessions of a server process.
type Registry struct {
	log         *slog.Logger
	clock       Clock
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry. Sessions idle for longer than
// idleTimeout are closed by Reap; zero keeps them until removed.
func NewRegistry(clock Clock, idleTimeout time.Duration, log *slog.Logger) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:         log,
		clock:       clock,
		idleTimeout: idleTimeout,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Add registers s under its ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove unregisters and closes a session. It reports whether one was found.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes and removes sessions with no user events within the idle
// timeout. It returns the number evicted.
func (r *Registry) Reap() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
		r.log.Info("session evicted", "session", s.ID, "owner", s.Owner)
	}
	return len(stale)
}

// StartReaper runs Reap every interval until the returned stop is called.
func (r *Registry) StartReaper(interval time.Duration) (stop func()) {
	if r.idleTimeout <= 0 {
		return func() {}
	}
	return r.clock.Every(interval, func() { r.Reap() })
}

// CloseOwner closes and removes every session opened for owner.
func (r *Registry) CloseOwner(owner int) int {
	r.mu.Lock()
	var owned []*Session
	for id, s := range r.sessions {
		if s.Owner == owner {
			owned = append(owned, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range owned {
		s.Close()
	}
	return len(owned)
}

// CloseAll closes and removes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	if len(all) > 0 {
		r.log.Info("sessions closed", "count", len(all))
	}
}
