package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

// Registry maps a user id to its single live session. Registering a
// second session for the same user hands the old one back to the
// caller for eviction, so duplicate-session broadcasts never happen.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.UserID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.UserID]*Session)}
}

// Register installs the session and returns the one it displaced, if
// any. The swap is atomic under the registry lock; terminating the
// displaced connection is the caller's job.
func (r *Registry) Register(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.sessions[s.User.ID]
	r.sessions[s.User.ID] = s
	if old != nil {
		log.Warn().Str("module", "app.registry").
			Str("user", string(s.User.ID)).
			Str("old_conn", string(old.Conn.ID())).
			Str("new_conn", string(s.Conn.ID())).
			Msg("duplicate connection, evicting old session")
	}
	return old
}

// Unregister removes the mapping only if it still points at the given
// connection. A stale unregister from an evicted connection racing a
// newer registration is a no-op.
func (r *Registry) Unregister(user domain.UserID, conn core.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[user]
	if !ok || s.Conn.ID() != conn {
		return false
	}
	delete(r.sessions, user)
	return true
}

func (r *Registry) Get(user domain.UserID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[user]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
