package app

import (
	"sync"
	"time"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

// Session binds an authenticated user snapshot to its live connection
// and tracks which room channel the connection is joined to.
type Session struct {
	Conn core.Conn
	User domain.UserSnapshot

	mu           sync.Mutex
	room         domain.RoomID
	disconnected bool

	joinThrottle throttle
	msgThrottle  throttle
}

func NewSession(conn core.Conn, user domain.UserSnapshot, joinMin, msgMin time.Duration) *Session {
	return &Session{
		Conn:         conn,
		User:         user,
		joinThrottle: throttle{min: joinMin},
		msgThrottle:  throttle{min: msgMin},
	}
}

// Room returns the room this connection is currently joined to, or ""
// when it is authenticated but roomless.
func (s *Session) Room() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) setRoom(id domain.RoomID) {
	s.mu.Lock()
	s.room = id
	s.mu.Unlock()
}

// markDisconnected flips the session into its terminal state exactly
// once. Eviction and the transport's own disconnect can both race to
// tear a session down; only the first wins.
func (s *Session) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return false
	}
	s.disconnected = true
	return true
}
