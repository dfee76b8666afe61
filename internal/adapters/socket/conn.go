package socket

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// envelope is the wire frame in both directions: an event name plus an
// optional structured payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newWSConn(id core.ConnID, ws *websocket.Conn) *wsConn {
	return &wsConn{
		id:   id,
		conn: ws,
		send: make(chan []byte, 32),
	}
}

func (c *wsConn) ID() core.ConnID { return c.id }

// Emit queues an event for the write pump. A full send buffer drops
// the event rather than blocking the presence layer on a slow client.
func (c *wsConn) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "socket").Str("event", event).Msg("marshal payload")
		return
	}
	frame, err := json.Marshal(envelope{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "socket").Str("event", event).Msg("marshal envelope")
		return
	}
	if err := c.trySend(frame); err != nil {
		log.Warn().Str("module", "socket").Str("conn", string(c.id)).
			Str("event", event).Msg("dropping frame for slow consumer")
	}
}

func (c *wsConn) trySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
