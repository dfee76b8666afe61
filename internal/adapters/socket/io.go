package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/app"
	"github.com/studyhall/server/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump processes this connection's events in arrival order and
// returns the disconnect reason when the transport drops.
func (ctl *Controller) readPump(ctx context.Context, sess *app.Session, c *wsConn) string {
	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	readWait := ctl.PingPeriod * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			return "server shutdown"
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "socket").
					Str("user", string(sess.User.ID)).Msg("readPump read error")
			}
			return "transport closed"
		}
		ctl.dispatch(ctx, sess, c, data)
	}
}

// dispatch is the event boundary: every handler error ends here as a
// log line plus an error event, never a dropped connection.
func (ctl *Controller) dispatch(ctx context.Context, sess *app.Session, c *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "socket").Msg("bad frame")
		c.Emit(app.EventError, app.ErrorPayload{Message: "bad payload"})
		return
	}

	switch env.Type {
	case "join_room":
		var p struct {
			RoomID domain.RoomID `json:"roomId"`
		}
		if !decode(c, env.Data, &p) {
			return
		}
		ctl.Service.JoinRoom(ctx, sess, p.RoomID)
	case "leave_room":
		ctl.Service.LeaveRoom(ctx, sess)
	case "send_message":
		var p struct {
			RoomID  domain.RoomID `json:"roomId"`
			Message string        `json:"message"`
		}
		if !decode(c, env.Data, &p) {
			return
		}
		ctl.Service.SendMessage(ctx, sess, p.RoomID, p.Message)
	case "close_room":
		var p struct {
			RoomID domain.RoomID `json:"roomId"`
		}
		if !decode(c, env.Data, &p) {
			return
		}
		ctl.Service.CloseRoom(ctx, sess, p.RoomID)
	case "request_room_info":
		var p struct {
			RoomID domain.RoomID `json:"roomId"`
		}
		if !decode(c, env.Data, &p) {
			return
		}
		ctl.Service.RoomInfo(ctx, sess, p.RoomID)
	case "ping":
		c.Emit("pong", nil)
	default:
		log.Warn().Str("module", "socket").Str("type", env.Type).Msg("unknown event")
	}
}

func decode(c *wsConn, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "socket").Msg("bad payload")
		c.Emit(app.EventError, app.ErrorPayload{Message: "bad payload"})
		return false
	}
	return true
}
