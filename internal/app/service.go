package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

// PresenceService orchestrates the realtime presence layer: connection
// registration, room membership, chat fan-out and the auto-close
// lifecycle. In-memory indexes are mutated first and never held locked
// across a store call; the store stays the source of truth for
// active_room_id and room open/closed state.
type PresenceService struct {
	Registry  *Registry
	Tracker   *Tracker
	Lifecycle *Lifecycle

	Users core.UserStore
	Rooms core.RoomStore
	Dir   core.RoomDirectory
	Bcast core.Broadcaster

	JoinThrottle    time.Duration
	MessageThrottle time.Duration
}

// Connect runs after a verified handshake: fetch the user snapshot,
// evict any prior connection for the same user, then auto-rejoin the
// persisted active room if it is still open.
func (p *PresenceService) Connect(ctx context.Context, conn core.Conn, userID domain.UserID) (*Session, error) {
	snap, err := p.Users.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess := NewSession(conn, snap, p.JoinThrottle, p.MessageThrottle)
	if old := p.Registry.Register(sess); old != nil {
		old.Conn.Emit(EventSuperseded, ErrorPayload{Message: "signed in from another connection"})
		p.Disconnect(ctx, old, "superseded")
		old.Conn.Close()
	}

	log.Info().Str("module", "app.presence").
		Str("user", string(snap.ID)).Str("name", snap.Name).Msg("user connected")

	if snap.ActiveRoomID != "" {
		p.autoRejoin(ctx, sess, snap.ActiveRoomID)
	}
	return sess, nil
}

func (p *PresenceService) autoRejoin(ctx context.Context, sess *Session, roomID domain.RoomID) {
	room, err := p.Rooms.GetOpenRoom(ctx, roomID)
	if errors.Is(err, core.ErrNotFound) {
		// Stale pointer at a closed or deleted room; self-heal.
		if err := p.Users.ClearActiveRoom(ctx, sess.User.ID); err != nil {
			log.Error().Err(err).Str("module", "app.presence").
				Str("user", string(sess.User.ID)).Msg("clearing stale active room")
		}
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").
			Str("user", string(sess.User.ID)).Msg("auto-rejoin lookup")
		return
	}

	p.enterRoom(sess, room)
	sess.Conn.Emit(EventJoinedRoom, joinedPayload(&room, "resuming room session"))
	p.sendMembers(ctx, sess, room.ID, false)
	p.Bcast.BroadcastExcept(room.Channel(), EventUserRejoined, UserEventPayload{
		UserID:    sess.User.ID,
		UserName:  sess.User.Name,
		Avatar:    sess.User.Avatar,
		Timestamp: time.Now(),
	}, sess.Conn)
	p.Bcast.Broadcast(room.Channel(), EventOnlineUsers, p.Tracker.Members(room.ID))

	log.Info().Str("module", "app.presence").
		Str("user", string(sess.User.ID)).Str("room", string(room.ID)).Msg("auto-rejoined room")
}

// Disconnect tears the session down on transport close or eviction.
// Safe to call twice; only the first call does anything.
func (p *PresenceService) Disconnect(ctx context.Context, sess *Session, reason string) {
	if !sess.markDisconnected() {
		return
	}
	p.Registry.Unregister(sess.User.ID, sess.Conn.ID())

	log.Info().Str("module", "app.presence").
		Str("user", string(sess.User.ID)).Str("reason", reason).Msg("user disconnected")

	roomID := sess.Room()
	if roomID == "" {
		return
	}
	channel := domain.RoomChannel(roomID)

	p.Tracker.Remove(roomID, sess.User.ID)
	sess.setRoom("")
	p.Bcast.Leave(channel, sess.Conn)

	p.Bcast.Broadcast(channel, EventOnlineUsers, p.Tracker.Members(roomID))
	p.Bcast.Broadcast(channel, EventUserDisconnected, UserEventPayload{
		UserID:    sess.User.ID,
		UserName:  sess.User.Name,
		Timestamp: time.Now(),
	})

	p.Lifecycle.ScheduleCheck(roomID, p.Lifecycle.DisconnectGrace)
}

// SendMessage fans a chat message out to everyone in the room,
// including the sender. Excess messages inside the throttle window are
// dropped without feedback.
func (p *PresenceService) SendMessage(ctx context.Context, sess *Session, roomID domain.RoomID, text string) {
	if !sess.msgThrottle.allow(time.Now()) {
		return
	}
	if sess.Room() == "" || sess.Room() != roomID {
		sess.Conn.Emit(EventError, ErrorPayload{Message: "you are not in this room"})
		return
	}

	if _, err := p.Rooms.GetOpenRoom(ctx, roomID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			sess.Conn.Emit(EventError, ErrorPayload{Message: "room is already closed"})
		} else {
			p.storeError(sess, err, "failed to send message")
		}
		return
	}

	now := time.Now()
	p.Bcast.Broadcast(domain.RoomChannel(roomID), EventNewMessage, MessagePayload{
		ID:        now.UnixMilli(),
		UserID:    sess.User.ID,
		UserName:  sess.User.Name,
		Avatar:    sess.User.Avatar,
		Message:   text,
		Timestamp: now,
	})
}

// NotifyRoomChanged nudges a user's live connection after an HTTP-side
// join changed their persisted room. The client reacts with its own
// join_room; the server never force-moves a socket between channels.
func (p *PresenceService) NotifyRoomChanged(user domain.UserID, room domain.RoomID) {
	if sess, ok := p.Registry.Get(user); ok {
		sess.Conn.Emit(EventRoomChanged, RoomChangedPayload{RoomID: room})
	}
}

func (p *PresenceService) storeError(sess *Session, err error, msg string) {
	log.Error().Err(err).Str("module", "app.presence").
		Str("user", string(sess.User.ID)).Msg(msg)
	sess.Conn.Emit(EventError, ErrorPayload{Message: msg})
}

func joinedPayload(room *domain.Room, msg string) JoinedRoomPayload {
	return JoinedRoomPayload{
		RoomID:          room.ID,
		RoomName:        room.Name,
		RoomDescription: room.Description,
		RoomCode:        room.Code,
		CreatedBy:       room.CreatedBy,
		StartedAt:       room.CreatedAt,
		Duration:        domain.FormatDuration(room.CreatedAt, time.Now()),
		Message:         msg,
	}
}
