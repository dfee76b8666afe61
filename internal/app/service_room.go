package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

// JoinRoom moves the connection into the room, implicitly leaving any
// room it was in. Join attempts inside the throttle window are dropped
// silently.
func (p *PresenceService) JoinRoom(ctx context.Context, sess *Session, roomID domain.RoomID) {
	if !sess.joinThrottle.allow(time.Now()) {
		log.Debug().Str("module", "app.presence").
			Str("user", string(sess.User.ID)).Msg("join throttled")
		return
	}

	room, err := p.Rooms.GetOpenRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			sess.Conn.Emit(EventError, ErrorPayload{Message: "room not found or already closed"})
		} else {
			p.storeError(sess, err, "failed to join room")
		}
		return
	}

	if prev := sess.Room(); prev != "" && prev != roomID {
		p.leaveCurrent(ctx, sess)
	}

	p.enterRoom(sess, room)
	if err := p.Users.SetActiveRoom(ctx, sess.User.ID, roomID); err != nil {
		p.storeError(sess, err, "failed to persist room membership")
	}

	log.Info().Str("module", "app.presence").
		Str("user", string(sess.User.ID)).Str("room", string(roomID)).Msg("joined room")

	p.Bcast.BroadcastExcept(room.Channel(), EventUserJoined, UserEventPayload{
		UserID:    sess.User.ID,
		UserName:  sess.User.Name,
		Avatar:    sess.User.Avatar,
		Timestamp: time.Now(),
	}, sess.Conn)
	sess.Conn.Emit(EventJoinedRoom, joinedPayload(&room, "joined room"))
	p.sendMembers(ctx, sess, room.ID, false)
	p.Bcast.Broadcast(room.Channel(), EventOnlineUsers, p.Tracker.Members(room.ID))
}

// LeaveRoom handles an explicit leave. The connection stays open and
// goes back to the roomless state.
func (p *PresenceService) LeaveRoom(ctx context.Context, sess *Session) {
	p.leaveCurrent(ctx, sess)
}

func (p *PresenceService) leaveCurrent(ctx context.Context, sess *Session) {
	roomID := sess.Room()
	if roomID == "" {
		return
	}
	channel := domain.RoomChannel(roomID)

	p.Tracker.Remove(roomID, sess.User.ID)
	if err := p.Users.ClearActiveRoom(ctx, sess.User.ID); err != nil {
		p.storeError(sess, err, "failed to leave room")
	}

	p.Bcast.BroadcastExcept(channel, EventUserLeft, UserEventPayload{
		UserID:    sess.User.ID,
		UserName:  sess.User.Name,
		Timestamp: time.Now(),
	}, sess.Conn)
	p.Bcast.BroadcastExcept(channel, EventOnlineUsers, p.Tracker.Members(roomID), sess.Conn)
	p.sendMembers(ctx, sess, roomID, true)

	p.Lifecycle.ScheduleCheck(roomID, p.Lifecycle.LeaveGrace)

	p.Bcast.Leave(channel, sess.Conn)
	sess.setRoom("")

	log.Info().Str("module", "app.presence").
		Str("user", string(sess.User.ID)).Str("room", string(roomID)).Msg("left room")
}

// CloseRoom is the creator-initiated immediate close, bypassing the
// grace period.
func (p *PresenceService) CloseRoom(ctx context.Context, sess *Session, roomID domain.RoomID) {
	if err := p.CloseRoomAs(ctx, sess.User.ID, sess.User.Name, roomID); err != nil {
		switch {
		case errors.Is(err, core.ErrPermission), errors.Is(err, core.ErrNotFound):
			sess.Conn.Emit(EventError, ErrorPayload{Message: "you do not have permission to close this room"})
		default:
			p.storeError(sess, err, "failed to close room")
		}
	}
}

// CloseRoomAs closes the room on behalf of its creator, evicting every
// persisted member and notifying all sockets still on the channel. The
// HTTP close endpoint shares this path.
func (p *PresenceService) CloseRoomAs(ctx context.Context, actor domain.UserID, actorName string, roomID domain.RoomID) error {
	room, err := p.Rooms.GetOpenRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != actor {
		return core.ErrPermission
	}

	if _, err := p.Rooms.CloseRoom(ctx, roomID); err != nil {
		return err
	}
	if err := p.Users.ClearActiveRoomForRoom(ctx, roomID); err != nil {
		return err
	}

	p.Bcast.Broadcast(room.Channel(), EventRoomClosed, RoomClosedPayload{
		Message:   "room was closed by its creator",
		ClosedBy:  actorName,
		Timestamp: time.Now(),
	})
	p.Tracker.Drop(roomID)
	p.Bcast.DropGroup(room.Channel())

	log.Info().Str("module", "app.presence").
		Str("room", string(roomID)).Str("closed_by", string(actor)).Msg("room closed by creator")
	return nil
}

// RoomInfo answers a refresh request with current room metadata and
// elapsed duration. A missing or closed room is silently ignored.
func (p *PresenceService) RoomInfo(ctx context.Context, sess *Session, roomID domain.RoomID) {
	detail, err := p.Dir.GetOpenRoomDetail(ctx, roomID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Error().Err(err).Str("module", "app.presence").
				Str("room", string(roomID)).Msg("room info lookup")
		}
		return
	}
	sess.Conn.Emit(EventRoomInfo, RoomInfoPayload{
		RoomID:          detail.ID,
		RoomName:        detail.Name,
		RoomDescription: detail.Description,
		RoomCode:        detail.Code,
		CreatedBy:       detail.CreatedBy,
		CreatorName:     detail.CreatorName,
		StartedAt:       detail.CreatedAt,
		Duration:        domain.FormatDuration(detail.CreatedAt, time.Now()),
		Private:         detail.Private,
	})
}

// enterRoom flips the in-memory state: transport channel, presence
// tracker, session pointer. Store writes happen outside, after.
func (p *PresenceService) enterRoom(sess *Session, room domain.Room) {
	p.Bcast.Join(room.Channel(), sess.Conn)
	p.Tracker.Add(room.ID, sess.User.ID)
	sess.setRoom(room.ID)
}

// sendMembers ships the persisted member list either to the session
// alone or to the whole room after a membership change.
func (p *PresenceService) sendMembers(ctx context.Context, sess *Session, roomID domain.RoomID, broadcast bool) {
	members, err := p.Rooms.ListMembers(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").
			Str("room", string(roomID)).Msg("listing room members")
		return
	}
	if broadcast {
		p.Bcast.Broadcast(domain.RoomChannel(roomID), EventRoomMembersUpdated, RoomMembersPayload{
			RoomID:      roomID,
			Members:     members,
			MemberCount: len(members),
		})
		return
	}
	sess.Conn.Emit(EventRoomMembers, members)
}
