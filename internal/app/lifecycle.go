package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

// Lifecycle decides when an emptied room auto-closes. Emptying a room
// schedules a re-evaluation after a grace period rather than a close:
// the decision is re-derived at fire time, so a user who reconnects
// inside the window keeps their room alive without any timer
// bookkeeping.
type Lifecycle struct {
	Rooms    core.RoomStore
	Users    core.UserStore
	Registry *Registry
	Tracker  *Tracker
	Bcast    core.Broadcaster

	// LeaveGrace applies after an explicit leave, DisconnectGrace after
	// a transport drop. Disconnects get the longer window since they
	// are more likely a page reload than an exit.
	LeaveGrace      time.Duration
	DisconnectGrace time.Duration
}

// ScheduleCheck queues one empty-room re-evaluation. Timers are never
// cancelled; a stale one simply finds the room occupied and does
// nothing.
func (l *Lifecycle) ScheduleCheck(room domain.RoomID, grace time.Duration) {
	time.AfterFunc(grace, func() {
		l.Check(context.Background(), room)
	})
}

// Check closes the room unless someone can still come back to it: a
// member present in the live channel, or a persisted member whose
// connection is up (mid-rejoin, or joined over HTTP). Persisted
// membership alone does not keep a room open; a sole member whose
// connection dropped and who did not return within the grace period
// loses the room, and active_room_id is cleared for everyone so a
// later reconnect self-heals instead of rejoining a closed room. The
// store's closed_at IS NULL guard makes racing checks idempotent;
// only the call that performs the transition broadcasts the closure.
func (l *Lifecycle) Check(ctx context.Context, room domain.RoomID) {
	if !l.Tracker.Empty(room) {
		return
	}

	count, err := l.Rooms.CountActiveMembers(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("module", "app.lifecycle").
			Str("room", string(room)).Msg("empty-room check failed")
		return
	}
	if count > 0 {
		members, err := l.Rooms.ListMembers(ctx, room)
		if err != nil {
			log.Error().Err(err).Str("module", "app.lifecycle").
				Str("room", string(room)).Msg("empty-room check failed")
			return
		}
		for _, m := range members {
			if _, ok := l.Registry.Get(m.ID); ok {
				return
			}
		}
	}

	closed, err := l.Rooms.CloseRoom(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("module", "app.lifecycle").
			Str("room", string(room)).Msg("auto-close failed")
		return
	}
	if !closed {
		return
	}

	if count > 0 {
		// Everyone persisted in the room is offline; evict them so a
		// later reconnect self-heals instead of auto-rejoining a
		// closed room.
		if err := l.Users.ClearActiveRoomForRoom(ctx, room); err != nil {
			log.Error().Err(err).Str("module", "app.lifecycle").
				Str("room", string(room)).Msg("evicting offline members")
		}
	}

	l.Bcast.Broadcast(domain.RoomChannel(room), EventRoomAutoClosed, RoomAutoClosedPayload{
		Message:   "room closed automatically because it has no members",
		Timestamp: time.Now(),
	})
	l.Tracker.Drop(room)
	l.Bcast.DropGroup(domain.RoomChannel(room))

	log.Info().Str("module", "app.lifecycle").
		Str("room", string(room)).Msg("room auto-closed, no remaining members")
}
