// Package core defines the interfaces between the presence layer and
// its collaborators: the relational store, the token verifier and the
// socket transport. Implementations live in app/ and adapters/.
package core

import (
	"context"

	"github.com/studyhall/server/internal/domain"
)

type ConnID string

// TokenVerifier turns a handshake token into a user identity.
// A bad token yields ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (domain.UserID, error)
}

// UserStore is the persisted side of user state. active_room_id is the
// durable "belongs to room" record, distinct from live presence.
type UserStore interface {
	GetSnapshot(ctx context.Context, id domain.UserID) (domain.UserSnapshot, error)
	SetActiveRoom(ctx context.Context, id domain.UserID, room domain.RoomID) error
	ClearActiveRoom(ctx context.Context, id domain.UserID) error
	// ClearActiveRoomForRoom evicts every user whose active_room_id
	// points at the room. Used when a room closes.
	ClearActiveRoomForRoom(ctx context.Context, room domain.RoomID) error
}

// RoomStore reads and closes rooms. GetOpenRoom returns ErrNotFound
// for a missing or already-closed room.
type RoomStore interface {
	GetOpenRoom(ctx context.Context, id domain.RoomID) (domain.Room, error)
	// CloseRoom sets closed_at, guarded by closed_at IS NULL. It
	// reports whether this call performed the transition, so racing
	// auto-close checks broadcast at most once.
	CloseRoom(ctx context.Context, id domain.RoomID) (bool, error)
	CountActiveMembers(ctx context.Context, id domain.RoomID) (int, error)
	ListMembers(ctx context.Context, id domain.RoomID) ([]domain.Member, error)
}

// RoomDetail augments a room with the presentation fields listings need.
type RoomDetail struct {
	domain.Room
	CreatorName   string
	CreatorAvatar string
	Joined        int
}

// RoomDirectory is the wider store surface behind the HTTP room API
// and the room-info event: creation, code lookup and listings.
type RoomDirectory interface {
	CreateRoom(ctx context.Context, room domain.Room) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetOpenRoomByCode(ctx context.Context, code string) (domain.Room, error)
	GetOpenRoomDetail(ctx context.Context, id domain.RoomID) (RoomDetail, error)
	ListOpenRooms(ctx context.Context) ([]RoomDetail, error)
}

// Conn is one client's bidirectional event channel. Owned by the
// socket adapter; Emit never blocks the caller (slow consumers drop).
type Conn interface {
	ID() ConnID
	Emit(event string, payload any)
	Close()
}

// Broadcaster fans events out to named groups of connections.
type Broadcaster interface {
	Join(group string, c Conn)
	Leave(group string, c Conn)
	// Broadcast sends to every connection in the group.
	Broadcast(group string, event string, payload any)
	// BroadcastExcept skips one connection, for "tell the others" notices.
	BroadcastExcept(group string, event string, payload any, except Conn)
	DropGroup(group string)
}
