package app

import (
	"time"

	"github.com/studyhall/server/internal/domain"
)

// Wire event names. Client-originated events are dispatched by the
// socket adapter; the rest are emitted here.
const (
	EventJoinedRoom         = "joined_room"
	EventUserJoined         = "user_joined"
	EventUserRejoined       = "user_rejoined"
	EventUserLeft           = "user_left"
	EventUserDisconnected   = "user_disconnected"
	EventOnlineUsers        = "online_users_updated"
	EventRoomMembers        = "room_members"
	EventRoomMembersUpdated = "room_members_updated"
	EventNewMessage         = "new_message"
	EventRoomClosed         = "room_closed"
	EventRoomAutoClosed     = "room_auto_closed"
	EventRoomInfo           = "room_info_updated"
	EventRoomChanged        = "room_changed"
	EventSuperseded         = "session_superseded"
	EventError              = "error"
)

type JoinedRoomPayload struct {
	RoomID          domain.RoomID `json:"roomId"`
	RoomName        string        `json:"roomName"`
	RoomDescription string        `json:"roomDescription"`
	RoomCode        string        `json:"roomCode"`
	CreatedBy       domain.UserID `json:"createdBy"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        string        `json:"duration"`
	Message         string        `json:"message"`
}

// UserEventPayload announces one user's transition to the rest of the
// room. Avatar is only set on join/rejoin notices.
type UserEventPayload struct {
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName"`
	Avatar    string        `json:"userAvatar,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type MessagePayload struct {
	ID        int64         `json:"id"`
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName"`
	Avatar    string        `json:"userAvatar"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type RoomMembersPayload struct {
	RoomID      domain.RoomID   `json:"roomId"`
	Members     []domain.Member `json:"members"`
	MemberCount int             `json:"memberCount"`
}

type RoomClosedPayload struct {
	Message   string    `json:"message"`
	ClosedBy  string    `json:"closedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomAutoClosedPayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomInfoPayload struct {
	RoomID          domain.RoomID `json:"roomId"`
	RoomName        string        `json:"roomName"`
	RoomDescription string        `json:"roomDescription"`
	RoomCode        string        `json:"roomCode"`
	CreatedBy       domain.UserID `json:"createdBy"`
	CreatorName     string        `json:"creatorName"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        string        `json:"duration"`
	Private         bool          `json:"isPrivate"`
}

type RoomChangedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
