package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type RoomID string

const RoomCodeLen = 6

// Room mirrors the persisted rooms row. ClosedAt == nil means the room
// is open; the store is the source of truth for that transition.
type Room struct {
	ID           RoomID     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Code         string     `json:"code"`
	CreatedBy    UserID     `json:"createdBy"`
	Private      bool       `json:"isPrivate"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
}

func (r *Room) Open() bool { return r.ClosedAt == nil }

// Channel is the transport broadcast group name for the room.
func (r *Room) Channel() string { return RoomChannel(r.ID) }

func RoomChannel(id RoomID) string { return "room_" + string(id) }

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRoomCode returns a random 6-character access code. Uniqueness is
// enforced by the caller against the store, not here.
func NewRoomCode() string {
	var b strings.Builder
	b.Grow(RoomCodeLen)
	for i := 0; i < RoomCodeLen; i++ {
		b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// FormatDuration renders the elapsed time since start as HH:MM:SS,
// zero-padded, clamped at zero. Hours keep growing past 99.
func FormatDuration(start time.Time, now time.Time) string {
	if start.IsZero() {
		return "00:00:00"
	}
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
