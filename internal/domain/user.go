// Package domain contains entity types without logic, just meta-data.
package domain

import "time"

type UserID string

// UserSnapshot is the read-only view of a user fetched at connection
// time. The store owns the user record; the presence layer never
// writes anything here except active_room_id through the store API.
type UserSnapshot struct {
	ID           UserID `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	ActiveRoomID RoomID `json:"activeRoomId,omitempty"`
}

// Member is a row of a room's persisted member list, ordered by
// last-seen descending when listed.
type Member struct {
	ID       UserID    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	LastSeen time.Time `json:"lastSeen"`
}
