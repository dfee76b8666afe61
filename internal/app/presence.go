package app

import (
	"sort"
	"sync"

	"github.com/studyhall/server/internal/domain"
)

// Tracker is the in-memory "who is online in this room" index, distinct
// from the persisted active_room_id column. It keeps a reverse index so
// a user can be present in at most one room at a time.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.UserID]struct{}
	users map[domain.UserID]domain.RoomID
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms: make(map[domain.RoomID]map[domain.UserID]struct{}),
		users: make(map[domain.UserID]domain.RoomID),
	}
}

// Add marks the user present in the room, implicitly leaving any room
// they were present in before. Idempotent.
func (t *Tracker) Add(room domain.RoomID, user domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.users[user]; ok && prev != room {
		t.removeLocked(prev, user)
	}
	if t.rooms[room] == nil {
		t.rooms[room] = make(map[domain.UserID]struct{})
	}
	t.rooms[room][user] = struct{}{}
	t.users[user] = room
}

func (t *Tracker) Remove(room domain.RoomID, user domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(room, user)
}

func (t *Tracker) removeLocked(room domain.RoomID, user domain.UserID) {
	if members, ok := t.rooms[room]; ok {
		delete(members, user)
		if len(members) == 0 {
			delete(t.rooms, room)
		}
	}
	if t.users[user] == room {
		delete(t.users, user)
	}
}

// Members returns the online user ids for the room, sorted for stable
// broadcast payloads.
func (t *Tracker) Members(room domain.RoomID) []domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := t.rooms[room]
	out := make([]domain.UserID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Tracker) Empty(room domain.RoomID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[room]) == 0
}

// RoomOf reports which room the user is currently present in, if any.
func (t *Tracker) RoomOf(user domain.UserID) (domain.RoomID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.users[user]
	return room, ok
}

// Drop forgets the room entirely. Used after a close.
func (t *Tracker) Drop(room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for user := range t.rooms[room] {
		delete(t.users, user)
	}
	delete(t.rooms, room)
}
