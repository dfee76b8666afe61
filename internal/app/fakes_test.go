package app

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

type fakeEvent struct {
	Name    string
	Payload any
}

type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	events []fakeEvent
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func (c *fakeConn) ID() core.ConnID { return c.id }

func (c *fakeConn) Emit(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fakeEvent{Name: event, Payload: payload})
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Name == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) has(event string) bool { return c.count(event) > 0 }

func (c *fakeConn) last(event string) (fakeEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Name == event {
			return c.events[i], true
		}
	}
	return fakeEvent{}, false
}

// fakeHub mirrors the socket adapter's group fan-out so service tests
// can observe deliveries without a real transport.
type fakeHub struct {
	mu     sync.Mutex
	groups map[string]map[core.ConnID]core.Conn
}

func newFakeHub() *fakeHub {
	return &fakeHub{groups: make(map[string]map[core.ConnID]core.Conn)}
}

func (h *fakeHub) Join(group string, c core.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[core.ConnID]core.Conn)
	}
	h.groups[group][c.ID()] = c
}

func (h *fakeHub) Leave(group string, c core.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups[group], c.ID())
}

func (h *fakeHub) Broadcast(group, event string, payload any) {
	for _, c := range h.members(group) {
		c.Emit(event, payload)
	}
}

func (h *fakeHub) BroadcastExcept(group, event string, payload any, except core.Conn) {
	for _, c := range h.members(group) {
		if except != nil && c.ID() == except.ID() {
			continue
		}
		c.Emit(event, payload)
	}
}

func (h *fakeHub) DropGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, group)
}

func (h *fakeHub) members(group string) []core.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]core.Conn, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		out = append(out, c)
	}
	return out
}

// fakeStore is an in-memory stand-in for the postgres stores. It keeps
// the same semantics the service relies on: active_room_id is the
// durable membership record and closed_at IS NULL guards the close.
type fakeStore struct {
	mu    sync.Mutex
	users map[domain.UserID]*domain.UserSnapshot
	rooms map[domain.RoomID]*domain.Room
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[domain.UserID]*domain.UserSnapshot),
		rooms: make(map[domain.RoomID]*domain.Room),
	}
}

func (s *fakeStore) addUser(id domain.UserID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &domain.UserSnapshot{ID: id, Name: name, Avatar: string(id) + ".png"}
}

func (s *fakeStore) addRoom(id domain.RoomID, name string, creator domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = &domain.Room{
		ID: id, Name: name, Code: "CODE42",
		CreatedBy: creator, CreatedAt: time.Now(),
	}
}

func (s *fakeStore) GetSnapshot(_ context.Context, id domain.UserID) (domain.UserSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.UserSnapshot{}, core.ErrNotFound
	}
	return *u, nil
}

func (s *fakeStore) SetActiveRoom(_ context.Context, id domain.UserID, room domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.ActiveRoomID = room
	}
	return nil
}

func (s *fakeStore) ClearActiveRoom(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.ActiveRoomID = ""
	}
	return nil
}

func (s *fakeStore) ClearActiveRoomForRoom(_ context.Context, room domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ActiveRoomID == room {
			u.ActiveRoomID = ""
		}
	}
	return nil
}

func (s *fakeStore) GetOpenRoom(_ context.Context, id domain.RoomID) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || r.ClosedAt != nil {
		return domain.Room{}, core.ErrNotFound
	}
	return *r, nil
}

func (s *fakeStore) CloseRoom(_ context.Context, id domain.RoomID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || r.ClosedAt != nil {
		return false, nil
	}
	now := time.Now()
	r.ClosedAt = &now
	return true, nil
}

func (s *fakeStore) CountActiveMembers(_ context.Context, id domain.RoomID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.ActiveRoomID == id {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ListMembers(_ context.Context, id domain.RoomID) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]domain.Member, 0)
	for _, u := range s.users {
		if u.ActiveRoomID == id {
			members = append(members, domain.Member{ID: u.ID, Name: u.Name, Avatar: u.Avatar})
		}
	}
	return members, nil
}

func (s *fakeStore) CreateRoom(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = &room
	return nil
}

func (s *fakeStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetOpenRoomByCode(_ context.Context, code string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Code == code && r.ClosedAt == nil {
			return *r, nil
		}
	}
	return domain.Room{}, core.ErrNotFound
}

func (s *fakeStore) GetOpenRoomDetail(ctx context.Context, id domain.RoomID) (core.RoomDetail, error) {
	room, err := s.GetOpenRoom(ctx, id)
	if err != nil {
		return core.RoomDetail{}, err
	}
	joined, _ := s.CountActiveMembers(ctx, id)
	creator, _ := s.GetSnapshot(ctx, room.CreatedBy)
	return core.RoomDetail{
		Room:        room,
		CreatorName: creator.Name,
		Joined:      joined,
	}, nil
}

func (s *fakeStore) ListOpenRooms(ctx context.Context) ([]core.RoomDetail, error) {
	s.mu.Lock()
	ids := make([]domain.RoomID, 0, len(s.rooms))
	for id, r := range s.rooms {
		if r.ClosedAt == nil {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	out := make([]core.RoomDetail, 0, len(ids))
	for _, id := range ids {
		d, err := s.GetOpenRoomDetail(ctx, id)
		if err == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) closedAt(id domain.RoomID) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r.ClosedAt
	}
	return nil
}

func newTestService(store *fakeStore, hub *fakeHub) *PresenceService {
	tracker := NewTracker()
	registry := NewRegistry()
	return &PresenceService{
		Registry: registry,
		Tracker:  tracker,
		Lifecycle: &Lifecycle{
			Rooms:           store,
			Users:           store,
			Registry:        registry,
			Tracker:         tracker,
			Bcast:           hub,
			LeaveGrace:      10 * time.Millisecond,
			DisconnectGrace: 20 * time.Millisecond,
		},
		Users: store,
		Rooms: store,
		Dir:   store,
		Bcast: hub,
	}
}
