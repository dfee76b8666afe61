package socket

import (
	"sync"

	"github.com/studyhall/server/internal/core"
)

// Hub fans events out to named broadcast groups, one group per room
// channel. It only knows connections, never users or rooms.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[core.ConnID]core.Conn
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[core.ConnID]core.Conn)}
}

func (h *Hub) Join(group string, c core.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[core.ConnID]core.Conn)
	}
	h.groups[group][c.ID()] = c
}

func (h *Hub) Leave(group string, c core.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) Broadcast(group string, event string, payload any) {
	for _, c := range h.snapshot(group) {
		c.Emit(event, payload)
	}
}

func (h *Hub) BroadcastExcept(group string, event string, payload any, except core.Conn) {
	for _, c := range h.snapshot(group) {
		if except != nil && c.ID() == except.ID() {
			continue
		}
		c.Emit(event, payload)
	}
}

func (h *Hub) DropGroup(group string) {
	h.mu.Lock()
	delete(h.groups, group)
	h.mu.Unlock()
}

// snapshot copies the member list so Emit runs outside the hub lock.
func (h *Hub) snapshot(group string) []core.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.groups[group]
	out := make([]core.Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}
