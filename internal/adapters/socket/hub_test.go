package socket

import (
	"sync"
	"testing"

	"github.com/studyhall/server/internal/core"
)

type recordConn struct {
	id core.ConnID

	mu     sync.Mutex
	events []string
}

func (c *recordConn) ID() core.ConnID { return c.id }

func (c *recordConn) Emit(event string, _ any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *recordConn) Close() {}

func (c *recordConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestHub_BroadcastReachesGroupOnly(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	b := &recordConn{id: "b"}
	other := &recordConn{id: "c"}
	h.Join("room_math", a)
	h.Join("room_math", b)
	h.Join("room_bio", other)

	h.Broadcast("room_math", "ping", nil)

	if a.count("ping") != 1 || b.count("ping") != 1 {
		t.Fatal("all group members should receive the event")
	}
	if other.count("ping") != 0 {
		t.Fatal("other groups must not receive the event")
	}
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	b := &recordConn{id: "b"}
	h.Join("room_math", a)
	h.Join("room_math", b)

	h.BroadcastExcept("room_math", "ping", nil, a)

	if a.count("ping") != 0 {
		t.Fatal("excluded connection must not receive the event")
	}
	if b.count("ping") != 1 {
		t.Fatal("the rest of the group should receive the event")
	}
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	h.Join("room_math", a)
	h.Leave("room_math", a)

	h.Broadcast("room_math", "ping", nil)

	if a.count("ping") != 0 {
		t.Fatal("a departed connection must not receive events")
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	h.Join("room_math", a)
	h.Join("room_math", a)

	h.Broadcast("room_math", "ping", nil)

	if n := a.count("ping"); n != 1 {
		t.Fatalf("double join must not double delivery, got %d", n)
	}
}

func TestHub_DropGroup(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	h.Join("room_math", a)
	h.DropGroup("room_math")

	h.Broadcast("room_math", "ping", nil)

	if a.count("ping") != 0 {
		t.Fatal("dropped group must not deliver")
	}
}

func TestHub_ConcurrentJoinBroadcast(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	conns := make([]*recordConn, 16)
	for i := range conns {
		conns[i] = &recordConn{id: core.ConnID(string(rune('a' + i)))}
	}
	for _, c := range conns {
		wg.Add(1)
		go func(c *recordConn) {
			defer wg.Done()
			h.Join("room_math", c)
			h.Broadcast("room_math", "ping", nil)
		}(c)
	}
	wg.Wait()

	// Every member sees at least its own broadcast.
	for _, c := range conns {
		if c.count("ping") == 0 {
			t.Fatalf("conn %s never received a broadcast", c.id)
		}
	}
}
