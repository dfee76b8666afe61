package app

import (
	"testing"
	"time"
)

func TestThrottle_DropsInsideWindow(t *testing.T) {
	th := throttle{min: 100 * time.Millisecond}
	base := time.Now()

	if !th.allow(base) {
		t.Fatal("first event should pass")
	}
	if th.allow(base.Add(50 * time.Millisecond)) {
		t.Fatal("event inside the window should be dropped")
	}
	if !th.allow(base.Add(150 * time.Millisecond)) {
		t.Fatal("event after the window should pass")
	}
}

func TestThrottle_OnePerWindow(t *testing.T) {
	th := throttle{min: 100 * time.Millisecond}
	base := time.Now()

	passed := 0
	for i := 0; i < 50; i++ {
		if th.allow(base.Add(time.Duration(i) * 5 * time.Millisecond)) {
			passed++
		}
	}
	// 50 events over 245ms at a 100ms window: one at t=0, one at
	// t>=100ms, one at t>=200ms.
	if passed != 3 {
		t.Fatalf("expected 3 events through, got %d", passed)
	}
}

func TestThrottle_ZeroWindowAllowsAll(t *testing.T) {
	th := throttle{}
	now := time.Now()
	for i := 0; i < 10; i++ {
		if !th.allow(now) {
			t.Fatal("zero window should never drop")
		}
	}
}
