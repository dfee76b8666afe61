package domain

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 42 * time.Second, "00:00:42"},
		{"minutes", 5*time.Minute + 3*time.Second, "00:05:03"},
		{"hours", 2*time.Hour + 30*time.Minute + 9*time.Second, "02:30:09"},
		{"over a day", 26*time.Hour + time.Minute, "26:01:00"},
		{"clock skew clamps at zero", -3 * time.Second, "00:00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatDuration(base, base.Add(tc.elapsed))
			if got != tc.want {
				t.Fatalf("FormatDuration(%v) = %q, want %q", tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestFormatDuration_ZeroStart(t *testing.T) {
	if got := FormatDuration(time.Time{}, time.Now()); got != "00:00:00" {
		t.Fatalf("zero start time = %q, want 00:00:00", got)
	}
}

func TestNewRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewRoomCode()
		if len(code) != RoomCodeLen {
			t.Fatalf("code %q has length %d, want %d", code, len(code), RoomCodeLen)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("codes should not all collide")
	}
}

func TestRoomChannel(t *testing.T) {
	r := Room{ID: "abc"}
	if r.Channel() != "room_abc" {
		t.Fatalf("channel = %q, want room_abc", r.Channel())
	}
	if RoomChannel("abc") != r.Channel() {
		t.Fatal("RoomChannel must agree with Room.Channel")
	}
}

func TestRoomOpen(t *testing.T) {
	r := Room{ID: "abc"}
	if !r.Open() {
		t.Fatal("room with nil closed_at should be open")
	}
	now := time.Now()
	r.ClosedAt = &now
	if r.Open() {
		t.Fatal("room with closed_at set should be closed")
	}
}
