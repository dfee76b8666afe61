package core

import "errors"

var (
	// ErrInvalidToken rejects a handshake before it reaches the
	// presence state machine.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotFound covers a missing user or a room that is missing or
	// already closed, depending on the lookup.
	ErrNotFound = errors.New("not found")

	// ErrPermission is returned when a non-creator tries to close a room.
	ErrPermission = errors.New("permission denied")

	// ErrRoomClosed is returned for operations against a room that
	// closed under the caller.
	ErrRoomClosed = errors.New("room is closed")

	// ErrNotInRoom is returned when a message targets a room the
	// connection is not currently joined to.
	ErrNotInRoom = errors.New("not in this room")
)
