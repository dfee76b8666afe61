package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (s *Users) GetSnapshot(ctx context.Context, id domain.UserID) (domain.UserSnapshot, error) {
	var (
		snap domain.UserSnapshot
		room sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, profile_picture, active_room_id FROM users WHERE id = $1`,
		string(id),
	).Scan(&snap.ID, &snap.Name, &snap.Avatar, &room)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("get user snapshot: %w", err)
	}
	if room.Valid {
		snap.ActiveRoomID = domain.RoomID(room.String)
	}
	return snap, nil
}

func (s *Users) SetActiveRoom(ctx context.Context, id domain.UserID, room domain.RoomID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_room_id = $1 WHERE id = $2`,
		string(room), string(id),
	)
	if err != nil {
		return fmt.Errorf("set active room: %w", err)
	}
	return nil
}

func (s *Users) ClearActiveRoom(ctx context.Context, id domain.UserID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_room_id = NULL WHERE id = $1`,
		string(id),
	)
	if err != nil {
		return fmt.Errorf("clear active room: %w", err)
	}
	return nil
}

func (s *Users) ClearActiveRoomForRoom(ctx context.Context, room domain.RoomID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_room_id = NULL WHERE active_room_id = $1`,
		string(room),
	)
	if err != nil {
		return fmt.Errorf("clear active room for room: %w", err)
	}
	return nil
}
