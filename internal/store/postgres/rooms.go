package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

type Rooms struct {
	db *sql.DB
}

func NewRooms(db *sql.DB) *Rooms {
	return &Rooms{db: db}
}

const roomColumns = `id, name, description, code, created_by, is_private, password_hash, created_at, closed_at`

func scanRoom(row *sql.Row) (domain.Room, error) {
	var (
		r    domain.Room
		hash sql.NullString
	)
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Code, &r.CreatedBy,
		&r.Private, &hash, &r.CreatedAt, &r.ClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, core.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("scan room: %w", err)
	}
	r.PasswordHash = hash.String
	return r, nil
}

func (s *Rooms) GetOpenRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	return scanRoom(s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1 AND closed_at IS NULL`,
		string(id),
	))
}

func (s *Rooms) GetOpenRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	return scanRoom(s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = $1 AND closed_at IS NULL`,
		code,
	))
}

// CloseRoom marks the room closed. The closed_at IS NULL guard makes
// it idempotent; the return value reports whether this call won.
func (s *Rooms) CloseRoom(ctx context.Context, id domain.RoomID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET closed_at = NOW() WHERE id = $1 AND closed_at IS NULL`,
		string(id),
	)
	if err != nil {
		return false, fmt.Errorf("close room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close room: %w", err)
	}
	return n > 0, nil
}

func (s *Rooms) CountActiveMembers(ctx context.Context, id domain.RoomID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE active_room_id = $1`,
		string(id),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return count, nil
}

func (s *Rooms) ListMembers(ctx context.Context, id domain.RoomID) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, profile_picture, last_login_at
		 FROM users WHERE active_room_id = $1
		 ORDER BY last_login_at DESC`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Avatar, &m.LastSeen); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Rooms) CreateRoom(ctx context.Context, room domain.Room) error {
	var hash sql.NullString
	if room.PasswordHash != "" {
		hash = sql.NullString{String: room.PasswordHash, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, description, code, created_by, is_private, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(room.ID), room.Name, room.Description, room.Code,
		string(room.CreatedBy), room.Private, hash, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Rooms) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room code exists: %w", err)
	}
	return exists, nil
}

const roomDetailQuery = `
	SELECT r.id, r.name, r.description, r.code, r.created_by, r.is_private,
	       r.password_hash, r.created_at, r.closed_at,
	       u.name, u.profile_picture,
	       COUNT(m.id) AS joined
	FROM rooms r
	LEFT JOIN users u ON u.id = r.created_by
	LEFT JOIN users m ON m.active_room_id = r.id
	WHERE r.closed_at IS NULL`

const roomDetailGroup = ` GROUP BY r.id, r.name, r.description, r.code, r.created_by,
	r.is_private, r.password_hash, r.created_at, r.closed_at, u.name, u.profile_picture`

func (s *Rooms) GetOpenRoomDetail(ctx context.Context, id domain.RoomID) (core.RoomDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		roomDetailQuery+` AND r.id = $1`+roomDetailGroup, string(id))
	if err != nil {
		return core.RoomDetail{}, fmt.Errorf("room detail: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.RoomDetail{}, fmt.Errorf("room detail: %w", err)
		}
		return core.RoomDetail{}, core.ErrNotFound
	}
	return scanRoomDetail(rows)
}

func (s *Rooms) ListOpenRooms(ctx context.Context) ([]core.RoomDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		roomDetailQuery+roomDetailGroup+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list open rooms: %w", err)
	}
	defer rows.Close()

	out := make([]core.RoomDetail, 0)
	for rows.Next() {
		d, err := scanRoomDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list open rooms: %w", err)
	}
	return out, nil
}

func scanRoomDetail(rows *sql.Rows) (core.RoomDetail, error) {
	var (
		d            core.RoomDetail
		hash         sql.NullString
		creator      sql.NullString
		creatorPhoto sql.NullString
	)
	err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Code, &d.CreatedBy,
		&d.Private, &hash, &d.CreatedAt, &d.ClosedAt,
		&creator, &creatorPhoto, &d.Joined)
	if err != nil {
		return core.RoomDetail{}, fmt.Errorf("scan room detail: %w", err)
	}
	d.PasswordHash = hash.String
	d.CreatorName = creator.String
	d.CreatorAvatar = creatorPhoto.String
	return d, nil
}
