package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// RoomRepository implements domain.RoomRepository using SQLite.
type RoomRepository struct {
	db *sql.DB
}

// Compile-time check: RoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*RoomRepository)(nil)

func (r *RoomRepository) Create(ctx context.Context, room domain.Room) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, host_id, title, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.HostID, room.Title, string(room.Status),
		room.CreatedAt.Format(timeFormat),
		room.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT id, host_id, title, status, created_at, updated_at
		 FROM rooms WHERE id = ?`, id,
	))
}

func (r *RoomRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Room, error) {
	query := `SELECT id, host_id, title, status, created_at, updated_at FROM rooms`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		var status, createdAt, updatedAt string
		if err := rows.Scan(&room.ID, &room.HostID, &room.Title, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		room.Status = domain.Status(status)
		room.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		room.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// SetStatus is the compare-and-swap on room status: the write succeeds only
// if the room still holds `from`.
func (r *RoomRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casUpdate(ctx, r.db, "rooms", id, string(from), string(to), domain.ErrRoomNotFound)
}

func scanRoom(row *sql.Row) (domain.Room, error) {
	var room domain.Room
	var status, createdAt, updatedAt string

	err := row.Scan(&room.ID, &room.HostID, &room.Title, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	room.Status = domain.Status(status)
	room.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	room.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return room, nil
}
