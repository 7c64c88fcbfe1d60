package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// BookingRepository implements domain.BookingRepository using SQLite.
type BookingRepository struct {
	db *sql.DB
}

// Compile-time check: BookingRepository implements domain.BookingRepository.
var _ domain.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) Create(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, room_id, tenant_id, start_date, end_date, note, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RoomID, b.TenantID,
		b.StartDate.Format(dateFormat), b.EndDate.Format(dateFormat),
		b.Note, string(b.Status),
		b.CreatedAt.Format(timeFormat),
		b.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateBookingError{RoomID: b.RoomID, TenantID: b.TenantID}
		}
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT id, room_id, tenant_id, start_date, end_date, note, status, created_at, updated_at
		 FROM bookings WHERE id = ?`, id,
	))
}

func (r *BookingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Booking, error) {
	query := `SELECT id, room_id, tenant_id, start_date, end_date, note, status, created_at, updated_at FROM bookings`
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
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBookingFromRows(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (r *BookingRepository) HasPending(ctx context.Context, roomID, tenantID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM bookings WHERE room_id = ? AND tenant_id = ? AND status = 'pending'`,
		roomID, tenantID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting pending bookings: %w", err)
	}
	return count > 0, nil
}

func (r *BookingRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casUpdate(ctx, r.db, "bookings", id, string(from), string(to), domain.ErrBookingNotFound)
}

func scanBooking(row *sql.Row) (domain.Booking, error) {
	var b domain.Booking
	var start, end, status, createdAt, updatedAt string

	err := row.Scan(&b.ID, &b.RoomID, &b.TenantID, &start, &end, &b.Note, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("scanning booking: %w", err)
	}

	fillBookingTimes(&b, start, end, status, createdAt, updatedAt)
	return b, nil
}

func scanBookingFromRows(rows *sql.Rows) (domain.Booking, error) {
	var b domain.Booking
	var start, end, status, createdAt, updatedAt string

	err := rows.Scan(&b.ID, &b.RoomID, &b.TenantID, &start, &end, &b.Note, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("scanning booking row: %w", err)
	}

	fillBookingTimes(&b, start, end, status, createdAt, updatedAt)
	return b, nil
}

func fillBookingTimes(b *domain.Booking, start, end, status, createdAt, updatedAt string) {
	b.Status = domain.Status(status)
	b.StartDate, _ = time.Parse(dateFormat, start)
	b.EndDate, _ = time.Parse(dateFormat, end)
	b.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	b.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
}
