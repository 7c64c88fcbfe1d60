package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// ContractRepository implements domain.ContractRepository using SQLite.
type ContractRepository struct {
	db *sql.DB
}

// Compile-time check: ContractRepository implements domain.ContractRepository.
var _ domain.ContractRepository = (*ContractRepository)(nil)

const contractColumns = `id, booking_id, room_id, tenant_id, host_id, start_date, end_date, rent, status, created_at, updated_at`

func (r *ContractRepository) Create(ctx context.Context, c domain.Contract) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contracts (`+contractColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BookingID, c.RoomID, c.TenantID, c.HostID,
		c.StartDate.Format(dateFormat), c.EndDate.Format(dateFormat),
		c.Rent, string(c.Status),
		c.CreatedAt.Format(timeFormat),
		c.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.OpenContractError{RoomID: c.RoomID}
		}
		return fmt.Errorf("inserting contract: %w", err)
	}
	return nil
}

func (r *ContractRepository) GetByID(ctx context.Context, id string) (domain.Contract, error) {
	return scanContract(r.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id,
	))
}

func (r *ContractRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
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
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	defer rows.Close()

	return collectContracts(rows)
}

func (r *ContractRepository) CountOpen(ctx context.Context, roomID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM contracts WHERE room_id = ? AND status IN ('pending', 'active')`,
		roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting open contracts: %w", err)
	}
	return count, nil
}

// Delete removes a contract record. Guarded against active contracts so a
// mis-sequenced compensation can never erase a live agreement.
func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contracts WHERE id = ? AND status != 'active'`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting contract: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (r *ContractRepository) ListElapsed(ctx context.Context, asOf time.Time, limit int) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
		 WHERE status = 'active' AND end_date < ? ORDER BY end_date`
	args := []any{asOf.Format(dateFormat)}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing elapsed contracts: %w", err)
	}
	defer rows.Close()

	return collectContracts(rows)
}

func (r *ContractRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casUpdate(ctx, r.db, "contracts", id, string(from), string(to), domain.ErrContractNotFound)
}

func scanContract(row *sql.Row) (domain.Contract, error) {
	var c domain.Contract
	var start, end, status, createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.BookingID, &c.RoomID, &c.TenantID, &c.HostID,
		&start, &end, &c.Rent, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contract{}, domain.ErrContractNotFound
		}
		return domain.Contract{}, fmt.Errorf("scanning contract: %w", err)
	}

	fillContractTimes(&c, start, end, status, createdAt, updatedAt)
	return c, nil
}

func collectContracts(rows *sql.Rows) ([]domain.Contract, error) {
	var contracts []domain.Contract
	for rows.Next() {
		var c domain.Contract
		var start, end, status, createdAt, updatedAt string

		err := rows.Scan(&c.ID, &c.BookingID, &c.RoomID, &c.TenantID, &c.HostID,
			&start, &end, &c.Rent, &status, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning contract row: %w", err)
		}

		fillContractTimes(&c, start, end, status, createdAt, updatedAt)
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func fillContractTimes(c *domain.Contract, start, end, status, createdAt, updatedAt string) {
	c.Status = domain.Status(status)
	c.StartDate, _ = time.Parse(dateFormat, start)
	c.EndDate, _ = time.Parse(dateFormat, end)
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
}
