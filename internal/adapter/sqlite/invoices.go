package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// InvoiceRepository implements domain.InvoiceRepository using SQLite.
// Line items are stored as a JSON array in a single column.
type InvoiceRepository struct {
	db *sql.DB
}

// Compile-time check: InvoiceRepository implements domain.InvoiceRepository.
var _ domain.InvoiceRepository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(ctx context.Context, inv domain.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encoding invoice items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, contract_id, room_id, tenant_id, items, total, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ContractID, inv.RoomID, inv.TenantID, string(items), inv.Total,
		string(inv.Status),
		inv.CreatedAt.Format(timeFormat),
		inv.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, contract_id, room_id, tenant_id, items, total, status, created_at, updated_at
		 FROM invoices WHERE id = ?`, id,
	)

	var inv domain.Invoice
	var items, status, createdAt, updatedAt string

	err := row.Scan(&inv.ID, &inv.ContractID, &inv.RoomID, &inv.TenantID, &items, &inv.Total, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invoice{}, domain.ErrInvoiceNotFound
		}
		return domain.Invoice{}, fmt.Errorf("scanning invoice: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &inv.Items); err != nil {
		return domain.Invoice{}, fmt.Errorf("decoding invoice items: %w", err)
	}

	inv.Status = domain.Status(status)
	inv.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	inv.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return inv, nil
}

func (r *InvoiceRepository) ListByContract(ctx context.Context, contractID string) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, contract_id, room_id, tenant_id, items, total, status, created_at, updated_at
		 FROM invoices WHERE contract_id = ? ORDER BY created_at DESC`, contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var items, status, createdAt, updatedAt string

		err := rows.Scan(&inv.ID, &inv.ContractID, &inv.RoomID, &inv.TenantID, &items, &inv.Total, &status, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice row: %w", err)
		}

		if err := json.Unmarshal([]byte(items), &inv.Items); err != nil {
			return nil, fmt.Errorf("decoding invoice items: %w", err)
		}

		inv.Status = domain.Status(status)
		inv.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		inv.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

func (r *InvoiceRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casUpdate(ctx, r.db, "invoices", id, string(from), string(to), domain.ErrInvoiceNotFound)
}
