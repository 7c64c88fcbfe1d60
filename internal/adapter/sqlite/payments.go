package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using SQLite.
type PaymentRepository struct {
	db *sql.DB
}

// Compile-time check: PaymentRepository implements domain.PaymentRepository.
var _ domain.PaymentRepository = (*PaymentRepository)(nil)

const paymentColumns = `id, tenant_id, contract_id, invoice_id, amount, provider_ref, status, paid_at, created_at, updated_at`

func (r *PaymentRepository) Create(ctx context.Context, p domain.Payment) error {
	var invoiceID any
	if p.InvoiceID != "" {
		invoiceID = p.InvoiceID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		p.ID, p.TenantID, p.ContractID, invoiceID, p.Amount, p.ProviderRef,
		string(p.Status),
		p.CreatedAt.Format(timeFormat),
		p.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id,
	))
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, ref string) (domain.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE provider_ref = ?`, ref,
	))
}

// Settle is the compare-and-swap pending -> paid. Exactly one caller per
// payment can win it; everyone else gets domain.ErrStatusConflict.
func (r *PaymentRepository) Settle(ctx context.Context, id string, paidAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = 'paid', paid_at = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		paidAt.UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat),
		id,
	)
	if err != nil {
		return fmt.Errorf("settling payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM payments WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking payment existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrPaymentNotFound
	}
	return domain.ErrStatusConflict
}

func (r *PaymentRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casUpdate(ctx, r.db, "payments", id, string(from), string(to), domain.ErrPaymentNotFound)
}

// ListStale returns paid payments with lagging downstream projections. Used
// by the reconciliation sweep to re-drive interrupted cascades: the payment
// is the source of truth, everything else is recoverable from it.
func (r *PaymentRepository) ListStale(ctx context.Context, limit int) ([]domain.Payment, error) {
	query := `
		SELECT ` + prefixedPaymentColumns + `
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id
		JOIN rooms r ON r.id = c.room_id
		JOIN bookings b ON b.id = c.booking_id
		LEFT JOIN invoices i ON i.id = p.invoice_id
		WHERE p.status = 'paid' AND (
			c.status = 'pending'
			OR (c.status = 'active' AND r.status = 'waiting')
			OR (c.status = 'active' AND b.status = 'approved')
			OR (i.id IS NOT NULL AND i.status = 'pending')
		)
		ORDER BY p.paid_at`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stale payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var invoiceID, paidAt sql.NullString
		var status, createdAt, updatedAt string

		err := rows.Scan(&p.ID, &p.TenantID, &p.ContractID, &invoiceID, &p.Amount,
			&p.ProviderRef, &status, &paidAt, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning stale payment row: %w", err)
		}

		fillPayment(&p, invoiceID, paidAt, status, createdAt, updatedAt)
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

const prefixedPaymentColumns = `p.id, p.tenant_id, p.contract_id, p.invoice_id, p.amount, p.provider_ref, p.status, p.paid_at, p.created_at, p.updated_at`

func scanPayment(row *sql.Row) (domain.Payment, error) {
	var p domain.Payment
	var invoiceID, paidAt sql.NullString
	var status, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.TenantID, &p.ContractID, &invoiceID, &p.Amount,
		&p.ProviderRef, &status, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("scanning payment: %w", err)
	}

	fillPayment(&p, invoiceID, paidAt, status, createdAt, updatedAt)
	return p, nil
}

func fillPayment(p *domain.Payment, invoiceID, paidAt sql.NullString, status, createdAt, updatedAt string) {
	p.Status = domain.Status(status)
	if invoiceID.Valid {
		p.InvoiceID = invoiceID.String
	}
	if paidAt.Valid {
		t, err := time.Parse(timeFormat, paidAt.String)
		if err == nil {
			p.PaidAt = &t
		}
	}
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	p.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
}
