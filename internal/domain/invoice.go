package domain

import "time"

// Invoice statuses.
const (
	InvoicePending Status = "pending"
	InvoicePaid    Status = "paid"
)

// Invoice events.
const (
	EventInvoiceSettle Event = "invoice_settle"
)

// InvoiceTransitions defines the single valid state change of an invoice.
var InvoiceTransitions = []Transition{
	{Event: EventInvoiceSettle, Src: InvoicePending, Dst: InvoicePaid},
}

// LineItem is one billed position on an invoice.
type LineItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// Invoice is a recurring-billing record raised against an active contract.
// A payment carrying an invoice reference flips it to paid on success.
type Invoice struct {
	ID         string
	ContractID string
	RoomID     string
	TenantID   string
	Items      []LineItem
	Total      int64
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewInvoice creates a pending invoice; the total is the sum of the items.
func NewInvoice(id string, contract Contract, items []LineItem) Invoice {
	var total int64
	for _, it := range items {
		total += it.Amount
	}
	now := time.Now().UTC()
	return Invoice{
		ID:         id,
		ContractID: contract.ID,
		RoomID:     contract.RoomID,
		TenantID:   contract.TenantID,
		Items:      items,
		Total:      total,
		Status:     InvoicePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
