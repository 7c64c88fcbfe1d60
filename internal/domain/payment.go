package domain

import "time"

// Payment statuses.
const (
	PaymentPending Status = "pending"
	PaymentPaid    Status = "paid"
	PaymentFailed  Status = "failed"
)

// Payment events.
const (
	EventPaymentSettle  Event = "payment_settle"
	EventPaymentDecline Event = "payment_decline"
)

// PaymentTransitions defines all valid state changes of a payment. Both
// destinations are terminal: a payment record is mutated at most once, by
// whichever caller first observes it pending.
var PaymentTransitions = []Transition{
	{Event: EventPaymentSettle, Src: PaymentPending, Dst: PaymentPaid},
	{Event: EventPaymentDecline, Src: PaymentPending, Dst: PaymentFailed},
}

// Payment records one attempt to settle a contract (or one of its invoices)
// through the external gateway. It is the single source of truth for "did
// this money get accepted": every downstream entity state is a derived
// projection of the payment status, recoverable by the reconciliation sweep.
type Payment struct {
	ID         string
	TenantID   string
	ContractID string
	// InvoiceID is empty for contract-settlement payments.
	InvoiceID string
	// Amount is expressed in the smallest currency unit used internally.
	Amount int64
	// ProviderRef is the unique transaction reference handed to the gateway.
	// It doubles as the idempotency key: the provider may deliver the same
	// callback more than once, and every delivery referencing the same ref
	// must produce the same outcome with no re-application.
	ProviderRef string
	Status      Status
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment creates a payment in the initial "pending" state.
func NewPayment(id, tenantID, contractID, invoiceID string, amount int64, providerRef string) Payment {
	now := time.Now().UTC()
	return Payment{
		ID:          id,
		TenantID:    tenantID,
		ContractID:  contractID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		ProviderRef: providerRef,
		Status:      PaymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
