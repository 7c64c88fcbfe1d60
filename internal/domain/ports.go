package domain

import (
	"context"
	"net/url"
	"time"
)

// RoomRepository defines the persistence contract for rooms. SetStatus is a
// compare-and-swap: the write succeeds only if the room still holds the
// `from` status, and returns ErrStatusConflict otherwise.
type RoomRepository interface {
	Create(ctx context.Context, room Room) error
	GetByID(ctx context.Context, id string) (Room, error)
	List(ctx context.Context, filter ListFilter) ([]Room, error)
	SetStatus(ctx context.Context, id string, from, to Status) error
}

// BookingRepository defines the persistence contract for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, error)
	// HasPending reports whether the tenant already holds a pending booking
	// for the room.
	HasPending(ctx context.Context, roomID, tenantID string) (bool, error)
	SetStatus(ctx context.Context, id string, from, to Status) error
}

// ContractRepository defines the persistence contract for contracts.
type ContractRepository interface {
	Create(ctx context.Context, contract Contract) error
	GetByID(ctx context.Context, id string) (Contract, error)
	List(ctx context.Context, filter ListFilter) ([]Contract, error)
	// CountOpen returns the number of contracts for the room in a pending or
	// active state.
	CountOpen(ctx context.Context, roomID string) (int, error)
	// Delete removes a contract record. Used only to compensate a failed
	// creation; active contracts are never deleted.
	Delete(ctx context.Context, id string) error
	// ListElapsed returns active contracts whose end date has passed.
	ListElapsed(ctx context.Context, asOf time.Time, limit int) ([]Contract, error)
	SetStatus(ctx context.Context, id string, from, to Status) error
}

// PaymentRepository defines the persistence contract for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment Payment) error
	GetByID(ctx context.Context, id string) (Payment, error)
	// GetByProviderRef loads a payment by its provider transaction reference,
	// the idempotency key carried by gateway callbacks.
	GetByProviderRef(ctx context.Context, ref string) (Payment, error)
	// Settle is the compare-and-swap pending -> paid, recording paidAt.
	// Exactly one caller per payment wins it; losers get ErrStatusConflict.
	Settle(ctx context.Context, id string, paidAt time.Time) error
	SetStatus(ctx context.Context, id string, from, to Status) error
	// ListStale returns paid payments whose downstream projections lag:
	// contract not yet active, room not yet rented, booking not yet
	// consumed, or invoice not yet paid. Input for the reconciliation sweep.
	ListStale(ctx context.Context, limit int) ([]Payment, error)
}

// InvoiceRepository defines the persistence contract for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice Invoice) error
	GetByID(ctx context.Context, id string) (Invoice, error)
	ListByContract(ctx context.Context, contractID string) ([]Invoice, error)
	SetStatus(ctx context.Context, id string, from, to Status) error
}

// ListFilter holds optional criteria for listing entities.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// PaymentOrder is the outbound payment request handed to the gateway.
type PaymentOrder struct {
	// Ref is the unique provider transaction reference for this attempt.
	Ref string
	// Amount in the smallest currency unit used internally.
	Amount int64
	// Info is a human-readable order description shown by the provider.
	Info string
	// ClientIP is the paying tenant's address, required by the provider.
	ClientIP string
}

// Callback is a verified, parsed gateway callback.
type Callback struct {
	Ref          string
	Amount       int64
	Success      bool
	ResponseCode string
}

// PaymentGateway builds signed outbound payment requests and verifies
// inbound provider callbacks.
type PaymentGateway interface {
	// BuildRedirectURL returns the provider URL to send the tenant to.
	BuildRedirectURL(ctx context.Context, order PaymentOrder) (string, error)
	// VerifyCallback re-derives the provider signature over the raw callback
	// parameters. It returns a VerificationError on any mismatch; no field
	// of the callback may be trusted before this succeeds.
	VerifyCallback(params url.Values) (Callback, error)
}

// LifecycleEvent is the payload published when an entity changes state.
type LifecycleEvent struct {
	Event    Event
	Entity   string
	EntityID string
	Status   Status
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// TransitionValidator checks whether an event is valid from the current
// status and resolves the destination status. One validator is built per
// entity transition table.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
