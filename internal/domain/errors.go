package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrContractNotFound = errors.New("contract not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")

	// ErrStatusConflict is a compare-and-swap loss: the status a write was
	// conditioned on changed underneath it. Contention rather than failure: the
	// losing caller re-reads and adopts the winner's outcome.
	ErrStatusConflict = errors.New("status changed concurrently")
)

// RoomUnavailableError is returned when a contract tries to reserve a room
// that is not available (including losing the reservation race).
type RoomUnavailableError struct {
	RoomID string
	Status Status
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %q is not available (status %q)", e.RoomID, e.Status)
}

// NotOwnerError is returned when an actor fails an ownership or role check.
type NotOwnerError struct {
	ActorID string
	Entity  string
	ID      string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("actor %q does not own %s %q", e.ActorID, e.Entity, e.ID)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// DuplicateBookingError is returned when a tenant already holds a pending
// booking for the same room.
type DuplicateBookingError struct {
	RoomID   string
	TenantID string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("tenant %q already has a pending booking for room %q", e.TenantID, e.RoomID)
}

// OpenContractError is returned when contract creation would violate the
// one-open-contract-per-room invariant.
type OpenContractError struct {
	RoomID string
}

func (e *OpenContractError) Error() string {
	return fmt.Sprintf("room %q already has a pending or active contract", e.RoomID)
}

// VerificationError is returned when an inbound gateway callback fails
// verification: bad signature, malformed payload, or an amount that does not
// match the payment record. Distinct from a declined payment: a callback
// that fails verification must not mutate any state.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("callback verification failed: %s", e.Reason)
}
