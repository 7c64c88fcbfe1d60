package domain

import "time"

// Booking statuses.
const (
	BookingPending   Status = "pending"
	BookingApproved  Status = "approved"
	BookingRejected  Status = "rejected"
	BookingCancelled Status = "cancelled"
	BookingConsumed  Status = "consumed"
)

// Booking events.
const (
	EventBookingApprove Event = "booking_approve"
	EventBookingReject  Event = "booking_reject"
	EventBookingCancel  Event = "booking_cancel"
	EventBookingConsume Event = "booking_consume"
)

// BookingTransitions defines all valid state changes in the booking lifecycle.
// Consume is coordinator-only: it records that an approved booking has been
// turned into a settled contract, so callback replays can no-op.
var BookingTransitions = []Transition{
	{Event: EventBookingApprove, Src: BookingPending, Dst: BookingApproved},
	{Event: EventBookingReject, Src: BookingPending, Dst: BookingRejected},
	{Event: EventBookingCancel, Src: BookingPending, Dst: BookingCancelled},
	{Event: EventBookingConsume, Src: BookingApproved, Dst: BookingConsumed},
}

// Booking is a tenant's reservation request for a room over a date range.
// A tenant may hold at most one pending booking per room.
type Booking struct {
	ID        string
	RoomID    string
	TenantID  string
	StartDate time.Time
	EndDate   time.Time
	Note      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBooking creates a booking in the initial "pending" state.
func NewBooking(id, roomID, tenantID string, start, end time.Time, note string) Booking {
	now := time.Now().UTC()
	return Booking{
		ID:        id,
		RoomID:    roomID,
		TenantID:  tenantID,
		StartDate: start,
		EndDate:   end,
		Note:      note,
		Status:    BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
