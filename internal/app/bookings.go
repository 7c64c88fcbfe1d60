package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// BookingService handles the reservation-request side of the lifecycle:
// tenants raise bookings, hosts approve or reject them. Approval only marks
// a booking eligible; turning it into a contract is a separate, explicit
// coordinator step.
type BookingService struct {
	bookings  domain.BookingRepository
	rooms     domain.RoomRepository
	validator domain.TransitionValidator
	publisher domain.EventPublisher
}

// NewBookingService creates a service with the given adapters.
func NewBookingService(bookings domain.BookingRepository, rooms domain.RoomRepository, validator domain.TransitionValidator, publisher domain.EventPublisher) *BookingService {
	return &BookingService{bookings: bookings, rooms: rooms, validator: validator, publisher: publisher}
}

// Create raises a pending booking by the acting tenant for the given room
// and date range. A tenant may hold at most one pending booking per room.
func (s *BookingService) Create(ctx context.Context, actor domain.Actor, roomID string, start, end time.Time, note string) (domain.Booking, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return domain.Booking{}, err
	}

	pending, err := s.bookings.HasPending(ctx, roomID, actor.ID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("checking pending bookings: %w", err)
	}
	if pending {
		return domain.Booking{}, &domain.DuplicateBookingError{RoomID: roomID, TenantID: actor.ID}
	}

	id, err := generateID()
	if err != nil {
		return domain.Booking{}, fmt.Errorf("generating booking id: %w", err)
	}

	booking := domain.NewBooking(id, roomID, actor.ID, start, end, note)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return domain.Booking{}, fmt.Errorf("creating booking: %w", err)
	}

	return booking, nil
}

// GetByID returns a booking by its unique identifier.
func (s *BookingService) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// List returns bookings matching the given filter.
func (s *BookingService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// Approve marks a pending booking eligible for contract creation. Only the
// host owning the room (or an admin) may approve.
func (s *BookingService) Approve(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	return s.hostTransition(ctx, actor, id, domain.EventBookingApprove)
}

// Reject declines a pending booking. Same authorization as Approve.
func (s *BookingService) Reject(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	return s.hostTransition(ctx, actor, id, domain.EventBookingReject)
}

// Cancel withdraws a booking. Only the owning tenant may cancel, and only
// while the booking is still pending.
func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	if !actor.Owns(booking.TenantID) {
		return domain.Booking{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "booking", ID: id}
	}

	return s.apply(ctx, booking, domain.EventBookingCancel)
}

// hostTransition applies a host-side booking event after checking the actor
// owns the booked room.
func (s *BookingService) hostTransition(ctx context.Context, actor domain.Actor, id string, event domain.Event) (domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	room, err := s.rooms.GetByID(ctx, booking.RoomID)
	if err != nil {
		return domain.Booking{}, err
	}

	if !actor.Owns(room.HostID) {
		return domain.Booking{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "room", ID: room.ID}
	}

	return s.apply(ctx, booking, event)
}

func (s *BookingService) apply(ctx context.Context, booking domain.Booking, event domain.Event) (domain.Booking, error) {
	next, err := s.validator.Apply(ctx, booking.Status, event)
	if err != nil {
		return domain.Booking{}, err
	}

	if err := s.bookings.SetStatus(ctx, booking.ID, booking.Status, next); err != nil {
		return domain.Booking{}, fmt.Errorf("updating booking status: %w", err)
	}
	booking.Status = next

	if err := s.publisher.Publish(ctx, domain.LifecycleEvent{
		Event:    event,
		Entity:   "booking",
		EntityID: booking.ID,
		Status:   next,
	}); err != nil {
		return domain.Booking{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return booking, nil
}
