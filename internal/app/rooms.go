package app

import (
	"context"
	"fmt"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// RoomService handles host-facing room operations: creation and the explicit
// status overrides (maintenance, removal, reinstatement). Reservation and
// rental activation belong to the Coordinator.
type RoomService struct {
	rooms     domain.RoomRepository
	validator domain.TransitionValidator
	publisher domain.EventPublisher
}

// NewRoomService creates a service with the given adapters.
func NewRoomService(rooms domain.RoomRepository, validator domain.TransitionValidator, publisher domain.EventPublisher) *RoomService {
	return &RoomService{rooms: rooms, validator: validator, publisher: publisher}
}

// Create persists a new room owned by the acting host.
func (s *RoomService) Create(ctx context.Context, actor domain.Actor, title string) (domain.Room, error) {
	id, err := generateID()
	if err != nil {
		return domain.Room{}, fmt.Errorf("generating room id: %w", err)
	}

	room := domain.NewRoom(id, actor.ID, title)

	if err := s.rooms.Create(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("creating room: %w", err)
	}

	return room, nil
}

// GetByID returns a room by its unique identifier.
func (s *RoomService) GetByID(ctx context.Context, id string) (domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// List returns rooms matching the given filter.
func (s *RoomService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Room, error) {
	return s.rooms.List(ctx, filter)
}

// SetMaintenance takes an available room out of circulation.
func (s *RoomService) SetMaintenance(ctx context.Context, actor domain.Actor, id string) (domain.Room, error) {
	return s.override(ctx, actor, id, domain.EventRoomMaintenance)
}

// Remove soft-deletes a room. Rooms are never hard-deleted.
func (s *RoomService) Remove(ctx context.Context, actor domain.Actor, id string) (domain.Room, error) {
	return s.override(ctx, actor, id, domain.EventRoomRemove)
}

// Reinstate brings a maintenance or deleted room back to available.
func (s *RoomService) Reinstate(ctx context.Context, actor domain.Actor, id string) (domain.Room, error) {
	return s.override(ctx, actor, id, domain.EventRoomReinstate)
}

// override applies a host-initiated room event with an ownership check and a
// compare-and-swap write conditioned on the status just read.
func (s *RoomService) override(ctx context.Context, actor domain.Actor, id string, event domain.Event) (domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return domain.Room{}, err
	}

	if !actor.Owns(room.HostID) {
		return domain.Room{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "room", ID: id}
	}

	next, err := s.validator.Apply(ctx, room.Status, event)
	if err != nil {
		return domain.Room{}, err
	}

	if err := s.rooms.SetStatus(ctx, id, room.Status, next); err != nil {
		return domain.Room{}, fmt.Errorf("updating room status: %w", err)
	}
	room.Status = next

	if err := s.publisher.Publish(ctx, domain.LifecycleEvent{
		Event:    event,
		Entity:   "room",
		EntityID: id,
		Status:   next,
	}); err != nil {
		return domain.Room{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return room, nil
}
