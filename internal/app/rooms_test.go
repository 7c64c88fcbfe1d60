package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

func newRoomService() (*app.RoomService, *mockRooms, *mockPublisher) {
	rooms := newMockRooms()
	pub := &mockPublisher{}
	svc := app.NewRoomService(rooms, &tableValidator{table: domain.RoomTransitions}, pub)
	return svc, rooms, pub
}

func TestRoomServiceCreate(t *testing.T) {
	svc, rooms, _ := newRoomService()
	ctx := context.Background()

	room, err := svc.Create(ctx, hostActor, "Sunny studio")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if room.HostID != hostActor.ID {
		t.Errorf("HostID = %q, want %q", room.HostID, hostActor.ID)
	}
	if room.Status != domain.RoomAvailable {
		t.Errorf("Status = %q, want %q", room.Status, domain.RoomAvailable)
	}
	if len(room.ID) == 0 {
		t.Error("ID should not be empty")
	}

	stored, err := rooms.GetByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("room not found in repo: %v", err)
	}
	if stored.Title != "Sunny studio" {
		t.Errorf("stored Title = %q, want %q", stored.Title, "Sunny studio")
	}
}

func TestRoomServiceSetMaintenance(t *testing.T) {
	svc, rooms, pub := newRoomService()
	ctx := context.Background()
	rooms.rooms["r-1"] = domain.NewRoom("r-1", hostActor.ID, "Room")

	room, err := svc.SetMaintenance(ctx, hostActor, "r-1")
	if err != nil {
		t.Fatalf("SetMaintenance failed: %v", err)
	}
	if room.Status != domain.RoomMaintenance {
		t.Errorf("Status = %q, want %q", room.Status, domain.RoomMaintenance)
	}

	if events := pub.byEvent(domain.EventRoomMaintenance); len(events) != 1 {
		t.Errorf("published %d maintenance events, want 1", len(events))
	}
}

func TestRoomServiceSetMaintenance_RentedRejected(t *testing.T) {
	svc, rooms, _ := newRoomService()
	room := domain.NewRoom("r-1", hostActor.ID, "Room")
	room.Status = domain.RoomRented
	rooms.rooms["r-1"] = room

	_, err := svc.SetMaintenance(context.Background(), hostActor, "r-1")
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestRoomServiceRemove_NotOwner(t *testing.T) {
	svc, rooms, _ := newRoomService()
	rooms.rooms["r-1"] = domain.NewRoom("r-1", hostActor.ID, "Room")

	other := domain.Actor{ID: "host-2", Role: domain.RoleHost}
	_, err := svc.Remove(context.Background(), other, "r-1")
	var ownerErr *domain.NotOwnerError
	if !errors.As(err, &ownerErr) {
		t.Fatalf("expected NotOwnerError, got %v", err)
	}
}

func TestRoomServiceReinstate_FromDeleted(t *testing.T) {
	svc, rooms, _ := newRoomService()
	ctx := context.Background()
	room := domain.NewRoom("r-1", hostActor.ID, "Room")
	room.Status = domain.RoomDeleted
	rooms.rooms["r-1"] = room

	got, err := svc.Reinstate(ctx, hostActor, "r-1")
	if err != nil {
		t.Fatalf("Reinstate failed: %v", err)
	}
	if got.Status != domain.RoomAvailable {
		t.Errorf("Status = %q, want %q", got.Status, domain.RoomAvailable)
	}
}
