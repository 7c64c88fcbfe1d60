package domain

import "time"

// Status represents the lifecycle state of an entity. Each entity type has
// its own set of valid statuses and its own transition table.
type Status string

// Event represents an action that triggers a state transition.
type Event string

// Transition defines a valid state change: an event moves an entity from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Room statuses.
const (
	RoomAvailable   Status = "available"
	RoomWaiting     Status = "waiting"
	RoomRented      Status = "rented"
	RoomMaintenance Status = "maintenance"
	RoomDeleted     Status = "deleted"
)

// Room events.
const (
	EventRoomReserve     Event = "room_reserve"
	EventRoomActivate    Event = "room_activate"
	EventRoomRelease     Event = "room_release"
	EventRoomMaintenance Event = "room_maintenance"
	EventRoomRemove      Event = "room_remove"
	EventRoomReinstate   Event = "room_reinstate"
)

// RoomTransitions defines all valid state changes in the room lifecycle.
// Reserve and activate are driven exclusively by the lifecycle coordinator;
// maintenance, remove, and reinstate are host overrides.
var RoomTransitions = []Transition{
	{Event: EventRoomReserve, Src: RoomAvailable, Dst: RoomWaiting},
	{Event: EventRoomActivate, Src: RoomWaiting, Dst: RoomRented},
	{Event: EventRoomRelease, Src: RoomWaiting, Dst: RoomAvailable},
	{Event: EventRoomRelease, Src: RoomRented, Dst: RoomAvailable},
	{Event: EventRoomMaintenance, Src: RoomAvailable, Dst: RoomMaintenance},
	{Event: EventRoomRemove, Src: RoomAvailable, Dst: RoomDeleted},
	{Event: EventRoomReinstate, Src: RoomMaintenance, Dst: RoomAvailable},
	{Event: EventRoomReinstate, Src: RoomDeleted, Dst: RoomAvailable},
}

// Room is a rentable unit. Its status is the most contended resource in the
// system: every mutation must be a compare-and-swap conditioned on the
// previously-read status, since at most one open contract may hold a room.
type Room struct {
	ID        string
	HostID    string
	Title     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRoom creates a room in the initial "available" state.
func NewRoom(id, hostID, title string) Room {
	now := time.Now().UTC()
	return Room{
		ID:        id,
		HostID:    hostID,
		Title:     title,
		Status:    RoomAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
