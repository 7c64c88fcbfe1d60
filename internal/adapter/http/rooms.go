package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	HostID    string `json:"host_id" doc:"Owning host"`
	Title     string `json:"title" doc:"Display title"`
	Status    string `json:"status" doc:"Lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		HostID:    r.HostID,
		Title:     r.Title,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(jsonTimeFormat),
		UpdatedAt: r.UpdatedAt.Format(jsonTimeFormat),
	}
}

type CreateRoomInput struct {
	ActorParams
	Body struct {
		Title string `json:"title" minLength:"1" maxLength:"255" doc:"Display title"`
	}
}

type RoomOutput struct {
	Body RoomResponse
}

type GetRoomInput struct {
	ID string `path:"id" doc:"Room ID"`
}

type ListRoomsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListRoomsOutput struct {
	Body []RoomResponse
}

type RoomEventInput struct {
	ActorParams
	ID string `path:"id" doc:"Room ID"`
}

func registerRooms(api huma.API, svc *app.RoomService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms",
		Summary:     "Create a new room",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *CreateRoomInput) (*RoomOutput, error) {
		room, err := svc.Create(ctx, input.actor(), input.Body.Title)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Get a room by ID",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *GetRoomInput) (*RoomOutput, error) {
		room, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms",
		Summary:     "List rooms",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *ListRoomsInput) (*ListRoomsOutput, error) {
		rooms, err := svc.List(ctx, statusFilter(input.Status, input.Limit, input.Offset))
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RoomResponse, len(rooms))
		for i, r := range rooms {
			resp[i] = toRoomResponse(r)
		}
		return &ListRoomsOutput{Body: resp}, nil
	})

	type roomOp struct {
		id      string
		path    string
		summary string
		apply   func(context.Context, domain.Actor, string) (domain.Room, error)
	}

	for _, op := range []roomOp{
		{"room-maintenance", "/api/v1/rooms/{id}/maintenance", "Take a room into maintenance", svc.SetMaintenance},
		{"room-reinstate", "/api/v1/rooms/{id}/reinstate", "Reinstate a room to available", svc.Reinstate},
		{"room-remove", "/api/v1/rooms/{id}/remove", "Soft-delete a room", svc.Remove},
	} {
		apply := op.apply
		huma.Register(api, huma.Operation{
			OperationID: op.id,
			Method:      http.MethodPost,
			Path:        op.path,
			Summary:     op.summary,
			Tags:        []string{"Rooms"},
		}, func(ctx context.Context, input *RoomEventInput) (*RoomOutput, error) {
			room, err := apply(ctx, input.actor(), input.ID)
			if err != nil {
				return nil, toHumaError(err)
			}
			return &RoomOutput{Body: toRoomResponse(room)}, nil
		})
	}
}
