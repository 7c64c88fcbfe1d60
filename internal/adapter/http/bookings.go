package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	RoomID    string `json:"room_id" doc:"Booked room"`
	TenantID  string `json:"tenant_id" doc:"Requesting tenant"`
	StartDate string `json:"start_date" doc:"Requested start date (YYYY-MM-DD)"`
	EndDate   string `json:"end_date" doc:"Requested end date (YYYY-MM-DD)"`
	Note      string `json:"note,omitempty" doc:"Free-text note"`
	Status    string `json:"status" doc:"Lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		RoomID:    b.RoomID,
		TenantID:  b.TenantID,
		StartDate: b.StartDate.Format(jsonDateFormat),
		EndDate:   b.EndDate.Format(jsonDateFormat),
		Note:      b.Note,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(jsonTimeFormat),
		UpdatedAt: b.UpdatedAt.Format(jsonTimeFormat),
	}
}

type CreateBookingInput struct {
	ActorParams
	Body struct {
		RoomID    string `json:"room_id" minLength:"1" doc:"Room to book"`
		StartDate string `json:"start_date" doc:"Requested start date (YYYY-MM-DD)"`
		EndDate   string `json:"end_date" doc:"Requested end date (YYYY-MM-DD)"`
		Note      string `json:"note,omitempty" maxLength:"1000" doc:"Free-text note"`
	}
}

type BookingOutput struct {
	Body BookingResponse
}

type GetBookingInput struct {
	ID string `path:"id" doc:"Booking ID"`
}

type ListBookingsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListBookingsOutput struct {
	Body []BookingResponse
}

type BookingEventInput struct {
	ActorParams
	ID string `path:"id" doc:"Booking ID"`
}

func registerBookings(api huma.API, svc *app.BookingService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-booking",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings",
		Summary:     "Request a booking for a room",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
		start, err := parseDate(input.Body.StartDate, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := parseDate(input.Body.EndDate, "end_date")
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, huma.Error422UnprocessableEntity("end_date must be after start_date")
		}

		booking, err := svc.Create(ctx, input.actor(), input.Body.RoomID, start, end, input.Body.Note)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(booking)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-booking",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings/{id}",
		Summary:     "Get a booking by ID",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *GetBookingInput) (*BookingOutput, error) {
		booking, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(booking)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bookings",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings",
		Summary:     "List bookings",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ListBookingsInput) (*ListBookingsOutput, error) {
		bookings, err := svc.List(ctx, statusFilter(input.Status, input.Limit, input.Offset))
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]BookingResponse, len(bookings))
		for i, b := range bookings {
			resp[i] = toBookingResponse(b)
		}
		return &ListBookingsOutput{Body: resp}, nil
	})

	type bookingOp struct {
		id      string
		path    string
		summary string
		apply   func(context.Context, domain.Actor, string) (domain.Booking, error)
	}

	for _, op := range []bookingOp{
		{"approve-booking", "/api/v1/bookings/{id}/approve", "Approve a pending booking", svc.Approve},
		{"reject-booking", "/api/v1/bookings/{id}/reject", "Reject a pending booking", svc.Reject},
		{"cancel-booking", "/api/v1/bookings/{id}/cancel", "Cancel a pending booking", svc.Cancel},
	} {
		apply := op.apply
		huma.Register(api, huma.Operation{
			OperationID: op.id,
			Method:      http.MethodPost,
			Path:        op.path,
			Summary:     op.summary,
			Tags:        []string{"Bookings"},
		}, func(ctx context.Context, input *BookingEventInput) (*BookingOutput, error) {
			booking, err := apply(ctx, input.actor(), input.ID)
			if err != nil {
				return nil, toHumaError(err)
			}
			return &BookingOutput{Body: toBookingResponse(booking)}, nil
		})
	}
}
