// Package http exposes the lifecycle API over huma on a chi router. The
// provider callback is the one endpoint registered as a raw chi route: its
// payload shape belongs to the provider, not this API.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

// Services bundles the application services the API fronts.
type Services struct {
	Rooms       *app.RoomService
	Bookings    *app.BookingService
	Coordinator *app.Coordinator
}

// Register adds all lifecycle API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerRooms(api, svc.Rooms)
	registerBookings(api, svc.Bookings)
	registerContracts(api, svc.Coordinator)
	registerPayments(api, svc.Coordinator)
	registerInvoices(api, svc.Coordinator)
	registerAdmin(api, svc.Coordinator)
}

// LandingConfig holds the tenant-facing redirect targets for payment
// outcomes. Each carries only the transaction reference.
type LandingConfig struct {
	SuccessURL string
	FailureURL string
}

// RegisterCallback mounts the provider callback endpoint as a plain chi
// route. The provider controls the query shape, so the handler passes the
// raw parameters through to the coordinator and answers with a redirect.
func RegisterCallback(router chi.Router, coord *app.Coordinator, landing LandingConfig) {
	router.Get("/api/v1/payments/callback", func(w http.ResponseWriter, r *http.Request) {
		result, err := coord.HandleCallback(r.Context(), r.URL.Query())

		target := landing.FailureURL
		if err == nil && result.Success {
			target = landing.SuccessURL
		}
		if result.Ref != "" {
			target += "?ref=" + result.Ref
		}

		http.Redirect(w, r, target, http.StatusFound)
	})
}

// ActorParams carries the explicit caller identity. Authentication happens
// upstream; these headers are trusted claims by the time they reach the API.
type ActorParams struct {
	ActorID   string `header:"X-Actor-Id" doc:"Acting principal identifier"`
	ActorRole string `header:"X-Actor-Role" enum:"tenant,host,admin" doc:"Acting principal role"`
}

func (p ActorParams) actor() domain.Actor {
	return domain.Actor{ID: p.ActorID, Role: domain.Role(p.ActorRole)}
}

const (
	jsonTimeFormat = "2006-01-02T15:04:05Z"
	jsonDateFormat = "2006-01-02"
)

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(jsonDateFormat, value)
	if err != nil {
		return time.Time{}, huma.Error422UnprocessableEntity(field + " must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// statusFilter builds a ListFilter from common query params.
func statusFilter(status string, limit, offset int) domain.ListFilter {
	filter := domain.ListFilter{Limit: limit, Offset: offset}
	if status != "" {
		s := domain.Status(status)
		filter.Status = &s
	}
	return filter
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrContractNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound):
		return huma.Error404NotFound(err.Error())
	}

	var notOwner *domain.NotOwnerError
	if errors.As(err, &notOwner) {
		return huma.Error403Forbidden(notOwner.Error())
	}

	var transition *domain.TransitionError
	if errors.As(err, &transition) {
		return huma.Error422UnprocessableEntity(transition.Error())
	}

	var dupBooking *domain.DuplicateBookingError
	if errors.As(err, &dupBooking) {
		return huma.Error409Conflict(dupBooking.Error())
	}

	var openContract *domain.OpenContractError
	if errors.As(err, &openContract) {
		return huma.Error409Conflict(openContract.Error())
	}

	var unavailable *domain.RoomUnavailableError
	if errors.As(err, &unavailable) {
		return huma.Error409Conflict(unavailable.Error())
	}

	if errors.Is(err, domain.ErrStatusConflict) {
		return huma.Error409Conflict("resource changed concurrently, retry")
	}

	var humaErr huma.StatusError
	if errors.As(err, &humaErr) {
		return humaErr
	}

	return huma.Error500InternalServerError("internal server error")
}
