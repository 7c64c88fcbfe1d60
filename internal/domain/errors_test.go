package domain_test

import (
	"testing"

	"github.com/kataloghq/rentcycle/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Event:   domain.EventContractActivate,
		Current: domain.ContractCancelled,
	}
	want := `event "contract_activate" is not valid from state "cancelled"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRoomUnavailableError_Error(t *testing.T) {
	err := &domain.RoomUnavailableError{RoomID: "r-1", Status: domain.RoomRented}
	want := `room "r-1" is not available (status "rented")`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDuplicateBookingError_Error(t *testing.T) {
	err := &domain.DuplicateBookingError{RoomID: "r-1", TenantID: "t-1"}
	want := `tenant "t-1" already has a pending booking for room "r-1"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestOpenContractError_Error(t *testing.T) {
	err := &domain.OpenContractError{RoomID: "r-1"}
	want := `room "r-1" already has a pending or active contract`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotOwnerError_Error(t *testing.T) {
	err := &domain.NotOwnerError{ActorID: "u-1", Entity: "room", ID: "r-1"}
	want := `actor "u-1" does not own room "r-1"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestVerificationError_Error(t *testing.T) {
	err := &domain.VerificationError{Reason: "signature mismatch"}
	want := "callback verification failed: signature mismatch"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
