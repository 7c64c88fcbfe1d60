package domain

import "time"

// Contract statuses.
const (
	ContractPending    Status = "pending"
	ContractActive     Status = "active"
	ContractCancelled  Status = "cancelled"
	ContractTerminated Status = "terminated"
	ContractExpired    Status = "expired"
)

// Contract events.
const (
	EventContractActivate  Event = "contract_activate"
	EventContractCancel    Event = "contract_cancel"
	EventContractTerminate Event = "contract_terminate"
	EventContractExpire    Event = "contract_expire"
)

// ContractTransitions defines all valid state changes in the contract
// lifecycle. Activation happens only as a consequence of a confirmed payment;
// termination and expiry both release the room.
var ContractTransitions = []Transition{
	{Event: EventContractActivate, Src: ContractPending, Dst: ContractActive},
	{Event: EventContractCancel, Src: ContractPending, Dst: ContractCancelled},
	{Event: EventContractTerminate, Src: ContractActive, Dst: ContractTerminated},
	{Event: EventContractExpire, Src: ContractActive, Dst: ContractExpired},
}

// Contract is the binding rental agreement produced from an approved booking.
// At most one contract per room may be in a pending or active state.
type Contract struct {
	ID        string
	BookingID string
	RoomID    string
	TenantID  string
	HostID    string
	StartDate time.Time
	EndDate   time.Time
	// Rent is the monthly rent in the smallest currency unit used internally.
	// Integer arithmetic avoids floating-point rounding in money paths.
	Rent      int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContract creates a contract in the initial "pending" state.
func NewContract(id string, booking Booking, hostID string, rent int64) Contract {
	now := time.Now().UTC()
	return Contract{
		ID:        id,
		BookingID: booking.ID,
		RoomID:    booking.RoomID,
		TenantID:  booking.TenantID,
		HostID:    hostID,
		StartDate: booking.StartDate,
		EndDate:   booking.EndDate,
		Rent:      rent,
		Status:    ContractPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open reports whether the contract occupies its room: pending contracts hold
// a reservation, active contracts hold the rental itself.
func (c Contract) Open() bool {
	return c.Status == ContractPending || c.Status == ContractActive
}
