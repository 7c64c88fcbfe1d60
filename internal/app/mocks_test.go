package app_test

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// tableValidator is a direct table walk standing in for the FSM adapter.
type tableValidator struct {
	table []domain.Transition
}

func (v *tableValidator) Apply(_ context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	for _, tr := range v.table {
		if tr.Event == event && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

// --- Repositories ---

type mockRooms struct {
	mu    sync.Mutex
	rooms map[string]domain.Room
}

func newMockRooms() *mockRooms {
	return &mockRooms{rooms: make(map[string]domain.Room)}
}

func (m *mockRooms) Create(_ context.Context, room domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *mockRooms) GetByID(_ context.Context, id string) (domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (m *mockRooms) List(_ context.Context, _ domain.ListFilter) ([]domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (m *mockRooms) SetStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.Status != from {
		return domain.ErrStatusConflict
	}
	room.Status = to
	m.rooms[id] = room
	return nil
}

type mockBookings struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
}

func newMockBookings() *mockBookings {
	return &mockBookings{bookings: make(map[string]domain.Booking)}
}

func (m *mockBookings) Create(_ context.Context, b domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookings) GetByID(_ context.Context, id string) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (m *mockBookings) List(_ context.Context, _ domain.ListFilter) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBookings) HasPending(_ context.Context, roomID, tenantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.TenantID == tenantID && b.Status == domain.BookingPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookings) SetStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status != from {
		return domain.ErrStatusConflict
	}
	b.Status = to
	m.bookings[id] = b
	return nil
}

type mockContracts struct {
	mu        sync.Mutex
	contracts map[string]domain.Contract
}

func newMockContracts() *mockContracts {
	return &mockContracts{contracts: make(map[string]domain.Contract)}
}

func (m *mockContracts) Create(_ context.Context, c domain.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirror the partial unique index on open contracts per room.
	for _, other := range m.contracts {
		if other.RoomID == c.RoomID && other.Open() {
			return &domain.OpenContractError{RoomID: c.RoomID}
		}
	}
	m.contracts[c.ID] = c
	return nil
}

func (m *mockContracts) GetByID(_ context.Context, id string) (domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return domain.Contract{}, domain.ErrContractNotFound
	}
	return c, nil
}

func (m *mockContracts) List(_ context.Context, _ domain.ListFilter) ([]domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockContracts) CountOpen(_ context.Context, roomID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.contracts {
		if c.RoomID == roomID && c.Open() {
			n++
		}
	}
	return n, nil
}

func (m *mockContracts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok || c.Status == domain.ContractActive {
		return domain.ErrContractNotFound
	}
	delete(m.contracts, id)
	return nil
}

func (m *mockContracts) ListElapsed(_ context.Context, asOf time.Time, _ int) ([]domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contract
	for _, c := range m.contracts {
		if c.Status == domain.ContractActive && c.EndDate.Before(asOf) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContracts) SetStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return domain.ErrContractNotFound
	}
	if c.Status != from {
		return domain.ErrStatusConflict
	}
	c.Status = to
	m.contracts[id] = c
	return nil
}

// mockPayments counts every successful mutation so tests can assert that
// replayed callbacks perform zero additional writes.
type mockPayments struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
	writes   int
}

func newMockPayments() *mockPayments {
	return &mockPayments{payments: make(map[string]domain.Payment)}
}

func (m *mockPayments) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *mockPayments) Create(_ context.Context, p domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	m.writes++
	return nil
}

func (m *mockPayments) GetByID(_ context.Context, id string) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (m *mockPayments) GetByProviderRef(_ context.Context, ref string) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ProviderRef == ref {
			return p, nil
		}
	}
	return domain.Payment{}, domain.ErrPaymentNotFound
}

func (m *mockPayments) Settle(_ context.Context, id string, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if p.Status != domain.PaymentPending {
		return domain.ErrStatusConflict
	}
	p.Status = domain.PaymentPaid
	p.PaidAt = &paidAt
	m.payments[id] = p
	m.writes++
	return nil
}

func (m *mockPayments) SetStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if p.Status != from {
		return domain.ErrStatusConflict
	}
	p.Status = to
	m.payments[id] = p
	m.writes++
	return nil
}

func (m *mockPayments) ListStale(_ context.Context, _ int) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, p := range m.payments {
		if p.Status == domain.PaymentPaid {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockInvoices struct {
	mu       sync.Mutex
	invoices map[string]domain.Invoice
}

func newMockInvoices() *mockInvoices {
	return &mockInvoices{invoices: make(map[string]domain.Invoice)}
}

func (m *mockInvoices) Create(_ context.Context, inv domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockInvoices) GetByID(_ context.Context, id string) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *mockInvoices) ListByContract(_ context.Context, contractID string) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.ContractID == contractID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvoices) SetStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	if inv.Status != from {
		return domain.ErrStatusConflict
	}
	inv.Status = to
	m.invoices[id] = inv
	return nil
}

// --- Gateway ---

// mockGateway uses a flat ref/amount/code query shape and treats the
// presence of a "bad_sig" key as a verification failure, so tests can forge
// both honest and tampered callbacks without real signing.
type mockGateway struct {
	mu       sync.Mutex
	buildErr error
	orders   []domain.PaymentOrder
}

func (g *mockGateway) BuildRedirectURL(_ context.Context, order domain.PaymentOrder) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.buildErr != nil {
		return "", g.buildErr
	}
	g.orders = append(g.orders, order)
	return "https://pay.example.com/checkout?ref=" + order.Ref, nil
}

func (g *mockGateway) VerifyCallback(params url.Values) (domain.Callback, error) {
	if params.Has("bad_sig") {
		return domain.Callback{}, &domain.VerificationError{Reason: "signature mismatch"}
	}
	amount, err := strconv.ParseInt(params.Get("amount"), 10, 64)
	if err != nil {
		return domain.Callback{}, &domain.VerificationError{Reason: "malformed amount"}
	}
	code := params.Get("code")
	return domain.Callback{
		Ref:          params.Get("ref"),
		Amount:       amount,
		Success:      code == "00",
		ResponseCode: code,
	}, nil
}

func callbackParams(ref string, amount int64, code string) url.Values {
	params := url.Values{}
	params.Set("ref", ref)
	params.Set("amount", fmt.Sprintf("%d", amount))
	params.Set("code", code)
	return params
}

// --- Publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (m *mockPublisher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) byEvent(event domain.Event) []domain.LifecycleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LifecycleEvent
	for _, e := range m.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
