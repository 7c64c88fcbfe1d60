package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/kataloghq/rentcycle/internal/domain"
)

// Events published by the coordinator that are not entity transitions.
const (
	eventContractCreate  domain.Event = "contract_create"
	eventPaymentInitiate domain.Event = "payment_initiate"
)

// Validators bundles one transition validator per entity.
type Validators struct {
	Room     domain.TransitionValidator
	Booking  domain.TransitionValidator
	Contract domain.TransitionValidator
	Payment  domain.TransitionValidator
	Invoice  domain.TransitionValidator
}

// Config tunes the coordinator's interaction with slow collaborators.
type Config struct {
	// GatewayTimeout bounds the outbound build of a payment redirect. On
	// timeout the payment stays pending for the reconciliation sweep; it is
	// never marked failed from a client-side timeout.
	GatewayTimeout time.Duration
	// CascadeAttempts and CascadeBackoff bound per-step retries of the
	// post-payment cascade before the step is left to the sweep.
	CascadeAttempts int
	CascadeBackoff  time.Duration
	// SweepBatch caps how many stale payments one sweep re-drives.
	SweepBatch int
}

func (c Config) withDefaults() Config {
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = 10 * time.Second
	}
	if c.CascadeAttempts <= 0 {
		c.CascadeAttempts = 3
	}
	if c.CascadeBackoff <= 0 {
		c.CascadeBackoff = 100 * time.Millisecond
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = 100
	}
	return c
}

// Coordinator drives the rental transaction lifecycle across rooms,
// bookings, contracts, payments, and invoices. It is the only component
// allowed to perform cross-entity status writes. The storage layer offers
// no multi-document transactions, so every cross-step guarantee rests on
// compare-and-swap writes: the payment status CAS is the single idempotency
// gate, and everything downstream of it is an eventually-consistent
// projection the reconciliation sweep can re-drive.
type Coordinator struct {
	rooms     domain.RoomRepository
	bookings  domain.BookingRepository
	contracts domain.ContractRepository
	payments  domain.PaymentRepository
	invoices  domain.InvoiceRepository
	gateway   domain.PaymentGateway
	publisher domain.EventPublisher
	validate  Validators
	cfg       Config
	log       *slog.Logger
}

// Deps collects the adapters the coordinator drives.
type Deps struct {
	Rooms     domain.RoomRepository
	Bookings  domain.BookingRepository
	Contracts domain.ContractRepository
	Payments  domain.PaymentRepository
	Invoices  domain.InvoiceRepository
	Gateway   domain.PaymentGateway
	Publisher domain.EventPublisher
	Validate  Validators
}

// NewCoordinator creates a coordinator with the given adapters.
func NewCoordinator(deps Deps, cfg Config, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		rooms:     deps.Rooms,
		bookings:  deps.Bookings,
		contracts: deps.Contracts,
		payments:  deps.Payments,
		invoices:  deps.Invoices,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		validate:  deps.Validate,
		cfg:       cfg.withDefaults(),
		log:       log,
	}
}

// CreateContract turns an approved booking into a pending contract, moving
// the room into its provisional reserved state. The room CAS runs before the
// contract insert: of two concurrent attempts for the same room exactly one
// wins the CAS, and the loser returns RoomUnavailable without ever creating
// a dangling contract record.
func (c *Coordinator) CreateContract(ctx context.Context, actor domain.Actor, bookingID string, rent int64) (domain.Contract, error) {
	booking, err := c.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Contract{}, err
	}
	if booking.Status != domain.BookingApproved {
		return domain.Contract{}, &domain.TransitionError{Event: domain.EventBookingConsume, Current: booking.Status}
	}

	room, err := c.rooms.GetByID(ctx, booking.RoomID)
	if err != nil {
		return domain.Contract{}, err
	}
	if !actor.Owns(room.HostID) {
		return domain.Contract{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "room", ID: room.ID}
	}
	if room.Status != domain.RoomAvailable {
		return domain.Contract{}, &domain.RoomUnavailableError{RoomID: room.ID, Status: room.Status}
	}

	open, err := c.contracts.CountOpen(ctx, room.ID)
	if err != nil {
		return domain.Contract{}, fmt.Errorf("checking open contracts: %w", err)
	}
	if open > 0 {
		return domain.Contract{}, &domain.OpenContractError{RoomID: room.ID}
	}

	id, err := generateID()
	if err != nil {
		return domain.Contract{}, fmt.Errorf("generating contract id: %w", err)
	}
	contract := domain.NewContract(id, booking, room.HostID, rent)

	// Reserve the room first. Losing this CAS is the normal outcome of a
	// concurrent creation race, reported as RoomUnavailable.
	if err := c.rooms.SetStatus(ctx, room.ID, domain.RoomAvailable, domain.RoomWaiting); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return domain.Contract{}, &domain.RoomUnavailableError{RoomID: room.ID, Status: room.Status}
		}
		return domain.Contract{}, fmt.Errorf("reserving room: %w", err)
	}

	if err := c.contracts.Create(ctx, contract); err != nil {
		// Compensate the reservation so the room is not stranded in waiting.
		if relErr := c.rooms.SetStatus(ctx, room.ID, domain.RoomWaiting, domain.RoomAvailable); relErr != nil {
			c.log.ErrorContext(ctx, "releasing room after failed contract insert",
				"room_id", room.ID, "error", relErr)
		}
		return domain.Contract{}, fmt.Errorf("creating contract: %w", err)
	}

	// The booking is now consumed by this contract. A CAS failure here is
	// recoverable: the cascade re-applies consumption after payment.
	if err := c.bookings.SetStatus(ctx, booking.ID, domain.BookingApproved, domain.BookingConsumed); err != nil {
		c.log.WarnContext(ctx, "marking booking consumed",
			"booking_id", booking.ID, "error", err)
	}

	c.publish(ctx, eventContractCreate, "contract", contract.ID, contract.Status)

	return contract, nil
}

// CancelContract cancels a not-yet-paid contract and releases the room
// reservation. Host or admin only.
func (c *Coordinator) CancelContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	return c.closeContract(ctx, actor, id, domain.EventContractCancel, domain.RoomWaiting)
}

// TerminateContract ends an active contract early and releases the room.
// Host or admin only; this is the sole user-initiated path that reverses an
// activated rental.
func (c *Coordinator) TerminateContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	return c.closeContract(ctx, actor, id, domain.EventContractTerminate, domain.RoomRented)
}

func (c *Coordinator) closeContract(ctx context.Context, actor domain.Actor, id string, event domain.Event, roomFrom domain.Status) (domain.Contract, error) {
	contract, err := c.contracts.GetByID(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if !actor.Owns(contract.HostID) {
		return domain.Contract{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "contract", ID: id}
	}

	next, err := c.validate.Contract.Apply(ctx, contract.Status, event)
	if err != nil {
		return domain.Contract{}, err
	}

	if err := c.contracts.SetStatus(ctx, id, contract.Status, next); err != nil {
		return domain.Contract{}, fmt.Errorf("updating contract status: %w", err)
	}
	contract.Status = next

	if err := c.rooms.SetStatus(ctx, contract.RoomID, roomFrom, domain.RoomAvailable); err != nil {
		// The contract close already committed; a stuck room is surfaced in
		// logs rather than rolled back.
		c.log.ErrorContext(ctx, "releasing room after contract close",
			"contract_id", id, "room_id", contract.RoomID, "error", err)
	}

	c.publish(ctx, event, "contract", id, next)

	return contract, nil
}

// GetContract returns a contract by its unique identifier.
func (c *Coordinator) GetContract(ctx context.Context, id string) (domain.Contract, error) {
	return c.contracts.GetByID(ctx, id)
}

// ListContracts returns contracts matching the given filter.
func (c *Coordinator) ListContracts(ctx context.Context, filter domain.ListFilter) ([]domain.Contract, error) {
	return c.contracts.List(ctx, filter)
}

// CreateInvoice raises a recurring-billing invoice against an active
// contract. Host or admin only.
func (c *Coordinator) CreateInvoice(ctx context.Context, actor domain.Actor, contractID string, items []domain.LineItem) (domain.Invoice, error) {
	contract, err := c.contracts.GetByID(ctx, contractID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if !actor.Owns(contract.HostID) {
		return domain.Invoice{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "contract", ID: contractID}
	}
	if contract.Status != domain.ContractActive {
		return domain.Invoice{}, &domain.TransitionError{Event: domain.EventInvoiceSettle, Current: contract.Status}
	}

	id, err := generateID()
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("generating invoice id: %w", err)
	}
	invoice := domain.NewInvoice(id, contract, items)

	if err := c.invoices.Create(ctx, invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("creating invoice: %w", err)
	}

	return invoice, nil
}

// GetInvoice returns an invoice by its unique identifier.
func (c *Coordinator) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	return c.invoices.GetByID(ctx, id)
}

// GetPayment returns a payment by its unique identifier.
func (c *Coordinator) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	return c.payments.GetByID(ctx, id)
}

// InitiatePayment creates a pending payment for a contract (or one of its
// invoices) and returns the signed provider URL to redirect the tenant to.
// All validation failures are synchronous and side-effect free: the payment
// record is only created after every check has passed.
func (c *Coordinator) InitiatePayment(ctx context.Context, actor domain.Actor, contractID, invoiceID, clientIP string) (string, domain.Payment, error) {
	contract, err := c.contracts.GetByID(ctx, contractID)
	if err != nil {
		return "", domain.Payment{}, err
	}
	if !actor.Owns(contract.TenantID) {
		return "", domain.Payment{}, &domain.NotOwnerError{ActorID: actor.ID, Entity: "contract", ID: contractID}
	}

	var amount int64
	var info string

	switch {
	case invoiceID != "":
		// Invoice settlement: allowed against a pending or active contract.
		if !contract.Open() {
			return "", domain.Payment{}, &domain.TransitionError{Event: domain.EventContractActivate, Current: contract.Status}
		}
		invoice, err := c.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return "", domain.Payment{}, err
		}
		if invoice.ContractID != contractID {
			return "", domain.Payment{}, domain.ErrInvoiceNotFound
		}
		if invoice.Status != domain.InvoicePending {
			return "", domain.Payment{}, &domain.TransitionError{Event: domain.EventInvoiceSettle, Current: invoice.Status}
		}
		amount = invoice.Total
		info = fmt.Sprintf("invoice %s for contract %s", invoiceID, contractID)
	default:
		// Contract settlement: only a pending contract can be paid for.
		if contract.Status != domain.ContractPending {
			return "", domain.Payment{}, &domain.TransitionError{Event: domain.EventContractActivate, Current: contract.Status}
		}
		amount = contract.Rent
		info = fmt.Sprintf("rent for contract %s", contractID)
	}

	id, err := generateID()
	if err != nil {
		return "", domain.Payment{}, fmt.Errorf("generating payment id: %w", err)
	}

	payment := domain.NewPayment(id, contract.TenantID, contractID, invoiceID, amount, newProviderRef())

	if err := c.payments.Create(ctx, payment); err != nil {
		return "", domain.Payment{}, fmt.Errorf("creating payment: %w", err)
	}

	gwCtx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()

	redirect, err := c.gateway.BuildRedirectURL(gwCtx, domain.PaymentOrder{
		Ref:      payment.ProviderRef,
		Amount:   payment.Amount,
		Info:     info,
		ClientIP: clientIP,
	})
	if err != nil {
		// The payment stays pending: it is never failed from a client-side
		// timeout, only from a verified callback.
		return "", domain.Payment{}, fmt.Errorf("building payment redirect: %w", err)
	}

	c.publish(ctx, eventPaymentInitiate, "payment", payment.ID, payment.Status)

	return redirect, payment, nil
}

// CallbackResult is the tenant-facing outcome of a provider callback. It
// carries the transaction reference only; no account or amount data ever
// reaches the redirect.
type CallbackResult struct {
	Ref     string
	Success bool
}

// HandleCallback processes one delivery of the provider's payment callback.
// It is safe under duplicate and concurrent delivery: the payment status CAS
// is the single idempotency gate, and a replay observes the recorded outcome
// without performing any further writes.
func (c *Coordinator) HandleCallback(ctx context.Context, params url.Values) (CallbackResult, error) {
	callback, err := c.gateway.VerifyCallback(params)
	if err != nil {
		// Possible tampering or a malformed payload. Log and answer with a
		// generic failure; nothing is mutated.
		c.log.WarnContext(ctx, "payment callback rejected", "error", err)
		return CallbackResult{}, nil
	}

	payment, err := c.payments.GetByProviderRef(ctx, callback.Ref)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			c.log.WarnContext(ctx, "callback for unknown payment", "ref", callback.Ref)
			return CallbackResult{Ref: callback.Ref}, nil
		}
		return CallbackResult{}, fmt.Errorf("loading payment by ref: %w", err)
	}

	if callback.Amount != payment.Amount {
		// Cryptographically valid but inconsistent with what was charged:
		// treated as a verification failure, never as a declined payment.
		c.log.WarnContext(ctx, "callback amount mismatch",
			"ref", callback.Ref, "got", callback.Amount, "want", payment.Amount)
		return CallbackResult{Ref: callback.Ref}, nil
	}

	// Idempotency guard: a settled payment replays its recorded outcome.
	if payment.Status != domain.PaymentPending {
		return CallbackResult{Ref: callback.Ref, Success: payment.Status == domain.PaymentPaid}, nil
	}

	if !callback.Success {
		next, err := c.validate.Payment.Apply(ctx, payment.Status, domain.EventPaymentDecline)
		if err != nil {
			return CallbackResult{}, err
		}
		if err := c.payments.SetStatus(ctx, payment.ID, payment.Status, next); err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				return c.recordedOutcome(ctx, callback.Ref)
			}
			return CallbackResult{}, fmt.Errorf("marking payment failed: %w", err)
		}
		c.publish(ctx, domain.EventPaymentDecline, "payment", payment.ID, domain.PaymentFailed)
		return CallbackResult{Ref: callback.Ref}, nil
	}

	if _, err := c.validate.Payment.Apply(ctx, payment.Status, domain.EventPaymentSettle); err != nil {
		return CallbackResult{}, err
	}

	// The settle CAS is the idempotency gate: only its winner cascades.
	if err := c.payments.Settle(ctx, payment.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return c.recordedOutcome(ctx, callback.Ref)
		}
		return CallbackResult{}, fmt.Errorf("settling payment: %w", err)
	}

	c.publish(ctx, domain.EventPaymentSettle, "payment", payment.ID, domain.PaymentPaid)

	// Cascade failures are logged, never rolled back: the paid status is the
	// source of truth and the reconciliation sweep re-drives the rest.
	c.cascade(ctx, payment)

	return CallbackResult{Ref: callback.Ref, Success: true}, nil
}

// recordedOutcome re-reads a payment after losing a status race and reports
// the winner's result.
func (c *Coordinator) recordedOutcome(ctx context.Context, ref string) (CallbackResult, error) {
	payment, err := c.payments.GetByProviderRef(ctx, ref)
	if err != nil {
		return CallbackResult{}, fmt.Errorf("reloading payment after status race: %w", err)
	}
	return CallbackResult{Ref: ref, Success: payment.Status == domain.PaymentPaid}, nil
}

// cascade projects a settled payment onto its downstream entities in a fixed
// order: contract, room, booking, invoice. Every step is a CAS or a no-op,
// so the cascade is re-entrant and can be resumed by the sweep at any point.
func (c *Coordinator) cascade(ctx context.Context, payment domain.Payment) {
	contract, err := c.contracts.GetByID(ctx, payment.ContractID)
	if err != nil {
		c.log.ErrorContext(ctx, "cascade: loading contract",
			"payment_id", payment.ID, "contract_id", payment.ContractID, "error", err)
		return
	}

	if contract.Status == domain.ContractPending {
		c.step(ctx, "activate contract", payment.ID, func() error {
			err := c.contracts.SetStatus(ctx, contract.ID, domain.ContractPending, domain.ContractActive)
			if errors.Is(err, domain.ErrStatusConflict) {
				return nil
			}
			return err
		})
		c.publish(ctx, domain.EventContractActivate, "contract", contract.ID, domain.ContractActive)
	}

	c.step(ctx, "activate rental", payment.ID, func() error {
		room, err := c.rooms.GetByID(ctx, contract.RoomID)
		if err != nil {
			return err
		}
		if room.Status != domain.RoomWaiting {
			return nil
		}
		err = c.rooms.SetStatus(ctx, room.ID, domain.RoomWaiting, domain.RoomRented)
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil
		}
		return err
	})

	c.step(ctx, "consume booking", payment.ID, func() error {
		booking, err := c.bookings.GetByID(ctx, contract.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingApproved {
			return nil
		}
		err = c.bookings.SetStatus(ctx, booking.ID, domain.BookingApproved, domain.BookingConsumed)
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil
		}
		return err
	})

	if payment.InvoiceID != "" {
		c.step(ctx, "settle invoice", payment.ID, func() error {
			err := c.invoices.SetStatus(ctx, payment.InvoiceID, domain.InvoicePending, domain.InvoicePaid)
			if errors.Is(err, domain.ErrStatusConflict) {
				return nil
			}
			return err
		})
	}
}

// step runs one cascade step with bounded retries. A step that keeps failing
// is abandoned to the reconciliation sweep, never rolled back.
func (c *Coordinator) step(ctx context.Context, name, paymentID string, fn func() error) {
	var err error
	backoff := c.cfg.CascadeBackoff

	for attempt := 1; attempt <= c.cfg.CascadeAttempts; attempt++ {
		if err = fn(); err == nil {
			return
		}

		c.log.WarnContext(ctx, "cascade step failed",
			"step", name, "payment_id", paymentID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	c.log.ErrorContext(ctx, "cascade step abandoned to reconciliation",
		"step", name, "payment_id", paymentID, "error", err)
}

// Reconcile scans paid payments whose downstream projections lag and
// re-drives their cascades. It returns the number of payments re-driven.
func (c *Coordinator) Reconcile(ctx context.Context) (int, error) {
	stale, err := c.payments.ListStale(ctx, c.cfg.SweepBatch)
	if err != nil {
		return 0, fmt.Errorf("listing stale payments: %w", err)
	}

	for _, payment := range stale {
		c.log.InfoContext(ctx, "reconciling payment",
			"payment_id", payment.ID, "ref", payment.ProviderRef)
		c.cascade(ctx, payment)
	}

	return len(stale), nil
}

// ExpireContracts closes active contracts whose end date has elapsed,
// releasing their rooms. It returns the number of contracts expired.
func (c *Coordinator) ExpireContracts(ctx context.Context, asOf time.Time) (int, error) {
	elapsed, err := c.contracts.ListElapsed(ctx, asOf, c.cfg.SweepBatch)
	if err != nil {
		return 0, fmt.Errorf("listing elapsed contracts: %w", err)
	}

	expired := 0
	for _, contract := range elapsed {
		err := c.contracts.SetStatus(ctx, contract.ID, domain.ContractActive, domain.ContractExpired)
		if err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				continue
			}
			return expired, fmt.Errorf("expiring contract %s: %w", contract.ID, err)
		}

		if err := c.rooms.SetStatus(ctx, contract.RoomID, domain.RoomRented, domain.RoomAvailable); err != nil {
			c.log.ErrorContext(ctx, "releasing room after contract expiry",
				"contract_id", contract.ID, "room_id", contract.RoomID, "error", err)
		}

		c.publish(ctx, domain.EventContractExpire, "contract", contract.ID, domain.ContractExpired)
		expired++
	}

	return expired, nil
}

// publish emits a lifecycle event, logging rather than failing the caller
// when the queue is unavailable.
func (c *Coordinator) publish(ctx context.Context, event domain.Event, entity, id string, status domain.Status) {
	err := c.publisher.Publish(ctx, domain.LifecycleEvent{
		Event:    event,
		Entity:   entity,
		EntityID: id,
		Status:   status,
	})
	if err != nil {
		c.log.WarnContext(ctx, "publishing lifecycle event",
			"event", event, "entity", entity, "entity_id", id, "error", err)
	}
}
