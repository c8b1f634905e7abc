package booking

import (
	"strings"
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
)

// Role identifies which party issues a command.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor is the authenticated party behind a command.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id           uuid.UUID
	providerID   uuid.UUID
	customerID   uuid.UUID
	serviceName  string
	price        Money
	transportFee Money
	slot         Slot
	address      Address

	status        BookingStatus
	paymentStatus PaymentStatus
	paymentRef    *string

	counterProposal *CounterProposal
	progress        *BookingProgress
	noShowCharge    *NoShowCharge

	confirmedAt *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelledBy *uuid.UUID
	cancelRole  Role
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the data needed to create a booking.
type NewBookingParams struct {
	ProviderID   uuid.UUID
	CustomerID   uuid.UUID
	ServiceName  string
	Price        Money
	TransportFee Money
	Slot         Slot
	Address      Address
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if p.ProviderID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if p.CustomerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if strings.TrimSpace(p.ServiceName) == "" {
		return nil, domain.NewValidationError("service name is required")
	}
	if p.Price.AmountCents <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}
	if len(p.Price.Currency) != 3 {
		return nil, domain.NewValidationError("price currency is required")
	}
	if p.TransportFee.AmountCents < 0 {
		return nil, domain.NewValidationError("transport fee cannot be negative")
	}
	fee := p.TransportFee
	if fee.Currency == "" {
		fee.Currency = p.Price.Currency
	}
	if fee.Currency != p.Price.Currency {
		return nil, domain.NewValidationError("transport fee currency must match price currency")
	}
	if err := p.Slot.Validate(); err != nil {
		return nil, err
	}
	if err := p.Address.Validate(); err != nil {
		return nil, err
	}

	return &Booking{
		id:            uuid.New(),
		providerID:    p.ProviderID,
		customerID:    p.CustomerID,
		serviceName:   strings.TrimSpace(p.ServiceName),
		price:         p.Price,
		transportFee:  fee,
		slot:          p.Slot,
		address:       p.Address,
		status:        StatusPending,
		paymentStatus: PaymentUnpaid,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Snapshot is the full persisted state of a booking.
type Snapshot struct {
	ID              uuid.UUID
	ProviderID      uuid.UUID
	CustomerID      uuid.UUID
	ServiceName     string
	Price           Money
	TransportFee    Money
	Slot            Slot
	Address         Address
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	PaymentRef      *string
	CounterProposal *CounterProposal
	Steps           []ServiceStep
	ProgressFrozen  bool
	HasProgress     bool
	NoShowCharge    *NoShowCharge
	ConfirmedAt     *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	CancelledBy     *uuid.UUID
	CancelRole      Role
	CancelNote      string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	b := &Booking{
		id:            s.ID,
		providerID:    s.ProviderID,
		customerID:    s.CustomerID,
		serviceName:   s.ServiceName,
		price:         s.Price,
		transportFee:  s.TransportFee,
		slot:          s.Slot,
		address:       s.Address,
		status:        s.Status,
		paymentStatus: s.PaymentStatus,
		paymentRef:    s.PaymentRef,
		confirmedAt:   s.ConfirmedAt,
		startedAt:     s.StartedAt,
		completedAt:   s.CompletedAt,
		cancelledAt:   s.CancelledAt,
		cancelledBy:   s.CancelledBy,
		cancelRole:    s.CancelRole,
		cancelNote:    s.CancelNote,
		version:       s.Version,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
	if s.CounterProposal != nil {
		cp := *s.CounterProposal
		b.counterProposal = &cp
	}
	if s.HasProgress {
		b.progress = ReconstructProgress(s.Steps, s.ProgressFrozen)
	}
	if s.NoShowCharge != nil {
		c := *s.NoShowCharge
		b.noShowCharge = &c
	}
	return b
}

// Snapshot exports the booking state for persistence.
func (b *Booking) Snapshot() Snapshot {
	s := Snapshot{
		ID:            b.id,
		ProviderID:    b.providerID,
		CustomerID:    b.customerID,
		ServiceName:   b.serviceName,
		Price:         b.price,
		TransportFee:  b.transportFee,
		Slot:          b.slot,
		Address:       b.address,
		Status:        b.status,
		PaymentStatus: b.paymentStatus,
		PaymentRef:    b.paymentRef,
		ConfirmedAt:   b.confirmedAt,
		StartedAt:     b.startedAt,
		CompletedAt:   b.completedAt,
		CancelledAt:   b.cancelledAt,
		CancelledBy:   b.cancelledBy,
		CancelRole:    b.cancelRole,
		CancelNote:    b.cancelNote,
		Version:       b.version,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.updatedAt,
	}
	if b.counterProposal != nil {
		cp := *b.counterProposal
		s.CounterProposal = &cp
	}
	if b.progress != nil {
		s.HasProgress = true
		s.Steps = b.progress.Steps()
		s.ProgressFrozen = b.progress.Frozen()
	}
	s.NoShowCharge = b.NoShowCharge()
	return s
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ProviderID returns the service provider's user ID.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// CustomerID returns the customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// ServiceName returns the booked service's display name.
func (b *Booking) ServiceName() string { return b.serviceName }

// Price returns the service price.
func (b *Booking) Price() Money { return b.price }

// TransportFee returns the provider travel fee.
func (b *Booking) TransportFee() Money { return b.transportFee }

// Slot returns the scheduled date and times.
func (b *Booking) Slot() Slot { return b.slot }

// Address returns the service address.
func (b *Booking) Address() Address { return b.address }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the current payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentRef returns the payment gateway reference, or nil if none was recorded.
func (b *Booking) PaymentRef() *string { return b.paymentRef }

// CounterProposal returns the outstanding counter-proposal, or nil.
func (b *Booking) CounterProposal() *CounterProposal { return b.counterProposal }

// Progress returns the progress tracker, or nil before the service starts.
func (b *Booking) Progress() *BookingProgress { return b.progress }

// ConfirmedAt returns when the booking was confirmed.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// StartedAt returns when the service started.
func (b *Booking) StartedAt() *time.Time { return b.startedAt }

// CompletedAt returns when the service was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns when the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelledBy returns the user who cancelled the booking.
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Authorization ---

// IsParticipant reports whether the actor may see this booking.
func (b *Booking) IsParticipant(a Actor) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleProvider:
		return a.ID == b.providerID
	case RoleCustomer:
		return a.ID == b.customerID
	}
	return false
}

// RequireProvider rejects actors other than the booking's provider or staff.
func (b *Booking) RequireProvider(a Actor) error {
	if a.Role == RoleAdmin || a.Role == RoleSystem || (a.Role == RoleProvider && a.ID == b.providerID) {
		return nil
	}
	return domain.NewForbiddenError("only the booking's provider can do this")
}

// RequireCustomer rejects actors other than the booking's customer or an admin.
func (b *Booking) RequireCustomer(a Actor) error {
	if a.Role == RoleAdmin || (a.Role == RoleCustomer && a.ID == b.customerID) {
		return nil
	}
	return domain.NewForbiddenError("only the booking's customer can do this")
}

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm(actor Actor, now time.Time) error {
	if err := b.RequireProvider(actor); err != nil {
		return err
	}
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	if b.counterProposal != nil && b.counterProposal.IsPending() {
		return domain.NewConflictError("counter_proposal_pending",
			"a counter-proposal is awaiting the customer's answer")
	}
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Decline transitions the booking from pending to declined. Payment status is
// left untouched: funds were only pre-authorized.
func (b *Booking) Decline(actor Actor, now time.Time) error {
	if err := b.RequireProvider(actor); err != nil {
		return err
	}
	if !b.status.CanTransitionTo(StatusDeclined) {
		return domain.NewInvalidStateError(string(b.status), string(StatusDeclined))
	}
	b.status = StatusDeclined
	b.counterProposal = nil
	b.updatedAt = now
	return nil
}

// Start transitions the booking from confirmed to started and creates the
// progress tracker from template, or DefaultStepTemplate when template is empty.
// An existing tracker is kept.
func (b *Booking) Start(actor Actor, template []StepTemplate, now time.Time) error {
	if err := b.RequireProvider(actor); err != nil {
		return err
	}
	if !b.status.CanTransitionTo(StatusStarted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusStarted))
	}
	if b.progress == nil {
		if len(template) == 0 {
			template = DefaultStepTemplate
		}
		progress, err := NewProgress(template)
		if err != nil {
			return err
		}
		b.progress = progress
	}
	b.status = StatusStarted
	b.startedAt = &now
	b.updatedAt = now
	return nil
}

// AdvanceStep marks a step complete. The first completed step moves the
// booking from started to in_progress. Completing every step does not
// complete the booking. changed is false for a repeated call.
func (b *Booking) AdvanceStep(actor Actor, stepID uuid.UUID, now time.Time) (changed bool, err error) {
	if err := b.RequireProvider(actor); err != nil {
		return false, err
	}
	if !b.status.IsExecuting() || b.progress == nil {
		return false, domain.NewInvalidTransitionError("service_not_started",
			"steps can only be advanced while the service is running, booking is "+string(b.status))
	}
	changed, err = b.progress.MarkComplete(stepID, now)
	if err != nil {
		return false, err
	}
	if changed {
		if b.status == StatusStarted {
			b.status = StatusInProgress
		}
		b.updatedAt = now
	}
	return changed, nil
}

// Complete transitions the booking to completed once every step is done and
// freezes the progress tracker.
func (b *Booking) Complete(actor Actor, now time.Time) error {
	if err := b.RequireProvider(actor); err != nil {
		return err
	}
	if b.progress == nil || !b.progress.AllCompleted() {
		return domain.NewInvalidTransitionError("steps_incomplete",
			"all service steps must be completed first")
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.progress.Freeze()
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
// Money movement is decided separately by EvaluateRefund.
func (b *Booking) Cancel(actor Actor, reason string, now time.Time) error {
	if !b.IsParticipant(actor) {
		return domain.NewForbiddenError("only the booking's participants can cancel it")
	}
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidTransitionError("already_"+string(b.status),
			"booking is already "+string(b.status))
	}
	by := actor.ID
	b.status = StatusCancelled
	b.counterProposal = nil
	if b.progress != nil {
		b.progress.Freeze()
	}
	b.cancelledBy = &by
	b.cancelRole = actor.Role
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// ProposeSlot records a provider's alternate slot on a pending booking.
func (b *Booking) ProposeSlot(actor Actor, slot Slot, message string, now time.Time) error {
	if err := b.RequireProvider(actor); err != nil {
		return err
	}
	if b.status != StatusPending {
		return domain.NewInvalidTransitionError("booking_not_pending",
			"counter-proposals are only possible on pending bookings")
	}
	if b.counterProposal != nil && b.counterProposal.IsPending() {
		return domain.NewConflictError("counter_proposal_pending",
			"a counter-proposal is already awaiting the customer's answer")
	}
	proposal, err := NewCounterProposal(slot, message, now)
	if err != nil {
		return err
	}
	b.counterProposal = proposal
	b.updatedAt = now
	return nil
}

func (b *Booking) pendingProposal() (*CounterProposal, error) {
	if b.counterProposal == nil || !b.counterProposal.IsPending() {
		return nil, domain.NewInvalidTransitionError("no_pending_counter_proposal",
			"there is no counter-proposal awaiting an answer")
	}
	if b.status != StatusPending {
		return nil, domain.NewInvalidTransitionError("booking_not_pending",
			"booking is "+string(b.status))
	}
	return b.counterProposal, nil
}

// AcceptCounterProposal moves the booking to the proposed slot and confirms it.
func (b *Booking) AcceptCounterProposal(actor Actor, now time.Time) error {
	if err := b.RequireCustomer(actor); err != nil {
		return err
	}
	proposal, err := b.pendingProposal()
	if err != nil {
		return err
	}
	if err := proposal.Accept(); err != nil {
		return err
	}
	b.slot = proposal.Slot
	b.counterProposal = nil
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// RefuseCounterProposal drops the proposal; the booking stays pending.
func (b *Booking) RefuseCounterProposal(actor Actor, now time.Time) error {
	if err := b.RequireCustomer(actor); err != nil {
		return err
	}
	proposal, err := b.pendingProposal()
	if err != nil {
		return err
	}
	if err := proposal.Refuse(); err != nil {
		return err
	}
	b.counterProposal = nil
	b.updatedAt = now
	return nil
}

// RecordPaymentAuthorized stores the gateway reference of the pre-authorization.
func (b *Booking) RecordPaymentAuthorized(paymentRef string, now time.Time) error {
	if strings.TrimSpace(paymentRef) == "" {
		return domain.NewValidationError("payment reference is required")
	}
	if err := b.SetPaymentStatus(PaymentAuthorized, now); err != nil {
		return err
	}
	b.paymentRef = &paymentRef
	return nil
}

// SetPaymentStatus moves the payment status forward.
func (b *Booking) SetPaymentStatus(to PaymentStatus, now time.Time) error {
	if !b.paymentStatus.CanTransitionTo(to) {
		return domain.NewInvalidTransitionError("invalid_payment_transition",
			"cannot move payment from "+string(b.paymentStatus)+" to "+string(to))
	}
	b.paymentStatus = to
	b.updatedAt = now
	return nil
}

// RefundInput builds the cancellation policy input for this booking.
func (b *Booking) RefundInput(now time.Time, loc *time.Location) (RefundInput, error) {
	start, err := b.slot.StartsAt(loc)
	if err != nil {
		return RefundInput{}, err
	}
	in := RefundInput{
		Status:         b.status,
		PaymentStatus:  b.paymentStatus,
		ScheduledStart: start,
		Now:            now,
		Price:          b.price,
		TransportFee:   b.transportFee,
	}
	if b.noShowCharge != nil && b.noShowCharge.Claims() {
		charged := b.noShowCharge.Amount
		in.NoShowCharge = &charged
	}
	return in, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion(now time.Time) {
	b.version++
	b.updatedAt = now
}
