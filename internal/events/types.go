package events

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies this service on every emitted event.
const Source = "service-booking"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types emitted on TopicBookingEvents.
const (
	BookingCreated                = "booking.created"
	BookingConfirmed              = "booking.confirmed"
	BookingDeclined               = "booking.declined"
	BookingStarted                = "booking.started"
	BookingCancelled              = "booking.cancelled"
	BookingCounterProposalSent    = "booking.counter_proposal_sent"
	BookingCounterProposalRefused = "booking.counter_proposal_refused"
	BookingProgressUpdated        = "booking.progress_updated"
	BookingServiceCompleted       = "booking.service_completed"
	BookingNoShowStarted          = "booking.no_show_started"
	BookingNoShowResolved         = "booking.no_show_resolved"
	BookingPaymentActionFailed    = "booking.payment_action_failed"
)

// Payment event types consumed from TopicPaymentEvents.
const (
	PaymentAuthorized = "payment.authorized"
	PaymentFailed     = "payment.failed"
)

// BookingCreatedEvent is emitted when a customer requests a booking.
type BookingCreatedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	ServiceName string    `json:"service_name"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingStatusEvent covers confirmed, declined and started transitions.
type BookingStatusEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Status     string    `json:"status"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent carries the refund decision taken at cancellation.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	CancelledRole string    `json:"cancelled_role"`
	Reason        string    `json:"reason,omitempty"`
	RefundRule    string    `json:"refund_rule"`
	RefundCents   int64     `json:"refund_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// CounterProposalEvent is emitted when a provider proposes or the customer refuses a new slot.
type CounterProposalEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProgressUpdatedEvent is emitted after a step is completed.
type ProgressUpdatedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	StepID        uuid.UUID  `json:"step_id"`
	TotalProgress int        `json:"total_progress"`
	CurrentStepID *uuid.UUID `json:"current_step_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// RebookSuggestionPayload is the follow-up proposal attached to a completed service.
type RebookSuggestionPayload struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ServiceName string `json:"service_name"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

// ServiceCompletedEvent triggers review and rebook flows downstream.
type ServiceCompletedEvent struct {
	BookingID  uuid.UUID                `json:"booking_id"`
	ProviderID uuid.UUID                `json:"provider_id"`
	CustomerID uuid.UUID                `json:"customer_id"`
	Rebook     *RebookSuggestionPayload `json:"rebook,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// NoShowEvent is emitted when a no-show countdown starts or resolves.
type NoShowEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	SessionID     uuid.UUID `json:"session_id"`
	Resolution    string    `json:"resolution"`
	ExpiresAt     time.Time `json:"expires_at"`
	ChargedCents  int64     `json:"charged_cents,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	ReceiptID     string    `json:"receipt_id,omitempty"`
	ChargeFailure string    `json:"charge_failure,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentActionFailedEvent flags a refund or capture that needs manual follow-up.
type PaymentActionFailedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	Action      string    `json:"action"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Code        string    `json:"code"`
	Error       string    `json:"error"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentAuthorizedEvent is published by the payment service once funds are held.
type PaymentAuthorizedEvent struct {
	PaymentID   string    `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	PaymentRef  string    `json:"payment_ref"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentFailedEvent is published by the payment service when authorization fails.
type PaymentFailedEvent struct {
	PaymentID  string    `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
