package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusDeclined   BookingStatus = "declined"
	StatusStarted    BookingStatus = "started"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusConfirmed:  {StatusStarted, StatusCancelled},
	StatusStarted:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusDeclined:   {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s BookingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// IsExecuting reports whether service execution has begun and not finished.
func (s BookingStatus) IsExecuting() bool {
	return s == StatusStarted || s == StatusInProgress
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus tracks money held against a booking.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentAuthorized        PaymentStatus = "authorized"
	PaymentPartiallyCaptured PaymentStatus = "partially_captured"
	PaymentCaptured          PaymentStatus = "captured"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentFailed            PaymentStatus = "failed"
)

// paymentRank orders the monotonic payment states. Failed is ranked separately.
var paymentRank = map[PaymentStatus]int{
	PaymentUnpaid:            0,
	PaymentAuthorized:        1,
	PaymentPartiallyCaptured: 2,
	PaymentCaptured:          3,
	PaymentPartiallyRefunded: 4,
	PaymentRefunded:          5,
}

// IsValid returns true if the payment status is recognized.
func (p PaymentStatus) IsValid() bool {
	if p == PaymentFailed {
		return true
	}
	_, ok := paymentRank[p]
	return ok
}

// CanTransitionTo enforces monotonic payment progress. The only way back is
// failed -> authorized, and failed is reachable only before any capture.
func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if !p.IsValid() || !target.IsValid() || p == target {
		return false
	}
	switch {
	case target == PaymentFailed:
		return p == PaymentUnpaid || p == PaymentAuthorized
	case p == PaymentFailed:
		return target == PaymentAuthorized
	}
	return paymentRank[target] > paymentRank[p]
}

// HasFunds reports whether money is currently held or captured.
func (p PaymentStatus) HasFunds() bool {
	switch p {
	case PaymentAuthorized, PaymentPartiallyCaptured, PaymentCaptured, PaymentPartiallyRefunded:
		return true
	}
	return false
}

func (p PaymentStatus) String() string {
	return string(p)
}

// ParsePaymentStatus converts a string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
	return status, nil
}
