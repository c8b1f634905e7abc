package booking

import (
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
)

// ChargeState tracks a no-show capture against the pre-authorized hold.
type ChargeState string

const (
	ChargePending  ChargeState = "pending"
	ChargeCaptured ChargeState = "captured"
	ChargeFailed   ChargeState = "failed"
)

// NoShowCharge is the capture taken when a customer was confirmed absent.
type NoShowCharge struct {
	SessionID uuid.UUID   `json:"session_id"`
	Amount    Money       `json:"amount"`
	State     ChargeState `json:"state"`
	ReceiptID string      `json:"receipt_id,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Claims reports whether the charge has taken, or is about to take, the hold.
// A partial capture releases the rest of the hold, so nothing is left to refund.
func (c NoShowCharge) Claims() bool {
	return c.State == ChargePending || c.State == ChargeCaptured
}

// NoShowCharge returns the recorded no-show charge, or nil.
func (b *Booking) NoShowCharge() *NoShowCharge {
	if b.noShowCharge == nil {
		return nil
	}
	c := *b.noShowCharge
	return &c
}

// BeginNoShowCharge claims the hold for a no-show capture. It must be
// persisted before the gateway is called so a concurrent cancellation sees it.
func (b *Booking) BeginNoShowCharge(sessionID uuid.UUID, amount Money, now time.Time) error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidTransitionError("booking_moved_on", "booking is "+string(b.status))
	}
	if b.noShowCharge != nil && b.noShowCharge.Claims() {
		return domain.NewConflictError("no_show_already_charged",
			"a no-show charge was already taken for this booking")
	}
	b.noShowCharge = &NoShowCharge{
		SessionID: sessionID,
		Amount:    amount,
		State:     ChargePending,
		UpdatedAt: now,
	}
	b.updatedAt = now
	return nil
}

// SettleNoShowCharge records a successful capture. The booking may have been
// cancelled in the meantime; the charge stands either way.
func (b *Booking) SettleNoShowCharge(receiptID string, now time.Time) error {
	if b.noShowCharge == nil || b.noShowCharge.State != ChargePending {
		return domain.NewInvalidTransitionError("no_pending_no_show_charge",
			"there is no no-show charge awaiting capture")
	}
	b.noShowCharge.State = ChargeCaptured
	b.noShowCharge.ReceiptID = receiptID
	b.noShowCharge.UpdatedAt = now
	if b.paymentStatus.CanTransitionTo(PaymentPartiallyCaptured) {
		b.paymentStatus = PaymentPartiallyCaptured
	}
	b.updatedAt = now
	return nil
}

// FailNoShowCharge releases the claim after the capture failed.
func (b *Booking) FailNoShowCharge(now time.Time) error {
	if b.noShowCharge == nil || b.noShowCharge.State != ChargePending {
		return domain.NewInvalidTransitionError("no_pending_no_show_charge",
			"there is no no-show charge awaiting capture")
	}
	b.noShowCharge.State = ChargeFailed
	b.noShowCharge.UpdatedAt = now
	b.updatedAt = now
	return nil
}
