package booking

import "time"

// RefundRule names the cancellation rule that produced a refund decision.
// Values are shown to users, so they are stable.
type RefundRule string

const (
	RuleDeclinedNoCharge      RefundRule = "declined_no_charge"
	RuleAlreadyRefunded       RefundRule = "already_refunded"
	RuleNoShowCharged         RefundRule = "no_show_charged"
	RuleLateTransportRetained RefundRule = "late_cancel_transport_retained"
	RuleFullRefund            RefundRule = "full_refund"
	RuleHalfRefund            RefundRule = "half_refund"
	RuleRefundWindowExpired   RefundRule = "refund_window_expired"
)

const (
	fullRefundHours = 48
	halfRefundHours = 24
)

// RefundInput is everything the cancellation policy looks at.
type RefundInput struct {
	Status         BookingStatus
	PaymentStatus  PaymentStatus
	ScheduledStart time.Time
	Now            time.Time
	Price          Money
	TransportFee   Money
	// NoShowCharge is set when a no-show capture holds the funds.
	NoShowCharge *Money
}

// RefundDecision is the outcome of the cancellation policy.
type RefundDecision struct {
	Rule              RefundRule `json:"rule"`
	Refund            Money      `json:"refund"`
	Retained          Money      `json:"retained"`
	HoursUntilBooking float64    `json:"hours_until_booking"`
	// NoCharge marks a cancellation where funds were never captured, so
	// nothing is returned and nothing is kept.
	NoCharge  bool `json:"no_charge"`
	CanCancel bool `json:"can_cancel"`
}

// ShouldRefund reports whether money has to be sent back.
func (d RefundDecision) ShouldRefund() bool {
	return d.Refund.AmountCents > 0
}

// EvaluateRefund applies the cancellation rules in order:
//
//  1. declined bookings were only pre-authorized: no charge, no refund
//     (a fully refunded booking has nothing left either)
//  2. a no-show charge was captured: the capture released the rest of the
//     hold, nothing is refunded and the charge is kept
//  3. < 24h, confirmed, transport fee > 0: refund the service price, keep the fee
//  4. >= 48h: refund the full price
//  5. 24h..48h: refund half the price
//  6. otherwise: refund nothing
//
// Refund tiers apply to the service price only; the transport fee is kept
// except for declined bookings.
//
// The policy never blocks a cancellation; CanCancel only reflects whether the
// status is still open.
func EvaluateRefund(in RefundInput) RefundDecision {
	zero := Money{Currency: in.Price.Currency}
	total := in.Price.Add(in.TransportFee)
	hours := in.ScheduledStart.Sub(in.Now).Hours()

	d := RefundDecision{
		HoursUntilBooking: hours,
		CanCancel:         !in.Status.IsTerminal(),
	}

	if in.Status == StatusDeclined {
		d.Rule = RuleDeclinedNoCharge
		d.Refund = zero
		d.Retained = zero
		d.NoCharge = true
		return d
	}
	if in.PaymentStatus == PaymentRefunded {
		d.Rule = RuleAlreadyRefunded
		d.Refund = zero
		d.Retained = zero
		return d
	}
	if in.NoShowCharge != nil {
		d.Rule = RuleNoShowCharged
		d.Refund = zero
		d.Retained = *in.NoShowCharge
		return d
	}

	switch {
	case hours < halfRefundHours && in.Status == StatusConfirmed && in.TransportFee.AmountCents > 0:
		d.Rule = RuleLateTransportRetained
		d.Refund = in.Price
	case hours >= fullRefundHours:
		d.Rule = RuleFullRefund
		d.Refund = in.Price
	case hours >= halfRefundHours:
		d.Rule = RuleHalfRefund
		d.Refund = in.Price.Percent(50)
	default:
		d.Rule = RuleRefundWindowExpired
		d.Refund = zero
	}
	d.Retained = Money{AmountCents: total.AmountCents - d.Refund.AmountCents, Currency: in.Price.Currency}
	return d
}
