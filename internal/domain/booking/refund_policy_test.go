package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRefund(t *testing.T) {
	eur := func(c int64) Money { return Money{AmountCents: c, Currency: "EUR"} }
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		status       BookingStatus
		payment      PaymentStatus
		hoursUntil   float64
		fee          int64
		wantRule     RefundRule
		wantRefund   int64
		wantRetained int64
		wantNoCharge bool
	}{
		{"declined", StatusDeclined, PaymentAuthorized, 100, 0, RuleDeclinedNoCharge, 0, 0, true},
		{"48h full", StatusConfirmed, PaymentAuthorized, 48, 0, RuleFullRefund, 10000, 0, false},
		{"30h half", StatusConfirmed, PaymentAuthorized, 30, 0, RuleHalfRefund, 5000, 5000, false},
		{"24h half boundary", StatusConfirmed, PaymentAuthorized, 24, 0, RuleHalfRefund, 5000, 5000, false},
		{"10h no fee", StatusConfirmed, PaymentAuthorized, 10, 0, RuleRefundWindowExpired, 0, 10000, false},
		{"10h fee retained", StatusConfirmed, PaymentAuthorized, 10, 2000, RuleLateTransportRetained, 10000, 2000, false},
		{"10h pending ignores fee", StatusPending, PaymentAuthorized, 10, 2000, RuleRefundWindowExpired, 0, 12000, false},
		{"past start", StatusStarted, PaymentCaptured, -2, 2000, RuleRefundWindowExpired, 0, 12000, false},
		{"72h with fee", StatusConfirmed, PaymentAuthorized, 72, 2000, RuleFullRefund, 10000, 2000, false},
		{"already refunded", StatusConfirmed, PaymentRefunded, 72, 0, RuleAlreadyRefunded, 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := start.Add(-time.Duration(tc.hoursUntil * float64(time.Hour)))
			d := EvaluateRefund(RefundInput{
				Status:         tc.status,
				PaymentStatus:  tc.payment,
				ScheduledStart: start,
				Now:            now,
				Price:          eur(10000),
				TransportFee:   eur(tc.fee),
			})

			assert.Equal(t, tc.wantRule, d.Rule)
			assert.Equal(t, tc.wantRefund, d.Refund.AmountCents)
			assert.Equal(t, "EUR", d.Refund.Currency)
			assert.Equal(t, tc.wantRetained, d.Retained.AmountCents)
			assert.Equal(t, tc.wantNoCharge, d.NoCharge)
			assert.InDelta(t, tc.hoursUntil, d.HoursUntilBooking, 0.0001)
		})
	}
}

func TestEvaluateRefund_CanCancel(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for status, want := range map[BookingStatus]bool{
		StatusPending:    true,
		StatusConfirmed:  true,
		StatusStarted:    true,
		StatusInProgress: true,
		StatusCompleted:  false,
		StatusCancelled:  false,
		StatusDeclined:   false,
	} {
		d := EvaluateRefund(RefundInput{Status: status, ScheduledStart: start, Now: start, Price: Money{AmountCents: 100, Currency: "EUR"}})
		assert.Equal(t, want, d.CanCancel, status)
	}
}

func TestBooking_RefundInputUsesLocation(t *testing.T) {
	b, _, _ := newTestBooking(t)
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}

	in, err := b.RefundInput(testNow, paris)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), in.ScheduledStart.UTC())
	assert.Equal(t, int64(2000), in.TransportFee.AmountCents)
}

func TestEvaluateRefund_NoShowChargeKeepsHold(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	charged := Money{AmountCents: 7000, Currency: "EUR"}

	for _, hours := range []float64{2, 30, 72} {
		d := EvaluateRefund(RefundInput{
			Status:         StatusConfirmed,
			PaymentStatus:  PaymentPartiallyCaptured,
			ScheduledStart: start,
			Now:            start.Add(-time.Duration(hours * float64(time.Hour))),
			Price:          Money{AmountCents: 10000, Currency: "EUR"},
			TransportFee:   Money{AmountCents: 2000, Currency: "EUR"},
			NoShowCharge:   &charged,
		})
		assert.Equal(t, RuleNoShowCharged, d.Rule, hours)
		assert.False(t, d.ShouldRefund(), hours)
		assert.Equal(t, int64(7000), d.Retained.AmountCents, hours)
	}
}
