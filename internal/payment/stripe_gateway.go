// Package payment adapts the payment provider to the booking service's
// PaymentGateway port.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway captures and refunds Stripe PaymentIntents. Bookings are paid
// with manual-capture intents, so a payment reference is a PaymentIntent ID.
type StripeGateway struct {
	sc     *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway using the given secret key.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	return newStripeGateway(client.New(secretKey, nil), logger)
}

func newStripeGateway(sc *client.API, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{sc: sc, logger: logger}
}

// CapturePartial captures amount from an authorized intent and releases the rest.
func (g *StripeGateway) CapturePartial(
	ctx context.Context,
	bookingID uuid.UUID,
	paymentRef string,
	amount bookingDomain.Money,
	idempotencyKey string,
) (*application.Receipt, error) {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amount.AmountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	params.AddMetadata("booking_id", bookingID.String())

	pi, err := g.sc.PaymentIntents.Capture(paymentRef, params)
	if err != nil {
		return nil, mapStripeError("capture_failed", err)
	}

	g.logger.Info("payment intent captured",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount_cents", pi.AmountReceived),
	)
	return &application.Receipt{
		ID:        pi.ID,
		Amount:    bookingDomain.Money{AmountCents: pi.AmountReceived, Currency: strings.ToUpper(string(pi.Currency))},
		Status:    string(pi.Status),
		CreatedAt: time.Unix(pi.Created, 0).UTC(),
	}, nil
}

// Refund returns amount to the customer. An intent that is still only
// authorized cannot be refunded, so the retained part is captured and the
// refunded part released instead; the whole hold is cancelled when nothing is
// retained.
func (g *StripeGateway) Refund(
	ctx context.Context,
	paymentRef string,
	amount bookingDomain.Money,
	idempotencyKey string,
) (*application.Receipt, error) {
	getParams := &stripe.PaymentIntentParams{}
	getParams.Context = ctx
	pi, err := g.sc.PaymentIntents.Get(paymentRef, getParams)
	if err != nil {
		return nil, mapStripeError("refund_failed", err)
	}

	if pi.Status == stripe.PaymentIntentStatusRequiresCapture {
		return g.releaseHold(ctx, pi, amount, idempotencyKey)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amount.AmountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	r, err := g.sc.Refunds.New(params)
	if err != nil {
		return nil, mapStripeError("refund_failed", err)
	}
	return &application.Receipt{
		ID:        r.ID,
		Amount:    bookingDomain.Money{AmountCents: r.Amount, Currency: strings.ToUpper(string(r.Currency))},
		Status:    string(r.Status),
		CreatedAt: time.Unix(r.Created, 0).UTC(),
	}, nil
}

func (g *StripeGateway) releaseHold(
	ctx context.Context,
	pi *stripe.PaymentIntent,
	amount bookingDomain.Money,
	idempotencyKey string,
) (*application.Receipt, error) {
	retained := pi.Amount - amount.AmountCents
	released := bookingDomain.Money{AmountCents: amount.AmountCents, Currency: amount.Currency}

	if retained <= 0 {
		params := &stripe.PaymentIntentCancelParams{
			CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
		}
		params.Context = ctx
		params.SetIdempotencyKey(idempotencyKey)
		cancelled, err := g.sc.PaymentIntents.Cancel(pi.ID, params)
		if err != nil {
			return nil, mapStripeError("refund_failed", err)
		}
		released.AmountCents = pi.Amount
		return &application.Receipt{
			ID:        cancelled.ID,
			Amount:    released,
			Status:    string(cancelled.Status),
			CreatedAt: time.Unix(cancelled.Created, 0).UTC(),
		}, nil
	}

	params := &stripe.PaymentIntentCaptureParams{AmountToCapture: stripe.Int64(retained)}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	captured, err := g.sc.PaymentIntents.Capture(pi.ID, params)
	if err != nil {
		return nil, mapStripeError("refund_failed", err)
	}
	g.logger.Info("authorization partially released",
		zap.String("payment_intent", pi.ID),
		zap.Int64("retained_cents", retained),
		zap.Int64("released_cents", amount.AmountCents),
	)
	return &application.Receipt{
		ID:        captured.ID,
		Amount:    released,
		Status:    string(captured.Status),
		CreatedAt: time.Unix(captured.Created, 0).UTC(),
	}, nil
}

func mapStripeError(fallback string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := string(stripeErr.Code)
		if code == "" {
			code = "stripe_" + string(stripeErr.Type)
		}
		return domain.NewPaymentError(code, err)
	}
	return domain.NewPaymentError(fallback, err)
}

// Unconfigured is used when no payment provider credentials are set. Every
// money movement fails with a configuration error so it surfaces to operators.
type Unconfigured struct{}

// CapturePartial always fails.
func (Unconfigured) CapturePartial(context.Context, uuid.UUID, string, bookingDomain.Money, string) (*application.Receipt, error) {
	return nil, domain.NewConfigurationError("payment_gateway_unconfigured", "no payment provider configured")
}

// Refund always fails.
func (Unconfigured) Refund(context.Context, string, bookingDomain.Money, string) (*application.Receipt, error) {
	return nil, domain.NewConfigurationError("payment_gateway_unconfigured", "no payment provider configured")
}

var (
	_ application.PaymentGateway = (*StripeGateway)(nil)
	_ application.PaymentGateway = Unconfigured{}
)
