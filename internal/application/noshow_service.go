package application

import (
	"context"
	"fmt"
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/events"
	"github.com/glowbook/service-booking/internal/noshow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNoShowRadiusMeters is how close the provider must be to the address.
const DefaultNoShowRadiusMeters = 150.0

// expiryTimeout bounds the work done when a countdown elapses.
const expiryTimeout = 45 * time.Second

// NoShowService checks the preconditions for a no-show countdown and captures
// the no-show charge when one elapses.
type NoShowService struct {
	bookings     *BookingService
	geo          Geolocator
	charge       bookingDomain.ChargeStrategy
	radiusMeters float64
	logger       *zap.Logger
}

// NewNoShowService creates a NoShowService sharing the booking service's
// repository, guard and payment gateway.
func NewNoShowService(
	bookings *BookingService,
	geo Geolocator,
	charge bookingDomain.ChargeStrategy,
	radiusMeters float64,
	logger *zap.Logger,
) *NoShowService {
	if radiusMeters <= 0 {
		radiusMeters = DefaultNoShowRadiusMeters
	}
	return &NoShowService{
		bookings:     bookings,
		geo:          geo,
		charge:       charge,
		radiusMeters: radiusMeters,
		logger:       logger,
	}
}

// ReportCustomerAbsent starts the countdown once the provider is confirmed to
// be at the service address of a confirmed booking.
func (s *NoShowService) ReportCustomerAbsent(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*NoShowSessionDTO, error) {
	bk, err := s.bookings.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bk.RequireProvider(actor); err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusConfirmed {
		return nil, domain.NewInvalidTransitionError("no_show_requires_confirmed",
			"a no-show can only be reported on a confirmed booking, booking is "+string(bk.Status()))
	}

	target := bk.Address().Location
	if target == nil {
		return nil, domain.NewInvalidTransitionError("address_not_geocoded",
			"the service address has no coordinates")
	}
	current, err := s.geo.CurrentProviderLocation(ctx, bk.ProviderID())
	if err != nil {
		return nil, fmt.Errorf("failed to read provider location: %w", err)
	}
	if current == nil {
		return nil, domain.NewInvalidTransitionError("provider_location_unavailable",
			"no recent location for the provider")
	}
	distance := s.geo.DistanceMeters(*current, *target)
	if distance >= s.radiusMeters {
		return nil, domain.NewInvalidTransitionError("provider_not_at_address",
			fmt.Sprintf("provider is %.0fm from the service address, must be within %.0fm", distance, s.radiusMeters))
	}

	sess, err := s.bookings.noShow.Start(bookingID, s.onExpire)
	if err != nil {
		return nil, err
	}

	s.bookings.publishEvent(ctx, events.BookingNoShowStarted, bookingID, events.NoShowEvent{
		BookingID:  bookingID,
		SessionID:  sess.ID,
		Resolution: sess.Resolution().String(),
		ExpiresAt:  sess.ExpiresAt(),
		OccurredAt: s.bookings.clock.Now(),
	})

	dto := toNoShowDTO(sess)
	dto.DistanceMeters = &distance
	return &dto, nil
}

// CancelCountdown resolves the running countdown as "arrived" with no charge.
// Either party may call it.
func (s *NoShowService) CancelCountdown(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*NoShowSessionDTO, error) {
	if _, err := s.bookings.load(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	sess, err := s.bookings.noShow.Cancel(bookingID)
	if err != nil {
		return nil, err
	}
	s.bookings.publishNoShow(ctx, sess, events.NoShowEvent{})

	dto := toNoShowDTO(sess)
	return &dto, nil
}

// GetCountdown returns the running countdown for a booking.
func (s *NoShowService) GetCountdown(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*NoShowSessionDTO, error) {
	if _, err := s.bookings.load(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	sess, ok := s.bookings.noShow.Active(bookingID)
	if !ok {
		return nil, domain.NewNotFoundError("NoShowSession", bookingID.String())
	}
	dto := toNoShowDTO(sess)
	return &dto, nil
}

// onExpire runs on the timer goroutine after the session resolved as
// confirmed-absent. The resolution is final; only the capture can fail.
func (s *NoShowService) onExpire(sess *noshow.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
	defer cancel()

	detail := events.NoShowEvent{}
	receipt, err := s.captureCharge(ctx, sess)
	if err != nil {
		detail.ChargeFailure = domain.CodeOf(err)
		if detail.ChargeFailure == "" {
			detail.ChargeFailure = err.Error()
		}
	} else if receipt != nil {
		detail.ChargedCents = receipt.Amount.AmountCents
		detail.Currency = receipt.Amount.Currency
		detail.ReceiptID = receipt.ID
	}
	s.bookings.publishNoShow(ctx, sess, detail)
}

// captureCharge claims the hold under the booking lock, then captures outside
// it. A cancellation that commits after the claim sees the pending charge and
// refunds nothing; one that commits before it leaves nothing to capture.
func (s *NoShowService) captureCharge(ctx context.Context, sess *noshow.Session) (*Receipt, error) {
	var (
		amount bookingDomain.Money
		ref    string
	)
	bk, _, err := s.bookings.mutate(ctx, sess.BookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		if bk.Status() != bookingDomain.StatusConfirmed {
			return false, domain.NewInvalidTransitionError("booking_moved_on", "booking is "+string(bk.Status()))
		}
		amount = bk.Price()
		owed, err := s.charge.Calculate(bookingDomain.ChargeParams{
			Price:        bk.Price(),
			TransportFee: bk.TransportFee(),
		})
		if err != nil {
			return false, domain.NewConfigurationError("no_show_charge_invalid", err.Error())
		}
		amount = owed
		if r := bk.PaymentRef(); r == nil || *r == "" {
			return false, domain.NewConfigurationError("missing_payment_reference",
				fmt.Sprintf("no-show charge of %s owed but booking has no payment reference", owed))
		}
		ref = *bk.PaymentRef()
		return true, bk.BeginNoShowCharge(sess.ID, owed, now)
	})
	if err != nil {
		if domain.IsKind(err, domain.KindConfiguration) {
			s.bookings.reportPaymentFailure(ctx, sess.BookingID, "no_show_capture", amount, err)
			return nil, err
		}
		s.logger.Warn("no-show expired but booking moved on, no charge",
			zap.String("booking_id", sess.BookingID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, paymentCallTimeout)
	defer cancel()
	receipt, err := s.bookings.payments.CapturePartial(callCtx, bk.ID(), ref, amount, "noshow-"+sess.ID.String())
	if err != nil {
		if !domain.IsKind(err, domain.KindPayment) && !domain.IsKind(err, domain.KindConfiguration) {
			err = domain.NewPaymentError("capture_failed", err)
		}
		s.settleCharge(ctx, bk.ID(), func(bk *bookingDomain.Booking, now time.Time) error {
			return bk.FailNoShowCharge(now)
		})
		s.bookings.reportPaymentFailure(ctx, bk.ID(), "no_show_capture", amount, err)
		return nil, err
	}

	s.logger.Info("no-show charge captured",
		zap.String("booking_id", bk.ID().String()),
		zap.String("receipt_id", receipt.ID),
		zap.Int64("amount_cents", amount.AmountCents),
	)
	s.settleCharge(ctx, bk.ID(), func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.SettleNoShowCharge(receipt.ID, now)
	})
	return receipt, nil
}

// settleCharge records the capture outcome. The money already moved, so a
// failure here is only logged.
func (s *NoShowService) settleCharge(ctx context.Context, bookingID uuid.UUID, apply func(bk *bookingDomain.Booking, now time.Time) error) {
	_, _, err := s.bookings.mutate(context.WithoutCancel(ctx), bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, apply(bk, now)
	})
	if err != nil {
		s.logger.Error("failed to record no-show charge outcome",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
	}
}

func toNoShowDTO(sess *noshow.Session) NoShowSessionDTO {
	return NoShowSessionDTO{
		SessionID:  sess.ID,
		BookingID:  sess.BookingID,
		StartedAt:  sess.StartedAt,
		ExpiresAt:  sess.ExpiresAt(),
		Resolution: sess.Resolution().String(),
	}
}
