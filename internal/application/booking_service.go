package application

import (
	"context"
	"fmt"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/events"
	"github.com/glowbook/service-booking/internal/noshow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// paymentCallTimeout bounds a single refund or capture call.
const paymentCallTimeout = 20 * time.Second

// BookingService is the application service orchestrating booking use cases.
// Commands on one booking are serialized; the lock is held only while the
// transition is validated and committed, never across a payment call.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	payments  PaymentGateway
	publisher EventPublisher
	noShow    *noshow.Guard
	clock     clock.Clock
	location  *time.Location
	locks     *keyedMutex
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService. Slots are interpreted in
// location (UTC when nil).
func NewBookingService(
	repo bookingDomain.BookingRepository,
	payments PaymentGateway,
	publisher EventPublisher,
	noShow *noshow.Guard,
	clk clock.Clock,
	location *time.Location,
	logger *zap.Logger,
) *BookingService {
	if location == nil {
		location = time.UTC
	}
	return &BookingService{
		repo:      repo,
		payments:  payments,
		publisher: publisher,
		noShow:    noShow,
		clock:     clk,
		location:  location,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// mutation applies a command to a loaded booking. Returning changed=false
// skips persistence.
type mutation func(bk *bookingDomain.Booking, now time.Time) (changed bool, err error)

// mutate loads, changes and stores one booking under its lock.
func (s *BookingService) mutate(ctx context.Context, bookingID uuid.UUID, fn mutation) (*bookingDomain.Booking, bool, error) {
	unlock := s.locks.Lock(bookingID)
	defer unlock()

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}

	now := s.clock.Now()
	changed, err := fn(bk, now)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return bk, false, nil
	}

	bk.IncrementVersion(now)
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, false, err
	}
	return bk, true, nil
}

func (s *BookingService) load(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParticipant(actor) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return bk, nil
}

// CreateBooking creates a new pending booking for the customer.
func (s *BookingService) CreateBooking(ctx context.Context, actor bookingDomain.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	if actor.Role != bookingDomain.RoleCustomer {
		return nil, domain.NewForbiddenError("only customers can create bookings")
	}

	price, err := bookingDomain.NewMoney(req.PriceCents, req.Currency)
	if err != nil {
		return nil, err
	}
	fee, err := bookingDomain.NewMoney(req.TransportFeeCents, req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ProviderID:   req.ProviderID,
		CustomerID:   actor.ID,
		ServiceName:  req.ServiceName,
		Price:        price,
		TransportFee: fee,
		Slot:         req.Slot,
		Address:      req.Address,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("provider_id", bk.ProviderID().String()),
	)
	s.publishEvent(ctx, events.BookingCreated, bk.ID(), events.BookingCreatedEvent{
		BookingID:   bk.ID(),
		ProviderID:  bk.ProviderID(),
		CustomerID:  bk.CustomerID(),
		ServiceName: bk.ServiceName(),
		Date:        bk.Slot().Date,
		StartTime:   bk.Slot().StartTime,
		PriceCents:  bk.Price().AmountCents,
		Currency:    bk.Price().Currency,
		OccurredAt:  now,
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking accepts a pending booking on behalf of the provider.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.Confirm(actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "booking confirmed")
	s.publishStatus(ctx, events.BookingConfirmed, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeclineBooking rejects a pending booking. The pre-authorized hold is left
// to expire; nothing is refunded.
func (s *BookingService) DeclineBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.Decline(actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "booking declined")
	s.publishStatus(ctx, events.BookingDeclined, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// StartService begins execution and creates the progress tracker. A running
// no-show countdown is resolved as "arrived": the service could not start
// without the customer.
func (s *BookingService) StartService(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, template []bookingDomain.StepTemplate) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.Start(actor, template, now)
	})
	if err != nil {
		return nil, err
	}

	if sess, err := s.noShow.Cancel(bookingID); err == nil {
		s.publishNoShow(ctx, sess, events.NoShowEvent{})
	}

	s.logTransition(bk, "service started")
	s.publishStatus(ctx, events.BookingStarted, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// AdvanceStep marks one step complete. Repeating the call is a no-op.
func (s *BookingService) AdvanceStep(ctx context.Context, actor bookingDomain.Actor, bookingID, stepID uuid.UUID) (*ProgressDTO, error) {
	bk, changed, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return bk.AdvanceStep(actor, stepID, now)
	})
	if err != nil {
		return nil, err
	}

	progress := toProgressDTO(bk)
	if changed {
		evt := events.ProgressUpdatedEvent{
			BookingID:     bk.ID(),
			CustomerID:    bk.CustomerID(),
			StepID:        stepID,
			TotalProgress: progress.TotalProgress,
			OccurredAt:    s.clock.Now(),
		}
		if progress.CurrentStep != nil && !progress.CurrentStep.IsCompleted {
			evt.CurrentStepID = &progress.CurrentStep.ID
		}
		s.publishEvent(ctx, events.BookingProgressUpdated, bk.ID(), evt)
	}
	return &progress, nil
}

// CompleteService finishes a booking whose steps are all done and emits the
// completion event with a rebook suggestion.
func (s *BookingService) CompleteService(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.Complete(actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "service completed")

	evt := events.ServiceCompletedEvent{
		BookingID:  bk.ID(),
		ProviderID: bk.ProviderID(),
		CustomerID: bk.CustomerID(),
		OccurredAt: s.clock.Now(),
	}
	if suggestion, err := bookingDomain.SuggestRebook(bk); err == nil {
		evt.Rebook = &events.RebookSuggestionPayload{
			Date:        suggestion.Slot.Date,
			StartTime:   suggestion.Slot.StartTime,
			EndTime:     suggestion.Slot.EndTime,
			ServiceName: suggestion.ServiceName,
			PriceCents:  suggestion.Price.AmountCents,
			Currency:    suggestion.Price.Currency,
		}
	} else {
		s.logger.Warn("could not build rebook suggestion",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
	s.publishEvent(ctx, events.BookingServiceCompleted, bk.ID(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking commits the cancellation first and only then moves money.
// When the refund cannot be issued the returned CancellationDTO is still
// populated and err is a configuration or payment error; the booking stays
// cancelled either way.
func (s *BookingService) CancelBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, reason string) (*CancellationDTO, error) {
	var decision bookingDomain.RefundDecision
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		in, err := bk.RefundInput(now, s.location)
		if err != nil {
			return false, err
		}
		if err := bk.Cancel(actor, reason, now); err != nil {
			return false, err
		}
		decision = bookingDomain.EvaluateRefund(in)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("cancelled_by", actor.ID.String()),
		zap.String("refund_rule", string(decision.Rule)),
		zap.Int64("refund_cents", decision.Refund.AmountCents),
	)

	// The ordinary refund policy replaces any running no-show countdown.
	if sess, ok := s.noShow.Active(bookingID); ok && s.noShow.Invalidate(bookingID) {
		s.publishNoShow(ctx, sess, events.NoShowEvent{})
	}

	s.publishEvent(ctx, events.BookingCancelled, bk.ID(), events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		CancelledBy:   actor.ID,
		CancelledRole: string(actor.Role),
		Reason:        reason,
		RefundRule:    string(decision.Rule),
		RefundCents:   decision.Refund.AmountCents,
		Currency:      decision.Refund.Currency,
		OccurredAt:    s.clock.Now(),
	})

	result := &CancellationDTO{
		Booking:      toBookingDTO(bk),
		Decision:     decision,
		RefundStatus: RefundNotRequired,
	}
	if !decision.ShouldRefund() || !bk.PaymentStatus().HasFunds() {
		return result, nil
	}

	receipt, err := s.refund(ctx, bk, decision.Refund)
	if err != nil {
		result.RefundError = err.Error()
		result.RefundStatus = RefundFailed
		if domain.IsKind(err, domain.KindConfiguration) {
			result.RefundStatus = RefundSkipped
		}
		return result, err
	}
	result.RefundStatus = RefundIssued
	result.Receipt = receipt

	target := bookingDomain.PaymentPartiallyRefunded
	if decision.Retained.IsZero() {
		target = bookingDomain.PaymentRefunded
	}
	if updated := s.recordPaymentStatus(ctx, bookingID, target); updated != nil {
		result.Booking = toBookingDTO(updated)
	}
	return result, nil
}

// QuoteCancellation evaluates the refund policy without changing anything.
func (s *BookingService) QuoteCancellation(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*CancellationQuoteDTO, error) {
	bk, err := s.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	in, err := bk.RefundInput(s.clock.Now(), s.location)
	if err != nil {
		return nil, err
	}
	return &CancellationQuoteDTO{
		BookingID: bk.ID(),
		Decision:  bookingDomain.EvaluateRefund(in),
	}, nil
}

// ProposeSlot records a provider counter-proposal on a pending booking.
func (s *BookingService) ProposeSlot(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, req ProposeSlotRequest) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.ProposeSlot(actor, req.Slot, req.Message, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "counter-proposal sent")
	s.publishEvent(ctx, events.BookingCounterProposalSent, bk.ID(), events.CounterProposalEvent{
		BookingID:  bk.ID(),
		ProviderID: bk.ProviderID(),
		CustomerID: bk.CustomerID(),
		Date:       req.Slot.Date,
		StartTime:  req.Slot.StartTime,
		EndTime:    req.Slot.EndTime,
		Message:    req.Message,
		OccurredAt: s.clock.Now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// AcceptCounterProposal moves the booking to the proposed slot and confirms it.
func (s *BookingService) AcceptCounterProposal(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		return true, bk.AcceptCounterProposal(actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "counter-proposal accepted")
	s.publishStatus(ctx, events.BookingConfirmed, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// RefuseCounterProposal drops the proposal; the booking stays pending.
func (s *BookingService) RefuseCounterProposal(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	var refused bookingDomain.CounterProposal
	bk, _, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		if cp := bk.CounterProposal(); cp != nil {
			refused = *cp
		}
		return true, bk.RefuseCounterProposal(actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(bk, "counter-proposal refused")
	s.publishEvent(ctx, events.BookingCounterProposalRefused, bk.ID(), events.CounterProposalEvent{
		BookingID:  bk.ID(),
		ProviderID: bk.ProviderID(),
		CustomerID: bk.CustomerID(),
		Date:       refused.Slot.Date,
		StartTime:  refused.Slot.StartTime,
		EndTime:    refused.Slot.EndTime,
		OccurredAt: s.clock.Now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetProgress returns the polling view of a booking's steps.
func (s *BookingService) GetProgress(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*ProgressDTO, error) {
	bk, err := s.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.Progress() == nil {
		return nil, domain.NewInvalidTransitionError("service_not_started", "service has not started yet")
	}
	progress := toProgressDTO(bk)
	return &progress, nil
}

// SuggestRebook proposes a follow-up booking for a completed one.
func (s *BookingService) SuggestRebook(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*bookingDomain.RebookSuggestion, error) {
	bk, err := s.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusCompleted {
		return nil, domain.NewInvalidTransitionError("booking_not_completed",
			"rebook suggestions are only available for completed bookings")
	}
	suggestion, err := bookingDomain.SuggestRebook(bk)
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings for a provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// RecordPaymentAuthorized stores the gateway reference once funds are held.
// Redelivery of the same reference is a no-op.
func (s *BookingService) RecordPaymentAuthorized(ctx context.Context, bookingID uuid.UUID, paymentRef string) error {
	_, changed, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		if ref := bk.PaymentRef(); ref != nil && *ref == paymentRef && bk.PaymentStatus() != bookingDomain.PaymentFailed {
			return false, nil
		}
		return true, bk.RecordPaymentAuthorized(paymentRef, now)
	})
	if err != nil {
		return err
	}
	if changed {
		s.logger.Info("payment authorized", zap.String("booking_id", bookingID.String()))
	}
	return nil
}

// RecordPaymentFailed marks the authorization as failed.
func (s *BookingService) RecordPaymentFailed(ctx context.Context, bookingID uuid.UUID, reason string) error {
	_, changed, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		if bk.PaymentStatus() == bookingDomain.PaymentFailed {
			return false, nil
		}
		return true, bk.SetPaymentStatus(bookingDomain.PaymentFailed, now)
	})
	if err != nil {
		return err
	}
	if changed {
		s.logger.Warn("payment authorization failed",
			zap.String("booking_id", bookingID.String()),
			zap.String("reason", reason),
		)
	}
	return nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Money movement ---

// refund sends amount back to the customer. It runs outside the booking lock
// and is not aborted when the caller goes away.
func (s *BookingService) refund(ctx context.Context, bk *bookingDomain.Booking, amount bookingDomain.Money) (*Receipt, error) {
	ref := bk.PaymentRef()
	if ref == nil || *ref == "" {
		err := domain.NewConfigurationError("missing_payment_reference",
			fmt.Sprintf("refund of %s owed but booking has no payment reference", amount))
		s.reportPaymentFailure(ctx, bk.ID(), "refund", amount, err)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), paymentCallTimeout)
	defer cancel()

	receipt, err := s.payments.Refund(callCtx, *ref, amount, "refund-"+bk.ID().String())
	if err != nil {
		if !domain.IsKind(err, domain.KindPayment) && !domain.IsKind(err, domain.KindConfiguration) {
			err = domain.NewPaymentError("refund_failed", err)
		}
		s.reportPaymentFailure(ctx, bk.ID(), "refund", amount, err)
		return nil, err
	}

	s.logger.Info("refund issued",
		zap.String("booking_id", bk.ID().String()),
		zap.String("receipt_id", receipt.ID),
		zap.Int64("amount_cents", amount.AmountCents),
	)
	return receipt, nil
}

// recordPaymentStatus moves the payment status forward after money moved.
// Failures are logged: the money already moved and the gateway stays the
// source of truth.
func (s *BookingService) recordPaymentStatus(ctx context.Context, bookingID uuid.UUID, status bookingDomain.PaymentStatus) *bookingDomain.Booking {
	bk, _, err := s.mutate(context.WithoutCancel(ctx), bookingID, func(bk *bookingDomain.Booking, now time.Time) (bool, error) {
		if !bk.PaymentStatus().CanTransitionTo(status) {
			return false, nil
		}
		return true, bk.SetPaymentStatus(status, now)
	})
	if err != nil {
		s.logger.Error("failed to record payment status",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_status", string(status)),
			zap.Error(err),
		)
		return nil
	}
	return bk
}

func (s *BookingService) reportPaymentFailure(ctx context.Context, bookingID uuid.UUID, action string, amount bookingDomain.Money, err error) {
	s.logger.Error("payment action failed, manual follow-up required",
		zap.String("booking_id", bookingID.String()),
		zap.String("action", action),
		zap.Int64("amount_cents", amount.AmountCents),
		zap.String("code", domain.CodeOf(err)),
		zap.Error(err),
	)
	s.publishEvent(ctx, events.BookingPaymentActionFailed, bookingID, events.PaymentActionFailedEvent{
		BookingID:   bookingID,
		Action:      action,
		AmountCents: amount.AmountCents,
		Currency:    amount.Currency,
		Code:        domain.CodeOf(err),
		Error:       err.Error(),
		OccurredAt:  s.clock.Now(),
	})
}

// --- Helpers ---

func (s *BookingService) logTransition(bk *bookingDomain.Booking, msg string) {
	s.logger.Info(msg,
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", string(bk.Status())),
		zap.Int64("version", bk.Version()),
	)
}

func (s *BookingService) publishStatus(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	s.publishEvent(ctx, eventType, bk.ID(), events.BookingStatusEvent{
		BookingID:  bk.ID(),
		ProviderID: bk.ProviderID(),
		CustomerID: bk.CustomerID(),
		Status:     string(bk.Status()),
		Date:       bk.Slot().Date,
		StartTime:  bk.Slot().StartTime,
		EndTime:    bk.Slot().EndTime,
		OccurredAt: s.clock.Now(),
	})
}

// publishNoShow emits noShowResolved for sess. Charge fields come from detail.
func (s *BookingService) publishNoShow(ctx context.Context, sess *noshow.Session, detail events.NoShowEvent) {
	detail.BookingID = sess.BookingID
	detail.SessionID = sess.ID
	detail.Resolution = sess.Resolution().String()
	detail.ExpiresAt = sess.ExpiresAt()
	detail.OccurredAt = s.clock.Now()
	s.publishEvent(ctx, events.BookingNoShowResolved, sess.BookingID, detail)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, bookingID uuid.UUID, data interface{}) {
	cloudEvent, err := events.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = bookingID.String()

	if err := s.publisher.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
