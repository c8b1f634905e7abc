package application

import (
	"time"

	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ProviderID        uuid.UUID
	ServiceName       string
	PriceCents        int64
	Currency          string
	TransportFeeCents int64
	Slot              bookingDomain.Slot
	Address           bookingDomain.Address
}

// ProposeSlotRequest holds a provider's alternate slot.
type ProposeSlotRequest struct {
	Slot    bookingDomain.Slot
	Message string
}

// ProgressDTO is the polling view of a running service.
type ProgressDTO struct {
	BookingID        uuid.UUID                   `json:"booking_id"`
	Steps            []bookingDomain.ServiceStep `json:"steps"`
	CurrentStepIndex *int                        `json:"current_step_index"`
	CurrentStep      *bookingDomain.ServiceStep  `json:"current_step,omitempty"`
	NextStep         *bookingDomain.ServiceStep  `json:"next_step,omitempty"`
	TotalProgress    int                         `json:"total_progress"`
	Frozen           bool                        `json:"frozen"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID                      `json:"id"`
	ProviderID      uuid.UUID                      `json:"provider_id"`
	CustomerID      uuid.UUID                      `json:"customer_id"`
	ServiceName     string                         `json:"service_name"`
	Price           bookingDomain.Money            `json:"price"`
	TransportFee    bookingDomain.Money            `json:"transport_fee"`
	Slot            bookingDomain.Slot             `json:"slot"`
	Address         bookingDomain.Address          `json:"address"`
	Status          string                         `json:"status"`
	PaymentStatus   string                         `json:"payment_status"`
	PaymentRef      *string                        `json:"payment_ref,omitempty"`
	CounterProposal *bookingDomain.CounterProposal `json:"counter_proposal,omitempty"`
	Progress        *ProgressDTO                   `json:"progress,omitempty"`
	NoShowCharge    *bookingDomain.NoShowCharge    `json:"no_show_charge,omitempty"`
	ConfirmedAt     *time.Time                     `json:"confirmed_at,omitempty"`
	StartedAt       *time.Time                     `json:"started_at,omitempty"`
	CompletedAt     *time.Time                     `json:"completed_at,omitempty"`
	CancelledAt     *time.Time                     `json:"cancelled_at,omitempty"`
	CancelledBy     *uuid.UUID                     `json:"cancelled_by,omitempty"`
	CancelNote      string                         `json:"cancel_note,omitempty"`
	Version         int64                          `json:"version"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

// Refund outcomes reported with a cancellation.
const (
	RefundNotRequired = "not_required"
	RefundIssued      = "issued"
	RefundSkipped     = "skipped"
	RefundFailed      = "failed"
)

// CancellationDTO reports a committed cancellation and what happened to the money.
type CancellationDTO struct {
	Booking      BookingDTO                   `json:"booking"`
	Decision     bookingDomain.RefundDecision `json:"decision"`
	RefundStatus string                       `json:"refund_status"`
	Receipt      *Receipt                     `json:"receipt,omitempty"`
	RefundError  string                       `json:"refund_error,omitempty"`
}

// CancellationQuoteDTO previews the refund a cancellation would produce now.
type CancellationQuoteDTO struct {
	BookingID uuid.UUID                    `json:"booking_id"`
	Decision  bookingDomain.RefundDecision `json:"decision"`
}

// NoShowSessionDTO describes a no-show countdown.
type NoShowSessionDTO struct {
	SessionID      uuid.UUID `json:"session_id"`
	BookingID      uuid.UUID `json:"booking_id"`
	StartedAt      time.Time `json:"started_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Resolution     string    `json:"resolution"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	dto := BookingDTO{
		ID:            bk.ID(),
		ProviderID:    bk.ProviderID(),
		CustomerID:    bk.CustomerID(),
		ServiceName:   bk.ServiceName(),
		Price:         bk.Price(),
		TransportFee:  bk.TransportFee(),
		Slot:          bk.Slot(),
		Address:       bk.Address(),
		Status:        string(bk.Status()),
		PaymentStatus: string(bk.PaymentStatus()),
		PaymentRef:    bk.PaymentRef(),
		ConfirmedAt:   bk.ConfirmedAt(),
		StartedAt:     bk.StartedAt(),
		CompletedAt:   bk.CompletedAt(),
		CancelledAt:   bk.CancelledAt(),
		CancelledBy:   bk.CancelledBy(),
		CancelNote:    bk.CancelNote(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
		NoShowCharge:  bk.NoShowCharge(),
	}
	if cp := bk.CounterProposal(); cp != nil {
		c := *cp
		dto.CounterProposal = &c
	}
	if bk.Progress() != nil {
		p := toProgressDTO(bk)
		dto.Progress = &p
	}
	return dto
}

func toProgressDTO(bk *bookingDomain.Booking) ProgressDTO {
	dto := ProgressDTO{BookingID: bk.ID(), Steps: []bookingDomain.ServiceStep{}}
	p := bk.Progress()
	if p == nil {
		return dto
	}
	dto.Steps = p.Steps()
	dto.TotalProgress = p.TotalProgress()
	dto.Frozen = p.Frozen()
	if i, ok := p.CurrentStepIndex(); ok {
		dto.CurrentStepIndex = &i
	}
	if s, ok := p.CurrentStep(); ok {
		dto.CurrentStep = &s
	}
	if s, ok := p.NextStep(); ok {
		dto.NextStep = &s
	}
	return dto
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
