package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProviderID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceName       string          `gorm:"not null;size:200"`
	PriceCents        int64           `gorm:"not null"`
	TransportFeeCents int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3"`
	SlotDate          string          `gorm:"not null;size:10;index"`
	StartTime         string          `gorm:"not null;size:5"`
	EndTime           string          `gorm:"not null;size:5"`
	Address           json.RawMessage `gorm:"type:jsonb;not null"`
	Status            string          `gorm:"not null;size:30;index"`
	PaymentStatus     string          `gorm:"not null;size:30"`
	PaymentRef        *string         `gorm:"size:255"`
	CounterProposal   json.RawMessage `gorm:"type:jsonb"`
	ProgressSteps     json.RawMessage `gorm:"type:jsonb"`
	ProgressFrozen    bool            `gorm:"not null"`
	ConfirmedAt       *time.Time      `gorm:""`
	StartedAt         *time.Time      `gorm:""`
	CompletedAt       *time.Time      `gorm:""`
	CancelledAt       *time.Time      `gorm:""`
	CancelledBy       *uuid.UUID      `gorm:"type:uuid"`
	CancelledRole     string          `gorm:"size:20"`
	CancelNote        string          `gorm:"size:500"`
	NoShowCharge      json.RawMessage `gorm:"type:jsonb"`
	Version           int64           `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "customer_id = ?", customerID, page, limit)
}

// FindByProviderID retrieves bookings for a specific provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "provider_id = ?", providerID, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "", nil, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, where string, arg interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&BookingModel{})
		if where != "" {
			q = q.Where(where, arg)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := scoped().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion was called before Update, so the stored row must still
	// carry the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"slot_date":        model.SlotDate,
			"start_time":       model.StartTime,
			"end_time":         model.EndTime,
			"status":           model.Status,
			"payment_status":   model.PaymentStatus,
			"payment_ref":      model.PaymentRef,
			"counter_proposal": model.CounterProposal,
			"progress_steps":   model.ProgressSteps,
			"progress_frozen":  model.ProgressFrozen,
			"confirmed_at":     model.ConfirmedAt,
			"started_at":       model.StartedAt,
			"completed_at":     model.CompletedAt,
			"cancelled_at":     model.CancelledAt,
			"cancelled_by":     model.CancelledBy,
			"cancelled_role":   model.CancelledRole,
			"cancel_note":      model.CancelNote,
			"no_show_charge":   model.NoShowCharge,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("version_conflict", "booking was modified by another transaction")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	s := bk.Snapshot()

	addressJSON, err := json.Marshal(s.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal address: %w", err)
	}

	var proposalJSON json.RawMessage
	if s.CounterProposal != nil {
		if proposalJSON, err = json.Marshal(s.CounterProposal); err != nil {
			return nil, fmt.Errorf("failed to marshal counter proposal: %w", err)
		}
	}

	var stepsJSON json.RawMessage
	if s.HasProgress {
		steps := s.Steps
		if steps == nil {
			steps = []bookingDomain.ServiceStep{}
		}
		if stepsJSON, err = json.Marshal(steps); err != nil {
			return nil, fmt.Errorf("failed to marshal progress steps: %w", err)
		}
	}

	var chargeJSON json.RawMessage
	if s.NoShowCharge != nil {
		if chargeJSON, err = json.Marshal(s.NoShowCharge); err != nil {
			return nil, fmt.Errorf("failed to marshal no-show charge: %w", err)
		}
	}

	return &BookingModel{
		ID:                s.ID,
		ProviderID:        s.ProviderID,
		CustomerID:        s.CustomerID,
		ServiceName:       s.ServiceName,
		PriceCents:        s.Price.AmountCents,
		TransportFeeCents: s.TransportFee.AmountCents,
		Currency:          s.Price.Currency,
		SlotDate:          s.Slot.Date,
		StartTime:         s.Slot.StartTime,
		EndTime:           s.Slot.EndTime,
		Address:           addressJSON,
		Status:            string(s.Status),
		PaymentStatus:     string(s.PaymentStatus),
		PaymentRef:        s.PaymentRef,
		CounterProposal:   proposalJSON,
		ProgressSteps:     stepsJSON,
		ProgressFrozen:    s.ProgressFrozen,
		ConfirmedAt:       s.ConfirmedAt,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		CancelledAt:       s.CancelledAt,
		CancelledBy:       s.CancelledBy,
		CancelledRole:     string(s.CancelRole),
		CancelNote:        s.CancelNote,
		NoShowCharge:      chargeJSON,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var address bookingDomain.Address
	if err := json.Unmarshal(m.Address, &address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}

	var proposal *bookingDomain.CounterProposal
	if !isJSONNull(m.CounterProposal) {
		var cp bookingDomain.CounterProposal
		if err := json.Unmarshal(m.CounterProposal, &cp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal counter proposal: %w", err)
		}
		proposal = &cp
	}

	var steps []bookingDomain.ServiceStep
	hasProgress := !isJSONNull(m.ProgressSteps)
	if hasProgress {
		if err := json.Unmarshal(m.ProgressSteps, &steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress steps: %w", err)
		}
	}

	var charge *bookingDomain.NoShowCharge
	if !isJSONNull(m.NoShowCharge) {
		var c bookingDomain.NoShowCharge
		if err := json.Unmarshal(m.NoShowCharge, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal no-show charge: %w", err)
		}
		charge = &c
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := bookingDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:              m.ID,
		ProviderID:      m.ProviderID,
		CustomerID:      m.CustomerID,
		ServiceName:     m.ServiceName,
		Price:           bookingDomain.Money{AmountCents: m.PriceCents, Currency: m.Currency},
		TransportFee:    bookingDomain.Money{AmountCents: m.TransportFeeCents, Currency: m.Currency},
		Slot:            bookingDomain.Slot{Date: m.SlotDate, StartTime: m.StartTime, EndTime: m.EndTime},
		Address:         address,
		Status:          status,
		PaymentStatus:   paymentStatus,
		PaymentRef:      m.PaymentRef,
		CounterProposal: proposal,
		Steps:           steps,
		ProgressFrozen:  m.ProgressFrozen,
		HasProgress:     hasProgress,
		NoShowCharge:    charge,
		ConfirmedAt:     m.ConfirmedAt,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		CancelledAt:     m.CancelledAt,
		CancelledBy:     m.CancelledBy,
		CancelRole:      bookingDomain.Role(m.CancelledRole),
		CancelNote:      m.CancelNote,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}), nil
}
