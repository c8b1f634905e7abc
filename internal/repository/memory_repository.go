package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// MemoryBookingRepository keeps bookings in process memory. It applies the
// same version check as the database repository. Used for local runs and tests.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]bookingDomain.Snapshot
}

// NewMemoryBookingRepository creates an empty MemoryBookingRepository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[uuid.UUID]bookingDomain.Snapshot)}
}

// FindByID retrieves a booking by its unique identifier.
func (r *MemoryBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bookingDomain.ReconstructBooking(s), nil
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *MemoryBookingRepository) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(s bookingDomain.Snapshot) bool { return s.CustomerID == customerID }, page, limit)
}

// FindByProviderID retrieves bookings for a specific provider with pagination.
func (r *MemoryBookingRepository) FindByProviderID(_ context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(s bookingDomain.Snapshot) bool { return s.ProviderID == providerID }, page, limit)
}

// ListAll retrieves all bookings with pagination.
func (r *MemoryBookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(bookingDomain.Snapshot) bool { return true }, page, limit)
}

func (r *MemoryBookingRepository) page(match func(bookingDomain.Snapshot) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	var matched []bookingDomain.Snapshot
	for _, s := range r.bookings {
		if match(s) {
			matched = append(matched, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start < 0 || start >= len(matched) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	bookings := make([]*bookingDomain.Booking, 0, end-start)
	for _, s := range matched[start:end] {
		bookings = append(bookings, bookingDomain.ReconstructBooking(s))
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, s := range r.bookings {
		counts[string(s.Status)]++
	}
	return counts, nil
}

// Save persists a new booking.
func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking_exists", "booking "+bk.ID().String()+" already exists")
	}
	r.bookings[bk.ID()] = bk.Snapshot()
	return nil
}

// Update stores the booking if the stored version is bk.Version()-1.
func (r *MemoryBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if current.Version != bk.Version()-1 {
		return domain.NewConflictError("version_conflict", "booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = bk.Snapshot()
	return nil
}
