package geo

import (
	"context"
	"sync"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

type report struct {
	point bookingDomain.GeoPoint
	at    time.Time
}

// MemoryLocator keeps provider positions in process memory, with the same
// freshness rule as RedisLocator. Used when Redis is not configured.
type MemoryLocator struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]report
	maxAge  time.Duration
	clock   clock.Clock
}

// NewMemoryLocator creates a MemoryLocator.
func NewMemoryLocator(maxAge time.Duration, clk clock.Clock) *MemoryLocator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &MemoryLocator{reports: make(map[uuid.UUID]report), maxAge: maxAge, clock: clk}
}

// UpdateProviderLocation records the provider's live position.
func (l *MemoryLocator) UpdateProviderLocation(_ context.Context, providerID uuid.UUID, point bookingDomain.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.reports[providerID] = report{point: point, at: l.clock.Now()}
	l.mu.Unlock()
	return nil
}

// CurrentProviderLocation returns the last position if it is recent enough.
func (l *MemoryLocator) CurrentProviderLocation(_ context.Context, providerID uuid.UUID) (*bookingDomain.GeoPoint, error) {
	l.mu.RLock()
	r, ok := l.reports[providerID]
	l.mu.RUnlock()
	if !ok || l.clock.Now().Sub(r.at) > l.maxAge {
		return nil, nil
	}
	p := r.point
	return &p, nil
}

// DistanceMeters returns the haversine distance.
func (l *MemoryLocator) DistanceMeters(from, to bookingDomain.GeoPoint) float64 {
	return Haversine(from, to)
}
