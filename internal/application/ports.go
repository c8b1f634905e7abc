package application

import (
	"context"
	"time"

	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/events"
	"github.com/google/uuid"
)

// Receipt is the gateway's acknowledgement of a money movement.
type Receipt struct {
	ID        string              `json:"id"`
	Amount    bookingDomain.Money `json:"amount"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// PaymentGateway moves money held against a booking. Implementations must
// honour idempotencyKey so a retried call never moves money twice.
type PaymentGateway interface {
	CapturePartial(ctx context.Context, bookingID uuid.UUID, paymentRef string, amount bookingDomain.Money, idempotencyKey string) (*Receipt, error)
	Refund(ctx context.Context, paymentRef string, amount bookingDomain.Money, idempotencyKey string) (*Receipt, error)
}

// Geolocator answers where a provider is and how far apart two points are.
type Geolocator interface {
	// CurrentProviderLocation returns nil without error when the provider has
	// no recent location.
	CurrentProviderLocation(ctx context.Context, providerID uuid.UUID) (*bookingDomain.GeoPoint, error)
	DistanceMeters(from, to bookingDomain.GeoPoint) float64
}

// EventPublisher delivers notification events. Delivery failures are logged,
// never returned to the command caller.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce *events.CloudEvent) error
}
