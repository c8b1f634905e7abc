package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/events"
	"github.com/glowbook/service-booking/internal/noshow"
	"github.com/glowbook/service-booking/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gatewayCall struct {
	bookingID      uuid.UUID
	paymentRef     string
	amount         bookingDomain.Money
	idempotencyKey string
}

type fakeGateway struct {
	mu         sync.Mutex
	refunds    []gatewayCall
	captures   []gatewayCall
	refundErr  error
	captureErr error
	// onCapture runs before a capture is recorded, outside the gateway lock.
	onCapture func()
}

func (g *fakeGateway) CapturePartial(_ context.Context, bookingID uuid.UUID, paymentRef string, amount bookingDomain.Money, key string) (*Receipt, error) {
	if g.onCapture != nil {
		g.onCapture()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures = append(g.captures, gatewayCall{bookingID: bookingID, paymentRef: paymentRef, amount: amount, idempotencyKey: key})
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	return &Receipt{ID: "cap_" + key, Amount: amount, Status: "succeeded"}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentRef string, amount bookingDomain.Money, key string) (*Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, gatewayCall{paymentRef: paymentRef, amount: amount, idempotencyKey: key})
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return &Receipt{ID: "re_" + key, Amount: amount, Status: "succeeded"}, nil
}

func (g *fakeGateway) refundCalls() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.refunds...)
}

func (g *fakeGateway) captureCalls() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.captures...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*events.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, ce *events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// lastOf returns the most recent event of the given type.
func (p *fakePublisher) lastOf(t *testing.T, eventType string) *events.CloudEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i]
		}
	}
	t.Fatalf("no %s event published", eventType)
	return nil
}

type fakeGeo struct {
	mu  sync.Mutex
	loc *bookingDomain.GeoPoint
	err error
}

func (g *fakeGeo) set(p *bookingDomain.GeoPoint) {
	g.mu.Lock()
	g.loc = p
	g.mu.Unlock()
}

func (g *fakeGeo) CurrentProviderLocation(context.Context, uuid.UUID) (*bookingDomain.GeoPoint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loc, g.err
}

func (g *fakeGeo) DistanceMeters(from, to bookingDomain.GeoPoint) float64 {
	return from.DistanceTo(to)
}

var (
	fixtureNow  = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	serviceSpot = bookingDomain.GeoPoint{Lat: 48.8566, Lng: 2.3522}
)

type fixture struct {
	repo      *repository.MemoryBookingRepository
	gateway   *fakeGateway
	publisher *fakePublisher
	geo       *fakeGeo
	clock     *clock.Fake
	guard     *noshow.Guard
	bookings  *BookingService
	noShows   *NoShowService
	customer  bookingDomain.Actor
	provider  bookingDomain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      repository.NewMemoryBookingRepository(),
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
		geo:       &fakeGeo{},
		clock:     clock.NewFake(fixtureNow),
		customer:  bookingDomain.Actor{ID: uuid.New(), Role: bookingDomain.RoleCustomer},
		provider:  bookingDomain.Actor{ID: uuid.New(), Role: bookingDomain.RoleProvider},
	}
	logger := zap.NewNop()
	f.guard = noshow.NewGuard(f.clock, 10*time.Minute, logger)
	t.Cleanup(f.guard.Close)
	f.bookings = NewBookingService(f.repo, f.gateway, f.publisher, f.guard, f.clock, time.UTC, logger)
	f.noShows = NewNoShowService(f.bookings, f.geo, bookingDomain.NewNoShowChargeStrategy(50), 150, logger)
	return f
}

// create books a one-hour slot starting at date/start, priced 100.00 EUR with
// a 15.00 EUR transport fee.
func (f *fixture) create(t *testing.T, date, start, end string) *BookingDTO {
	t.Helper()
	loc := serviceSpot
	dto, err := f.bookings.CreateBooking(context.Background(), f.customer, CreateBookingRequest{
		ProviderID:        f.provider.ID,
		ServiceName:       "Home haircut",
		PriceCents:        10000,
		Currency:          "EUR",
		TransportFeeCents: 1500,
		Slot:              bookingDomain.Slot{Date: date, StartTime: start, EndTime: end},
		Address:           bookingDomain.Address{Line1: "1 Rue de Rivoli", City: "Paris", Location: &loc},
	})
	require.NoError(t, err)
	return dto
}

// confirmedPaid creates a booking, records its authorization and confirms it.
func (f *fixture) confirmedPaid(t *testing.T, date, start, end string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	dto := f.create(t, date, start, end)
	require.NoError(t, f.bookings.RecordPaymentAuthorized(ctx, dto.ID, "pi_"+dto.ID.String()[:8]))
	_, err := f.bookings.ConfirmBooking(ctx, f.provider, dto.ID)
	require.NoError(t, err)
	return dto.ID
}
