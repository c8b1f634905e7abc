//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	bookingEvents "github.com/glowbook/service-booking/internal/events"
	"github.com/glowbook/service-booking/internal/geo"
	"github.com/glowbook/service-booking/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration runs every scenario against one set of containers.
func TestIntegration(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	t.Run("payment authorized records reference", func(t *testing.T) {
		testPaymentAuthorizedRecordsReference(t, infra)
	})
	t.Run("repository rejects stale version", func(t *testing.T) {
		testRepositoryRejectsStaleVersion(t, infra)
	})
	t.Run("redis locator freshness", func(t *testing.T) {
		testRedisLocatorFreshness(t, infra)
	})
}

// A payment.authorized event on payment.events stores the payment reference on
// the booking, which then confirms and announces itself on booking.events.
func testPaymentAuthorizedRecordsReference(t *testing.T, infra *testInfra) {
	stack := setupBookingStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	customer := bookingDomain.Actor{ID: uuid.New(), Role: bookingDomain.RoleCustomer}
	provider := bookingDomain.Actor{ID: uuid.New(), Role: bookingDomain.RoleProvider}
	date := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")

	created, err := stack.Service.CreateBooking(ctx, customer, application.CreateBookingRequest{
		ProviderID:        provider.ID,
		ServiceName:       "Home haircut",
		PriceCents:        8000,
		Currency:          "EUR",
		TransportFeeCents: 1000,
		Slot:              bookingDomain.Slot{Date: date, StartTime: "10:00", EndTime: "11:00"},
		Address:           bookingDomain.Address{Line1: "1 Rue de Rivoli", City: "Paris"},
	})
	require.NoError(t, err)

	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents, "service-payment",
		bookingEvents.PaymentAuthorized, bookingEvents.PaymentAuthorizedEvent{
			PaymentID:   "pay_1",
			BookingID:   created.ID,
			PaymentRef:  "pi_integration",
			AmountCents: 9000,
			Currency:    "EUR",
			OccurredAt:  time.Now().UTC(),
		})

	model := waitForPaymentStatus(t, infra.DB, created.ID, string(bookingDomain.PaymentAuthorized), 15*time.Second)
	require.NotNil(t, model.PaymentRef)
	assert.Equal(t, "pi_integration", *model.PaymentRef)

	confirmed, err := stack.Service.ConfirmBooking(ctx, provider, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusConfirmed), confirmed.Status)

	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		bookingEvents.BookingConfirmed, 15*time.Second)
	var evt bookingEvents.BookingStatusEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, provider.ID, evt.ProviderID)
	assert.Equal(t, date, evt.Date)
}

func testRepositoryRejectsStaleVersion(t *testing.T, infra *testInfra) {
	ctx := context.Background()
	repo := repository.NewGormBookingRepository(infra.DB)
	now := time.Now().UTC()

	price, err := bookingDomain.NewMoney(5000, "EUR")
	require.NoError(t, err)
	fee, err := bookingDomain.NewMoney(0, "EUR")
	require.NoError(t, err)
	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ProviderID:   uuid.New(),
		CustomerID:   uuid.New(),
		ServiceName:  "Manicure",
		Price:        price,
		TransportFee: fee,
		Slot:         bookingDomain.Slot{Date: now.AddDate(0, 0, 3).Format("2006-01-02"), StartTime: "14:00", EndTime: "15:00"},
		Address:      bookingDomain.Address{Line1: "2 Main St", City: "Lyon"},
	}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, bk))

	first, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)

	require.NoError(t, first.Decline(bookingDomain.Actor{ID: first.ProviderID(), Role: bookingDomain.RoleProvider}, now))
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.Confirm(bookingDomain.Actor{ID: second.ProviderID(), Role: bookingDomain.RoleProvider}, now))
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	stored, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusDeclined, stored.Status())
}

func testRedisLocatorFreshness(t *testing.T, infra *testInfra) {
	ctx := context.Background()
	clk := clock.NewFake(time.Now())
	locator := geo.NewRedisLocator(infra.Redis, time.Minute, clk)
	providerID := uuid.New()

	point, err := locator.CurrentProviderLocation(ctx, providerID)
	require.NoError(t, err)
	assert.Nil(t, point, "no location before the first ping")

	require.NoError(t, locator.UpdateProviderLocation(ctx, providerID, bookingDomain.GeoPoint{Lat: 48.8566, Lng: 2.3522}))

	point, err = locator.CurrentProviderLocation(ctx, providerID)
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.InDelta(t, 48.8566, point.Lat, 1e-4)
	assert.InDelta(t, 2.3522, point.Lng, 1e-4)

	clk.Advance(2 * time.Minute)
	point, err = locator.CurrentProviderLocation(ctx, providerID)
	require.NoError(t, err)
	assert.Nil(t, point, "stale locations are ignored")
}
