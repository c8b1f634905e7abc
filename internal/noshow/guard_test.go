package noshow

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGuard() (*Guard, *clock.Fake) {
	clk := clock.NewFake(time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	return NewGuard(clk, DefaultCountdown, zap.NewNop()), clk
}

func TestGuard_ExpiryResolvesConfirmedAbsentOnce(t *testing.T) {
	g, clk := newTestGuard()
	bookingID := uuid.New()
	var fired atomic.Int32

	s, err := g.Start(bookingID, func(*Session) { fired.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(10*time.Minute), s.ExpiresAt())

	clk.Advance(9 * time.Minute)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, Unresolved, s.Resolution())

	clk.Advance(time.Minute)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, ConfirmedAbsent, s.Resolution())

	clk.Advance(time.Hour)
	assert.Equal(t, int32(1), fired.Load())

	_, ok := g.Active(bookingID)
	assert.False(t, ok)
}

func TestGuard_SecondStartConflicts(t *testing.T) {
	g, _ := newTestGuard()
	bookingID := uuid.New()

	_, err := g.Start(bookingID, nil)
	require.NoError(t, err)

	_, err = g.Start(bookingID, nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = g.Start(uuid.New(), nil)
	assert.NoError(t, err)
}

func TestGuard_CancelPreventsCharge(t *testing.T) {
	g, clk := newTestGuard()
	bookingID := uuid.New()
	var fired atomic.Int32

	_, err := g.Start(bookingID, func(*Session) { fired.Add(1) })
	require.NoError(t, err)

	s, err := g.Cancel(bookingID)
	require.NoError(t, err)
	assert.Equal(t, CustomerArrived, s.Resolution())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Hour)
	assert.Equal(t, int32(0), fired.Load())

	_, err = g.Cancel(bookingID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = g.Start(bookingID, nil)
	assert.NoError(t, err, "a new session may start after resolution")
}

func TestGuard_Invalidate(t *testing.T) {
	g, clk := newTestGuard()
	bookingID := uuid.New()
	var fired atomic.Int32

	s, err := g.Start(bookingID, func(*Session) { fired.Add(1) })
	require.NoError(t, err)

	assert.True(t, g.Invalidate(bookingID))
	assert.False(t, g.Invalidate(bookingID))
	assert.Equal(t, Invalidated, s.Resolution())

	clk.Advance(time.Hour)
	assert.Equal(t, int32(0), fired.Load())
}

func TestGuard_ExpiryAndCancelRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		g, clk := newTestGuard()
		bookingID := uuid.New()
		var fired atomic.Int32

		s, err := g.Start(bookingID, func(*Session) { fired.Add(1) })
		require.NoError(t, err)

		var cancelled atomic.Int32
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			clk.Advance(DefaultCountdown)
		}()
		go func() {
			defer wg.Done()
			if _, err := g.Cancel(bookingID); err == nil {
				cancelled.Add(1)
			}
		}()
		wg.Wait()

		require.Equal(t, int32(1), fired.Load()+cancelled.Load(), "exactly one resolution must win")
		if fired.Load() == 1 {
			assert.Equal(t, ConfirmedAbsent, s.Resolution())
		} else {
			assert.Equal(t, CustomerArrived, s.Resolution())
		}
	}
}

func TestGuard_Close(t *testing.T) {
	g, clk := newTestGuard()
	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		_, err := g.Start(uuid.New(), func(*Session) { fired.Add(1) })
		require.NoError(t, err)
	}

	g.Close()
	clk.Advance(time.Hour)
	assert.Equal(t, int32(0), fired.Load())
}
