// Package noshow runs the countdown started when a provider reports that the
// customer is absent at the service address.
package noshow

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCountdown is how long the customer has to show up.
const DefaultCountdown = 10 * time.Minute

// Resolution is the single outcome of a session.
type Resolution int32

const (
	Unresolved Resolution = iota
	ConfirmedAbsent
	CustomerArrived
	Invalidated
)

func (r Resolution) String() string {
	switch r {
	case ConfirmedAbsent:
		return "confirmed_absent"
	case CustomerArrived:
		return "arrived"
	case Invalidated:
		return "cancelled"
	}
	return "unresolved"
}

// Session is one no-show countdown. It references its booking by id only.
type Session struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	StartedAt time.Time
	Duration  time.Duration

	resolution atomic.Int32
	timer      clock.Timer
}

// ExpiresAt is when the countdown elapses.
func (s *Session) ExpiresAt() time.Time { return s.StartedAt.Add(s.Duration) }

// Resolution returns the current outcome.
func (s *Session) Resolution() Resolution { return Resolution(s.resolution.Load()) }

// resolve sets the outcome if none was set yet. Only the winning caller gets true.
func (s *Session) resolve(r Resolution) bool {
	return s.resolution.CompareAndSwap(int32(Unresolved), int32(r))
}

// ExpireFunc runs once for a session that resolved as ConfirmedAbsent.
type ExpireFunc func(s *Session)

// Guard keeps at most one active session per booking.
type Guard struct {
	clock    clock.Clock
	duration time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewGuard creates a Guard. A non-positive duration falls back to DefaultCountdown.
func NewGuard(clk clock.Clock, duration time.Duration, logger *zap.Logger) *Guard {
	if duration <= 0 {
		duration = DefaultCountdown
	}
	return &Guard{
		clock:    clk,
		duration: duration,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Start opens a session for the booking and arms its countdown. onExpire is
// called from the timer goroutine if the countdown wins.
func (g *Guard) Start(bookingID uuid.UUID, onExpire ExpireFunc) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.sessions[bookingID]; ok && existing.Resolution() == Unresolved {
		return nil, domain.NewConflictError("no_show_session_active",
			"a no-show countdown is already running for this booking")
	}

	s := &Session{
		ID:        uuid.New(),
		BookingID: bookingID,
		StartedAt: g.clock.Now(),
		Duration:  g.duration,
	}
	s.timer = g.clock.AfterFunc(g.duration, func() { g.expire(s, onExpire) })
	g.sessions[bookingID] = s

	g.logger.Info("no-show countdown started",
		zap.String("booking_id", bookingID.String()),
		zap.String("session_id", s.ID.String()),
		zap.Duration("duration", g.duration),
	)
	return s, nil
}

func (g *Guard) expire(s *Session, onExpire ExpireFunc) {
	if !s.resolve(ConfirmedAbsent) {
		return
	}
	g.remove(s)
	g.logger.Info("no-show countdown elapsed",
		zap.String("booking_id", s.BookingID.String()),
		zap.String("session_id", s.ID.String()),
	)
	if onExpire != nil {
		onExpire(s)
	}
}

// Cancel resolves the active session as CustomerArrived. It fails if there is
// no session or if the countdown already won.
func (g *Guard) Cancel(bookingID uuid.UUID) (*Session, error) {
	s, ok := g.Active(bookingID)
	if !ok {
		return nil, domain.NewNotFoundError("NoShowSession", bookingID.String())
	}
	if !s.resolve(CustomerArrived) {
		return nil, domain.NewInvalidTransitionError("no_show_session_resolved",
			"no-show session already resolved as "+s.Resolution().String())
	}
	s.timer.Stop()
	g.remove(s)
	g.logger.Info("no-show countdown cancelled, customer arrived",
		zap.String("booking_id", bookingID.String()),
		zap.String("session_id", s.ID.String()),
	)
	return s, nil
}

// Invalidate drops the active session because the booking was cancelled
// through the ordinary flow. It reports whether a session was invalidated.
func (g *Guard) Invalidate(bookingID uuid.UUID) bool {
	s, ok := g.Active(bookingID)
	if !ok || !s.resolve(Invalidated) {
		return false
	}
	s.timer.Stop()
	g.remove(s)
	g.logger.Info("no-show countdown invalidated by cancellation",
		zap.String("booking_id", bookingID.String()),
		zap.String("session_id", s.ID.String()),
	)
	return true
}

// Active returns the unresolved session for the booking, if any.
func (g *Guard) Active(bookingID uuid.UUID) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[bookingID]
	if !ok || s.Resolution() != Unresolved {
		return nil, false
	}
	return s, true
}

// Close invalidates every running session. Called on shutdown; sessions are
// not persisted, so no charge is issued for them.
func (g *Guard) Close() {
	g.mu.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.sessions = make(map[uuid.UUID]*Session)
	g.mu.Unlock()

	for _, s := range sessions {
		if s.resolve(Invalidated) {
			s.timer.Stop()
			g.logger.Warn("no-show countdown dropped on shutdown",
				zap.String("booking_id", s.BookingID.String()),
			)
		}
	}
}

func (g *Guard) remove(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.sessions[s.BookingID]; ok && cur == s {
		delete(g.sessions, s.BookingID)
	}
}
