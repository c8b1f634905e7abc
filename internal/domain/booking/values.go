package booking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/domain"
)

// Money is an amount in minor units tagged with an ISO 4217 currency.
type Money struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// NewMoney validates and builds a Money value.
func NewMoney(amountCents int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, domain.NewValidationError(fmt.Sprintf("invalid currency: %q", currency))
	}
	if amountCents < 0 {
		return Money{}, domain.NewValidationError("amount cannot be negative")
	}
	return Money{AmountCents: amountCents, Currency: currency}, nil
}

// Percent returns p percent of m, rounded down to the minor unit.
func (m Money) Percent(p int64) Money {
	return Money{AmountCents: m.AmountCents * p / 100, Currency: m.Currency}
}

// Add sums two amounts of the same currency.
func (m Money) Add(o Money) Money {
	return Money{AmountCents: m.AmountCents + o.AmountCents, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.AmountCents == 0 }

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.AmountCents/100, m.AmountCents%100, m.Currency)
}

// Slot is a scheduled date with start and end times of day, interpreted in the
// booking time zone.
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Validate checks the formats and that the slot ends after it starts.
func (s Slot) Validate() error {
	if _, err := clock.ParseDate(s.Date); err != nil {
		return domain.NewValidationError(err.Error())
	}
	start, err := clock.ParseTimeOfDay(s.StartTime)
	if err != nil {
		return domain.NewValidationError(err.Error())
	}
	end, err := clock.ParseTimeOfDay(s.EndTime)
	if err != nil {
		return domain.NewValidationError(err.Error())
	}
	if end <= start {
		return domain.NewValidationError("slot end time must be after start time")
	}
	return nil
}

// StartsAt returns the absolute start instant of the slot.
func (s Slot) StartsAt(loc *time.Location) (time.Time, error) {
	return clock.ParseSlot(s.Date, s.StartTime, loc)
}

// GeoPoint describes WGS84 coordinates.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks coordinate ranges.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return domain.NewValidationError(fmt.Sprintf("invalid coordinates lat=%.6f lng=%.6f", p.Lat, p.Lng))
	}
	return nil
}

// DistanceTo returns the great-circle distance in meters (haversine).
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	const earthRadiusMeters = 6371000.0
	lat1 := toRadians(p.Lat)
	lat2 := toRadians(other.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(other.Lng - p.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Address is where the service takes place.
type Address struct {
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code,omitempty"`
	Country    string    `json:"country,omitempty"`
	Location   *GeoPoint `json:"location,omitempty"`
}

// Validate checks the required address fields.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return domain.NewValidationError("address line1 is required")
	}
	if a.Location != nil {
		return a.Location.Validate()
	}
	return nil
}
