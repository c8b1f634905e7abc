package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// Mobile clients send numbers as strings and omit fields as null. The Flex
// types absorb that here so the domain only ever sees strict values.

// rawScalar returns the textual value of a JSON scalar. ok is false for null
// and for an empty string.
func rawScalar(b []byte) (s string, ok bool, err error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false, nil
	}
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		return s, s != "", nil
	}
	if b[0] == '{' || b[0] == '[' {
		return "", false, fmt.Errorf("expected a scalar, got %s", b)
	}
	return string(b), true, nil
}

// FlexInt64 accepts 1200, "1200" and 1200.0.
type FlexInt64 struct {
	Value int64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt64) UnmarshalJSON(b []byte) error {
	s, ok, err := rawScalar(b)
	if err != nil || !ok {
		*f = FlexInt64{}
		return err
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt64{Value: v, Valid: true}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = FlexInt64{Value: int64(v), Valid: true}
	return nil
}

// FlexFloat accepts 48.85 and "48.85".
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s, ok, err := rawScalar(b)
	if err != nil || !ok {
		*f = FlexFloat{}
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %q", s)
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

// FlexString accepts strings, numbers and booleans.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s, _, err := rawScalar(b)
	*f = FlexString(s)
	return err
}

func (f FlexString) String() string { return string(f) }

type slotBody struct {
	Date      FlexString `json:"date"`
	StartTime FlexString `json:"start_time"`
	EndTime   FlexString `json:"end_time"`
}

func (s slotBody) toSlot() bookingDomain.Slot {
	return bookingDomain.Slot{
		Date:      s.Date.String(),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
	}
}

type locationBody struct {
	Lat FlexFloat `json:"lat"`
	Lng FlexFloat `json:"lng"`
}

func (l locationBody) toGeoPoint() (*bookingDomain.GeoPoint, error) {
	if !l.Lat.Valid && !l.Lng.Valid {
		return nil, nil
	}
	if l.Lat.Valid != l.Lng.Valid {
		return nil, domain.NewValidationError("both lat and lng are required")
	}
	p := bookingDomain.GeoPoint{Lat: l.Lat.Value, Lng: l.Lng.Value}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

type addressBody struct {
	Line1      FlexString    `json:"line1"`
	Line2      FlexString    `json:"line2"`
	City       FlexString    `json:"city"`
	PostalCode FlexString    `json:"postal_code"`
	Country    FlexString    `json:"country"`
	Location   *locationBody `json:"location"`
}

func (a addressBody) toAddress() (bookingDomain.Address, error) {
	addr := bookingDomain.Address{
		Line1:      a.Line1.String(),
		Line2:      a.Line2.String(),
		City:       a.City.String(),
		PostalCode: a.PostalCode.String(),
		Country:    a.Country.String(),
	}
	if a.Location != nil {
		p, err := a.Location.toGeoPoint()
		if err != nil {
			return bookingDomain.Address{}, err
		}
		addr.Location = p
	}
	return addr, nil
}

type createBookingBody struct {
	ProviderID        FlexString  `json:"provider_id"`
	ServiceName       FlexString  `json:"service_name"`
	PriceCents        FlexInt64   `json:"price_cents"`
	Currency          FlexString  `json:"currency"`
	TransportFeeCents FlexInt64   `json:"transport_fee_cents"`
	Slot              slotBody    `json:"slot"`
	Address           addressBody `json:"address"`
}

func (b createBookingBody) toRequest() (application.CreateBookingRequest, error) {
	providerID, err := uuid.Parse(b.ProviderID.String())
	if err != nil {
		return application.CreateBookingRequest{}, domain.NewValidationError("invalid provider_id")
	}
	if !b.PriceCents.Valid {
		return application.CreateBookingRequest{}, domain.NewValidationError("price_cents is required")
	}
	addr, err := b.Address.toAddress()
	if err != nil {
		return application.CreateBookingRequest{}, err
	}
	return application.CreateBookingRequest{
		ProviderID:        providerID,
		ServiceName:       b.ServiceName.String(),
		PriceCents:        b.PriceCents.Value,
		Currency:          b.Currency.String(),
		TransportFeeCents: b.TransportFeeCents.Value,
		Slot:              b.Slot.toSlot(),
		Address:           addr,
	}, nil
}

type stepBody struct {
	Title      FlexString `json:"title"`
	Percentage FlexInt64  `json:"percentage"`
	Order      FlexInt64  `json:"order"`
}

type startServiceBody struct {
	Steps []stepBody `json:"steps"`
}

func (b startServiceBody) toTemplate() []bookingDomain.StepTemplate {
	if len(b.Steps) == 0 {
		return nil
	}
	template := make([]bookingDomain.StepTemplate, len(b.Steps))
	for i, s := range b.Steps {
		template[i] = bookingDomain.StepTemplate{
			Title:      s.Title.String(),
			Percentage: int(s.Percentage.Value),
			Order:      int(s.Order.Value),
		}
	}
	return template
}

type proposeSlotBody struct {
	Slot    slotBody   `json:"slot"`
	Message FlexString `json:"message"`
}

type cancelBody struct {
	Reason FlexString `json:"reason"`
}
