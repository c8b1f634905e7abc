package booking

import (
	"github.com/glowbook/service-booking/internal/clock"
	"github.com/google/uuid"
)

// RebookIntervalWeeks is how far after a completed booking the follow-up is suggested.
const RebookIntervalWeeks = 6

// RebookSuggestion is a transient proposal for a follow-up booking. It is not
// persisted; callers may turn it into a create request.
type RebookSuggestion struct {
	SourceBookingID uuid.UUID `json:"source_booking_id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	ServiceName     string    `json:"service_name"`
	Slot            Slot      `json:"slot"`
	Address         Address   `json:"address"`
	Price           Money     `json:"price"`
}

// SuggestRebook proposes the same service six calendar weeks later, same
// weekday and times of day. Duration is copied as-is from the original slot.
func SuggestRebook(b *Booking) (RebookSuggestion, error) {
	slot := b.Slot()
	date, err := clock.ParseDate(slot.Date)
	if err != nil {
		return RebookSuggestion{}, err
	}
	next := date.AddDate(0, 0, 7*RebookIntervalWeeks)

	return RebookSuggestion{
		SourceBookingID: b.ID(),
		ProviderID:      b.ProviderID(),
		CustomerID:      b.CustomerID(),
		ServiceName:     b.ServiceName(),
		Slot: Slot{
			Date:      next.Format(clock.DateLayout),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		},
		Address: b.Address(),
		Price:   b.Price(),
	}, nil
}
