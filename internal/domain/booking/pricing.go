package booking

import "fmt"

// ChargeStrategy decides how much of a pre-authorized amount to capture when
// a customer does not show up.
type ChargeStrategy interface {
	// Calculate returns the amount to capture for the given booking amounts.
	Calculate(params ChargeParams) (Money, error)
}

// ChargeParams holds the inputs for the no-show charge.
type ChargeParams struct {
	Price        Money
	TransportFee Money
}

// NoShowChargeStrategy captures the full transport fee plus a percentage of
// the service price.
type NoShowChargeStrategy struct {
	percentOfPrice int64
}

// NewNoShowChargeStrategy creates a NoShowChargeStrategy.
func NewNoShowChargeStrategy(percentOfPrice int64) *NoShowChargeStrategy {
	return &NoShowChargeStrategy{percentOfPrice: percentOfPrice}
}

// Calculate computes the capture amount, capped at price + transport fee.
func (s *NoShowChargeStrategy) Calculate(params ChargeParams) (Money, error) {
	if s.percentOfPrice < 0 || s.percentOfPrice > 100 {
		return Money{}, fmt.Errorf("no-show percentage out of range: %d", s.percentOfPrice)
	}
	if params.TransportFee.Currency != "" && params.TransportFee.Currency != params.Price.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", params.Price.Currency, params.TransportFee.Currency)
	}

	charge := params.Price.Percent(s.percentOfPrice).Add(params.TransportFee)

	preAuthorized := params.Price.Add(params.TransportFee)
	if charge.AmountCents > preAuthorized.AmountCents {
		charge = preAuthorized
	}
	return charge, nil
}
