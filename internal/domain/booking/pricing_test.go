package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoShowChargeStrategy(t *testing.T) {
	eur := func(c int64) Money { return Money{AmountCents: c, Currency: "EUR"} }

	tests := []struct {
		name    string
		percent int64
		price   int64
		fee     int64
		want    int64
	}{
		{"half plus fee", 50, 10000, 2000, 7000},
		{"no fee", 50, 10000, 0, 5000},
		{"full price capped", 100, 10000, 2000, 12000},
		{"fee only", 0, 10000, 1500, 1500},
		{"rounds down", 33, 1001, 0, 330},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewNoShowChargeStrategy(tc.percent).Calculate(ChargeParams{Price: eur(tc.price), TransportFee: eur(tc.fee)})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.AmountCents)
			assert.Equal(t, "EUR", got.Currency)
		})
	}
}

func TestNoShowChargeStrategy_Errors(t *testing.T) {
	_, err := NewNoShowChargeStrategy(120).Calculate(ChargeParams{Price: Money{AmountCents: 100, Currency: "EUR"}})
	assert.Error(t, err)

	_, err = NewNoShowChargeStrategy(50).Calculate(ChargeParams{
		Price:        Money{AmountCents: 100, Currency: "EUR"},
		TransportFee: Money{AmountCents: 100, Currency: "USD"},
	})
	assert.Error(t, err)
}
