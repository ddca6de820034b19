package catalog

import (
	"encoding/json"
	"testing"

	"magicweekends/models"
	"magicweekends/services/pricing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want float64
	}{
		"number":          {`4999`, 4999},
		"fractional":      {`1250.5`, 1250.5},
		"currency string": {`"₹4,999"`, 4999},
		"suffix":          {`"INR 2,500/-"`, 2500},
		"leading dot":     {`"Rs. 2500"`, 0.25},
		"second dot":      {`"1.234.5"`, 1.234},
		"no digits":       {`"on request"`, 0},
		"empty string":    {`""`, 0},
		"null":            {`null`, 0},
		"absent":          {``, 0},
		"object":          {`{"amount":10}`, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePrice(json.RawMessage(tc.raw)))
		})
	}
}

func TestNormalizedStringAndNumberPriceAgree(t *testing.T) {
	assert.Equal(t, NormalizePrice(json.RawMessage(`3999`)), NormalizePrice(json.RawMessage(`"₹3,999"`)))
}

func TestNormalizedPriceFeedsQuote(t *testing.T) {
	trip := models.TripSnapshot{PricePerPerson: NormalizePrice(json.RawMessage(`"₹1,000"`))}
	q := pricing.Quote(trip, 3)
	assert.Equal(t, 3000.0, q.Total)
	assert.Equal(t, 300.0, q.Deposit)
	assert.Equal(t, 2700.0, q.Balance)
}
