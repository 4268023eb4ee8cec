package trip

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// TestNewPrice_Validation tests the price acceptance rules
func TestNewPrice_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   decimal.NullDecimal
		wantErr bool
	}{
		{name: "two decimals", input: raw("25.00")},
		{name: "one decimal", input: raw("10.5")},
		{name: "integer", input: raw("100")},
		{name: "zero", input: raw("0")},
		{name: "very high", input: raw("15000.00")},
		{name: "missing", input: decimal.NullDecimal{}, wantErr: true},
		{name: "negative", input: raw("-5.00"), wantErr: true},
		{name: "three decimals", input: raw("25.123"), wantErr: true},
		{name: "trailing zero beyond scale", input: raw("25.000"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrice(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPrediction)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Decimal().Equal(tt.input.Decimal))
			assert.LessOrEqual(t, p.Scale(), MaxPriceScale)
		})
	}
}

// TestPriceFromFloat_RejectsNonFinite tests the float adapter
func TestPriceFromFloat_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := PriceFromFloat(f)
		assert.ErrorIs(t, err, ErrInvalidPrediction, "%v", f)
	}

	p, err := PriceFromFloat(25.5)
	require.NoError(t, err)
	assert.Equal(t, "25.50", p.String())

	_, err = PriceFromFloat(-1)
	assert.ErrorIs(t, err, ErrInvalidPrediction)
}

// TestPrice_JSON tests that prices render as fixed two-decimal numbers
func TestPrice_JSON(t *testing.T) {
	data, err := json.Marshal(MustPrice("25"))
	require.NoError(t, err)
	assert.Equal(t, "25.00", string(data))

	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"12.30"`), &p))
	assert.True(t, p.Equal(MustPrice("12.3")))

	assert.Error(t, json.Unmarshal([]byte(`-1`), &p))
	assert.Error(t, json.Unmarshal([]byte(`null`), &p))
}
