package trip

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxPriceScale is the maximum number of fractional digits a price may carry.
const MaxPriceScale = 2

// Price is a non-negative monetary amount with at most two fractional digits.
// The zero value is a valid price of 0.
type Price struct {
	amount decimal.Decimal
}

// NewPrice validates a raw amount returned by a predictor.
func NewPrice(raw decimal.NullDecimal) (Price, error) {
	if !raw.Valid {
		return Price{}, fmt.Errorf("%w: price is missing", ErrInvalidPrediction)
	}
	if raw.Decimal.IsNegative() {
		return Price{}, fmt.Errorf("%w: price %s is negative", ErrInvalidPrediction, raw.Decimal.String())
	}
	if scale(raw.Decimal) > MaxPriceScale {
		return Price{}, fmt.Errorf("%w: price %s has more than %d decimals", ErrInvalidPrediction, raw.Decimal.String(), MaxPriceScale)
	}
	return Price{amount: raw.Decimal}, nil
}

// PriceFromFloat converts a float produced by an external adapter.
// decimal.NewFromFloat panics on NaN and infinities, so they are rejected first.
func PriceFromFloat(f float64) (Price, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Price{}, fmt.Errorf("%w: price %v is not finite", ErrInvalidPrediction, f)
	}
	return NewPrice(decimal.NewNullDecimal(decimal.NewFromFloat(f)))
}

// MustPrice parses s and panics if it is not a valid price. Intended for tests
// and constants.
func MustPrice(s string) Price {
	p, err := NewPrice(decimal.NewNullDecimal(decimal.RequireFromString(s)))
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the underlying amount.
func (p Price) Decimal() decimal.Decimal {
	return p.amount
}

// Scale returns the number of fractional digits the amount was expressed with.
func (p Price) Scale() int {
	return scale(p.amount)
}

func (p Price) GreaterThan(d decimal.Decimal) bool {
	return p.amount.GreaterThan(d)
}

// Equal compares amounts numerically, so 25.0 equals 25.00.
func (p Price) Equal(other Price) bool {
	return p.amount.Equal(other.amount)
}

// String renders the amount with two fractional digits.
func (p Price) String() string {
	return p.amount.StringFixed(MaxPriceScale)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.NullDecimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := NewPrice(d)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func scale(d decimal.Decimal) int {
	if exp := d.Exponent(); exp < 0 {
		return int(-exp)
	}
	return 0
}
