// Package ticks converts between decimal price strings and the integer tick
// prices the matching engine operates on. The conversion lives at the edges
// (CLI, HTTP API) so the engine itself never touches decimals.
package ticks

import (
	"errors"
	"fmt"
	"math"

	"github.com/nikolaydubina/fpdecimal"

	"matchbook/pkg/core"
)

// Errors
var (
	ErrInvalidTickSize = errors.New("tick size must be positive")
	ErrOffTick         = errors.New("price is not a multiple of the tick size")
	ErrOutOfRange      = errors.New("price out of tick range")
)

// Converter maps decimal prices onto integer ticks for a fixed tick size.
type Converter struct {
	tickSize fpdecimal.Decimal
}

// NewConverter creates a Converter for the given decimal tick size, e.g.
// "0.01".
func NewConverter(tickSize string) (*Converter, error) {
	size, err := fpdecimal.FromString(tickSize)
	if err != nil {
		return nil, fmt.Errorf("parsing tick size: %w", err)
	}
	if size.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidTickSize
	}
	return &Converter{tickSize: size}, nil
}

// ToTicks parses a decimal price and returns it as a whole number of ticks.
// Prices that do not sit exactly on the tick grid are rejected.
func (c *Converter) ToTicks(price string) (core.Price, error) {
	value, err := fpdecimal.FromString(price)
	if err != nil {
		return 0, fmt.Errorf("parsing price: %w", err)
	}

	estimate := math.Round(value.Float64() / c.tickSize.Float64())
	if estimate > math.MaxInt32 || estimate < math.MinInt32 {
		return 0, ErrOutOfRange
	}

	ticks := core.Price(estimate)
	if !c.FromTicksDecimal(ticks).Equal(value) {
		return 0, ErrOffTick
	}
	return ticks, nil
}

// FromTicks renders a tick price back into its decimal string form.
func (c *Converter) FromTicks(ticks core.Price) string {
	return c.FromTicksDecimal(ticks).String()
}

// FromTicksDecimal returns the decimal value of a tick price.
func (c *Converter) FromTicksDecimal(ticks core.Price) fpdecimal.Decimal {
	return c.tickSize.Mul(fpdecimal.FromInt(int(ticks)))
}
