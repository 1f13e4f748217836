package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// CompositeRSI is the unweighted mean of a fast and a slow RSI advanced on the same input.
type CompositeRSI struct {
	short *RSI
	long  *RSI
	value float64
}

// NewCompositeRSI creates a composite of RSI(shortPeriod) and RSI(longPeriod).
func NewCompositeRSI(shortPeriod, longPeriod int) (*CompositeRSI, error) {
	short, err := NewRSI(shortPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPeriod, "invalid short composite rsi period", err)
	}

	long, err := NewRSI(longPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPeriod, "invalid long composite rsi period", err)
	}

	return &CompositeRSI{
		short: short,
		long:  long,
		value: math.NaN(),
	}, nil
}

// Name returns the name of the indicator.
func (c *CompositeRSI) Name() types.IndicatorType {
	return types.IndicatorTypeCompositeRSI
}

// Short returns the fast RSI value of the last update.
func (c *CompositeRSI) Short() float64 {
	return c.short.Value()
}

// Long returns the slow RSI value of the last update.
func (c *CompositeRSI) Long() float64 {
	return c.long.Value()
}

// Value implements Indicator.
func (c *CompositeRSI) Value() float64 {
	return c.value
}

// Reset implements Indicator.
func (c *CompositeRSI) Reset() {
	c.short.Reset()
	c.long.Reset()
	c.value = math.NaN()
}

// Update implements Indicator. Both sub-estimators are always advanced so neither falls behind.
func (c *CompositeRSI) Update(closes []float64) (float64, error) {
	shortValue, shortErr := c.short.Update(closes)
	longValue, longErr := c.long.Update(closes)

	c.value = math.NaN()

	switch {
	case longErr != nil:
		return c.value, longErr
	case shortErr != nil:
		return c.value, shortErr
	case math.IsNaN(shortValue) || math.IsNaN(longValue):
		return c.value, nil
	}

	c.value = 0.5*shortValue + 0.5*longValue

	return c.value, nil
}
