package strategy

import (
	"github.com/rxtech-lab/argo-ablation/internal/types"
)

// MarketView is the causal window a strategy reads through.
// Implementations reject any index past Cursor with an ErrCodeFutureBarAccess error.
type MarketView interface {
	// Cursor returns the index of the bar being processed
	Cursor() int
	Bar(i int) (types.Bar, error)
	// Indicator returns the derived value of name at bar i, NaN while the indicator warms up
	Indicator(name types.IndicatorType, i int) (float64, error)
}
