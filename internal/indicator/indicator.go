// Package indicator implements the incremental estimators that feed the signal layer.
//
// Every estimator is an owned, mutable object advanced exactly once per bar with the
// close history up to and including the current bar. Estimators never look ahead and
// never replay bars they have already folded into their state.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ablation/internal/types"
)

// Indicator is a stateful per-bar estimator.
type Indicator interface {
	// Name returns the derived column this indicator writes
	Name() types.IndicatorType
	// Update advances the estimator with closes[0..cursor] and returns the value for the cursor bar.
	// Insufficient history yields NaN together with an *errors.InsufficientDataError.
	Update(closes []float64) (float64, error)
	// Value returns the last computed value, NaN before the first successful update
	Value() float64
	// Reset drops all accumulated state
	Reset()
}

// validValues returns closes with missing (NaN) observations removed.
func validValues(closes []float64) []float64 {
	valid := make([]float64, 0, len(closes))

	for _, c := range closes {
		if !math.IsNaN(c) {
			valid = append(valid, c)
		}
	}

	return valid
}

// trailingValid returns at most n of the most recent non-NaN closes, oldest first.
func trailingValid(closes []float64, n int) []float64 {
	out := make([]float64, 0, n)

	for i := len(closes) - 1; i >= 0 && len(out) < n; i-- {
		if !math.IsNaN(closes[i]) {
			out = append(out, closes[i])
		}
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}

	return out
}
