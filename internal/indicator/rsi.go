package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// RSI represents the Relative Strength Index indicator with Wilder smoothing.
//
// The first successful update seeds the averages with the simple mean of the last
// period gains and losses. Every later update folds only the newly appended closes
// into the averages with avg += (x - avg) / period.
type RSI struct {
	period      int
	avgGain     float64
	avgLoss     float64
	lastClose   float64
	consumed    int
	initialized bool
	value       float64
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be a positive integer, got %d", period)
	}

	return &RSI{
		period: period,
		value:  math.NaN(),
	}, nil
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Period returns the smoothing period.
func (r *RSI) Period() int {
	return r.period
}

// Value implements Indicator.
func (r *RSI) Value() float64 {
	return r.value
}

// Reset implements Indicator.
func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.lastClose = 0
	r.consumed = 0
	r.initialized = false
	r.value = math.NaN()
}

// Update implements Indicator.
func (r *RSI) Update(closes []float64) (float64, error) {
	if !r.initialized {
		return r.warmUp(closes)
	}

	// same cursor as the previous call: nothing new to fold in
	if len(closes) <= r.consumed {
		return r.value, nil
	}

	for _, c := range closes[r.consumed:] {
		if math.IsNaN(c) {
			continue
		}

		gain, loss := splitDelta(c - r.lastClose)
		r.avgGain += (gain - r.avgGain) / float64(r.period)
		r.avgLoss += (loss - r.avgLoss) / float64(r.period)
		r.lastClose = c
	}

	r.consumed = len(closes)
	r.value = rsiFromAverages(r.avgGain, r.avgLoss)

	return r.value, nil
}

func (r *RSI) warmUp(closes []float64) (float64, error) {
	valid := validValues(closes)
	if len(valid) < r.period+1 {
		r.value = math.NaN()

		return r.value, errors.NewInsufficientDataErrorf(r.period+1, len(valid), string(r.Name()),
			"rsi(%d) needs %d valid closes, got %d", r.period, r.period+1, len(valid))
	}

	window := valid[len(valid)-r.period-1:]

	var sumGain, sumLoss float64

	for i := 1; i < len(window); i++ {
		gain, loss := splitDelta(window[i] - window[i-1])
		sumGain += gain
		sumLoss += loss
	}

	r.avgGain = sumGain / float64(r.period)
	r.avgLoss = sumLoss / float64(r.period)
	r.lastClose = window[len(window)-1]
	r.consumed = len(closes)
	r.initialized = true
	r.value = rsiFromAverages(r.avgGain, r.avgLoss)

	return r.value, nil
}

// splitDelta clips a price change into its gain and loss components.
func splitDelta(delta float64) (gain float64, loss float64) {
	if delta > 0 {
		return delta, 0
	}

	return 0, -delta
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}

		return 0
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
