package indicator

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultHurstWindow is the trailing window used when none is configured.
	DefaultHurstWindow = 20
	// MinHurstPoints is the shortest series the rescaled-range fit accepts.
	MinHurstPoints = 8
	// MinHurstWindow is the shortest window whose fit has at least two segment sizes.
	MinHurstWindow = 10

	minSegmentSize = 4
	sizeBuckets    = 10
)

// Hurst is a rolling rescaled-range Hurst exponent over a trailing window of closes.
type Hurst struct {
	window int
	value  float64
}

// NewHurst creates a rolling Hurst estimator over window closes.
func NewHurst(window int) (*Hurst, error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "hurst window must be a positive integer, got %d", window)
	}

	return &Hurst{
		window: window,
		value:  math.NaN(),
	}, nil
}

// Name returns the name of the indicator.
func (h *Hurst) Name() types.IndicatorType {
	return types.IndicatorTypeHurst
}

// Window returns the trailing window length.
func (h *Hurst) Window() int {
	return h.window
}

// Value implements Indicator.
func (h *Hurst) Value() float64 {
	return h.value
}

// Reset implements Indicator.
func (h *Hurst) Reset() {
	h.value = math.NaN()
}

// Update implements Indicator.
func (h *Hurst) Update(closes []float64) (float64, error) {
	required := max(h.window, MinHurstPoints)
	trailing := trailingValid(closes, h.window)

	if len(trailing) < required {
		h.value = math.NaN()

		return h.value, errors.NewInsufficientDataErrorf(required, len(trailing), string(h.Name()),
			"hurst(%d) needs %d valid closes, got %d", h.window, required, len(trailing))
	}

	h.value = RescaledRangeExponent(trailing)
	if math.IsNaN(h.value) {
		return h.value, errors.New(errors.ErrCodeIndicatorCalculation, "hurst fit needs at least 2 window sizes with non-zero variance")
	}

	return h.value, nil
}

// RescaledRangeExponent estimates the Hurst exponent of series with R/S analysis.
//
// The series is cut into segments of log-spaced sizes between 4 and len/2. Each segment is
// demeaned, its cumulative deviation range divided by its population standard deviation,
// and the ratios averaged per size. The exponent is the least-squares slope of
// log10(mean R/S) against log10(size). Returns NaN for fewer than 8 points or fewer than
// two usable sizes.
func RescaledRangeExponent(series []float64) float64 {
	n := len(series)
	if n < MinHurstPoints {
		return math.NaN()
	}

	logSizes := make([]float64, 0, sizeBuckets)
	logRS := make([]float64, 0, sizeBuckets)
	deviations := make([]float64, n)

	for _, size := range logSpacedSizes(minSegmentSize, n/2, sizeBuckets) {
		if size >= n {
			continue
		}

		ratios := make([]float64, 0, n/size)

		for start := 0; start+size <= n; start += size {
			segment := series[start : start+size]

			mean, std := stat.PopMeanStdDev(segment, nil)
			if std == 0 {
				continue
			}

			dev := deviations[:size]
			for i, v := range segment {
				dev[i] = v - mean
			}

			floats.CumSum(dev, dev)
			ratios = append(ratios, (floats.Max(dev)-floats.Min(dev))/std)
		}

		if len(ratios) == 0 {
			continue
		}

		logSizes = append(logSizes, math.Log10(float64(size)))
		logRS = append(logRS, math.Log10(stat.Mean(ratios, nil)))
	}

	if len(logSizes) < 2 {
		return math.NaN()
	}

	_, slope := stat.LinearRegression(logSizes, logRS, nil, false)

	return slope
}

// logSpacedSizes returns the distinct floored values of num log-spaced points in [lo, hi].
func logSpacedSizes(lo, hi, num int) []int {
	if hi < lo {
		return nil
	}

	start := math.Log10(float64(lo))
	stop := math.Log10(float64(hi))
	seen := make(map[int]struct{}, num)
	sizes := make([]int, 0, num)

	for k := 0; k < num; k++ {
		exponent := start
		if num > 1 {
			exponent = start + float64(k)*(stop-start)/float64(num-1)
		}

		// nudge so that exact powers do not floor one below
		size := int(math.Floor(math.Pow(10, exponent) + 1e-9))
		if _, ok := seen[size]; ok {
			continue
		}

		seen[size] = struct{}{}
		sizes = append(sizes, size)
	}

	sort.Ints(sizes)

	return sizes
}
