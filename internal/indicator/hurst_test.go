package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/stat"
)

type HurstTestSuite struct {
	suite.Suite
}

func TestHurstSuite(t *testing.T) {
	suite.Run(t, new(HurstTestSuite))
}

func linearSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}

	return out
}

func (suite *HurstTestSuite) TestNewHurst() {
	h, err := NewHurst(DefaultHurstWindow)
	suite.Require().NoError(err)
	suite.Equal(types.IndicatorTypeHurst, h.Name())
	suite.Equal(20, h.Window())
	suite.True(math.IsNaN(h.Value()))

	_, err = NewHurst(0)
	suite.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(err))
}

func (suite *HurstTestSuite) TestLogSpacedSizes() {
	suite.Equal([]int{4, 5, 6, 7, 8, 9, 10}, logSpacedSizes(4, 10, 10))
	suite.Equal([]int{4}, logSpacedSizes(4, 4, 10))
	suite.Nil(logSpacedSizes(4, 3, 10))

	sizes := logSpacedSizes(4, 256, 10)
	suite.Len(sizes, 10)
	suite.Equal(4, sizes[0])
	suite.Equal(256, sizes[len(sizes)-1])
}

func (suite *HurstTestSuite) TestFewerThanEightPointsIsNaN() {
	for n := 0; n < MinHurstPoints; n++ {
		suite.True(math.IsNaN(RescaledRangeExponent(linearSeries(n))), "n=%d", n)
	}
}

func (suite *HurstTestSuite) TestSingleSizeIsNaN() {
	// 8 points only admit segment size 4
	suite.True(math.IsNaN(RescaledRangeExponent([]float64{1, 3, 2, 5, 4, 6, 8, 7})))
}

func (suite *HurstTestSuite) TestFlatSeriesIsNaN() {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 5
	}

	suite.True(math.IsNaN(RescaledRangeExponent(flat)))

	h, err := NewHurst(20)
	suite.Require().NoError(err)

	value, err := h.Update(flat)
	suite.True(math.IsNaN(value))
	suite.Equal(errors.ErrCodeIndicatorCalculation, errors.GetCode(err))
}

func (suite *HurstTestSuite) TestWindowMustBeFull() {
	h, err := NewHurst(20)
	suite.Require().NoError(err)

	value, err := h.Update(linearSeries(19))
	suite.True(math.IsNaN(value))

	var insufficient *errors.InsufficientDataError
	suite.Require().True(errors.As(err, &insufficient))
	suite.Equal(20, insufficient.Required)
	suite.Equal(19, insufficient.Actual)
}

func (suite *HurstTestSuite) TestShortWindowStillNeedsEightPoints() {
	h, err := NewHurst(5)
	suite.Require().NoError(err)

	_, err = h.Update(linearSeries(30))

	var insufficient *errors.InsufficientDataError
	suite.Require().True(errors.As(err, &insufficient))
	suite.Equal(MinHurstPoints, insufficient.Required)
	suite.Equal(5, insufficient.Actual)
}

func (suite *HurstTestSuite) TestMinimumWindowProducesValue() {
	closes := make([]float64, MinHurstWindow)
	rng := rand.New(rand.NewSource(5))

	for i := range closes {
		closes[i] = 100 + rng.NormFloat64()
	}

	suite.Len(logSpacedSizes(minSegmentSize, (MinHurstWindow-1)/2, sizeBuckets), 1)
	suite.Len(logSpacedSizes(minSegmentSize, MinHurstWindow/2, sizeBuckets), 2)

	h, err := NewHurst(MinHurstWindow)
	suite.Require().NoError(err)

	value, err := h.Update(closes)
	suite.Require().NoError(err)
	suite.False(math.IsNaN(value))
}

func (suite *HurstTestSuite) TestUsesTrailingWindowOnly() {
	closes := make([]float64, 40)
	rng := rand.New(rand.NewSource(3))

	for i := range closes {
		closes[i] = 100 + rng.NormFloat64()
	}

	h, err := NewHurst(20)
	suite.Require().NoError(err)

	value, err := h.Update(closes)
	suite.Require().NoError(err)
	suite.InDelta(RescaledRangeExponent(closes[20:]), value, 1e-12)

	// missing closes are skipped, the window reaches further back
	withGap := append([]float64{}, closes...)
	withGap[30] = math.NaN()

	value, err = h.Update(withGap)
	suite.Require().NoError(err)

	expected := append(append([]float64{}, closes[19:30]...), closes[31:]...)
	suite.InDelta(RescaledRangeExponent(expected), value, 1e-12)
}

func (suite *HurstTestSuite) TestTrendingSeriesIsPersistent() {
	suite.Greater(RescaledRangeExponent(linearSeries(20)), 0.9)
}

func (suite *HurstTestSuite) TestAlternatingSeriesIsAntiPersistent() {
	series := make([]float64, 20)
	for i := range series {
		series[i] = 99
		if i%2 == 1 {
			series[i] = 101
		}
	}

	suite.Less(RescaledRangeExponent(series), 0.3)
}

// R/S is applied to the series as given. White noise is the increment series of a random
// walk, so this is where the random-walk estimate of about 0.5 shows up.
func (suite *HurstTestSuite) TestWhiteNoiseClustersAroundHalf() {
	estimates := make([]float64, 0, 20)

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		noise := make([]float64, 512)

		for i := range noise {
			noise[i] = rng.NormFloat64()
		}

		h := RescaledRangeExponent(noise)
		suite.Require().False(math.IsNaN(h))
		estimates = append(estimates, h)
	}

	suite.InDelta(0.5, stat.Mean(estimates, nil), 0.15)
}

// Fed the walk's levels instead of its increments, R/S sees the cumulative sum and reads
// strong persistence.
func (suite *HurstTestSuite) TestRandomWalkLevelsArePersistent() {
	estimates := make([]float64, 0, 10)

	for seed := int64(1); seed <= 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		walk := make([]float64, 512)
		level := 0.0

		for i := range walk {
			level += rng.NormFloat64()
			walk[i] = level
		}

		estimates = append(estimates, RescaledRangeExponent(walk))
	}

	suite.Greater(stat.Mean(estimates, nil), 0.8)
}
