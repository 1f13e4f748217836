package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/types"
)

// DataGenerator generates synthetic bars for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartTime is the timestamp of the first bar
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// Trend is the total drift spread over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          1000,
		InitialPrice:   100.0,
		Volatility:     0.002, // 0.2% per bar
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion.
// Each bar opens at the previous close.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	drift := 0.0
	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		close := open * (1 + config.Volatility*g.rng.NormFloat64() + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// WhiteNoise returns n independent standard normal draws.
func (g *DataGenerator) WhiteNoise(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = g.rng.NormFloat64()
	}

	return out
}

// BarsFromPrices builds hourly bars from explicit opens and closes.
// High and low bracket the body, volume is constant.
func BarsFromPrices(start time.Time, opens []float64, closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))

	for i := range closes {
		open := closes[i]
		if i < len(opens) {
			open = opens[i]
		}

		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   open,
			High:   math.Max(open, closes[i]) + 0.25,
			Low:    math.Min(open, closes[i]) - 0.25,
			Close:  closes[i],
			Volume: 1000,
		}
	}

	return bars
}

// Generate1K is a convenience function to generate 1,000 bars with default settings.
func Generate1K() []types.Bar {
	gen := NewDataGenerator(42)

	return gen.Generate(DefaultConfig())
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
