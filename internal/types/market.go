package types

import "time"

// Bar is one OHLCV sample of the traded instrument. Bars are immutable once loaded.
type Bar struct {
	Time   time.Time `csv:"timestamp" yaml:"timestamp" json:"timestamp"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
}

// IsProfitableClose reports whether the bar closed at or above its open.
func (b Bar) IsProfitableClose() bool {
	return b.Close >= b.Open
}

// Closes extracts the close prices of bars.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}
