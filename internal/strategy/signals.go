package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// EntryFilter decides whether the flat strategy may enter at bar i.
type EntryFilter interface {
	Source() SignalSource
	Allow(i int, view MarketView) (bool, error)
}

// ExitTrigger decides whether the open trade should be closed after bar i.
type ExitTrigger interface {
	Source() SignalSource
	Fire(i int, view MarketView, state types.TradeState) (bool, error)
}

// RSIBandFilter passes when RSI lies within [Low, High].
type RSIBandFilter struct {
	Low  float64
	High float64
}

func (f RSIBandFilter) Source() SignalSource { return SourceRSI }

func (f RSIBandFilter) Allow(i int, view MarketView) (bool, error) {
	rsi, err := view.Indicator(types.IndicatorTypeRSI, i)
	if err != nil {
		return false, err
	}

	if math.IsNaN(rsi) {
		return false, nil
	}

	return rsi >= f.Low && rsi <= f.High, nil
}

// HurstFilter passes when the Hurst exponent is strictly above Threshold.
type HurstFilter struct {
	Threshold float64
}

func (f HurstFilter) Source() SignalSource { return SourceHurst }

func (f HurstFilter) Allow(i int, view MarketView) (bool, error) {
	hurst, err := view.Indicator(types.IndicatorTypeHurst, i)
	if err != nil {
		return false, err
	}

	if math.IsNaN(hurst) || math.IsNaN(f.Threshold) {
		return false, nil
	}

	return hurst > f.Threshold, nil
}

// blockedFilter stands in for an enabled filter whose thresholds are missing.
type blockedFilter struct {
	source SignalSource
}

func (f blockedFilter) Source() SignalSource { return f.source }

func (f blockedFilter) Allow(int, MarketView) (bool, error) { return false, nil }

// TimeExit fires once the trade has been held MaxBars bars.
type TimeExit struct {
	MaxBars int
}

func (t TimeExit) Source() SignalSource { return SourceTimeExit }

func (t TimeExit) Fire(_ int, _ MarketView, state types.TradeState) (bool, error) {
	return state.BarsHeld >= t.MaxBars, nil
}

// TakeProfitExit fires when each of the last Closes bars closed at or above its open
// and the trade has been held at least Closes bars.
type TakeProfitExit struct {
	Closes int
}

func (t TakeProfitExit) Source() SignalSource { return SourceTakeProfit }

func (t TakeProfitExit) Fire(i int, view MarketView, state types.TradeState) (bool, error) {
	if t.Closes <= 0 || state.BarsHeld < t.Closes || i-t.Closes+1 < 0 {
		return false, nil
	}

	for j := i - t.Closes + 1; j <= i; j++ {
		bar, err := view.Bar(j)
		if err != nil {
			return false, err
		}

		if !bar.IsProfitableClose() {
			return false, nil
		}
	}

	return true, nil
}

// CompositeRSIExit fires when the composite RSI is strictly above Threshold.
type CompositeRSIExit struct {
	Threshold float64
}

func (c CompositeRSIExit) Source() SignalSource { return SourceCompositeRSI }

func (c CompositeRSIExit) Fire(i int, view MarketView, _ types.TradeState) (bool, error) {
	value, err := view.Indicator(types.IndicatorTypeCompositeRSI, i)
	if err != nil {
		return false, err
	}

	if math.IsNaN(value) {
		return false, nil
	}

	return value > c.Threshold, nil
}

// evaluationError tags a predicate failure with the source and bar.
func evaluationError(source SignalSource, i int, err error) error {
	return errors.Wrapf(errors.ErrCodeSignalEvaluation, err, "%s failed at bar %d", source, i)
}
