// Package strategy turns indicator values and an ablation mask into entry and exit decisions.
package strategy

import (
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"go.uber.org/zap"
)

// Strategy is the signal layer consumed by the simulator.
type Strategy interface {
	// Name returns the variant label
	Name() string
	// Config returns the configuration the strategy was built from
	Config() Config
	// EntrySignal reports whether a flat book should buy on the next bar
	EntrySignal(i int, view MarketView) (bool, error)
	// ExitSignal reports whether the open trade should be sold on the next bar
	ExitSignal(i int, view MarketView, state types.TradeState) (bool, error)
}

// AblationStrategy composes the filters and triggers enabled by its mask.
// The composition is fixed at construction, so evaluation never consults the mask.
type AblationStrategy struct {
	config   Config
	entries  []EntryFilter
	exits    []ExitTrigger
	disabled []SignalSource
}

// NewStrategy builds the predicate set for config. Enabled sources whose parameters are
// missing are logged once here with event=config_missing. A missing entry threshold blocks
// entries, a missing exit parameter skips that trigger.
func NewStrategy(config Config, log *logger.Logger) (*AblationStrategy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &AblationStrategy{
		config:   config,
		disabled: config.Ablation.Disabled(),
	}

	missing := func(source SignalSource, field string) {
		log.Warn("Signal source enabled without its parameter",
			zap.String("event", "config_missing"),
			zap.String("strategy", config.Name),
			zap.String("source", string(source)),
			zap.String("field", field),
		)
	}

	mask := config.Ablation
	th := config.EntryThresholds
	ex := config.Exits

	if mask.Enabled(SourceRSI) {
		switch {
		case th.RSILow.IsNone():
			missing(SourceRSI, "entry_thresholds.rsi_low")
			s.entries = append(s.entries, blockedFilter{source: SourceRSI})
		case th.RSIHigh.IsNone():
			missing(SourceRSI, "entry_thresholds.rsi_high")
			s.entries = append(s.entries, blockedFilter{source: SourceRSI})
		default:
			s.entries = append(s.entries, RSIBandFilter{Low: th.RSILow.Unwrap(), High: th.RSIHigh.Unwrap()})
		}
	}

	if mask.Enabled(SourceHurst) {
		if th.HurstThreshold.IsNone() {
			missing(SourceHurst, "entry_thresholds.hurst_threshold")
			s.entries = append(s.entries, blockedFilter{source: SourceHurst})
		} else {
			s.entries = append(s.entries, HurstFilter{Threshold: th.HurstThreshold.Unwrap()})
		}
	}

	if mask.Enabled(SourceTimeExit) {
		if ex.MaxBarsInTrade.IsNone() {
			missing(SourceTimeExit, "exits.max_bars_in_trade")
		} else {
			s.exits = append(s.exits, TimeExit{MaxBars: ex.MaxBarsInTrade.Unwrap()})
		}
	}

	if mask.Enabled(SourceTakeProfit) {
		if ex.MaxProfitableCloses.IsNone() {
			missing(SourceTakeProfit, "exits.max_profitable_closes")
		} else {
			s.exits = append(s.exits, TakeProfitExit{Closes: ex.MaxProfitableCloses.Unwrap()})
		}
	}

	if mask.Enabled(SourceCompositeRSI) {
		if ex.CompositeRSIThreshold.IsNone() {
			missing(SourceCompositeRSI, "exits.composite_rsi_threshold")
		} else {
			s.exits = append(s.exits, CompositeRSIExit{Threshold: ex.CompositeRSIThreshold.Unwrap()})
		}
	}

	return s, nil
}

// Name implements Strategy.
func (s *AblationStrategy) Name() string {
	return s.config.Name
}

// Config implements Strategy.
func (s *AblationStrategy) Config() Config {
	return s.config
}

// DisabledSources returns the sources switched off by the mask.
func (s *AblationStrategy) DisabledSources() []SignalSource {
	return s.disabled
}

// EntryFilters returns the active entry filters in evaluation order.
func (s *AblationStrategy) EntryFilters() []EntryFilter {
	return s.entries
}

// ExitTriggers returns the active exit triggers in evaluation order.
func (s *AblationStrategy) ExitTriggers() []ExitTrigger {
	return s.exits
}

// EntrySignal implements Strategy. With no active filter entry is unconditional.
func (s *AblationStrategy) EntrySignal(i int, view MarketView) (bool, error) {
	for _, f := range s.entries {
		ok, err := f.Allow(i, view)
		if err != nil {
			return false, evaluationError(f.Source(), i, err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// ExitSignal implements Strategy. The first trigger that fires wins.
func (s *AblationStrategy) ExitSignal(i int, view MarketView, state types.TradeState) (bool, error) {
	for _, t := range s.exits {
		fired, err := t.Fire(i, view, state)
		if err != nil {
			return false, evaluationError(t.Source(), i, err)
		}

		if fired {
			return true, nil
		}
	}

	return false, nil
}
