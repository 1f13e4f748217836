package strategy

import (
	"sort"

	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// SignalSource names one toggleable entry filter or exit trigger.
type SignalSource string

const (
	SourceRSI          SignalSource = "use_rsi"
	SourceHurst        SignalSource = "use_hurst"
	SourceTimeExit     SignalSource = "use_time_exit"
	SourceTakeProfit   SignalSource = "use_take_profit"
	SourceCompositeRSI SignalSource = "use_RSI_exit"
)

// AllSignalSources lists every ablation flag in evaluation order.
var AllSignalSources = []SignalSource{
	SourceRSI,
	SourceHurst,
	SourceTimeExit,
	SourceTakeProfit,
	SourceCompositeRSI,
}

// EntrySources are the flags that gate entry filters.
var EntrySources = []SignalSource{SourceRSI, SourceHurst}

// ExitSources are the flags that gate exit triggers, in first-true-wins order.
var ExitSources = []SignalSource{SourceTimeExit, SourceTakeProfit, SourceCompositeRSI}

// IsValid reports whether s is a known ablation flag.
func (s SignalSource) IsValid() bool {
	for _, known := range AllSignalSources {
		if s == known {
			return true
		}
	}

	return false
}

// AblationMask maps a signal source to whether it participates in the strategy.
// A source absent from the mask is enabled.
type AblationMask map[SignalSource]bool

// FullMask returns a mask with every source enabled.
func FullMask() AblationMask {
	mask := make(AblationMask, len(AllSignalSources))
	for _, s := range AllSignalSources {
		mask[s] = true
	}

	return mask
}

// Enabled reports whether source is on.
func (m AblationMask) Enabled(source SignalSource) bool {
	enabled, ok := m[source]
	if !ok {
		return true
	}

	return enabled
}

// With returns a copy of the mask with source set to enabled.
func (m AblationMask) With(source SignalSource, enabled bool) AblationMask {
	out := make(AblationMask, len(m)+1)
	for k, v := range m {
		out[k] = v
	}

	out[source] = enabled

	return out
}

// Disabled returns the sources switched off, sorted by name.
func (m AblationMask) Disabled() []SignalSource {
	var out []SignalSource

	for _, s := range AllSignalSources {
		if !m.Enabled(s) {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Validate rejects unknown flags.
func (m AblationMask) Validate() error {
	for s := range m {
		if !s.IsValid() {
			return errors.Newf(errors.ErrCodeInvalidAblation, "unknown ablation flag %q", s)
		}
	}

	return nil
}
