package ablation

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	engine "github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/metrics"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/internal/version"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BaselineName labels the variant running the base configuration's own mask.
const BaselineName = "baseline"

// ReportFileName is the YAML export of a sweep.
const ReportFileName = "ablation.yaml"

// Variant is one strategy configuration in a sweep.
type Variant struct {
	Name   string
	Config strategy.Config
}

// Options control how a sweep is executed.
type Options struct {
	Broker         commission_fee.Broker
	PeriodsPerYear int
	InitialSignal  types.SignalType
	Symbol         string
	// Workers bounds the number of variants simulated at once. Zero means one per CPU.
	Workers int
}

// DefaultOptions mirrors the engine defaults.
func DefaultOptions() Options {
	return Options{
		Broker:         commission_fee.BrokerPerContract,
		PeriodsPerYear: engine.DefaultPeriodsPerYear,
		InitialSignal:  types.SignalTypeFlat,
	}
}

// Delta is a variant's metric minus the baseline's.
type Delta struct {
	NumberOfTrades int     `yaml:"number_of_trades"`
	TotalNetReturn float64 `yaml:"total_net_return"`
	SharpeRatio    float64 `yaml:"sharpe_ratio"`
	WinRate        float64 `yaml:"win_rate"`
	ProfitFactor   float64 `yaml:"profit_factor"`
	MaxDrawdown    float64 `yaml:"max_drawdown"`
}

// VariantResult is the outcome of simulating a single variant.
type VariantResult struct {
	Name     string                  `yaml:"name"`
	Disabled []strategy.SignalSource `yaml:"disabled"`
	Stats    types.TradeStats        `yaml:"stats"`
	Delta    Delta                   `yaml:"delta"`
	Trades   []types.Trade           `yaml:"-"`
}

// Report holds every variant in sweep order. The baseline is always first.
type Report struct {
	Symbol   string          `yaml:"symbol"`
	Bars     int             `yaml:"bars"`
	Variants []VariantResult `yaml:"variants"`
}

// Baseline returns the variant running the base mask.
func (r Report) Baseline() VariantResult {
	return r.Variants[0]
}

// Get returns the variant named name.
func (r Report) Get(name string) (VariantResult, bool) {
	for _, v := range r.Variants {
		if v.Name == name {
			return v, true
		}
	}

	return VariantResult{}, false
}

// Stats returns the stats of every variant in sweep order.
func (r Report) Stats() []types.TradeStats {
	stats := make([]types.TradeStats, len(r.Variants))
	for i, v := range r.Variants {
		stats[i] = v.Stats
	}

	return stats
}

// Write stores the report as ablation.yaml in dir.
func (r Report) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create report directory", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to marshal ablation report", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ReportFileName), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write ablation report", err)
	}

	return nil
}

// Variants returns the default sweep for base: the baseline followed by one variant per
// signal source still enabled in base, with that source also disabled. Sources base already
// switches off stay off in every variant.
func Variants(base strategy.Config) []Variant {
	mask := maskOf(base)
	variants := make([]Variant, 0, len(strategy.AllSignalSources)+1)
	variants = append(variants, baseline(base))

	for _, source := range strategy.AllSignalSources {
		if !mask.Enabled(source) {
			continue
		}

		name := "no_" + string(source)
		variants = append(variants, Variant{
			Name:   name,
			Config: base.WithAblation(name, mask.With(source, false)),
		})
	}

	return variants
}

func baseline(base strategy.Config) Variant {
	return Variant{Name: BaselineName, Config: base.WithAblation(BaselineName, maskOf(base))}
}

// maskOf spells out every flag of base, defaulting missing ones to enabled.
func maskOf(base strategy.Config) strategy.AblationMask {
	mask := make(strategy.AblationMask, len(strategy.AllSignalSources))
	for _, source := range strategy.AllSignalSources {
		mask[source] = base.Ablation.Enabled(source)
	}

	return mask
}

// Runner simulates strategy variants over a shared bar sequence.
type Runner struct {
	options Options
	log     *logger.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(options Options, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}

	if options.PeriodsPerYear <= 0 {
		options.PeriodsPerYear = engine.DefaultPeriodsPerYear
	}

	if options.Broker == "" {
		options.Broker = commission_fee.BrokerPerContract
	}

	return &Runner{options: options, log: log}
}

// Run simulates the baseline of base and then every variant. With no variants the default
// sweep from Variants is used. Bars are shared read-only between workers. The first failing
// variant cancels the rest and its error is returned.
func (r *Runner) Run(ctx context.Context, bars []types.Bar, base strategy.Config, variants ...Variant) (Report, error) {
	if len(variants) == 0 {
		variants = Variants(base)
	} else {
		variants = append([]Variant{baseline(base)}, withoutBaseline(variants)...)
	}

	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v.Name]; ok {
			return Report{}, errors.Newf(errors.ErrCodeInvalidAblation, "duplicate variant name %q", v.Name)
		}

		seen[v.Name] = struct{}{}
	}

	results := make([]VariantResult, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.options.Workers)

	for i, variant := range variants {
		g.Go(func() error {
			result, err := r.runVariant(ctx, bars, variant)
			if err != nil {
				r.log.Error("Variant failed", zap.String("variant", variant.Name), zap.Error(err))

				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	base0 := results[0].Stats
	for i := range results {
		results[i].Delta = delta(results[i].Stats, base0)
	}

	r.log.Info("Ablation sweep finished",
		zap.String("symbol", r.options.Symbol),
		zap.Int("variants", len(results)),
		zap.Int("bars", len(bars)),
	)

	return Report{Symbol: r.options.Symbol, Bars: len(bars), Variants: results}, nil
}

func (r *Runner) runVariant(ctx context.Context, bars []types.Bar, variant Variant) (VariantResult, error) {
	strat, err := strategy.NewStrategy(variant.Config, r.log)
	if err != nil {
		return VariantResult{}, err
	}

	simulator := engine.NewSimulator(strat, r.log)
	simulator.SetInitialSignal(r.options.InitialSignal)
	simulator.SetCommissionFee(engine.CommissionFeeFor(r.options.Broker, variant.Config))

	result, err := simulator.Run(ctx, bars)
	if err != nil {
		return VariantResult{}, err
	}

	stats := metrics.Compute(result.Trades, bars, r.options.PeriodsPerYear)
	stats.Symbol = r.options.Symbol
	stats.Variant = variant.Name
	stats.HasOpenPosition = result.OpenTrade.IsSome()
	stats.EngineVersion = version.GetVersion()

	r.log.Debug("Variant finished",
		zap.String("variant", variant.Name),
		zap.Int("trades", len(result.Trades)),
	)

	return VariantResult{
		Name:     variant.Name,
		Disabled: strat.DisabledSources(),
		Stats:    stats,
		Trades:   result.Trades,
	}, nil
}

func withoutBaseline(variants []Variant) []Variant {
	out := make([]Variant, 0, len(variants))

	for _, v := range variants {
		if v.Name != BaselineName {
			out = append(out, v)
		}
	}

	return out
}

func delta(stats, baseline types.TradeStats) Delta {
	return Delta{
		NumberOfTrades: stats.TradeResult.NumberOfTrades - baseline.TradeResult.NumberOfTrades,
		TotalNetReturn: diff(stats.TradeReturns.TotalNetReturn, baseline.TradeReturns.TotalNetReturn),
		SharpeRatio:    diff(stats.TradeReturns.SharpeRatio, baseline.TradeReturns.SharpeRatio),
		WinRate:        diff(stats.TradeResult.WinRate, baseline.TradeResult.WinRate),
		ProfitFactor:   diff(stats.TradeResult.ProfitFactor, baseline.TradeResult.ProfitFactor),
		MaxDrawdown:    diff(stats.TradeResult.MaxDrawdown, baseline.TradeResult.MaxDrawdown),
	}
}

// diff is a - b, or zero when a == b including matching infinities.
func diff(a, b float64) float64 {
	if a == b {
		return 0
	}

	return a - b
}
