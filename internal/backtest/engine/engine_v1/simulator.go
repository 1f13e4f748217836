package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-ablation/internal/indicator"
	"github.com/rxtech-lab/argo-ablation/internal/log"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// Result is the outcome of one simulation run.
type Result struct {
	// Trades are the closed trades in close-time order
	Trades []types.Trade
	// Columns hold the derived per-bar values, NaN for bars never reached
	Columns types.DerivedColumns
	// OpenTrade is the position still open after the last bar. It is never auto-closed.
	OpenTrade optional.Option[types.Trade]
	// BarsProcessed is the number of bars the loop completed
	BarsProcessed int
}

// Simulator walks a bar sequence once, advancing indicators, applying the pending
// signal at each bar's open and asking the strategy for the next one.
type Simulator struct {
	strategy strategy.Strategy
	fee      commission_fee.CommissionFee
	diag     diagnostics
	initial  types.SignalType
	progress func(current int, total int) error
}

// NewSimulator creates a simulator for strat. Costs default to the strategy's transaction costs.
// A nil logger discards output.
func NewSimulator(strat strategy.Strategy, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{
		strategy: strat,
		diag:     diagnostics{logger: log},
		initial:  types.SignalTypeFlat,
	}
}

// SetInitialSignal sets the pending signal applied at bar 0. Buy forces an entry at the first open.
func (s *Simulator) SetInitialSignal(signal types.SignalType) {
	s.initial = signal
}

// SetCommissionFee overrides the cost model derived from the strategy configuration.
func (s *Simulator) SetCommissionFee(fee commission_fee.CommissionFee) {
	s.fee = fee
}

// SetDiagnostics mirrors every diagnostic into sink, tagged with symbol.
func (s *Simulator) SetDiagnostics(sink log.Log, symbol string) {
	s.diag.sink = sink
	s.diag.symbol = symbol
}

// SetProgressCallback registers fn to be called after every bar. A returned error aborts the run.
func (s *Simulator) SetProgressCallback(fn func(current int, total int) error) {
	s.progress = fn
}

// Run simulates bars. A configuration missing a base field returns an empty result and a
// missing-parameter error before any bar is processed. Signal failures are logged and the bar
// treated as flat. A panic escaping the loop body ends the run with ErrCodeEngineFatal.
func (s *Simulator) Run(ctx context.Context, bars []types.Bar) (result Result, err error) {
	config := s.strategy.Config()

	if err := config.RequireBase(); err != nil {
		s.diag.record(types.LogLevelError, types.EventConfigMissing, time.Time{}, -1,
			"Strategy configuration is missing a required field",
			map[string]string{"strategy": s.strategy.Name(), "error": err.Error()})

		return Result{OpenTrade: optional.None[types.Trade]()}, err
	}

	registry, err := indicator.NewStandardRegistry(config.IndicatorPeriods())
	if err != nil {
		return Result{OpenTrade: optional.None[types.Trade]()}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid indicator configuration", err)
	}

	fee := s.fee
	if fee == nil {
		fee = commission_fee.NewPerContractFee(costsOf(config))
	}

	n := len(bars)
	result = Result{
		Trades:    []types.Trade{},
		Columns:   newNaNColumns(n),
		OpenTrade: optional.None[types.Trade](),
	}

	closes := types.Closes(bars)
	names := registry.ListIndicators()
	view := &marketView{bars: bars, columns: &result.Columns, cursor: -1}
	position := types.PositionStateFlat
	pending := s.initial

	var state types.TradeState

	defer func() {
		if r := recover(); r != nil {
			at := time.Time{}
			if view.cursor >= 0 {
				at = bars[view.cursor].Time
			}

			s.diag.record(types.LogLevelError, types.EventEngineFailure, at, view.cursor,
				"Simulation aborted", map[string]string{"panic": fmt.Sprint(r)})

			err = errors.Newf(errors.ErrCodeEngineFatal, "simulation aborted at bar %d: %v", view.cursor, r)
		}
	}()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		view.cursor = i
		bar := bars[i]

		s.advanceIndicators(registry, names, closes[:i+1], &result.Columns, i, bar.Time)

		switch {
		case position == types.PositionStateFlat && pending == types.SignalTypeBuy:
			state = types.TradeState{EntryIndex: i, EntryPrice: bar.Open, BarsHeld: 1, ProfitStreak: 0}
			position = types.PositionStateLong
			pending = types.SignalTypeFlat
		case position == types.PositionStateLong && pending == types.SignalTypeSell:
			result.Trades = append(result.Trades, closeTrade(bars, state, i, fee))
			position = types.PositionStateFlat
			pending = types.SignalTypeFlat
		case position == types.PositionStateLong:
			state.BarsHeld++
			if bar.Close > state.EntryPrice {
				state.ProfitStreak++
			} else {
				state.ProfitStreak = 0
			}

			pending = s.evaluateExit(i, view, state, bar.Time)
		default:
			pending = s.evaluateEntry(i, view, bar.Time)
		}

		result.Columns.OpenPosition[i] = position == types.PositionStateLong
		result.BarsProcessed = i + 1

		if s.progress != nil {
			if err := s.progress(i+1, n); err != nil {
				return result, errors.Wrap(errors.ErrCodeCallbackFailed, "progress callback failed", err)
			}
		}
	}

	if position == types.PositionStateLong {
		result.OpenTrade = optional.Some(openTrade(bars, state, fee))
	}

	return result, nil
}

func (s *Simulator) advanceIndicators(registry indicator.IndicatorRegistry, names []types.IndicatorType, window []float64, columns *types.DerivedColumns, i int, at time.Time) {
	for _, name := range names {
		ind, err := registry.GetIndicator(name)
		if err != nil {
			continue
		}

		value, err := ind.Update(window)
		if err != nil {
			s.diag.record(types.LogLevelDebug, types.EventDataInsufficiency, at, i, err.Error(),
				map[string]string{"indicator": string(name)})
		}

		if column := columns.Column(name); column != nil {
			column[i] = value
		}
	}
}

func (s *Simulator) evaluateEntry(i int, view *marketView, at time.Time) types.SignalType {
	fired, err := guardSignal(func() (bool, error) {
		return s.strategy.EntrySignal(i, view)
	})
	if err != nil {
		s.diag.record(types.LogLevelWarn, types.EventSignalEvaluationFailure, at, i,
			"Entry signal evaluation failed, treating bar as flat",
			map[string]string{"context": string(types.SignalContextEntry), "error": err.Error()})

		return types.SignalTypeFlat
	}

	return types.TranslateSignal(fired, types.SignalContextEntry)
}

func (s *Simulator) evaluateExit(i int, view *marketView, state types.TradeState, at time.Time) types.SignalType {
	fired, err := guardSignal(func() (bool, error) {
		return s.strategy.ExitSignal(i, view, state)
	})
	if err != nil {
		s.diag.record(types.LogLevelWarn, types.EventSignalEvaluationFailure, at, i,
			"Exit signal evaluation failed, treating bar as flat",
			map[string]string{"context": string(types.SignalContextExit), "error": err.Error()})

		return types.SignalTypeFlat
	}

	return types.TranslateSignal(fired, types.SignalContextExit)
}

// guardSignal turns a panicking predicate into an ErrCodeSignalPanic error.
func guardSignal(eval func() (bool, error)) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fired = false
			err = errors.Newf(errors.ErrCodeSignalPanic, "signal evaluation panicked: %v", r)
		}
	}()

	return eval()
}

func closeTrade(bars []types.Bar, state types.TradeState, exitIndex int, fee commission_fee.CommissionFee) types.Trade {
	settlement := commission_fee.Settle(fee, state.EntryPrice, bars[exitIndex].Open)

	return types.Trade{
		ID:             uuid.NewString(),
		OpenTime:       bars[state.EntryIndex].Time,
		CloseTime:      bars[exitIndex].Time,
		EntryIndex:     state.EntryIndex,
		ExitIndex:      exitIndex,
		EntryPrice:     settlement.EntryPrice,
		NetEntryPrice:  settlement.NetEntryPrice,
		ExitPrice:      settlement.ExitPrice,
		NetExitPrice:   settlement.NetExitPrice,
		Profit:         settlement.Profit,
		NetProfit:      settlement.NetProfit,
		PnL:            settlement.PnL,
		NetPnL:         settlement.NetPnL,
		Bars:           state.BarsHeld,
		CommissionCost: settlement.CommissionCost,
		SlippageCost:   settlement.SlippageCost,
	}
}

// openTrade describes a position still held after the last bar. Exit fields stay zero.
func openTrade(bars []types.Bar, state types.TradeState, fee commission_fee.CommissionFee) types.Trade {
	return types.Trade{
		ID:            uuid.NewString(),
		OpenTime:      bars[state.EntryIndex].Time,
		EntryIndex:    state.EntryIndex,
		ExitIndex:     -1,
		EntryPrice:    state.EntryPrice,
		NetEntryPrice: commission_fee.NetEntry(fee, state.EntryPrice),
		Bars:          state.BarsHeld,
	}
}

// CommissionFeeFor builds the broker's cost model from the config's transaction costs.
func CommissionFeeFor(broker commission_fee.Broker, config strategy.Config) commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(broker, costsOf(config))
}

func costsOf(config strategy.Config) commission_fee.PerContractCosts {
	return commission_fee.PerContractCosts{
		CommissionPerContract: config.TransactionCosts.CommissionPerContract.TakeOr(0),
		ContractSize:          config.TransactionCosts.ContractSize.TakeOr(0),
		SlippagePerContract:   config.TransactionCosts.SlippagePerContract.TakeOr(0),
	}
}

func newNaNColumns(n int) types.DerivedColumns {
	columns := types.NewDerivedColumns(n)

	for i := 0; i < n; i++ {
		columns.RSI[i] = math.NaN()
		columns.CompositeRSI[i] = math.NaN()
		columns.Hurst[i] = math.NaN()
	}

	return columns
}

// marketView exposes bars and derived columns up to the simulation cursor.
type marketView struct {
	bars    []types.Bar
	columns *types.DerivedColumns
	cursor  int
}

func (v *marketView) Cursor() int {
	return v.cursor
}

func (v *marketView) Bar(i int) (types.Bar, error) {
	if err := v.check(i); err != nil {
		return types.Bar{}, err
	}

	return v.bars[i], nil
}

func (v *marketView) Indicator(name types.IndicatorType, i int) (float64, error) {
	if err := v.check(i); err != nil {
		return math.NaN(), err
	}

	column := v.columns.Column(name)
	if column == nil {
		return math.NaN(), errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s has no derived column", name)
	}

	return column[i], nil
}

func (v *marketView) check(i int) error {
	if i > v.cursor {
		return errors.Newf(errors.ErrCodeFutureBarAccess, "bar %d is beyond the simulation cursor %d", i, v.cursor)
	}

	if i < 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "bar index %d out of range", i)
	}

	return nil
}
