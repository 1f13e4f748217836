// Package metrics derives performance statistics from a list of closed trades.
package metrics

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

// Compute fills the trade result, returns, fees and holding time of a run.
// bars supply the time span for CAGR and the buy-and-hold benchmark.
func Compute(trades []types.Trade, bars []types.Bar, periodsPerYear int) types.TradeStats {
	netReturns := NetReturns(trades)
	equity := EquityCurve(netReturns)

	stats := types.TradeStats{
		TradeResult: types.TradeResult{
			NumberOfTrades: len(trades),
			ProfitFactor:   ProfitFactor(trades),
			MaxDrawdown:    MaxDrawdown(equity),
		},
		TradeReturns: types.TradeReturns{
			TotalGrossReturn: compounded(GrossReturns(trades)),
			TotalNetReturn:   compounded(netReturns),
			SharpeRatio:      Sharpe(netReturns, float64(periodsPerYear)),
			BuyAndHoldReturn: BuyAndHold(bars),
		},
		TradeHoldingTime: HoldingTime(trades),
	}

	for _, trade := range trades {
		if trade.IsWinner() {
			stats.TradeResult.NumberOfWinningTrades++
		} else {
			stats.TradeResult.NumberOfLosingTrades++
		}

		stats.TotalFees += trade.TotalCost()
	}

	if len(trades) > 0 {
		stats.TradeResult.WinRate = float64(stats.TradeResult.NumberOfWinningTrades) / float64(len(trades))
		stats.TradeReturns.AverageNetReturn = stat.Mean(netReturns, nil)
	}

	if len(bars) > 1 {
		stats.TradeReturns.CAGR = CAGR(stats.TradeReturns.TotalNetReturn, bars[0].Time, bars[len(bars)-1].Time)
	}

	return stats
}

// NetReturns returns the net return of each trade in close order.
func NetReturns(trades []types.Trade) []float64 {
	returns := make([]float64, len(trades))
	for i, trade := range trades {
		returns[i] = trade.NetProfit
	}

	return returns
}

// GrossReturns returns the gross return of each trade in close order.
func GrossReturns(trades []types.Trade) []float64 {
	returns := make([]float64, len(trades))
	for i, trade := range trades {
		returns[i] = trade.Profit
	}

	return returns
}

// EquityCurve compounds returns starting from 1. The curve has one more point than returns.
func EquityCurve(returns []float64) []float64 {
	growth := make([]float64, len(returns)+1)
	growth[0] = 1

	for i, r := range returns {
		growth[i+1] = 1 + r
	}

	return floats.CumProd(make([]float64, len(growth)), growth)
}

// MaxDrawdown is the largest peak-to-trough decline of equity as a fraction of the peak.
func MaxDrawdown(equity []float64) float64 {
	var (
		peak        = math.Inf(-1)
		maxDrawdown float64
	)

	for _, value := range equity {
		peak = math.Max(peak, value)
		if peak <= 0 {
			continue
		}

		maxDrawdown = math.Max(maxDrawdown, (peak-value)/peak)
	}

	return maxDrawdown
}

// Sharpe is the mean over the sample standard deviation of returns, scaled by sqrt(periodsPerYear).
// Fewer than two returns or zero dispersion give zero.
func Sharpe(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return mean / std * math.Sqrt(periodsPerYear)
}

// CAGR annualizes totalReturn over the span from start to end. Spans shorter than a day give zero.
func CAGR(totalReturn float64, start, end time.Time) float64 {
	span := end.Sub(start)
	if span < 24*time.Hour || totalReturn <= -1 {
		return 0
	}

	years := float64(span) / float64(yearDuration)

	return math.Pow(1+totalReturn, 1/years) - 1
}

// ProfitFactor is the gross winning net pnl over the gross losing net pnl.
// It is zero without winners and +Inf with winners but no losers.
func ProfitFactor(trades []types.Trade) float64 {
	var wins, losses float64

	for _, trade := range trades {
		if trade.NetPnL > 0 {
			wins += trade.NetPnL
		} else {
			losses -= trade.NetPnL
		}
	}

	switch {
	case wins == 0:
		return 0
	case losses == 0:
		return math.Inf(1)
	default:
		return wins / losses
	}
}

// BuyAndHold is the return of buying the first open and selling the last close.
func BuyAndHold(bars []types.Bar) float64 {
	if len(bars) == 0 || bars[0].Open == 0 {
		return 0
	}

	return bars[len(bars)-1].Close/bars[0].Open - 1
}

// HoldingTime summarizes the bars held per trade.
func HoldingTime(trades []types.Trade) types.TradeHoldingTime {
	if len(trades) == 0 {
		return types.TradeHoldingTime{}
	}

	held := make([]float64, len(trades))
	for i, trade := range trades {
		held[i] = float64(trade.Bars)
	}

	return types.TradeHoldingTime{
		MinBars: int(floats.Min(held)),
		MaxBars: int(floats.Max(held)),
		AvgBars: stat.Mean(held, nil),
	}
}

func compounded(returns []float64) float64 {
	equity := EquityCurve(returns)

	return equity[len(equity)-1] - 1
}
