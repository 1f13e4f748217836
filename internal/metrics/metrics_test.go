package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func trade(profit, netProfit, netPnL float64, bars int) types.Trade {
	return types.Trade{Profit: profit, NetProfit: netProfit, NetPnL: netPnL, Bars: bars, CommissionCost: 0.1, SlippageCost: 0.25}
}

func (suite *MetricsTestSuite) TestEquityCurve() {
	equity := EquityCurve([]float64{0.1, -0.5, 1})

	suite.Require().Len(equity, 4)
	suite.InDelta(1.0, equity[0], 1e-12)
	suite.InDelta(1.1, equity[1], 1e-12)
	suite.InDelta(0.55, equity[2], 1e-12)
	suite.InDelta(1.1, equity[3], 1e-12)

	suite.Equal([]float64{1}, EquityCurve(nil))
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	suite.InDelta(0.5, MaxDrawdown([]float64{1, 1.1, 0.55, 1.1}), 1e-12)
	suite.InDelta(0.0, MaxDrawdown([]float64{1, 2, 3}), 1e-12)
	suite.InDelta(0.0, MaxDrawdown(nil), 1e-12)
}

func (suite *MetricsTestSuite) TestSharpe() {
	suite.Equal(0.0, Sharpe([]float64{0.1}, 252))
	suite.Equal(0.0, Sharpe([]float64{0.01, 0.01, 0.01}, 252))

	// mean 0.02, sample std 0.01
	returns := []float64{0.01, 0.02, 0.03}
	suite.InDelta(2*math.Sqrt(252), Sharpe(returns, 252), 1e-9)
	suite.InDelta(2.0, Sharpe(returns, 1), 1e-9)
}

func (suite *MetricsTestSuite) TestCAGR() {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	twoYears := start.Add(2 * yearDuration)

	suite.InDelta(0.1, CAGR(0.21, start, twoYears), 1e-9)
	suite.Equal(0.0, CAGR(0.21, start, start.Add(time.Hour)))
	suite.Equal(0.0, CAGR(-1, start, twoYears))
}

func (suite *MetricsTestSuite) TestProfitFactor() {
	suite.Equal(0.0, ProfitFactor(nil))
	suite.Equal(0.0, ProfitFactor([]types.Trade{trade(0, 0, -1, 1)}))
	suite.True(math.IsInf(ProfitFactor([]types.Trade{trade(0, 0, 2, 1)}), 1))
	suite.InDelta(3.0, ProfitFactor([]types.Trade{trade(0, 0, 3, 1), trade(0, 0, -0.5, 1), trade(0, 0, -0.5, 1)}), 1e-12)
}

func (suite *MetricsTestSuite) TestBuyAndHold() {
	bars := []types.Bar{{Open: 100, Close: 101}, {Open: 101, Close: 110}}

	suite.InDelta(0.1, BuyAndHold(bars), 1e-12)
	suite.Equal(0.0, BuyAndHold(nil))
}

func (suite *MetricsTestSuite) TestHoldingTime() {
	holding := HoldingTime([]types.Trade{trade(0, 0, 0, 2), trade(0, 0, 0, 5), trade(0, 0, 0, 5)})

	suite.Equal(2, holding.MinBars)
	suite.Equal(5, holding.MaxBars)
	suite.InDelta(4.0, holding.AvgBars, 1e-12)
	suite.Equal(types.TradeHoldingTime{}, HoldingTime(nil))
}

func (suite *MetricsTestSuite) TestCompute() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Time: start, Open: 100, Close: 100},
		{Time: start.Add(yearDuration), Open: 120, Close: 120},
	}
	trades := []types.Trade{
		trade(0.12, 0.1, 10, 3),
		trade(-0.03, -0.05, -5, 2),
	}

	stats := Compute(trades, bars, 252)

	suite.Equal(2, stats.TradeResult.NumberOfTrades)
	suite.Equal(1, stats.TradeResult.NumberOfWinningTrades)
	suite.Equal(1, stats.TradeResult.NumberOfLosingTrades)
	suite.InDelta(0.5, stats.TradeResult.WinRate, 1e-12)
	suite.InDelta(2.0, stats.TradeResult.ProfitFactor, 1e-12)
	suite.InDelta(0.05, stats.TradeResult.MaxDrawdown, 1e-12)

	suite.InDelta(1.12*0.97-1, stats.TradeReturns.TotalGrossReturn, 1e-12)
	suite.InDelta(1.1*0.95-1, stats.TradeReturns.TotalNetReturn, 1e-12)
	suite.InDelta(0.025, stats.TradeReturns.AverageNetReturn, 1e-12)
	suite.InDelta(1.1*0.95-1, stats.TradeReturns.CAGR, 1e-9)
	suite.InDelta(0.2, stats.TradeReturns.BuyAndHoldReturn, 1e-12)
	suite.Greater(stats.TradeReturns.SharpeRatio, 0.0)

	suite.InDelta(0.7, stats.TotalFees, 1e-12)
	suite.Equal(2, stats.TradeHoldingTime.MinBars)
	suite.Equal(3, stats.TradeHoldingTime.MaxBars)
}

func (suite *MetricsTestSuite) TestComputeWithoutTrades() {
	stats := Compute(nil, nil, 252)

	suite.Equal(0, stats.TradeResult.NumberOfTrades)
	suite.Equal(0.0, stats.TradeResult.WinRate)
	suite.Equal(0.0, stats.TradeReturns.TotalNetReturn)
	suite.Equal(0.0, stats.TradeReturns.SharpeRatio)
	suite.Equal(0.0, stats.TotalFees)
}
