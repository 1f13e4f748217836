package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum number of bars a trade was held
	MinBars int `yaml:"min_bars"`
	// Maximum number of bars a trade was held
	MaxBars int `yaml:"max_bars"`
	// Average number of bars a trade was held
	AvgBars float64 `yaml:"avg_bars"`
}

type TradeResult struct {
	// Count of all closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of trades with positive net pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of trades with zero or negative net pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Winning trades divided by all trades.
	WinRate float64 `yaml:"win_rate"`
	// Gross winning pnl divided by gross losing pnl. Zero when there are no trades.
	ProfitFactor float64 `yaml:"profit_factor"`
	// Largest peak-to-trough decline of the compounded net equity curve, as a fraction.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

type TradeReturns struct {
	// Compounded gross return of all trades.
	TotalGrossReturn float64 `yaml:"total_gross_return"`
	// Compounded net return of all trades.
	TotalNetReturn float64 `yaml:"total_net_return"`
	// Mean net return per trade.
	AverageNetReturn float64 `yaml:"average_net_return"`
	// Annualized Sharpe ratio of per-trade net returns.
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// Compound annual growth rate over the bar time span.
	CAGR float64 `yaml:"cagr"`
	// Return of buying on the first open and holding to the last close.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return"`
}

type TradeStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the traded instrument.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Variant names the ablation variant, empty for a plain run.
	Variant string `yaml:"variant,omitempty" json:"variant,omitempty"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Returns of all trades.
	TradeReturns TradeReturns `yaml:"trade_returns"`
	// Commission plus slippage paid across all trades, per contract unit.
	TotalFees float64 `yaml:"total_fees"`
	// Holding time of all trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// HasOpenPosition is true when a position was still open on the last bar.
	HasOpenPosition bool `yaml:"has_open_position"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path,omitempty" json:"data_path,omitempty"`
	// ConfigPath is the strategy configuration used for this backtest.
	ConfigPath string `yaml:"config_path,omitempty" json:"config_path,omitempty"`
	// EngineVersion is the version of the engine that produced these stats.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty"`
}

func WriteTradeStats(path string, stats []TradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
