package types

import (
	"time"
)

// Trade is a closed single-unit long trade.
//
// Profit and NetProfit are returns relative to the (net) entry price.
// PnL and NetPnL are the same outcome expressed in price units per contract unit,
// which is where the cost identity NetPnL == PnL - (CommissionCost + SlippageCost) holds exactly.
type Trade struct {
	ID            string    `csv:"id" yaml:"id" json:"id"`
	OpenTime      time.Time `csv:"open_date" yaml:"open_date" json:"open_date"`
	CloseTime     time.Time `csv:"close_date" yaml:"close_date" json:"close_date"`
	EntryIndex    int       `csv:"entry_index" yaml:"entry_index" json:"entry_index"`
	ExitIndex     int       `csv:"exit_index" yaml:"exit_index" json:"exit_index"`
	EntryPrice    float64   `csv:"entry_price" yaml:"entry_price" json:"entry_price"`
	NetEntryPrice float64   `csv:"net_entry_price" yaml:"net_entry_price" json:"net_entry_price"`
	ExitPrice     float64   `csv:"sell_price" yaml:"sell_price" json:"sell_price"`
	NetExitPrice  float64   `csv:"net_sell_price" yaml:"net_sell_price" json:"net_sell_price"`
	// Profit is the gross return (exit - entry) / entry.
	Profit float64 `csv:"profit" yaml:"profit" json:"profit"`
	// NetProfit is the net return (net exit - net entry) / net entry.
	NetProfit      float64 `csv:"net_profit" yaml:"net_profit" json:"net_profit"`
	PnL            float64 `csv:"pnl" yaml:"pnl" json:"pnl"`
	NetPnL         float64 `csv:"net_pnl" yaml:"net_pnl" json:"net_pnl"`
	Bars           int     `csv:"bars" yaml:"bars" json:"bars"`
	CommissionCost float64 `csv:"commission_cost" yaml:"commission_cost" json:"commission_cost"`
	SlippageCost   float64 `csv:"slippage_cost" yaml:"slippage_cost" json:"slippage_cost"`
}

// TotalCost is the commission plus slippage paid on the round trip.
func (t Trade) TotalCost() float64 {
	return t.CommissionCost + t.SlippageCost
}

// IsWinner reports whether the trade made money after costs.
func (t Trade) IsWinner() bool {
	return t.NetPnL > 0
}

// TradeState is the read-only view of the open trade handed to exit evaluation.
type TradeState struct {
	EntryIndex int
	EntryPrice float64
	// BarsHeld counts bars since entry, the entry bar included.
	BarsHeld int
	// ProfitStreak counts consecutive bars whose close exceeded the entry price.
	ProfitStreak int
}

// DerivedColumns holds one value per bar for every indicator and the position flag.
// Index i is written only when the simulation cursor reaches bar i.
type DerivedColumns struct {
	RSI          []float64
	CompositeRSI []float64
	Hurst        []float64
	OpenPosition []bool
}

// NewDerivedColumns allocates columns for n bars.
func NewDerivedColumns(n int) DerivedColumns {
	return DerivedColumns{
		RSI:          make([]float64, n),
		CompositeRSI: make([]float64, n),
		Hurst:        make([]float64, n),
		OpenPosition: make([]bool, n),
	}
}

// Column returns the slice for an indicator, or nil for an unknown one.
func (d DerivedColumns) Column(name IndicatorType) []float64 {
	switch name {
	case IndicatorTypeRSI:
		return d.RSI
	case IndicatorTypeCompositeRSI:
		return d.CompositeRSI
	case IndicatorTypeHurst:
		return d.Hurst
	default:
		return nil
	}
}

// BarRow is the per-bar export row of derived columns.
type BarRow struct {
	Time         time.Time `csv:"timestamp"`
	Open         float64   `csv:"open"`
	Close        float64   `csv:"close"`
	RSI          float64   `csv:"rsi"`
	CompositeRSI float64   `csv:"composite_rsi"`
	Hurst        float64   `csv:"hurst"`
	OpenPosition bool      `csv:"open_position"`
}
