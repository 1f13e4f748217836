package commission_fee

import (
	"github.com/shopspring/decimal"
)

// CommissionFee prices the costs of a single-unit round trip, in price units.
type CommissionFee interface {
	// EntryCost is added to the entry fill
	EntryCost() decimal.Decimal
	// ExitCost is subtracted from the exit fill
	ExitCost() decimal.Decimal
	// Commission is the round-trip commission
	Commission() decimal.Decimal
	// Slippage is the round-trip slippage
	Slippage() decimal.Decimal
}

type Broker string

const (
	BrokerPerContract Broker = "per_contract"
	BrokerZero        Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerPerContract,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model for broker. Unknown brokers charge per contract.
func GetCommissionFeeHandler(broker Broker, costs PerContractCosts) CommissionFee {
	switch broker {
	case BrokerZero:
		return NewZeroCommissionFee()
	case BrokerPerContract:
		return NewPerContractFee(costs)
	default:
		return NewPerContractFee(costs)
	}
}

// Settlement is the priced outcome of one round trip.
type Settlement struct {
	EntryPrice     float64
	NetEntryPrice  float64
	ExitPrice      float64
	NetExitPrice   float64
	Profit         float64
	NetProfit      float64
	PnL            float64
	NetPnL         float64
	CommissionCost float64
	SlippageCost   float64
}

// NetEntry returns the entry fill after costs.
func NetEntry(fee CommissionFee, open float64) float64 {
	return decimal.NewFromFloat(open).Add(fee.EntryCost()).InexactFloat64()
}

// Settle prices a round trip opened at entry and closed at exit.
func Settle(fee CommissionFee, entry, exit float64) Settlement {
	entryPrice := decimal.NewFromFloat(entry)
	exitPrice := decimal.NewFromFloat(exit)
	netEntry := entryPrice.Add(fee.EntryCost())
	netExit := exitPrice.Sub(fee.ExitCost())

	pnl := exitPrice.Sub(entryPrice)
	netPnL := netExit.Sub(netEntry)

	settlement := Settlement{
		EntryPrice:     entry,
		NetEntryPrice:  netEntry.InexactFloat64(),
		ExitPrice:      exit,
		NetExitPrice:   netExit.InexactFloat64(),
		PnL:            pnl.InexactFloat64(),
		NetPnL:         netPnL.InexactFloat64(),
		CommissionCost: fee.Commission().InexactFloat64(),
		SlippageCost:   fee.Slippage().InexactFloat64(),
	}

	if !entryPrice.IsZero() {
		settlement.Profit = pnl.Div(entryPrice).InexactFloat64()
	}

	if !netEntry.IsZero() {
		settlement.NetProfit = netPnL.Div(netEntry).InexactFloat64()
	}

	return settlement
}
