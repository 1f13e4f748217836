package commission_fee

import (
	"github.com/shopspring/decimal"
)

// PerContractCosts are the raw transaction cost parameters.
type PerContractCosts struct {
	CommissionPerContract float64
	ContractSize          float64
	SlippagePerContract   float64
}

// PerContractFee charges commission on both sides and slippage on exit, each divided by contract size.
type PerContractFee struct {
	commission decimal.Decimal
	slippage   decimal.Decimal
}

// NewPerContractFee creates a per-contract fee. A non-positive contract size charges nothing.
func NewPerContractFee(costs PerContractCosts) CommissionFee {
	if costs.ContractSize <= 0 {
		return NewZeroCommissionFee()
	}

	size := decimal.NewFromFloat(costs.ContractSize)

	return &PerContractFee{
		commission: decimal.NewFromFloat(costs.CommissionPerContract).Div(size),
		slippage:   decimal.NewFromFloat(costs.SlippagePerContract).Div(size),
	}
}

func (c *PerContractFee) EntryCost() decimal.Decimal {
	return c.commission
}

func (c *PerContractFee) ExitCost() decimal.Decimal {
	return c.commission.Add(c.slippage)
}

func (c *PerContractFee) Commission() decimal.Decimal {
	return c.commission.Mul(decimal.NewFromInt(2))
}

func (c *PerContractFee) Slippage() decimal.Decimal {
	return c.slippage
}
