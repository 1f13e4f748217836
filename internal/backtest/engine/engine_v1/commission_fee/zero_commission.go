package commission_fee

import (
	"github.com/shopspring/decimal"
)

// ZeroCommissionFee implements CommissionFee interface with no costs.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

func (c *ZeroCommissionFee) EntryCost() decimal.Decimal { return decimal.Zero }

func (c *ZeroCommissionFee) ExitCost() decimal.Decimal { return decimal.Zero }

func (c *ZeroCommissionFee) Commission() decimal.Decimal { return decimal.Zero }

func (c *ZeroCommissionFee) Slippage() decimal.Decimal { return decimal.Zero }
