package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestTotalCostAndWinner() {
	trade := Trade{PnL: 2.0, NetPnL: 1.25, CommissionCost: 0.5, SlippageCost: 0.25}
	suite.Equal(0.75, trade.TotalCost())
	suite.True(trade.IsWinner())

	trade.NetPnL = 0
	suite.False(trade.IsWinner())
}

func (suite *TradeTestSuite) TestDerivedColumns() {
	columns := NewDerivedColumns(3)
	suite.Len(columns.RSI, 3)
	suite.Len(columns.OpenPosition, 3)

	columns.Hurst[1] = math.NaN()
	suite.True(math.IsNaN(columns.Column(IndicatorTypeHurst)[1]))
	suite.Nil(columns.Column(IndicatorType("macd")))

	for _, name := range AllIndicatorTypes {
		suite.NotNil(columns.Column(name), string(name))
	}
}
