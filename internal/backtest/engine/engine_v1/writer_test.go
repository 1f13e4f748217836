package engine

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/stretchr/testify/suite"
)

type WriterTestSuite struct {
	suite.Suite
	dir string
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	suite.dir = filepath.Join(suite.T().TempDir(), "out")
}

func (suite *WriterTestSuite) TestWriteTradesCSV() {
	trades := []types.Trade{
		sampleTrade(1, 3, 100, 102),
		sampleTrade(5, 8, 102, 101),
	}

	suite.Require().NoError(WriteTradesCSV(suite.dir, trades))

	file, err := os.Open(filepath.Join(suite.dir, TradesCSVFileName))
	suite.Require().NoError(err)
	defer file.Close()

	var decoded []types.Trade
	suite.Require().NoError(gocsv.UnmarshalFile(file, &decoded))
	suite.Require().Len(decoded, 2)
	suite.Equal(trades[0].ID, decoded[0].ID)
	suite.Equal(8, decoded[1].ExitIndex)
	suite.InDelta(trades[1].NetPnL, decoded[1].NetPnL, 1e-9)
}

func (suite *WriterTestSuite) TestWriteBarsCSV() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Time: start, Open: 10, Close: 11},
		{Time: start.Add(time.Hour), Open: 11, Close: 12},
	}
	columns := types.NewDerivedColumns(2)
	columns.RSI[0] = math.NaN()
	columns.RSI[1] = 55
	columns.CompositeRSI[0] = math.NaN()
	columns.CompositeRSI[1] = 60
	columns.Hurst[0] = math.NaN()
	columns.Hurst[1] = math.NaN()
	columns.OpenPosition[1] = true

	suite.Require().NoError(WriteBarsCSV(suite.dir, bars, columns))

	content, err := os.ReadFile(filepath.Join(suite.dir, BarsCSVFileName))
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Require().Len(lines, 3)
	suite.Equal("timestamp,open,close,rsi,composite_rsi,hurst,open_position", lines[0])
	suite.Contains(lines[1], "NaN")
	suite.True(strings.HasSuffix(lines[2], "true"))
}

func (suite *WriterTestSuite) TestBarRows() {
	bars := []types.Bar{{Open: 1, Close: 2}}
	columns := types.NewDerivedColumns(1)
	columns.RSI[0] = 42
	columns.OpenPosition[0] = true

	rows := BarRows(bars, columns)
	suite.Require().Len(rows, 1)
	suite.Equal(42.0, rows[0].RSI)
	suite.True(rows[0].OpenPosition)
	suite.Equal(2.0, rows[0].Close)
}
