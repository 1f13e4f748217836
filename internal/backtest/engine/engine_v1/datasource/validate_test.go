package datasource

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type ValidateBarsTestSuite struct {
	suite.Suite
	start time.Time
}

func TestValidateBarsSuite(t *testing.T) {
	suite.Run(t, new(ValidateBarsTestSuite))
}

func (suite *ValidateBarsTestSuite) SetupTest() {
	suite.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *ValidateBarsTestSuite) barsAt(offsets ...time.Duration) []types.Bar {
	bars := make([]types.Bar, len(offsets))
	for i, offset := range offsets {
		bars[i] = types.Bar{Time: suite.start.Add(offset), Open: 1, High: 1, Low: 1, Close: 1}
	}

	return bars
}

func (suite *ValidateBarsTestSuite) TestRegularSeries() {
	bars := suite.barsAt(0, time.Hour, 2*time.Hour, 3*time.Hour)

	report, err := ValidateBars(bars, logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal(4, report.Bars)
	suite.Equal(time.Hour, report.MedianInterval)
	suite.Empty(report.Gaps)
}

func (suite *ValidateBarsTestSuite) TestShortSeries() {
	report, err := ValidateBars(nil, logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal(0, report.Bars)

	report, err = ValidateBars(suite.barsAt(0), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal(1, report.Bars)
}

func (suite *ValidateBarsTestSuite) TestDuplicateTimestamp() {
	bars := suite.barsAt(0, time.Hour, time.Hour, 2*time.Hour)

	_, err := ValidateBars(bars, logger.NewNopLogger())
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateTimestamp))
	suite.Contains(err.Error(), "bar 2")
}

func (suite *ValidateBarsTestSuite) TestUnordered() {
	bars := suite.barsAt(0, 2*time.Hour, time.Hour)

	_, err := ValidateBars(bars, logger.NewNopLogger())
	suite.True(errors.HasCode(err, errors.ErrCodeUnorderedData))
}

func (suite *ValidateBarsTestSuite) TestGapsAreFlaggedNotRejected() {
	core, logs := observer.New(zap.WarnLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	// a weekend sized hole between bar 2 and bar 3
	bars := suite.barsAt(0, time.Hour, 2*time.Hour, 50*time.Hour, 51*time.Hour, 52*time.Hour)

	report, err := ValidateBars(bars, log)
	suite.Require().NoError(err)
	suite.Equal(time.Hour, report.MedianInterval)
	suite.Require().Len(report.Gaps, 1)
	suite.Equal(3, report.Gaps[0].Index)
	suite.Equal(48*time.Hour, report.Gaps[0].Interval)
	suite.True(report.Gaps[0].From.Equal(bars[2].Time))

	suite.Equal(1, logs.FilterMessage("Gaps detected in bar data").Len())
}
