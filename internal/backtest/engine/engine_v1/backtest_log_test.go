package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/log"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/stretchr/testify/suite"
)

// BacktestLogTestSuite is a test suite for BacktestLog
type BacktestLogTestSuite struct {
	suite.Suite
	logStorage *BacktestLog
	logger     *logger.Logger
}

func TestBacktestLogSuite(t *testing.T) {
	suite.Run(t, new(BacktestLogTestSuite))
}

func (suite *BacktestLogTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	logStorage, err := NewBacktestLog(suite.logger)
	suite.Require().NoError(err)
	suite.logStorage = logStorage
}

func (suite *BacktestLogTestSuite) TearDownSuite() {
	if suite.logStorage != nil {
		suite.logStorage.Close()
	}
}

func (suite *BacktestLogTestSuite) SetupTest() {
	err := suite.logStorage.Cleanup()
	suite.Require().NoError(err)
}

func (suite *BacktestLogTestSuite) TestLogAndGet() {
	testCases := []struct {
		name  string
		entry log.LogEntry
	}{
		{
			name: "insufficient data",
			entry: log.LogEntry{
				Timestamp: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
				Symbol:    "ES",
				BarIndex:  3,
				Level:     types.LogLevelDebug,
				Event:     types.EventDataInsufficiency,
				Message:   "rsi(14) needs 15 valid closes, got 4",
				Fields:    map[string]string{"indicator": "rsi"},
			},
		},
		{
			name: "signal failure without fields",
			entry: log.LogEntry{
				Timestamp: time.Date(2023, 1, 1, 11, 0, 0, 0, time.UTC),
				Symbol:    "ES",
				BarIndex:  9,
				Level:     types.LogLevelWarn,
				Event:     types.EventSignalEvaluationFailure,
				Message:   "entry signal failed",
			},
		},
	}

	for _, tc := range testCases {
		err := suite.logStorage.Log(tc.entry)
		suite.Require().NoError(err, "Failed to insert log entry for case: %s", tc.name)
	}

	logs, err := suite.logStorage.GetLogs()
	suite.Require().NoError(err)
	suite.Require().Len(logs, len(testCases))

	for i, tc := range testCases {
		suite.Equal(tc.entry.Timestamp.UTC(), logs[i].Timestamp.UTC(), tc.name)
		suite.Equal(tc.entry.Symbol, logs[i].Symbol)
		suite.Equal(tc.entry.BarIndex, logs[i].BarIndex)
		suite.Equal(tc.entry.Level, logs[i].Level)
		suite.Equal(tc.entry.Event, logs[i].Event)
		suite.Equal(tc.entry.Message, logs[i].Message)
		suite.Equal(tc.entry.Fields, logs[i].Fields)
	}
}

func (suite *BacktestLogTestSuite) TestGetLogsByEventAndCount() {
	events := []types.DiagnosticEvent{
		types.EventDataInsufficiency,
		types.EventDataInsufficiency,
		types.EventConfigMissing,
	}

	for i, event := range events {
		suite.Require().NoError(suite.logStorage.Log(log.LogEntry{
			Timestamp: time.Date(2023, 1, 1, 0, i, 0, 0, time.UTC),
			BarIndex:  i,
			Level:     types.LogLevelDebug,
			Event:     event,
			Message:   string(event),
		}))
	}

	logs, err := suite.logStorage.GetLogsByEvent(types.EventDataInsufficiency)
	suite.Require().NoError(err)
	suite.Len(logs, 2)
	suite.Equal(0, logs[0].BarIndex)
	suite.Equal(1, logs[1].BarIndex)

	counts, err := suite.logStorage.CountByEvent()
	suite.Require().NoError(err)
	suite.Equal(2, counts[types.EventDataInsufficiency])
	suite.Equal(1, counts[types.EventConfigMissing])
	suite.Zero(counts[types.EventEngineFailure])
}

func (suite *BacktestLogTestSuite) TestEmptyLogs() {
	logs, err := suite.logStorage.GetLogs()
	suite.Require().NoError(err)
	suite.Empty(logs)
}

func (suite *BacktestLogTestSuite) TestWrite() {
	suite.Require().NoError(suite.logStorage.Log(log.LogEntry{
		Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:     types.LogLevelWarn,
		Event:     types.EventSignalEvaluationFailure,
		Message:   "boom",
	}))

	dir := filepath.Join(suite.T().TempDir(), "run")
	suite.Require().NoError(suite.logStorage.Write(dir))

	_, err := os.Stat(filepath.Join(dir, DiagnosticsFileName))
	suite.NoError(err)
}

func (suite *BacktestLogTestSuite) TestNilStorage() {
	var nilLog *BacktestLog

	suite.Error(nilLog.Log(log.LogEntry{}))
	_, err := nilLog.GetLogs()
	suite.Error(err)
	suite.NoError(nilLog.Close())
}
