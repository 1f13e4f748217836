package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// UtilsTestSuite is a test suite for utils package
type UtilsTestSuite struct {
	suite.Suite
}

// TestUtilsSuite runs the test suite
func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetResultFolder() {
	tests := []struct {
		name          string
		configName    string
		dataPath      string
		resultsFolder string
		startTime     optional.Option[time.Time]
		endTime       optional.Option[time.Time]
		expectedPath  string
	}{
		{
			name:          "Basic case without time range",
			configName:    "baseline",
			dataPath:      "/path/to/data.csv",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/baseline/data",
		},
		{
			name:          "Case with time range",
			configName:    "baseline",
			dataPath:      "/path/to/data.parquet",
			resultsFolder: "/results",
			startTime:     optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:       optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath:  "/results/baseline/20230101_20231231/data",
		},
		{
			name:          "Case with only start time",
			configName:    "baseline",
			dataPath:      "/path/to/data.csv",
			resultsFolder: "/results",
			startTime:     optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/baseline/20230101_all/data",
		},
		{
			name:          "Case with only end time",
			configName:    "baseline",
			dataPath:      "/path/to/data.csv",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath:  "/results/baseline/all_20231231/data",
		},
		{
			name:          "Case with complex file names",
			configName:    "no_use_hurst",
			dataPath:      "/path/to/es.hourly.csv",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/no_use_hurst/es.hourly",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			mockEngine := &BacktestEngineV1{
				config: BacktestEngineV1Config{
					StartTime: tc.startTime,
					EndTime:   tc.endTime,
				},
				resultsFolder: tc.resultsFolder,
			}

			resultPath := getResultFolder(tc.configName, tc.dataPath, mockEngine)

			suite.Equal(filepath.Clean(tc.expectedPath), filepath.Clean(resultPath), "Result folder path mismatch")
		})
	}
}
