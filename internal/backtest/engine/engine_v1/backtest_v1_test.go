package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/argo-ablation/internal/backtest/engine"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/mocks"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"
)

func defaultConfigYAML(t *testing.T) string {
	t.Helper()

	content, err := yaml.Marshal(strategy.DefaultConfig())
	require.NoError(t, err)

	return string(content)
}

func yieldBars(bars []types.Bar) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range bars {
			if !yield(bar, nil) {
				return
			}
		}
	}
}

func newTestEngine(t *testing.T, config string) *BacktestEngineV1 {
	t.Helper()

	backtestEngine := NewBacktestEngineV1WithLogger(logger.NewNopLogger()).(*BacktestEngineV1)
	require.NoError(t, backtestEngine.Initialize(config))

	return backtestEngine
}

func generatedBars(count int) []types.Bar {
	config := mocks.DefaultConfig()
	config.Count = count
	config.Interval = time.Hour

	return mocks.NewDataGenerator(7).Generate(config)
}

func TestBacktestEngineV1_Run(t *testing.T) {
	t.Run("Complete execution flow through Run function", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bars := generatedBars(300)
		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().Initialize(gomock.Any()).Return(nil).Times(1)
		mockDatasource.EXPECT().SetSymbol(optional.Some("ES")).Times(1)
		mockDatasource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(len(bars), nil).Times(1)
		mockDatasource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).Return(yieldBars(bars)).Times(1)

		backtestEngine := newTestEngine(t, "symbol: ES\n")
		require.NoError(t, backtestEngine.SetDataSource(mockDatasource))
		require.NoError(t, backtestEngine.SetConfigContent([]string{defaultConfigYAML(t)}))
		backtestEngine.dataPaths = []string{"/data/es_hourly.parquet"}

		resultsDir := filepath.Join(t.TempDir(), "results")
		require.NoError(t, backtestEngine.SetResultsFolder(resultsDir))

		var (
			started      []int
			runTotal     int
			lastProgress int
			resultFolder string
			endErr       = stderrors.New("not called")
		)

		onStart := engine_types.OnBacktestStartCallback(func(totalConfigs int, totalDataFiles int) error {
			started = []int{totalConfigs, totalDataFiles}

			return nil
		})
		onEnd := engine_types.OnBacktestEndCallback(func(err error) { endErr = err })
		onRunStart := engine_types.OnRunStartCallback(func(runID string, configIndex int, configName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
			assert.NotEmpty(t, runID)
			assert.Equal(t, "baseline", configName)
			runTotal = totalDataPoints

			return nil
		})
		onRunEnd := engine_types.OnRunEndCallback(func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string) {
			resultFolder = resultFolderPath
		})
		onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
			lastProgress = current

			return nil
		})

		err := backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{
			OnBacktestStart: &onStart,
			OnBacktestEnd:   &onEnd,
			OnRunStart:      &onRunStart,
			OnRunEnd:        &onRunEnd,
			OnProcessData:   &onProcess,
		})
		require.NoError(t, err)

		assert.Equal(t, []int{1, 1}, started)
		assert.Equal(t, len(bars), runTotal)
		assert.Equal(t, len(bars), lastProgress)
		assert.NoError(t, endErr)
		assert.Equal(t, filepath.Join(resultsDir, "baseline", "es_hourly"), resultFolder)

		for _, name := range []string{TradesFileName, TradesCSVFileName, BarsCSVFileName, DiagnosticsFileName, StatsFileName} {
			_, err := os.Stat(filepath.Join(resultFolder, name))
			assert.NoError(t, err, "%s should be written", name)
		}

		stats := backtestEngine.Stats()
		require.Len(t, stats, 1)
		assert.Equal(t, "ES", stats[0].Symbol)
		assert.Equal(t, "baseline", stats[0].Variant)
		assert.Equal(t, "/data/es_hourly.parquet", stats[0].DataPath)

		content, err := os.ReadFile(filepath.Join(resultFolder, BarsCSVFileName))
		require.NoError(t, err)
		assert.Equal(t, len(bars)+1, len(strings.Split(strings.TrimSpace(string(content)), "\n")))

		trades, err := backtestEngine.state.GetAllTrades()
		require.NoError(t, err)
		assert.Empty(t, trades, "state is cleaned after each run")
	})

	t.Run("Runs every config against every data file", func(t *testing.T) {
		dataDir := t.TempDir()
		for _, name := range []string{"a.csv", "b.csv"} {
			writeBarsCSVFile(t, filepath.Join(dataDir, name), generatedBars(120))
		}

		configDir := t.TempDir()
		baseline := defaultConfigYAML(t)
		noHurst := strings.Replace(baseline, "name: baseline", "name: no_use_hurst", 1)
		require.NoError(t, os.WriteFile(filepath.Join(configDir, "baseline.yaml"), []byte(baseline), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(configDir, "no_use_hurst.yaml"), []byte(noHurst), 0644))

		ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
		require.NoError(t, err)
		defer ds.Close()

		backtestEngine := newTestEngine(t, "broker: zero_commission\n")
		require.NoError(t, backtestEngine.SetDataSource(ds))
		require.NoError(t, backtestEngine.SetConfigPath(filepath.Join(configDir, "*.yaml")))
		require.NoError(t, backtestEngine.SetDataPath(filepath.Join(dataDir, "*.csv")))
		require.NoError(t, backtestEngine.SetResultsFolder(t.TempDir()))

		runs := 0
		onRunEnd := engine_types.OnRunEndCallback(func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string) {
			runs++
		})

		require.NoError(t, backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunEnd: &onRunEnd}))
		assert.Equal(t, 4, runs)

		stats := backtestEngine.Stats()
		require.Len(t, stats, 4)

		for _, s := range stats {
			assert.Equal(t, 0.0, s.TotalFees, "zero_commission charges nothing")
			assert.NotEmpty(t, s.ConfigPath)
		}
	})

	t.Run("Runs once per symbol when none is configured", func(t *testing.T) {
		dataPath := filepath.Join(t.TempDir(), "futures.csv")
		writeSymbolBarsCSVFile(t, dataPath, map[string][]types.Bar{
			"NQ": generatedBars(80),
			"ES": generatedBars(60),
		})

		ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
		require.NoError(t, err)
		defer ds.Close()

		backtestEngine := newTestEngine(t, "")
		require.NoError(t, backtestEngine.SetDataSource(ds))
		require.NoError(t, backtestEngine.SetConfigContent([]string{defaultConfigYAML(t)}))
		require.NoError(t, backtestEngine.SetDataPath(dataPath))

		resultsDir := t.TempDir()
		require.NoError(t, backtestEngine.SetResultsFolder(resultsDir))

		var (
			totals  []int
			folders []string
		)

		onRunStart := engine_types.OnRunStartCallback(func(runID string, configIndex int, configName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
			totals = append(totals, totalDataPoints)

			return nil
		})
		onRunEnd := engine_types.OnRunEndCallback(func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string) {
			folders = append(folders, resultFolderPath)
		})

		require.NoError(t, backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{
			OnRunStart: &onRunStart,
			OnRunEnd:   &onRunEnd,
		}))

		assert.Equal(t, []string{
			filepath.Join(resultsDir, "baseline", "futures", "ES"),
			filepath.Join(resultsDir, "baseline", "futures", "NQ"),
		}, folders)
		assert.Equal(t, []int{60, 80}, totals)

		stats := backtestEngine.Stats()
		require.Len(t, stats, 2)
		assert.Equal(t, "ES", stats[0].Symbol)
		assert.Equal(t, "NQ", stats[1].Symbol)
	})

	t.Run("Configured symbol filters a multi-symbol file", func(t *testing.T) {
		dataPath := filepath.Join(t.TempDir(), "futures.csv")
		writeSymbolBarsCSVFile(t, dataPath, map[string][]types.Bar{
			"NQ": generatedBars(80),
			"ES": generatedBars(60),
		})

		ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
		require.NoError(t, err)
		defer ds.Close()

		backtestEngine := newTestEngine(t, "symbol: NQ\n")
		require.NoError(t, backtestEngine.SetDataSource(ds))
		require.NoError(t, backtestEngine.SetConfigContent([]string{defaultConfigYAML(t)}))
		require.NoError(t, backtestEngine.SetDataPath(dataPath))

		resultsDir := t.TempDir()
		require.NoError(t, backtestEngine.SetResultsFolder(resultsDir))

		var folder string
		onRunEnd := engine_types.OnRunEndCallback(func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string) {
			folder = resultFolderPath
		})

		require.NoError(t, backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunEnd: &onRunEnd}))

		assert.Equal(t, filepath.Join(resultsDir, "baseline", "futures"), folder)

		stats := backtestEngine.Stats()
		require.Len(t, stats, 1)
		assert.Equal(t, "NQ", stats[0].Symbol)
	})

	t.Run("Missing base field aborts before any bar", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().Initialize(gomock.Any()).Return(nil).AnyTimes()
		mockDatasource.EXPECT().Symbols().Return(nil, nil).AnyTimes()
		mockDatasource.EXPECT().SetSymbol(gomock.Any()).AnyTimes()
		mockDatasource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(50, nil).AnyTimes()
		mockDatasource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).Return(yieldBars(generatedBars(50))).AnyTimes()

		backtestEngine := newTestEngine(t, "")
		require.NoError(t, backtestEngine.SetDataSource(mockDatasource))
		require.NoError(t, backtestEngine.SetConfigContent([]string{"indicators:\n  rsi_period: 14\n"}))
		backtestEngine.dataPaths = []string{"/data/es.csv"}
		require.NoError(t, backtestEngine.SetResultsFolder(t.TempDir()))

		processed := 0
		var endErr error
		onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
			processed++

			return nil
		})
		onEnd := engine_types.OnBacktestEndCallback(func(err error) { endErr = err })

		err := backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{OnProcessData: &onProcess, OnBacktestEnd: &onEnd})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeMissingParameter))
		assert.Contains(t, err.Error(), "indicators.short_composite_rsi")
		assert.Equal(t, 0, processed)
		assert.Equal(t, err, endErr)
	})

	t.Run("Duplicate timestamps are rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bars := generatedBars(10)
		bars[5].Time = bars[4].Time

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().Initialize(gomock.Any()).Return(nil)
		mockDatasource.EXPECT().Symbols().Return(nil, nil)
		mockDatasource.EXPECT().SetSymbol(optional.None[string]())
		mockDatasource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(len(bars), nil)
		mockDatasource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).Return(yieldBars(bars))

		backtestEngine := newTestEngine(t, "")
		require.NoError(t, backtestEngine.SetDataSource(mockDatasource))
		require.NoError(t, backtestEngine.SetConfigContent([]string{defaultConfigYAML(t)}))
		backtestEngine.dataPaths = []string{"/data/es.csv"}
		require.NoError(t, backtestEngine.SetResultsFolder(t.TempDir()))

		err := backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateTimestamp))
	})

	t.Run("Callback error aborts the backtest", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().Initialize(gomock.Any()).Return(nil)
		mockDatasource.EXPECT().Symbols().Return([]string{}, nil)
		mockDatasource.EXPECT().SetSymbol(gomock.Any())
		mockDatasource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(10, nil)
		mockDatasource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).Return(yieldBars(generatedBars(10)))

		backtestEngine := newTestEngine(t, "")
		require.NoError(t, backtestEngine.SetDataSource(mockDatasource))
		require.NoError(t, backtestEngine.SetConfigContent([]string{defaultConfigYAML(t)}))
		backtestEngine.dataPaths = []string{"/data/es.csv"}
		require.NoError(t, backtestEngine.SetResultsFolder(t.TempDir()))

		onRunStart := engine_types.OnRunStartCallback(func(runID string, configIndex int, configName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
			return fmt.Errorf("stop")
		})

		err := backtestEngine.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunStart: &onRunStart})
		assert.True(t, errors.HasCode(err, errors.ErrCodeCallbackFailed))
	})
}

func TestBacktestEngineV1_PreRunCheck(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(b *BacktestEngineV1)
		expected errors.ErrorCode
	}{
		{
			name:     "no configs",
			setup:    func(b *BacktestEngineV1) { b.strategyConfigs = nil },
			expected: errors.ErrCodeBacktestNoConfigs,
		},
		{
			name:     "no data paths",
			setup:    func(b *BacktestEngineV1) { b.dataPaths = nil },
			expected: errors.ErrCodeBacktestNoDataPaths,
		},
		{
			name:     "no results folder",
			setup:    func(b *BacktestEngineV1) { b.resultsFolder = "" },
			expected: errors.ErrCodeBacktestNoResultsDir,
		},
		{
			name:     "no datasource",
			setup:    func(b *BacktestEngineV1) { b.datasource = nil },
			expected: errors.ErrCodeBacktestNoDatasource,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			backtestEngine := newTestEngine(t, "")
			backtestEngine.strategyConfigs = []string{"name: x"}
			backtestEngine.dataPaths = []string{"/data/es.csv"}
			backtestEngine.resultsFolder = t.TempDir()
			backtestEngine.datasource = mocks.NewMockDataSource(ctrl)

			tc.setup(backtestEngine)

			err := backtestEngine.preRunCheck()
			assert.True(t, errors.HasCode(err, tc.expected), "got %v", err)
		})
	}
}

func TestBacktestEngineV1_Initialize(t *testing.T) {
	t.Run("invalid engine config", func(t *testing.T) {
		backtestEngine := NewBacktestEngineV1WithLogger(logger.NewNopLogger())

		err := backtestEngine.Initialize("periods_per_year: 0\n")
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestConfigError))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		backtestEngine := NewBacktestEngineV1WithLogger(logger.NewNopLogger())

		err := backtestEngine.Initialize("broker: [")
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestConfigError))
	})

	t.Run("schema", func(t *testing.T) {
		backtestEngine := newTestEngine(t, "")

		schema, err := backtestEngine.GetConfigSchema()
		require.NoError(t, err)
		assert.Contains(t, schema, "periods_per_year")
	})
}

func writeSymbolBarsCSVFile(t *testing.T, path string, bySymbol map[string][]types.Bar) {
	t.Helper()

	var builder strings.Builder
	builder.WriteString("time,symbol,open,high,low,close,volume\n")

	for symbol, bars := range bySymbol {
		for _, bar := range bars {
			fmt.Fprintf(&builder, "%s,%s,%g,%g,%g,%g,%g\n", bar.Time.Format("2006-01-02 15:04:05"), symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		}
	}

	require.NoError(t, os.WriteFile(path, []byte(builder.String()), 0644))
}

func writeBarsCSVFile(t *testing.T, path string, bars []types.Bar) {
	t.Helper()

	var builder strings.Builder
	builder.WriteString("time,open,high,low,close,volume\n")

	for _, bar := range bars {
		fmt.Fprintf(&builder, "%s,%g,%g,%g,%g,%g\n", bar.Time.Format("2006-01-02 15:04:05"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	require.NoError(t, os.WriteFile(path, []byte(builder.String()), 0644))
}
