package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/metrics"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/internal/version"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config              BacktestEngineV1Config
	strategyConfigPaths []string
	strategyConfigs     []string
	dataPaths           []string
	resultsFolder       string
	log                 *logger.Logger
	state               *BacktestState
	diagnostics         *BacktestLog
	datasource          datasource.DataSource
	stats               []types.TradeStats
}

// configItem is one strategy configuration scheduled for a run.
type configItem struct {
	name   string
	path   string
	config strategy.Config
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithLogger(nil)
}

// NewBacktestEngineV1WithLogger creates an engine that logs to log. A nil log makes Initialize build a production logger.
func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config:              EmptyConfig(),
		strategyConfigPaths: nil,
		strategyConfigs:     nil,
		dataPaths:           nil,
		resultsFolder:       "",
		log:                 log,
		state:               nil,
		diagnostics:         nil,
		datasource:          nil,
		stats:               nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		var loggerError error

		b.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", loggerError)
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	var err error

	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest state", err)
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize state", err)
	}

	b.diagnostics, err = NewBacktestLog(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create diagnostics log", err)
	}

	return nil
}

// SetConfigPath implements engine.Engine.
func (b *BacktestEngineV1) SetConfigPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set config path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid config path pattern", err)
	}

	b.strategyConfigPaths = files
	b.strategyConfigs = nil
	b.log.Debug("Config paths set",
		zap.Strings("files", files),
	)

	return nil
}

// SetConfigContent implements engine.Engine.
func (b *BacktestEngineV1) SetConfigContent(configs []string) error {
	b.strategyConfigs = configs
	b.strategyConfigPaths = nil
	b.log.Debug("Config content set",
		zap.Int("count", len(configs)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrap(errors.ErrCodeBacktestDataPathError, "invalid data path pattern", err)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrap(errors.ErrCodeBacktestDataPathError, "failed to resolve data path", err)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// Stats implements engine.Engine.
func (b *BacktestEngineV1) Stats() []types.TradeStats {
	return b.stats
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return err
	}

	configs, err := b.loadConfigs()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(b.resultsFolder); statErr == nil {
		os.RemoveAll(b.resultsFolder)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create results folder", err)
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(configs), len(b.dataPaths)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	b.stats = []types.TradeStats{}

	for configIndex, cfg := range configs {
		for dataIndex, dataPath := range b.dataPaths {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := b.runDataFile(ctx, callbacks, configIndex, cfg, dataIndex, dataPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// runDataFile runs cfg once per symbol of dataPath. Data without a symbol column is a single
// run named after the file. Each symbol of a multi-symbol file gets its own result folder.
func (b *BacktestEngineV1) runDataFile(ctx context.Context, callbacks engine.LifecycleCallbacks, configIndex int, cfg configItem, dataIndex int, dataPath string) error {
	if err := b.datasource.Initialize(dataPath); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to initialize data source for %s", dataPath)
	}

	symbols, err := datasource.ResolveSymbols(b.datasource, b.config.Symbol)
	if err != nil {
		return err
	}

	folder := getResultFolder(cfg.name, dataPath, b)

	if len(symbols) == 0 {
		b.datasource.SetSymbol(optional.None[string]())

		return b.runOne(ctx, callbacks, configIndex, cfg, dataIndex, dataPath, dataFileSymbol(dataPath), folder)
	}

	if len(symbols) > 1 {
		b.log.Info("Running every symbol of data file",
			zap.String("data", dataPath),
			zap.Strings("symbols", symbols),
		)
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.datasource.SetSymbol(optional.Some(symbol))

		resultFolder := folder
		if len(symbols) > 1 {
			resultFolder = filepath.Join(folder, symbol)
		}

		if err := b.runOne(ctx, callbacks, configIndex, cfg, dataIndex, dataPath, symbol, resultFolder); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) runOne(ctx context.Context, callbacks engine.LifecycleCallbacks, configIndex int, cfg configItem, dataIndex int, dataPath string, symbol string, resultFolderPath string) error {
	defer func() {
		if err := b.cleanUpRun(); err != nil {
			b.log.Warn("Failed to clean up run", zap.Error(err))
		}
	}()

	bars, err := b.loadBars(dataPath)
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, configIndex, cfg.name, dataIndex, dataPath, len(bars)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	strat, err := strategy.NewStrategy(cfg.config, b.log)
	if err != nil {
		return err
	}

	simulator := NewSimulator(strat, b.log)
	simulator.SetInitialSignal(b.config.InitialSignal)
	simulator.SetCommissionFee(CommissionFeeFor(b.config.Broker, cfg.config))
	simulator.SetDiagnostics(b.diagnostics, symbol)

	if callbacks.OnProcessData != nil {
		simulator.SetProgressCallback(*callbacks.OnProcessData)
	}

	b.log.Debug("Running strategy",
		zap.String("config", cfg.name),
		zap.String("data", dataPath),
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
	)

	result, err := simulator.Run(ctx, bars)
	if err != nil {
		return err
	}

	if err := b.state.AddTrades(symbol, result.Trades); err != nil {
		return err
	}

	stats := metrics.Compute(result.Trades, bars, b.config.PeriodsPerYear)
	stats.ID = runID
	stats.Timestamp = time.Now()
	stats.Symbol = symbol
	stats.Variant = cfg.config.Name
	stats.HasOpenPosition = result.OpenTrade.IsSome()
	stats.TradesFilePath = filepath.Join(resultFolderPath, TradesFileName)
	stats.DataPath = dataPath
	stats.ConfigPath = cfg.path
	stats.EngineVersion = version.GetVersion()

	if err := b.writeResults(resultFolderPath, bars, result, stats); err != nil {
		return err
	}

	b.stats = append(b.stats, stats)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(configIndex, cfg.name, dataIndex, dataPath, resultFolderPath)
	}

	return nil
}

func (b *BacktestEngineV1) loadBars(dataPath string) ([]types.Bar, error) {
	bars, err := datasource.LoadBars(b.datasource, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return nil, err
	}

	report, err := datasource.ValidateBars(bars, b.log)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Bars loaded",
		zap.String("data", dataPath),
		zap.Int("bars", report.Bars),
		zap.Int("gaps", len(report.Gaps)),
	)

	return bars, nil
}

// dataFileSymbol names runs over data without a symbol column.
func dataFileSymbol(dataPath string) string {
	return strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
}

func (b *BacktestEngineV1) loadConfigs() ([]configItem, error) {
	configs := []configItem{}

	if len(b.strategyConfigs) > 0 {
		for i, content := range b.strategyConfigs {
			config, err := strategy.ParseConfig([]byte(content))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "invalid strategy config %d", i)
			}

			name := config.Name
			if name == "" {
				name = fmt.Sprintf("config_%d", i)
			}

			configs = append(configs, configItem{name: name, path: "", config: config})
		}

		return configs, nil
	}

	for _, configPath := range b.strategyConfigPaths {
		config, err := strategy.LoadConfig(configPath)
		if err != nil {
			b.log.Error("Failed to read config",
				zap.String("config", configPath),
				zap.Error(err),
			)

			return nil, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "invalid strategy config %s", configPath)
		}

		configs = append(configs, configItem{
			name:   strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath)),
			path:   configPath,
			config: config,
		})
	}

	return configs, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) writeResults(resultFolderPath string, bars []types.Bar, result Result, stats types.TradeStats) error {
	if err := os.MkdirAll(resultFolderPath, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create result folder", err)
	}

	if err := b.state.Write(resultFolderPath); err != nil {
		return err
	}

	trades, err := b.state.GetAllTrades()
	if err != nil {
		return err
	}

	if err := WriteTradesCSV(resultFolderPath, trades); err != nil {
		return err
	}

	if err := WriteBarsCSV(resultFolderPath, bars, result.Columns); err != nil {
		return err
	}

	if err := b.diagnostics.Write(resultFolderPath); err != nil {
		return err
	}

	if err := types.WriteTradeStats(filepath.Join(resultFolderPath, StatsFileName), []types.TradeStats{stats}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	return nil
}

func (b *BacktestEngineV1) cleanUpRun() error {
	if err := b.state.Cleanup(); err != nil {
		return err
	}

	return b.diagnostics.Cleanup()
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil || b.diagnostics == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.strategyConfigPaths) == 0 && len(b.strategyConfigs) == 0 {
		b.log.Error("No strategy configs loaded")

		return errors.New(errors.ErrCodeBacktestNoConfigs, "no strategy configs loaded")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
