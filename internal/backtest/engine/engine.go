package engine

import (
	"context"

	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-ablation/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalConfigs int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when processing of a config+data file combination begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, configIndex int, configName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error

// OnRunEndCallback is called when processing of a config+data file combination ends.
type OnRunEndCallback func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string)

// OnProcessDataCallback is called after each bar is simulated.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetConfigPath sets the strategy configuration files. Accepts glob patterns (e.g. "config/*.yaml").
	SetConfigPath(path string) error
	// SetConfigContent sets strategy configurations directly from string content.
	// This is an alternative to SetConfigPath for programmatic API usage.
	SetConfigContent(configs []string) error
	// SetDataPath sets the market data files, parquet or csv. Accepts glob patterns (e.g. "data/*.parquet").
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Each run is written to <folder>/<config name>/[<start>_<end>/]<data file name>, with a
	// trailing /<symbol> when a data file holds several symbols and none is configured.
	SetResultsFolder(folder string) error
	// Run runs every strategy configuration against every data file, once per symbol.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
	// Stats returns the statistics of every run of the last Run call.
	Stats() []types.TradeStats
}
