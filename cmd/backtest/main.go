package main

import (
	"context"
	"fmt"
	"log"
	"os"

	engine "github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/rxtech-lab/argo-ablation/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// loadEngineConfig reads the engine configuration at path. An empty path yields the defaults.
func loadEngineConfig(path string) (engine.BacktestEngineV1Config, error) {
	config := engine.EmptyConfig()
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read engine config: %w", err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("failed to parse engine config: %w", err)
	}

	return config, config.Validate()
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	switch cmd.String("kind") {
	case "strategy":
		config := strategy.DefaultConfig()
		schema, err = config.GenerateSchemaJSON()
	case "engine":
		config := engine.EmptyConfig()
		schema, err = config.GenerateSchemaJSON()
	default:
		return fmt.Errorf("unknown schema kind %q, expected strategy or engine", cmd.String("kind"))
	}

	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func newApp() *cli.Command {
	engineConfigFlag := &cli.StringFlag{
		Name:    "engine-config",
		Aliases: []string{"e"},
		Usage:   "Path to the engine configuration YAML. Defaults are used when omitted",
	}
	logLevelFlag := &cli.StringFlag{
		Name:  "log-level",
		Usage: "Minimum log level (debug, info, warn, error)",
		Value: "warn",
	}

	return &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest the RSI/Hurst strategy and measure signal ablations",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every strategy config against every data file",
				Flags: []cli.Flag{
					engineConfigFlag,
					logLevelFlag,
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    "Glob of strategy configuration YAML files",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Glob of parquet or CSV bar files",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Folder receiving per-run results",
						Value:   "results",
					},
				},
				Action: runAction,
			},
			{
				Name:  "ablation",
				Usage: "Run the baseline and one variant per disabled signal source over a data file",
				Flags: []cli.Flag{
					engineConfigFlag,
					logLevelFlag,
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Strategy configuration YAML. The built-in defaults are used when omitted",
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Parquet or CSV bar file",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Variants simulated at once. Zero uses one per CPU",
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Folder receiving the ablation report",
						Value:   "results",
					},
				},
				Action: ablationAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of a configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Which schema to print (strategy or engine)",
						Value: "strategy",
					},
				},
				Action: schemaAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
