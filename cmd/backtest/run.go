package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var configContent []byte
	if path := cmd.String("engine-config"); path != "" {
		configContent, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read engine config: %w", err)
		}
	}

	backtester := engine_v1.NewBacktestEngineV1WithLogger(log)
	if err := backtester.Initialize(string(configContent)); err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := backtester.SetDataSource(ds); err != nil {
		return err
	}

	if err := backtester.SetConfigPath(cmd.String("strategy")); err != nil {
		return err
	}

	if err := backtester.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, _ int, configName string, _ int, dataFilePath string, totalDataPoints int) error {
		bar = progressbar.Default(int64(totalDataPoints), fmt.Sprintf("%s × %s", configName, dataFilePath))

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})
	onRunEnd := engine.OnRunEndCallback(func(_ int, _ string, _ int, _ string, _ string) {
		_ = bar.Finish()
	})

	err = backtester.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, statsTable(backtester.Stats()))

	return err
}
