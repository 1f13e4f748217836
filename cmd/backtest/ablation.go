package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/ablation"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func ablationAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := loadEngineConfig(cmd.String("engine-config"))
	if err != nil {
		return err
	}

	base := strategy.DefaultConfig()
	if path := cmd.String("strategy"); path != "" {
		base, err = strategy.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	dataPath := cmd.String("data")

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.Initialize(dataPath); err != nil {
		return err
	}

	symbols, err := datasource.ResolveSymbols(ds, config.Symbol)
	if err != nil {
		return err
	}

	// data without a symbol column is swept once under the file name
	filters := make([]optional.Option[string], 0, len(symbols))
	for _, symbol := range symbols {
		filters = append(filters, optional.Some(symbol))
	}

	if len(filters) == 0 {
		filters = append(filters, optional.None[string]())
	}

	for _, filter := range filters {
		symbol := filter.TakeOr(strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath)))

		ds.SetSymbol(filter)

		bars, err := datasource.LoadBars(ds, config.StartTime, config.EndTime)
		if err != nil {
			return err
		}

		if _, err := datasource.ValidateBars(bars, log); err != nil {
			return err
		}

		runner := ablation.NewRunner(ablation.Options{
			Broker:         config.Broker,
			PeriodsPerYear: config.PeriodsPerYear,
			InitialSignal:  config.InitialSignal,
			Symbol:         symbol,
			Workers:        int(cmd.Int("workers")),
		}, log)

		report, err := runner.Run(ctx, bars, base)
		if err != nil {
			return err
		}

		resultsDir := filepath.Join(cmd.String("results"), "ablation", symbol)
		if err := report.Write(resultsDir); err != nil {
			return err
		}

		log.Info("Ablation report written", zap.String("path", filepath.Join(resultsDir, ablation.ReportFileName)))

		if _, err := fmt.Fprintf(os.Stdout, "%s\n%s\n", symbol, ablationTable(report)); err != nil {
			return err
		}
	}

	return nil
}
