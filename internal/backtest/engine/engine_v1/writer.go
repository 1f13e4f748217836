package engine

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

const (
	TradesCSVFileName = "trades.csv"
	BarsCSVFileName   = "bars.csv"
	StatsFileName     = "stats.yaml"
)

// BarRows joins bars with their derived columns. Columns must be at least as long as bars.
func BarRows(bars []types.Bar, columns types.DerivedColumns) []types.BarRow {
	rows := make([]types.BarRow, len(bars))
	for i, bar := range bars {
		rows[i] = types.BarRow{
			Time:         bar.Time,
			Open:         bar.Open,
			Close:        bar.Close,
			RSI:          columns.RSI[i],
			CompositeRSI: columns.CompositeRSI[i],
			Hurst:        columns.Hurst[i],
			OpenPosition: columns.OpenPosition[i],
		}
	}

	return rows
}

// WriteTradesCSV writes trades to trades.csv in dir.
func WriteTradesCSV(dir string, trades []types.Trade) error {
	return writeCSV(filepath.Join(dir, TradesCSVFileName), &trades)
}

// WriteBarsCSV writes one row per bar with its derived columns to bars.csv in dir.
func WriteBarsCSV(dir string, bars []types.Bar, columns types.DerivedColumns) error {
	rows := BarRows(bars, columns)

	return writeCSV(filepath.Join(dir, BarsCSVFileName), &rows)
}

func writeCSV(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
