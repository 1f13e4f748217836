package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/types"
)

type DataSource interface {
	// Initialize loads the bars stored at path. Both parquet and csv files are accepted.
	Initialize(path string) error
	// SetSymbol restricts every read to rows of one symbol. It only applies when the data has a symbol column.
	SetSymbol(symbol optional.Option[string])
	// ReadAll reads all the bars in ascending time order and yields them to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Symbols returns the distinct symbols in the data, or nothing when the data has no symbol column
	Symbols() ([]string, error)
	// Count returns the number of bars between start and end, honoring the symbol filter
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// LoadBars materializes every bar of the data source between start and end.
func LoadBars(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	count, err := ds.Count(start, end)
	if err != nil {
		return nil, err
	}

	bars := make([]types.Bar, 0, count)

	for bar, err := range ds.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// ResolveSymbols lists the symbols to run over an initialized data source. A configured
// symbol wins. Otherwise every symbol in the data is returned, or nothing when the data
// has no symbol column.
func ResolveSymbols(ds DataSource, configured optional.Option[string]) ([]string, error) {
	if configured.IsSome() {
		return []string{configured.Unwrap()}, nil
	}

	return ds.Symbols()
}
