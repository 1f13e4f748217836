package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
)

// Accepted names of the timestamp column, matched case-insensitively in this order.
var timeColumnNames = []string{"time", "timestamp", "datetime", "date"}

var priceColumnNames = []string{"open", "high", "low", "close"}

type DuckDBDataSource struct {
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	hasSymbol bool
	symbol    optional.Option[string]
}

// NewDataSource creates a new DuckDB data source backed by the database at path.
// Use ":memory:" for an in-memory database. Bars are loaded later by Initialize.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='2GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	return &DuckDBDataSource{
		db:        db,
		logger:    logger,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		hasSymbol: false,
		symbol:    optional.None[string](),
	}, nil
}

// Initialize implements DataSource.
// The file is exposed as the market_data view with columns time, [symbol,] open, high, low, close, volume.
// Rows missing the timestamp or any price are dropped and a missing volume reads as zero.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`DROP VIEW IF EXISTS market_data; DROP VIEW IF EXISTS raw_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing views", err)
	}

	// CREATE VIEW takes no bind parameters, so the path is quoted by hand.
	_, err = d.db.Exec(fmt.Sprintf(`CREATE VIEW raw_data AS SELECT * FROM %s('%s');`, reader, strings.ReplaceAll(path, "'", "''")))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	columns, err := d.describe("raw_data")
	if err != nil {
		return err
	}

	view, err := d.normalizedView(columns)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(view)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create market_data view", err)
	}

	return nil
}

// SetSymbol implements DataSource.
func (d *DuckDBDataSource) SetSymbol(symbol optional.Option[string]) {
	d.symbol = symbol
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(d.filters(start, end)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		d.logger.Debug("Reading bars from DuckDB")

		rows, err := d.queryBars(start, end)
		if err != nil {
			yield(types.Bar{}, err)

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := scanBar(rows)
			if !yield(bar, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err))
		}
	}
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	if !d.hasSymbol {
		return []string{}, nil
	}

	rows, err := d.db.Query("SELECT DISTINCT symbol FROM market_data WHERE symbol IS NOT NULL ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
	}
	defer rows.Close()

	symbols := []string{}

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func (d *DuckDBDataSource) filters(start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.And {
	conditions := squirrel.And{}

	if start.IsSome() {
		conditions = append(conditions, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		conditions = append(conditions, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	if d.hasSymbol && d.symbol.IsSome() {
		conditions = append(conditions, squirrel.Eq{"symbol": d.symbol.Unwrap()})
	}

	return conditions
}

func (d *DuckDBDataSource) queryBars(start optional.Option[time.Time], end optional.Option[time.Time]) (*sql.Rows, error) {
	query, args, err := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(d.filters(start, end)).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}

	return rows, nil
}

type columnInfo struct {
	name     string
	dataType string
}

// describe returns the columns of a relation keyed by lower-cased name.
func (d *DuckDBDataSource) describe(relation string) (map[string]columnInfo, error) {
	rows, err := d.db.Query(fmt.Sprintf("SELECT column_name, column_type FROM (DESCRIBE %s)", relation))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to describe %s", relation)
	}
	defer rows.Close()

	columns := map[string]columnInfo{}

	for rows.Next() {
		var info columnInfo
		if err := rows.Scan(&info.name, &info.dataType); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column description", err)
		}

		columns[strings.ToLower(info.name)] = info
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating column description", err)
	}

	return columns, nil
}

func (d *DuckDBDataSource) normalizedView(columns map[string]columnInfo) (string, error) {
	var timeColumn optional.Option[columnInfo]

	for _, name := range timeColumnNames {
		if info, ok := columns[name]; ok {
			timeColumn = optional.Some(info)

			break
		}
	}

	if timeColumn.IsNone() {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "no timestamp column found, expected one of %s", strings.Join(timeColumnNames, ", "))
	}

	selects := []string{timeExpression(timeColumn.Unwrap()) + " AS time"}
	where := []string{quoteIdent(timeColumn.Unwrap().name) + " IS NOT NULL"}

	info, hasSymbol := columns["symbol"]
	if hasSymbol {
		selects = append(selects, "CAST("+quoteIdent(info.name)+" AS VARCHAR) AS symbol")
	}

	for _, name := range priceColumnNames {
		info, ok := columns[name]
		if !ok {
			return "", errors.Newf(errors.ErrCodeDataNotFound, "missing required column %q", name)
		}

		selects = append(selects, fmt.Sprintf("CAST(%s AS DOUBLE) AS %s", quoteIdent(info.name), name))
		where = append(where, quoteIdent(info.name)+" IS NOT NULL")
	}

	if info, ok := columns["volume"]; ok {
		selects = append(selects, fmt.Sprintf("COALESCE(CAST(%s AS DOUBLE), 0) AS volume", quoteIdent(info.name)))
	} else {
		selects = append(selects, "CAST(0 AS DOUBLE) AS volume")
	}

	d.hasSymbol = hasSymbol

	return fmt.Sprintf("CREATE VIEW market_data AS SELECT %s FROM raw_data WHERE %s;",
		strings.Join(selects, ", "), strings.Join(where, " AND ")), nil
}

// timeExpression casts the source timestamp column to TIMESTAMP. Numeric columns are read as unix seconds.
func timeExpression(info columnInfo) string {
	column := quoteIdent(info.name)

	switch strings.ToUpper(info.dataType) {
	case "BIGINT", "INTEGER", "HUGEINT", "UBIGINT", "UINTEGER", "DOUBLE", "FLOAT", "DECIMAL":
		return fmt.Sprintf("CAST(to_timestamp(CAST(%s AS DOUBLE)) AS TIMESTAMP)", column)
	default:
		return fmt.Sprintf("CAST(%s AS TIMESTAMP)", column)
	}
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeDataSourceUnavailable, "unsupported data file %q, expected .parquet or .csv", path)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func scanBar(rows *sql.Rows) (types.Bar, error) {
	var (
		timestamp              time.Time
		open, high, low, close sql.NullFloat64
		volume                 sql.NullFloat64
	)

	if err := rows.Scan(&timestamp, &open, &high, &low, &close, &volume); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	return types.Bar{
		Time:   timestamp,
		Open:   orNaN(open),
		High:   orNaN(high),
		Low:    orNaN(low),
		Close:  orNaN(close),
		Volume: orNaN(volume),
	}, nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}
