package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
)

// TradesFileName is the parquet export of a run's closed trades.
const TradesFileName = "trades.parquet"

var tradeColumns = []string{
	"id", "symbol", "open_date", "close_date", "entry_index", "exit_index",
	"entry_price", "net_entry_price", "sell_price", "net_sell_price",
	"profit", "net_profit", "pnl", "net_pnl", "bars", "commission_cost", "slippage_cost",
}

// BacktestState stores the closed trades of a run in DuckDB.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			open_date TIMESTAMP,
			close_date TIMESTAMP,
			entry_index INTEGER,
			exit_index INTEGER,
			entry_price DOUBLE,
			net_entry_price DOUBLE,
			sell_price DOUBLE,
			net_sell_price DOUBLE,
			profit DOUBLE,
			net_profit DOUBLE,
			pnl DOUBLE,
			net_pnl DOUBLE,
			bars INTEGER,
			commission_cost DOUBLE,
			slippage_cost DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create trades table", err)
	}

	return nil
}

// AddTrades inserts closed trades in one transaction.
func (b *BacktestState) AddTrades(symbol string, trades []types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	for _, trade := range trades {
		_, err = b.sq.
			Insert("trades").
			Columns(tradeColumns...).
			Values(
				trade.ID, symbol, trade.OpenTime, trade.CloseTime, trade.EntryIndex, trade.ExitIndex,
				trade.EntryPrice, trade.NetEntryPrice, trade.ExitPrice, trade.NetExitPrice,
				trade.Profit, trade.NetProfit, trade.PnL, trade.NetPnL, trade.Bars,
				trade.CommissionCost, trade.SlippageCost,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert trade %s", trade.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit trades", err)
	}

	return nil
}

// GetAllTrades returns all trades in close order.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	rows, err := b.sq.
		Select(tradeColumns...).
		From("trades").
		OrderBy("exit_index ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	trades := []types.Trade{}

	for rows.Next() {
		var (
			trade  types.Trade
			symbol string
		)

		err := rows.Scan(
			&trade.ID, &symbol, &trade.OpenTime, &trade.CloseTime, &trade.EntryIndex, &trade.ExitIndex,
			&trade.EntryPrice, &trade.NetEntryPrice, &trade.ExitPrice, &trade.NetExitPrice,
			&trade.Profit, &trade.NetProfit, &trade.PnL, &trade.NetPnL, &trade.Bars,
			&trade.CommissionCost, &trade.SlippageCost,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Cleanup drops all trades and recreates the table.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`DROP TABLE IF EXISTS trades;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup trades", err)
	}

	return b.Initialize()
}

// Write saves the trades to trades.parquet in the directory at path.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create directory", err)
	}

	tradesPath := filepath.Join(path, TradesFileName)

	// COPY has no squirrel builder and takes no bind parameters.
	_, err := b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY exit_index) TO '%s' (FORMAT PARQUET)`, tradesPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export trades to parquet", err)
	}

	b.logger.Debug("Exported trades", zap.String("path", tradesPath))

	return nil
}

// Close releases the database.
func (b *BacktestState) Close() error {
	if b.db != nil {
		return b.db.Close()
	}

	return nil
}
