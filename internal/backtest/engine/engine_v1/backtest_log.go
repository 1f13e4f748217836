package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-ablation/internal/log"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"go.uber.org/zap"
)

// DiagnosticsFileName is the parquet export of a run's diagnostics.
const DiagnosticsFileName = "diagnostics.parquet"

// BacktestLog implements the Log interface for backtesting purposes.
// It records simulation diagnostics in a DuckDB database.
type BacktestLog struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestLog creates a new instance of BacktestLog.
func NewBacktestLog(logger *logger.Logger) (*BacktestLog, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to database", err)
	}

	logStorage := &BacktestLog{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := logStorage.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return logStorage, nil
}

// Log implements the Log interface. It records a log entry.
func (l *BacktestLog) Log(entry log.LogEntry) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	var nextID int

	err := l.db.QueryRow("SELECT nextval('diagnostic_id_seq')").Scan(&nextID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to get next ID from sequence", err)
	}

	var fieldsJSON string

	if len(entry.Fields) > 0 {
		fieldsBytes, err := json.Marshal(entry.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields to JSON: %w", err)
		}

		fieldsJSON = string(fieldsBytes)
	}

	_, err = l.sq.
		Insert("diagnostics").
		Columns("id", "timestamp", "symbol", "bar_index", "level", "event", "message", "fields").
		Values(nextID, entry.Timestamp, entry.Symbol, entry.BarIndex, string(entry.Level), string(entry.Event), entry.Message, fieldsJSON).
		RunWith(l.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert diagnostic", err)
	}

	return nil
}

// GetLogs implements the Log interface. It returns all recorded log entries.
func (l *BacktestLog) GetLogs() ([]log.LogEntry, error) {
	return l.query(l.selectLogs())
}

// GetLogsByEvent returns the entries of one event kind in insertion order.
func (l *BacktestLog) GetLogsByEvent(event types.DiagnosticEvent) ([]log.LogEntry, error) {
	return l.query(l.selectLogs().Where(squirrel.Eq{"event": string(event)}))
}

// CountByEvent returns how many entries were recorded per event.
func (l *BacktestLog) CountByEvent() (map[types.DiagnosticEvent]int, error) {
	if l == nil || l.db == nil {
		return nil, fmt.Errorf("backtest log or database is nil")
	}

	rows, err := l.sq.
		Select("event", "COUNT(*)").
		From("diagnostics").
		GroupBy("event").
		RunWith(l.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count diagnostics", err)
	}
	defer rows.Close()

	counts := make(map[types.DiagnosticEvent]int)

	for rows.Next() {
		var event string

		var count int

		if err := rows.Scan(&event, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan diagnostic count", err)
		}

		counts[types.DiagnosticEvent(event)] = count
	}

	return counts, rows.Err()
}

func (l *BacktestLog) selectLogs() squirrel.SelectBuilder {
	return l.sq.
		Select("id", "timestamp", "symbol", "bar_index", "level", "event", "message", "fields").
		From("diagnostics").
		OrderBy("id ASC")
}

func (l *BacktestLog) query(builder squirrel.SelectBuilder) ([]log.LogEntry, error) {
	if l == nil || l.db == nil {
		return nil, fmt.Errorf("backtest log or database is nil")
	}

	rows, err := builder.RunWith(l.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query diagnostics", err)
	}
	defer rows.Close()

	var logs []log.LogEntry

	for rows.Next() {
		var id int

		var entry log.LogEntry

		var levelStr, eventStr string

		var fieldsJSON sql.NullString

		err := rows.Scan(
			&id,
			&entry.Timestamp,
			&entry.Symbol,
			&entry.BarIndex,
			&levelStr,
			&eventStr,
			&entry.Message,
			&fieldsJSON,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan diagnostic", err)
		}

		entry.Level = types.LogLevel(levelStr)
		entry.Event = types.DiagnosticEvent(eventStr)

		if fieldsJSON.Valid && fieldsJSON.String != "" {
			var fields map[string]string
			if err := json.Unmarshal([]byte(fieldsJSON.String), &fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields from JSON: %w", err)
			}

			entry.Fields = fields
		}

		logs = append(logs, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diagnostics: %w", err)
	}

	return logs, nil
}

// Write saves the diagnostics to a Parquet file in the specified directory.
func (l *BacktestLog) Write(path string) error {
	if l == nil || l.db == nil || l.logger == nil {
		return fmt.Errorf("backtest log, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create directory", err)
	}

	logsPath := filepath.Join(path, DiagnosticsFileName)

	_, err := l.db.Exec(fmt.Sprintf(`COPY diagnostics TO '%s' (FORMAT PARQUET)`, logsPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export diagnostics to Parquet", err)
	}

	l.logger.Debug("Exported diagnostics to Parquet file",
		zap.String("diagnostics", logsPath),
	)

	return nil
}

// Cleanup resets the database state.
func (l *BacktestLog) Cleanup() error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	_, err := l.db.Exec(`
		DROP TABLE IF EXISTS diagnostics;
		DROP SEQUENCE IF EXISTS diagnostic_id_seq;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup diagnostics table", err)
	}

	return l.initialize()
}

// Close closes the database connection.
func (l *BacktestLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}

	return l.db.Close()
}

func (l *BacktestLog) initialize() error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	_, err := l.db.Exec(`CREATE SEQUENCE IF NOT EXISTS diagnostic_id_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create sequence", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY,
			timestamp TIMESTAMP,
			symbol TEXT,
			bar_index INTEGER,
			level TEXT,
			event TEXT,
			message TEXT,
			fields TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create diagnostics table", err)
	}

	return nil
}
