package log

import (
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/types"
)

// LogEntry is one diagnostic emitted during a simulation run.
type LogEntry struct {
	// Timestamp is the time of the bar being processed.
	Timestamp time.Time
	// Symbol is the instrument of the run.
	Symbol string
	// BarIndex is the simulation cursor, -1 for entries emitted before the loop.
	BarIndex int
	// Level is the severity level of the log.
	Level types.LogLevel
	// Event classifies the diagnostic.
	Event types.DiagnosticEvent
	// Message is the log message content.
	Message string
	// Fields contains optional structured key-value data.
	Fields map[string]string
}

// Log is the interface for storing simulation diagnostics.
type Log interface {
	// Log stores a log entry.
	Log(entry LogEntry) error
	// GetLogs retrieves all stored log entries.
	GetLogs() ([]LogEntry, error)
}
