package engine

import (
	"time"

	"github.com/rxtech-lab/argo-ablation/internal/log"
	"github.com/rxtech-lab/argo-ablation/internal/logger"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// diagnostics emits a structured zap event and mirrors it into an optional sink.
type diagnostics struct {
	logger *logger.Logger
	sink   log.Log
	symbol string
}

func (d diagnostics) record(level types.LogLevel, event types.DiagnosticEvent, at time.Time, bar int, message string, fields map[string]string) {
	zapFields := make([]zap.Field, 0, len(fields)+3)
	zapFields = append(zapFields,
		zap.String("event", string(event)),
		zap.Int("bar", bar),
	)

	if d.symbol != "" {
		zapFields = append(zapFields, zap.String("symbol", d.symbol))
	}

	for k, v := range fields {
		zapFields = append(zapFields, zap.String(k, v))
	}

	if ce := d.logger.Check(zapLevel(level), message); ce != nil {
		ce.Write(zapFields...)
	}

	if d.sink == nil {
		return
	}

	if err := d.sink.Log(log.LogEntry{
		Timestamp: at,
		Symbol:    d.symbol,
		BarIndex:  bar,
		Level:     level,
		Event:     event,
		Message:   message,
		Fields:    fields,
	}); err != nil {
		d.logger.Warn("Failed to record diagnostic", zap.String("event", string(event)), zap.Error(err))
	}
}

func zapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
