package types

// LogLevel is the severity of a diagnostic entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DiagnosticEvent classifies what the simulation reported.
type DiagnosticEvent string

const (
	// EventDataInsufficiency means an indicator had too little history and yielded NaN
	EventDataInsufficiency DiagnosticEvent = "data_insufficiency"
	// EventConfigMissing means a configuration field needed by an enabled source is absent
	EventConfigMissing DiagnosticEvent = "config_missing"
	// EventSignalEvaluationFailure means a predicate failed and the bar was treated as flat
	EventSignalEvaluationFailure DiagnosticEvent = "signal_evaluation_failure"
	// EventEngineFailure means the bar loop itself failed and the run was terminated
	EventEngineFailure DiagnosticEvent = "engine_failure"
)
