package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeInvalidCost          ErrorCode = 105
	ErrCodeInvalidAblation      ErrorCode = 106

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeUnorderedData         ErrorCode = 203
	ErrCodeDuplicateTimestamp    ErrorCode = 204
	ErrCodeFutureBarAccess       ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeInsufficientData       ErrorCode = 303

	// Signal errors (400-499)
	ErrCodeSignalEvaluation ErrorCode = 400
	ErrCodeSignalPanic      ErrorCode = 401

	// Backtest errors (600-699)
	ErrCodeEngineFatal           ErrorCode = 600
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoConfigs     ErrorCode = 604
	ErrCodeBacktestNoDataPaths   ErrorCode = 605
	ErrCodeBacktestNoResultsDir  ErrorCode = 606
	ErrCodeBacktestNoDatasource  ErrorCode = 607
	ErrCodeResultWriteFailed     ErrorCode = 608

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
