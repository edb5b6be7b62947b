package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTimeframe     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeLengthMismatch       ErrorCode = 106
	ErrCodeUnorderedIndex       ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeMissingColumn         ErrorCode = 204
	ErrCodeWriteFailed           ErrorCode = 205

	// Signal errors (300-399)
	ErrCodeUnsupportedOperator ErrorCode = 300
	ErrCodeUnsupportedMode     ErrorCode = 301
	ErrCodeNoConditions        ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 400
	ErrCodeStrategyRuntimeError ErrorCode = 401
	ErrCodeTemplateError        ErrorCode = 402
	ErrCodeVersionMismatch      ErrorCode = 403

	// Alignment errors (500-599)
	ErrCodeEmptyInput         ErrorCode = 500
	ErrCodeLookaheadViolation ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError  ErrorCode = 600
	ErrCodeBacktestNoDatasource ErrorCode = 601
	ErrCodeBacktestNoPortfolio  ErrorCode = 602
	ErrCodeNoTrades             ErrorCode = 603
	ErrCodeSimulationFailed     ErrorCode = 604
)
