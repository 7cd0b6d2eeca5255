package capreg

// Logger defines the interface for registry logging.
// The registry uses structured logging with key-value pairs so the host
// runtime decides how assembly logs appear.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// A *slog.Logger satisfies this interface directly.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for completed assemblies.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	// Used for construction failures and observer errors.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Used for per-module construction detail.
	Debug(msg string, args ...any)
}
