// Package log provides a structured logging interface for gdreg training runs.
//
// The interface is slog-compatible so that callers can bridge it to their own
// logging stack; the default implementation is backed by zerolog and writes
// JSON lines. ML-specific attribute keys live in attributes.go.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("linear").With(
//	    log.ModelNameKey, "GDRegressor",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. A value implementing
// error is rendered with its message and, when available, its stack trace.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	// Per-iteration progress of gradient descent is logged at this level.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	//
	// Example:
	//   logger.Warn("Cost increased during descent",
	//       log.LearningRateKey, 5.0,
	//   )
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error, it is logged under the "error" key.
	//
	// Example:
	//   logger.Error("Normalization failed",
	//       err,
	//       log.OperationKey, log.OperationTransform,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It allows swapping the
// global logging backend in tests.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
