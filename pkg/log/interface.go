// Package log provides a structured logging interface for rulconform.
//
// The interface is slog-shaped so callers can switch backends, and the
// default backend is zerolog. Conformal calibration runs log their
// configuration (mode, alpha, tau, resamples) and outcomes (margin,
// coverage, width) with the keys defined in attributes.go.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "evaluation",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("margin fitted",
//	    log.ModeKey, "weighted",
//	    log.AlphaKey, 0.05,
//	    log.MarginKey, 12.4,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. For Error, a leading error value
// (fields[0] is an error) is attached as the "error" field together with
// its stack trace when the backend supports it.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("calibration failed", err,
	//       log.ModeKey, "bootstrap",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger that includes the specified fields
	// in all subsequent log messages.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents the severity level of log messages.
// The values mirror log/slog so the two can be converted directly.
type Level int

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

// LoggerProvider hands out loggers for components.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel changes the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
