// Package logging configures the global zerolog logger and component loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace adds page load state transitions.
	LevelTrace LogLevel = "trace"

	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level. Names are
// case-insensitive; "" is info, "warning" aliases warn and "off" aliases
// disabled.
func ParseLevel(level LogLevel) (zerolog.Level, error) {
	switch strings.ToLower(string(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// parseLevel is ParseLevel with unknown levels logging at info.
func parseLevel(level LogLevel) zerolog.Level {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Trace: page load state transitions (idle, loading, page_loaded, failed)
//
// Debug:
//   - Page loaded (key, rows, items, last)
//   - Cache hit/miss and writes
//   - Request start/finish with request_id
//   - Retry backoff
//
// Info:
//   - Range load complete
//   - Request succeeded after retry
//
// Warn:
//   - Page load failed (error_kind)
//   - Retry attempts exhausted
//   - Cache errors (the call continues without cache)
//
// Error:
//   - HTTP request failed before a response was read
//
// Context Fields:
//   - component: package emitting the event
//   - endpoint, convention: pagination controller identity
//   - procedure, request_id: one RPC call
//   - key, page_size, rows, items: page bookkeeping
//   - error_kind, error_class: error taxonomy and transport class
//   - duration: elapsed milliseconds
