// Package logging builds the zerolog loggers used across the server.
//
// Output always goes to stderr when configured from the environment: stdout
// carries the MCP protocol and must contain nothing but JSON-RPC messages.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "MANGA_PANELS_LOG_LEVEL"
	EnvFormat = "MANGA_PANELS_LOG_FORMAT"
)

// DefaultLevel keeps the server quiet unless something degrades.
const DefaultLevel = zerolog.WarnLevel

// New creates a timestamped JSON logger writing to w at the named level.
// Unknown or empty level names fall back to DefaultLevel.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewConsole is New with zerolog's human-readable console writer.
func NewConsole(w io.Writer, level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

// FromEnv builds the process logger on stderr from MANGA_PANELS_LOG_LEVEL
// and MANGA_PANELS_LOG_FORMAT ("json" or "console").
func FromEnv() zerolog.Logger {
	level := os.Getenv(EnvLevel)
	if strings.EqualFold(os.Getenv(EnvFormat), "console") {
		return NewConsole(os.Stderr, level)
	}
	return New(os.Stderr, level)
}

// ParseLevel maps debug, info, warn, error (case-insensitive) to zerolog
// levels. "warning" is accepted as an alias for warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return DefaultLevel
	}
}

// Component tags every event from the returned logger with its subsystem.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
