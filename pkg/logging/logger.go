// Package logging configures the zerolog logger shared by every restar component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Format selects how log lines are rendered.
type Format string

const (
	// FormatConsole renders human-readable lines.
	FormatConsole Format = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Format is the line format (default: console).
	Format Format

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns the logger configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	logger := New(cfg)
	log.Logger = logger

	return logger
}

// New builds a logger for cfg without touching the global logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if ParseFormat(string(cfg.Format)) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: !isTerminal(out)}
	}

	return zerolog.New(w).Level(ParseLevel(string(cfg.Level))).With().Timestamp().Logger()
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
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
	default:
		return zerolog.InfoLevel
	}
}

// ParseFormat converts a format name to a Format, defaulting to console.
func ParseFormat(format string) Format {
	if strings.EqualFold(strings.TrimSpace(format), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatConsole
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Log Level Guidelines:
//
// Debug: request flow
//   - outgoing request method and URL
//   - rate limit header updates
//   - group start/finish
//
// Info: normal progress
//   - listing result (count of starred repositories)
//   - each repository starred successfully
//   - run start and completion
//
// Warn: degraded but continuing
//   - listing returned a non-200 status
//   - rate limit running low
//   - malformed rate limit headers
//
// Error: something did not happen
//   - star request rejected (non-204 status)
//   - star request failed in transport
//   - fatal configuration or listing failure
//
// Context Fields:
//   - component: emitting package (github-client, lister, submitter, ...)
//   - account: account whose stars are read
//   - url: target URL of a star request
//   - status: HTTP status code
//   - group: zero-based group index
//   - count: number of items
//   - remaining: rate limit requests remaining
