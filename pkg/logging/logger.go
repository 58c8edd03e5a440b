// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

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

// UnmarshalText implements encoding.TextUnmarshaler so a level can be read
// directly from an environment variable. Unknown levels are rejected.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch v := LogLevel(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		*l = v
	case "warning":
		*l = LevelWarn
	default:
		return fmt.Errorf("unknown log level %q", string(text))
	}
	return nil
}

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

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
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

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache hits and misses on the fetch path (method, url)
//   - Individual manifest entries fetched during install
//   - Ignored control messages
//
// Info: Normal operation events
//   - Lifecycle transitions (installed, waiting, active)
//   - Stale cache regions deleted on activate
//   - Skip-waiting requests
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Cache lookup errors (request falls back to network)
//   - Missing images in the image audit
//
// Error: Error conditions requiring attention
//   - Failed install (new version discarded, old one keeps serving)
//   - Failed cleanup on activate
//   - Storage unavailable at startup
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting subsystem (service-worker, registration, proxy, cache)
//   - cache_name: Version-stamped cache region
//   - stale_cache: Region being deleted on activate
//   - url, method: Request identity
//   - cache_hit: Boolean indicating cache hit
//   - entries: Number of manifest entries stored
//   - clients: Number of clients holding the active controller
//   - status_code: HTTP status code
//   - duration: Step or request duration
