// Package logging builds the structured loggers shared by the bridge components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ComponentKey tags log records with the emitting component.
const ComponentKey = "component"

// Config holds the logging configuration.
type Config struct {
	// Level is one of debug, info, warn, error (default info).
	Level string
	// Format is json or text (default json).
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New creates a structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatText:
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}
	return slog.New(handler)
}

// Nop returns a logger discarding every record.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = Nop()
	}
	return logger.With(ComponentKey, component)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
