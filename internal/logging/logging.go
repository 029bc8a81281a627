// ABOUTME: Structured leveled logger construction for all components
// ABOUTME: Wraps charmbracelet/log with text or JSON output
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
)

// New builds the process logger from configuration. Logs go to stderr so
// the MCP stdio transport keeps stdout to itself.
func New(cfg config.Config) *log.Logger {
	return NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogJSON)
}

// NewWithWriter builds a logger writing to w
func NewWithWriter(w io.Writer, level string, json bool) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "retail",
	})
	if json {
		logger.SetFormatter(log.JSONFormatter)
	} else {
		logger.SetFormatter(log.TextFormatter)
	}
	return logger
}

// Discard returns a logger that drops everything (tests)
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Component returns a child logger tagged with the component name
func Component(logger *log.Logger, name string) *log.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", name)
}
