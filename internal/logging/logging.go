// Package logging provides the logger used across the application.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/raoulx24/framesync/internal/config"
)

// Logger is the structured logger the application logs through. Arguments
// after the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New returns a logger configured from cfg, writing to stderr.
func New(cfg config.LoggingConfig) hclog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput returns a logger configured from cfg, writing to w.
func NewWithOutput(cfg config.LoggingConfig, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "framesync",
		Level:      Level(cfg),
		Output:     w,
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
	})
}

// Level returns the configured level, Info when unset or unknown.
func Level(cfg config.LoggingConfig) hclog.Level {
	lvl := hclog.LevelFromString(cfg.Level)
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}

// Null returns a logger that discards everything.
func Null() hclog.Logger {
	return hclog.NewNullLogger()
}
