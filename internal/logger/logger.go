// Package logger is the structured logger shared by the CLI and services.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface used across tutorly.
// Key-value pairs follow the charm convention: msg, k1, v1, k2, v2...
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

// Level is a textual log level as accepted by --log-level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (l Level) charm() charmlog.Level {
	switch Level(strings.ToLower(string(l))) {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Config controls logger construction.
type Config struct {
	Level      Level
	Output     io.Writer
	JSON       bool
	TimeFormat string
}

// DefaultConfig logs warnings and above to stderr so command output on
// stdout stays clean.
func DefaultConfig() Config {
	return Config{
		Level:      WarnLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	}
}

type charmLogger struct {
	l *charmlog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	l := charmlog.NewWithOptions(cfg.Output, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           cfg.Level.charm(),
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() Logger {
	return New(Config{Level: ErrorLevel, Output: io.Discard})
}

var (
	defaultMu sync.RWMutex
	defaultL  = New(DefaultConfig())
)

// Init replaces the process-wide default logger.
func Init(cfg Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultL = New(cfg)
}

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultL
}

type ctxKey struct{}

// ContextWithLogger attaches l to ctx.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return Default()
}
