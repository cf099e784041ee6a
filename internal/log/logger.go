// Package log is a thin layer over log/slog that tags every record with the
// emitting component and offers shared field names and HTTP middleware.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger bound to a component. All slog methods are
// available and emit the component attribute.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

// Config holds logger configuration. A nil Handler means a text handler on
// stdout at Level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func bind(base *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return bind(slog.New(handler), component)
}

// Default binds slog.Default() to component.
func Default(component string) *Logger {
	return bind(slog.Default(), component)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return bind(slog.New(slog.NewTextHandler(io.Discard, nil)), "discard")
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// With returns a logger carrying args on every record, keeping the component.
func (l *Logger) With(args ...any) *Logger {
	return bind(l.base.With(args...), l.component)
}

// WithComponent rebinds the logger to another component. Attributes added
// through With are kept.
func (l *Logger) WithComponent(component string) *Logger {
	return bind(l.base, component)
}

// LogContext logs at an arbitrary level.
func (l *Logger) LogContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, level, msg, args...)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs l's handler as the process-wide slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.base)
}
