// Package log wraps log/slog with a component tag and shared field names.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with the component that owns it.
type Logger struct {
	*slog.Logger
	// base is the handler without the component tag; attrs are the With
	// arguments added since.
	base      slog.Handler
	attrs     []any
	component string
}

func newTagged(base slog.Handler, attrs []any, component string) *Logger {
	l := slog.New(base)
	if len(attrs) > 0 {
		l = l.With(attrs...)
	}
	return &Logger{Logger: l.With(FieldComponent, component), base: base, attrs: attrs, component: component}
}

type Config struct {
	Level     slog.Level
	Format    string // "text" (default) or "json"
	Component string
	Writer    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    "text",
		Component: ComponentApp,
		Writer:    os.Stdout,
	}
}

// New builds a logger. An explicit Handler wins over Format and Writer.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if strings.EqualFold(config.Format, "json") {
			handler = slog.NewJSONHandler(w, opts)
		} else {
			handler = slog.NewTextHandler(w, opts)
		}
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return newTagged(handler, nil, component)
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
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

func (l *Logger) With(args ...any) *Logger {
	attrs := append(append([]any(nil), l.attrs...), args...)
	return &Logger{Logger: l.Logger.With(args...), base: l.base, attrs: attrs, component: l.component}
}

// WithComponent returns a logger sharing the handler and With attributes but
// tagged with another component.
func (l *Logger) WithComponent(component string) *Logger {
	if l.base == nil {
		return newTagged(l.Logger.Handler(), nil, component)
	}
	return newTagged(l.base, l.attrs, component)
}

func (l *Logger) Component() string { return l.component }

// SetDefault installs logger as the slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// FromDefault tags the current slog default logger with component.
func FromDefault(component string) *Logger {
	return newTagged(slog.Default().Handler(), nil, component)
}
