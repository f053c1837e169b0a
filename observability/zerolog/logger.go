// Package zerolog adapts github.com/rs/zerolog to core.Logger.
package zerolog

import (
	"io"

	"github.com/Swind/go-fiber/core"
	zl "github.com/rs/zerolog"
)

// Logger writes scheduler log entries as zerolog events.
type Logger struct {
	logger zl.Logger
}

var _ core.Logger = (*Logger)(nil)

// New wraps an existing zerolog.Logger.
func New(logger zl.Logger) *Logger {
	return &Logger{logger: logger}
}

// NewJSON creates a Logger emitting JSON lines to w at level and above.
func NewJSON(w io.Writer, level zl.Level) *Logger {
	return New(zl.New(w).Level(level).With().Timestamp().Logger())
}

// NewConsole creates a Logger with human-readable output to w.
func NewConsole(w io.Writer, level zl.Level) *Logger {
	return New(zl.New(zl.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...core.Field) {
	emit(l.logger.Debug(), msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...core.Field) {
	emit(l.logger.Info(), msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...core.Field) {
	emit(l.logger.Warn(), msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...core.Field) {
	emit(l.logger.Error(), msg, fields)
}

func emit(ev *zl.Event, msg string, fields []core.Field) {
	// Disabled levels return a nil event.
	if ev == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ev = ev.Str(f.Key, v)
		case int:
			ev = ev.Int(f.Key, v)
		case int64:
			ev = ev.Int64(f.Key, v)
		case bool:
			ev = ev.Bool(f.Key, v)
		case error:
			ev = ev.AnErr(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}
