package core

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the structured logging interface used by the scheduler.
// Adapters for other logging libraries live under observability/.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// LogLevel orders log severities for DefaultLogger.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// DefaultLogger writes through the standard log package.
type DefaultLogger struct {
	// MinLevel drops entries below this level.
	MinLevel LogLevel
	logger   *log.Logger
}

// NewDefaultLogger creates a DefaultLogger that writes to log's standard
// logger at Info level and above.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{MinLevel: LevelInfo}
}

// NewDefaultLoggerWith creates a DefaultLogger writing to l.
func NewDefaultLoggerWith(l *log.Logger, minLevel LogLevel) *DefaultLogger {
	return &DefaultLogger{MinLevel: minLevel, logger: l}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, "DEBUG", msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, "INFO", msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, "WARN", msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, "ERROR", msg, fields...)
}

func (l *DefaultLogger) log(level LogLevel, tag, msg string, fields ...Field) {
	if level < l.MinLevel {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", tag, msg)
	if len(fields) > 0 {
		b.WriteString(" {")
		for i, f := range fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", f.Key, f.Value)
		}
		b.WriteString("}")
	}

	if l.logger != nil {
		l.logger.Println(b.String())
		return
	}
	log.Println(b.String())
}

// NoOpLogger discards all log messages. It is the scheduler default.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
