package apifetch

import (
	"context"
	"log/slog"
	"os"
)

// Logger receives debug output as a message plus alternating key/value
// pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes records through log/slog.
type SimpleLogger struct {
	logger *slog.Logger
}

// NewSimpleLogger returns a logger writing text records at debug level to
// stderr.
func NewSimpleLogger() *SimpleLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &SimpleLogger{logger: slog.New(handler).With("component", "apifetch")}
}

// NewSlogLogger adapts an existing slog logger. A nil logger uses
// slog.Default.
func NewSlogLogger(logger *slog.Logger) *SimpleLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimpleLogger{logger: logger}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues)
}

func (l *SimpleLogger) log(level slog.Level, msg string, keysAndValues []any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Log(context.Background(), level, msg, keysAndValues...)
}
