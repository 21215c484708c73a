// Package log provides the process logger. A package-level default is
// configured once at startup and passed around implicitly; components log
// through the Logger interface so tests can swap in a silent logger.
package log

import (
	"github.com/kataras/golog"
)

// Logger is the minimal logging contract used across the codebase.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// GologLogger implements Logger on top of kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// New creates a golog-backed logger at the given level
// ("debug", "info", "warn", "error").
func New(level string) *GologLogger {
	l := golog.New()
	l.SetLevel(level)
	l.SetTimeFormat("2006-01-02 15:04:05")
	return &GologLogger{logger: l}
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }
func (l *GologLogger) Info(format string, v ...any)  { l.logger.Infof(format, v...) }
func (l *GologLogger) Warn(format string, v ...any)  { l.logger.Warnf(format, v...) }
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// NoOpLogger discards everything. Used in tests.
type NoOpLogger struct{}

func (NoOpLogger) Debug(format string, v ...any) {}
func (NoOpLogger) Info(format string, v ...any)  {}
func (NoOpLogger) Warn(format string, v ...any)  {}
func (NoOpLogger) Error(format string, v ...any) {}

var defaultLogger Logger = New("info")

// SetDefault replaces the package-level logger.
func SetDefault(logger Logger) {
	defaultLogger = logger
}

// Default returns the package-level logger.
func Default() Logger {
	return defaultLogger
}

// Debug logs through the package-level logger.
func Debug(format string, v ...any) { defaultLogger.Debug(format, v...) }

// Info logs through the package-level logger.
func Info(format string, v ...any) { defaultLogger.Info(format, v...) }

// Warn logs through the package-level logger.
func Warn(format string, v ...any) { defaultLogger.Warn(format, v...) }

// Error logs through the package-level logger.
func Error(format string, v ...any) { defaultLogger.Error(format, v...) }
