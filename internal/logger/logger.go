package logger

import (
	"log/slog"
	"os"
)

// Logger is the application logger, a thin wrapper over slog.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing structured text to stdout at the given
// level.
func New(level int) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(level)})),
	}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
