package store

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With("component", "badger")}
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(trimLine(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(trimLine(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(trimLine(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(trimLine(format, args...))
}

func trimLine(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
