package log

import "github.com/LaxarJS/laxar-log-activity/internal/ports"

// NoopLogger discards every message. It is the engine default so hosts that
// never inject a logger pay nothing for diagnostics.
type NoopLogger struct{}

// NewNoopLogger returns the discarding logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...ports.Field) {}
func (NoopLogger) Info(string, ...ports.Field)  {}
func (NoopLogger) Warn(string, ...ports.Field)  {}
func (NoopLogger) Error(string, ...ports.Field) {}
