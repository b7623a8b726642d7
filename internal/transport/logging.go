package transport

import (
	applog "github.com/atici/MicMonitor/internal/log"
)

// LoggingTransport implements Transport by discarding frames, logging only
// its lifecycle. It stands in for the WebSocket transport when telemetry is
// disabled so callers never branch on nil.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send discards the frame. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
