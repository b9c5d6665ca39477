//go:build windows

package logger

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// Event IDs for Windows Event Log entries.
const (
	EventIDInfo    uint32 = 1
	EventIDWarning uint32 = 2
	EventIDError   uint32 = 3
)

// EventLogWriter is the subset of *eventlog.Log used by EventLogger.
type EventLogWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}

// openEventLog is replaced in tests.
var openEventLog = func(source string) (EventLogWriter, error) {
	return eventlog.Open(source)
}

// EventLogger writes to the Windows Event Log. The source must have been
// registered with eventlog.InstallAsEventCreate beforehand.
type EventLogger struct {
	log EventLogWriter
}

// NewEventLogger opens the event source.
func NewEventLogger(source string) (*EventLogger, error) {
	w, err := openEventLog(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &EventLogger{log: w}, nil
}

// NewEventLoggerWithWriter wraps an already opened writer.
func NewEventLoggerWithWriter(w EventLogWriter) *EventLogger {
	return &EventLogger{log: w}
}

// Logging errors are dropped; the daemon keeps running without its log.
func (e *EventLogger) Info(format string, args ...interface{}) {
	_ = e.log.Info(EventIDInfo, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(EventIDWarning, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Error(format string, args ...interface{}) {
	_ = e.log.Error(EventIDError, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Close() error {
	if e.log == nil {
		return nil
	}
	return e.log.Close()
}

var _ Logger = (*EventLogger)(nil)
