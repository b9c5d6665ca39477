//go:build windows

package cmd

import "github.com/warpdl/warplock/pkg/logger"

// eventSource is the Event Log source of the daemon. When it has not been
// registered the daemon logs to the console and the log file only.
const eventSource = "warplock"

func platformLoggers() []logger.Logger {
	el, err := logger.NewEventLogger(eventSource)
	if err != nil {
		return nil
	}
	return []logger.Logger{el}
}
