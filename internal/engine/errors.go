package engine

import "errors"

var (
	// ErrEngineClosed is returned by arming operations after Shutdown.
	ErrEngineClosed = errors.New("timer engine is shut down")
	// ErrInvalidSchedules is returned when a schedule payload is not a list.
	ErrInvalidSchedules = errors.New("schedules must be a list")
	// ErrUnknownMode is returned for a mode other than single or multi.
	ErrUnknownMode = errors.New("unknown timer mode")
	// ErrInvalidDelay is returned for a countdown that is not a finite
	// positive duration.
	ErrInvalidDelay = errors.New("delay must be a positive number of seconds")
)
