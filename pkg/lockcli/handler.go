package lockcli

import (
	"encoding/json"

	"github.com/warpdl/warplock/common"
)

// Handler processes one pushed notification.
type Handler interface {
	Handle(json.RawMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(json.RawMessage) error

func (h HandlerFunc) Handle(m json.RawMessage) error { return h(m) }

type typedHandler[T any] struct {
	callback func(*T) error
}

func (h typedHandler[T]) Handle(m json.RawMessage) error {
	var v T
	if err := json.Unmarshal(m, &v); err != nil {
		return err
	}
	return h.callback(&v)
}

// NewLockResultHandler handles lock-execution-result notifications.
func NewLockResultHandler(callback func(*common.LockExecutionResult) error) Handler {
	return typedHandler[common.LockExecutionResult]{callback}
}

// NewMultiScheduleHandler handles multi-schedule-result notifications.
func NewMultiScheduleHandler(callback func(*common.MultiScheduleResult) error) Handler {
	return typedHandler[common.MultiScheduleResult]{callback}
}

// NewScheduleExecutedHandler handles schedule-executed notifications.
func NewScheduleExecutedHandler(callback func(*common.ScheduleExecuted) error) Handler {
	return typedHandler[common.ScheduleExecuted]{callback}
}
