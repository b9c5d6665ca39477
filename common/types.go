package common

import (
	"encoding/json"
	"time"

	"github.com/warpdl/warplock/pkg/schedule"
)

// StartLockTimerParams arms the single-mode countdown.
type StartLockTimerParams struct {
	Requester    string  `json:"requester,omitempty"`
	DelaySeconds float64 `json:"delaySeconds"`
}

// StartLockTimerResponse reports when the countdown is due.
type StartLockTimerResponse struct {
	TargetTime time.Time `json:"targetTime"`
}

// CancelLockTimerParams cancels the caller's timers. An empty Mode cancels
// every mode.
type CancelLockTimerParams struct {
	Requester string `json:"requester,omitempty"`
	Mode      Mode   `json:"mode,omitempty"`
}

// SetMultiSchedulesParams replaces the caller's multi-mode schedules.
// Schedules is kept raw so that malformed entries reach the store unchanged.
type SetMultiSchedulesParams struct {
	Requester string          `json:"requester,omitempty"`
	Schedules json.RawMessage `json:"schedules"`
	Mode      Mode            `json:"mode,omitempty"`
	IsDelete  bool            `json:"isDelete,omitempty"`
	IsSilent  bool            `json:"isSilent,omitempty"`
}

// SetMultiSchedulesResponse reports how many schedules were armed.
type SetMultiSchedulesResponse struct {
	Armed int `json:"armed"`
}

// RequesterParams carries only the caller identity.
type RequesterParams struct {
	Requester string `json:"requester,omitempty"`
}

// LockExecutionResult is pushed after every lock attempt.
type LockExecutionResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Mode       Mode   `json:"mode,omitempty"`
	ScheduleID string `json:"scheduleId,omitempty"`
}

// MultiScheduleResult acknowledges a set-multi-schedules request.
type MultiScheduleResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	FromMultiSchedule bool   `json:"fromMultiSchedule"`
}

// ScheduleExecuted is pushed after a multi-mode schedule fires.
type ScheduleExecuted struct {
	ScheduleID       string        `json:"scheduleId"`
	UpdatedSchedules schedule.List `json:"updatedSchedules"`
	IsDaily          bool          `json:"isDaily"`
}

// SavedSchedulesResponse returns the persisted schedule list.
type SavedSchedulesResponse struct {
	Schedules schedule.List `json:"schedules"`
}

// LastLockTimeResponse returns the last successful lock, or null.
type LastLockTimeResponse struct {
	LastLockTime *string `json:"lastLockTime"`
}

// TimerStatus describes one armed timer.
type TimerStatus struct {
	Requester  string    `json:"requester"`
	Mode       Mode      `json:"mode"`
	ScheduleID string    `json:"scheduleId,omitempty"`
	TargetTime time.Time `json:"targetTime"`
}

// StatusResponse lists every armed timer and the store backend in use.
type StatusResponse struct {
	Timers       []TimerStatus `json:"timers"`
	StoreBackend string        `json:"storeBackend"`
	Durable      bool          `json:"durable"`
}

// VersionResponse identifies the daemon build.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Type    string `json:"type,omitempty"`
}
