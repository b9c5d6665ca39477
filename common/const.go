package common

// UpdateType names a request method or a pushed notification on the
// daemon socket.
type UpdateType string

// Request methods accepted by the daemon.
const (
	UPDATE_START_LOCK_TIMER    UpdateType = "start-lock-timer"
	UPDATE_CANCEL_LOCK_TIMER   UpdateType = "cancel-lock-timer"
	UPDATE_SET_MULTI_SCHEDULES UpdateType = "set-multi-schedules"
	UPDATE_GET_SAVED_SCHEDULES UpdateType = "get-saved-schedules"
	UPDATE_GET_LAST_LOCK_TIME  UpdateType = "get-last-lock-time"
	UPDATE_ATTACH              UpdateType = "attach"
	UPDATE_STATUS              UpdateType = "status"
	UPDATE_VERSION             UpdateType = "version"
)

// Notifications pushed to requesters.
const (
	UPDATE_LOCK_EXECUTION_RESULT UpdateType = "lock-execution-result"
	UPDATE_MULTI_SCHEDULE_RESULT UpdateType = "multi-schedule-result"
	UPDATE_SCHEDULE_EXECUTED     UpdateType = "schedule-executed"
)

// Mode selects which timer set a request operates on.
type Mode string

const (
	// ModeSingle is a single countdown per requester; re-arming replaces it.
	ModeSingle Mode = "single"
	// ModeMulti is an ordered collection of schedules per requester.
	ModeMulti Mode = "multi"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMulti
}

// Modes lists every mode in a stable order.
var Modes = []Mode{ModeSingle, ModeMulti}

// Persisted keys in the schedule store.
const (
	KeyMultiSchedules = "multiSchedules"
	KeyLastLockTime   = "lastLockTime"
)

// DefaultRequester is the requester name used by the CLI when none is given.
const DefaultRequester = "cli"

// DefaultRPCRequester is the requester name used for JSON-RPC calls that
// do not name one.
const DefaultRPCRequester = "rpc"

// Messages delivered in multi-schedule-result notifications.
const (
	MsgSchedulesSet     = "schedules set"
	MsgScheduleDeleted  = "schedule deleted"
	MsgTimerCancelled   = "lock timer cancelled"
	MsgNoValidSchedules = "no valid schedules"
)

// BrowserRequester names the timers armed through the native messaging
// host.
const BrowserRequester = "browser"
