package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/lockcli"
	"github.com/warpdl/warplock/pkg/schedule"
)

// Client is the part of lockcli.Client the host relays to.
type Client interface {
	StartLockTimer(delay time.Duration) (*common.StartLockTimerResponse, error)
	CancelLockTimer(mode common.Mode) error
	SetMultiSchedules(list schedule.List, opts *lockcli.ScheduleOpts) (*common.SetMultiSchedulesResponse, error)
	GetSavedSchedules() (schedule.List, error)
	GetLastLockTime() (*time.Time, error)
	Attach() (*common.StatusResponse, error)
	Status(all bool) (*common.StatusResponse, error)
	GetDaemonVersion() (*common.VersionResponse, error)
	AddHandler(utype common.UpdateType, h lockcli.Handler)
	Close() error
}

var _ Client = (*lockcli.Client)(nil)

type StartParams struct {
	DelaySeconds float64 `json:"delaySeconds"`
}

type CancelParams struct {
	Mode common.Mode `json:"mode,omitempty"`
}

type SetMultiParams struct {
	Schedules schedule.List `json:"schedules"`
	IsDelete  bool          `json:"isDelete,omitempty"`
	IsSilent  bool          `json:"isSilent,omitempty"`
}

type StatusParams struct {
	All bool `json:"all,omitempty"`
}

type lastLockResult struct {
	LastLockTime *time.Time `json:"lastLockTime"`
}

type savedSchedulesResult struct {
	Schedules schedule.List `json:"schedules"`
}

// pushTypes are forwarded to the extension as they arrive.
var pushTypes = []common.UpdateType{
	common.UPDATE_LOCK_EXECUTION_RESULT,
	common.UPDATE_MULTI_SCHEDULE_RESULT,
	common.UPDATE_SCHEDULE_EXECUTED,
}

// Host is the native messaging host: it reads extension requests from
// stdin, relays them to the daemon and writes responses and daemon
// notifications to stdout.
type Host struct {
	client Client
	stdin  io.Reader
	stdout io.Writer
}

// NewHost creates a host on os.Stdin and os.Stdout.
func NewHost(client Client) *Host {
	return newHost(client, os.Stdin, os.Stdout)
}

func newHost(client Client, stdin io.Reader, stdout io.Writer) *Host {
	h := &Host{client: client, stdin: stdin, stdout: stdout}
	for _, utype := range pushTypes {
		client.AddHandler(utype, h.forward(utype))
	}
	return h
}

// forward writes a notification received while a request is in flight.
// Handlers run on the goroutine of Run, so writes never interleave.
func (h *Host) forward(utype common.UpdateType) lockcli.Handler {
	return lockcli.HandlerFunc(func(m json.RawMessage) error {
		return WriteMessage(h.stdout, MakePushMessage(utype, m))
	})
}

// Run serves requests until stdin is closed.
func (h *Host) Run() error {
	for {
		err := h.processOneMessage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *Host) processOneMessage() error {
	data, err := ReadMessage(h.stdin)
	if err != nil {
		return err
	}
	req, err := ParseRequest(data)
	if err != nil {
		return WriteMessage(h.stdout, MakeErrorResponse(0, fmt.Errorf("invalid request: %w", err)))
	}
	return WriteMessage(h.stdout, h.handleRequest(req))
}

func decodeParams(req *Request, v any) error {
	if len(req.Message) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Message, v); err != nil {
		return fmt.Errorf("invalid %s params: %w", req.Method, err)
	}
	return nil
}

func (h *Host) handleRequest(req *Request) []byte {
	var (
		result any
		err    error
	)
	switch common.UpdateType(req.Method) {
	case common.UPDATE_VERSION:
		result, err = h.client.GetDaemonVersion()

	case common.UPDATE_START_LOCK_TIMER:
		var p StartParams
		if err = decodeParams(req, &p); err != nil {
			return MakeErrorResponse(req.ID, err)
		}
		if p.DelaySeconds <= 0 || p.DelaySeconds > math.MaxInt64/float64(time.Second) {
			return MakeErrorResponse(req.ID, errors.New("delaySeconds must be a positive number"))
		}
		result, err = h.client.StartLockTimer(time.Duration(p.DelaySeconds * float64(time.Second)))

	case common.UPDATE_CANCEL_LOCK_TIMER:
		var p CancelParams
		if err = decodeParams(req, &p); err != nil {
			return MakeErrorResponse(req.ID, err)
		}
		if p.Mode != "" && !p.Mode.Valid() {
			return MakeErrorResponse(req.ID, fmt.Errorf("unknown mode: %s", p.Mode))
		}
		if err = h.client.CancelLockTimer(p.Mode); err == nil {
			result = map[string]bool{"success": true}
		}

	case common.UPDATE_SET_MULTI_SCHEDULES:
		var p SetMultiParams
		if err = decodeParams(req, &p); err != nil {
			return MakeErrorResponse(req.ID, err)
		}
		result, err = h.client.SetMultiSchedules(p.Schedules, &lockcli.ScheduleOpts{
			IsDelete: p.IsDelete,
			IsSilent: p.IsSilent,
		})

	case common.UPDATE_GET_SAVED_SCHEDULES:
		var list schedule.List
		if list, err = h.client.GetSavedSchedules(); err == nil {
			if list == nil {
				list = schedule.List{}
			}
			result = savedSchedulesResult{Schedules: list}
		}

	case common.UPDATE_GET_LAST_LOCK_TIME:
		var t *time.Time
		if t, err = h.client.GetLastLockTime(); err == nil {
			result = lastLockResult{LastLockTime: t}
		}

	case common.UPDATE_ATTACH:
		result, err = h.client.Attach()

	case common.UPDATE_STATUS:
		var p StatusParams
		if err = decodeParams(req, &p); err != nil {
			return MakeErrorResponse(req.ID, err)
		}
		result, err = h.client.Status(p.All)

	default:
		return MakeErrorResponse(req.ID, fmt.Errorf("unknown method: %s", req.Method))
	}

	if err != nil {
		return MakeErrorResponse(req.ID, err)
	}
	return MakeSuccessResponse(req.ID, result)
}
