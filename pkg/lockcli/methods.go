package lockcli

import (
	"encoding/json"
	"time"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/schedule"
)

func invoke[T any](c *Client, method common.UpdateType, message any) (*T, error) {
	resp, err := c.invoke(method, message)
	if err != nil {
		return nil, err
	}
	var d T
	if len(resp) == 0 {
		return &d, nil
	}
	return &d, json.Unmarshal(resp, &d)
}

// StartLockTimer arms the single countdown of the requester.
func (c *Client) StartLockTimer(delay time.Duration) (*common.StartLockTimerResponse, error) {
	return invoke[common.StartLockTimerResponse](c, common.UPDATE_START_LOCK_TIMER, &common.StartLockTimerParams{
		Requester:    c.requester,
		DelaySeconds: delay.Seconds(),
	})
}

// CancelLockTimer cancels the timers of the requester in mode; an empty
// mode cancels every mode.
func (c *Client) CancelLockTimer(mode common.Mode) error {
	_, err := c.invoke(common.UPDATE_CANCEL_LOCK_TIMER, &common.CancelLockTimerParams{
		Requester: c.requester,
		Mode:      mode,
	})
	return err
}

type ScheduleOpts struct {
	IsDelete bool
	IsSilent bool
}

// SetMultiSchedules replaces the multi-mode schedules of the requester.
func (c *Client) SetMultiSchedules(list schedule.List, opts *ScheduleOpts) (*common.SetMultiSchedulesResponse, error) {
	if opts == nil {
		opts = &ScheduleOpts{}
	}
	if list == nil {
		list = schedule.List{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return invoke[common.SetMultiSchedulesResponse](c, common.UPDATE_SET_MULTI_SCHEDULES, &common.SetMultiSchedulesParams{
		Requester: c.requester,
		Schedules: raw,
		Mode:      common.ModeMulti,
		IsDelete:  opts.IsDelete,
		IsSilent:  opts.IsSilent,
	})
}

// GetSavedSchedules returns the persisted schedule list.
func (c *Client) GetSavedSchedules() (schedule.List, error) {
	res, err := invoke[common.SavedSchedulesResponse](c, common.UPDATE_GET_SAVED_SCHEDULES, nil)
	if err != nil {
		return nil, err
	}
	return res.Schedules, nil
}

// GetLastLockTime returns the last successful lock, or nil if none.
func (c *Client) GetLastLockTime() (*time.Time, error) {
	res, err := invoke[common.LastLockTimeResponse](c, common.UPDATE_GET_LAST_LOCK_TIME, nil)
	if err != nil {
		return nil, err
	}
	if res.LastLockTime == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *res.LastLockTime)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Attach registers the connection for the notifications of the requester
// and returns its armed timers.
func (c *Client) Attach() (*common.StatusResponse, error) {
	return invoke[common.StatusResponse](c, common.UPDATE_ATTACH, &common.RequesterParams{Requester: c.requester})
}

// Status returns the timers of the requester, or of every requester when
// all is set.
func (c *Client) Status(all bool) (*common.StatusResponse, error) {
	p := &common.RequesterParams{Requester: c.requester}
	if all {
		p.Requester = ""
	}
	return invoke[common.StatusResponse](c, common.UPDATE_STATUS, p)
}

// GetDaemonVersion returns the version of the running daemon.
func (c *Client) GetDaemonVersion() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, common.UPDATE_VERSION, nil)
}
