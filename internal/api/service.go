package api

import (
	"fmt"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/engine"
	"github.com/warpdl/warplock/internal/store"
	"github.com/warpdl/warplock/pkg/schedule"
)

func requesterOrDefault(r string) string {
	if r == "" {
		return common.DefaultRequester
	}
	return r
}

// StartLockTimer arms the single countdown of the requester.
func (s *Api) StartLockTimer(p common.StartLockTimerParams) (*common.StartLockTimerResponse, error) {
	delay, err := engine.DelayFromSeconds(p.DelaySeconds)
	if err != nil {
		return nil, err
	}
	target, err := s.engine.ArmSingle(requesterOrDefault(p.Requester), delay)
	if err != nil {
		return nil, err
	}
	return &common.StartLockTimerResponse{TargetTime: target}, nil
}

// CancelLockTimer cancels the timers of the requester in p.Mode, or in
// every mode when it is empty.
func (s *Api) CancelLockTimer(p common.CancelLockTimerParams) error {
	return s.engine.Cancel(requesterOrDefault(p.Requester), p.Mode)
}

// SetMultiSchedules replaces the multi-mode schedules of the requester.
func (s *Api) SetMultiSchedules(p common.SetMultiSchedulesParams) (*common.SetMultiSchedulesResponse, error) {
	requester := requesterOrDefault(p.Requester)
	if p.Mode != "" && p.Mode != common.ModeMulti {
		err := fmt.Errorf("%w: set-multi-schedules requires mode %q, got %q", engine.ErrUnknownMode, common.ModeMulti, p.Mode)
		s.engine.RejectMulti(requester, err)
		return nil, err
	}
	n, err := s.engine.ArmMulti(requester, p.Schedules, engine.MultiOptions{
		IsDelete: p.IsDelete,
		IsSilent: p.IsSilent,
	})
	if err != nil {
		return nil, err
	}
	return &common.SetMultiSchedulesResponse{Armed: n}, nil
}

// SavedSchedules returns the persisted schedule list.
func (s *Api) SavedSchedules() (*common.SavedSchedulesResponse, error) {
	l, err := store.LoadSchedules(s.store)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = schedule.List{}
	}
	return &common.SavedSchedulesResponse{Schedules: l}, nil
}

// LastLockTime returns the time of the last successful lock.
func (s *Api) LastLockTime() (*common.LastLockTimeResponse, error) {
	t, err := store.LastLockTime(s.store)
	if err != nil {
		return nil, err
	}
	return &common.LastLockTimeResponse{LastLockTime: t}, nil
}

// Status lists armed timers and the store in use.
func (s *Api) Status(requester string) *common.StatusResponse {
	var timers []common.TimerStatus
	if requester == "" {
		timers = s.engine.Snapshot()
	} else {
		for _, m := range common.Modes {
			timers = append(timers, s.engine.Active(requester, m)...)
		}
	}
	if timers == nil {
		timers = []common.TimerStatus{}
	}
	return &common.StatusResponse{
		Timers:       timers,
		StoreBackend: s.store.Name(),
		Durable:      s.isDurable(),
	}
}

func (s *Api) Version() *common.VersionResponse {
	return &common.VersionResponse{
		Version: s.version,
		Commit:  s.commit,
		Type:    s.buildType,
	}
}
