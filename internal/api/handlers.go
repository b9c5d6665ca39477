package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/server"
)

// decode unmarshals an optional request body into v.
func decode(body json.RawMessage, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}

func (s *Api) startLockTimerHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.StartLockTimerParams
	if err := decode(body, &m); err != nil {
		return common.UPDATE_START_LOCK_TIMER, nil, err
	}
	m.Requester = requesterOrDefault(m.Requester)
	pool.Add(m.Requester, sconn)
	res, err := s.StartLockTimer(m)
	if err != nil {
		return common.UPDATE_START_LOCK_TIMER, nil, err
	}
	return common.UPDATE_START_LOCK_TIMER, res, nil
}

func (s *Api) cancelLockTimerHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.CancelLockTimerParams
	if err := decode(body, &m); err != nil {
		return common.UPDATE_CANCEL_LOCK_TIMER, nil, err
	}
	m.Requester = requesterOrDefault(m.Requester)
	pool.Add(m.Requester, sconn)
	if err := s.CancelLockTimer(m); err != nil {
		return common.UPDATE_CANCEL_LOCK_TIMER, nil, err
	}
	return common.UPDATE_CANCEL_LOCK_TIMER, nil, nil
}

func (s *Api) setMultiSchedulesHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.SetMultiSchedulesParams
	err := decode(body, &m)
	m.Requester = requesterOrDefault(m.Requester)
	pool.Add(m.Requester, sconn)
	if err != nil {
		s.engine.RejectMulti(m.Requester, err)
		return common.UPDATE_SET_MULTI_SCHEDULES, nil, err
	}
	res, err := s.SetMultiSchedules(m)
	if err != nil {
		return common.UPDATE_SET_MULTI_SCHEDULES, nil, err
	}
	return common.UPDATE_SET_MULTI_SCHEDULES, res, nil
}

func (s *Api) getSavedSchedulesHandler(_ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	res, err := s.SavedSchedules()
	if err != nil {
		return common.UPDATE_GET_SAVED_SCHEDULES, nil, err
	}
	return common.UPDATE_GET_SAVED_SCHEDULES, res, nil
}

func (s *Api) getLastLockTimeHandler(_ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	res, err := s.LastLockTime()
	if err != nil {
		return common.UPDATE_GET_LAST_LOCK_TIME, nil, err
	}
	return common.UPDATE_GET_LAST_LOCK_TIME, res, nil
}

// attachHandler keeps the connection registered for the notifications of
// the requester without arming anything.
func (s *Api) attachHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.RequesterParams
	if err := decode(body, &m); err != nil {
		return common.UPDATE_ATTACH, nil, err
	}
	m.Requester = requesterOrDefault(m.Requester)
	pool.Add(m.Requester, sconn)
	return common.UPDATE_ATTACH, s.Status(m.Requester), nil
}

func (s *Api) statusHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.RequesterParams
	if err := decode(body, &m); err != nil {
		return common.UPDATE_STATUS, nil, err
	}
	return common.UPDATE_STATUS, s.Status(m.Requester), nil
}

func (s *Api) versionHandler(_ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_VERSION, s.Version(), nil
}
