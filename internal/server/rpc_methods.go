package server

import (
	"context"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/engine"
)

// Custom JSON-RPC error codes.
const (
	codeEngineClosed  = jrpc2.Code(-32001)
	codeInvalidParams = jrpc2.Code(-32602)
)

// LockService is the daemon API shared by the socket handlers and the
// JSON-RPC methods.
type LockService interface {
	StartLockTimer(p common.StartLockTimerParams) (*common.StartLockTimerResponse, error)
	CancelLockTimer(p common.CancelLockTimerParams) error
	SetMultiSchedules(p common.SetMultiSchedulesParams) (*common.SetMultiSchedulesResponse, error)
	SavedSchedules() (*common.SavedSchedulesResponse, error)
	LastLockTime() (*common.LastLockTimeResponse, error)
	// Status lists the timers of requester, or every timer when requester
	// is empty.
	Status(requester string) *common.StatusResponse
	Version() *common.VersionResponse
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

type rpcMethods struct {
	svc LockService
	obs RequestObserver
}

func newRPCMethods(svc LockService, obs RequestObserver) handler.Map {
	rm := &rpcMethods{svc: svc, obs: obs}
	return handler.Map{
		"system.getVersion": handler.New(rm.systemGetVersion),
		"daemon.status":     handler.New(rm.daemonStatus),
		"lock.start":        handler.New(rm.lockStart),
		"lock.cancel":       handler.New(rm.lockCancel),
		"lock.lastTime":     handler.New(rm.lockLastTime),
		"schedules.set":     handler.New(rm.schedulesSet),
		"schedules.get":     handler.New(rm.schedulesGet),
	}
}

func (rm *rpcMethods) seen(method string) {
	rm.obs.RequestHandled(method, "jsonrpc")
}

func (rm *rpcMethods) systemGetVersion(_ context.Context) (*common.VersionResponse, error) {
	rm.seen("system.getVersion")
	return rm.svc.Version(), nil
}

func (rm *rpcMethods) daemonStatus(_ context.Context) (*common.StatusResponse, error) {
	rm.seen("daemon.status")
	return rm.svc.Status(""), nil
}

func (rm *rpcMethods) lockStart(_ context.Context, p *common.StartLockTimerParams) (*common.StartLockTimerResponse, error) {
	rm.seen("lock.start")
	if p.Requester == "" {
		p.Requester = common.DefaultRPCRequester
	}
	res, err := rm.svc.StartLockTimer(*p)
	if err != nil {
		return nil, rpcError(err)
	}
	return res, nil
}

func (rm *rpcMethods) lockCancel(_ context.Context, p *common.CancelLockTimerParams) (*EmptyResult, error) {
	rm.seen("lock.cancel")
	if p.Requester == "" {
		p.Requester = common.DefaultRPCRequester
	}
	if err := rm.svc.CancelLockTimer(*p); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rm *rpcMethods) lockLastTime(_ context.Context) (*common.LastLockTimeResponse, error) {
	rm.seen("lock.lastTime")
	res, err := rm.svc.LastLockTime()
	if err != nil {
		return nil, rpcError(err)
	}
	return res, nil
}

func (rm *rpcMethods) schedulesSet(_ context.Context, p *common.SetMultiSchedulesParams) (*common.SetMultiSchedulesResponse, error) {
	rm.seen("schedules.set")
	if p.Requester == "" {
		p.Requester = common.DefaultRPCRequester
	}
	res, err := rm.svc.SetMultiSchedules(*p)
	if err != nil {
		return nil, rpcError(err)
	}
	return res, nil
}

func (rm *rpcMethods) schedulesGet(_ context.Context) (*common.SavedSchedulesResponse, error) {
	rm.seen("schedules.get")
	res, err := rm.svc.SavedSchedules()
	if err != nil {
		return nil, rpcError(err)
	}
	return res, nil
}

func rpcError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidDelay),
		errors.Is(err, engine.ErrInvalidSchedules),
		errors.Is(err, engine.ErrUnknownMode):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, engine.ErrEngineClosed):
		return &jrpc2.Error{Code: codeEngineClosed, Message: err.Error()}
	default:
		return err
	}
}
