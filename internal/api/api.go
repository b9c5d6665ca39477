// Package api implements the daemon operations on top of the timer engine
// and exposes them as socket handlers and as a server.LockService.
package api

import (
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/engine"
	"github.com/warpdl/warplock/internal/server"
	"github.com/warpdl/warplock/internal/store"
	"github.com/warpdl/warplock/pkg/logger"
)

// Options configures an Api.
type Options struct {
	Log    logger.Logger
	Engine *engine.Engine
	Store  store.Store
	// Durable is false when the daemon runs on the in-memory store.
	Durable   bool
	Version   string
	Commit    string
	BuildType string
}

type Api struct {
	log       logger.Logger
	engine    *engine.Engine
	store     store.Store
	durable   bool
	version   string
	commit    string
	buildType string
}

var _ server.LockService = (*Api)(nil)

func NewApi(opts Options) *Api {
	l := opts.Log
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Api{
		log:       l,
		engine:    opts.Engine,
		store:     opts.Store,
		durable:   opts.Durable,
		version:   opts.Version,
		commit:    opts.Commit,
		buildType: opts.BuildType,
	}
}

func (s *Api) RegisterHandlers(server *server.Server) {
	// timer methods
	server.RegisterHandler(common.UPDATE_START_LOCK_TIMER, s.startLockTimerHandler)
	server.RegisterHandler(common.UPDATE_CANCEL_LOCK_TIMER, s.cancelLockTimerHandler)
	server.RegisterHandler(common.UPDATE_SET_MULTI_SCHEDULES, s.setMultiSchedulesHandler)

	// store queries
	server.RegisterHandler(common.UPDATE_GET_SAVED_SCHEDULES, s.getSavedSchedulesHandler)
	server.RegisterHandler(common.UPDATE_GET_LAST_LOCK_TIME, s.getLastLockTimeHandler)

	// connection and daemon info
	server.RegisterHandler(common.UPDATE_ATTACH, s.attachHandler)
	server.RegisterHandler(common.UPDATE_STATUS, s.statusHandler)
	server.RegisterHandler(common.UPDATE_VERSION, s.versionHandler)
}

// Close stops every timer and closes the store.
func (s *Api) Close() error {
	s.engine.Shutdown()
	return s.store.Close()
}

type degrader interface {
	Degraded() bool
}

func (s *Api) isDurable() bool {
	if !s.durable {
		return false
	}
	if d, ok := s.store.(degrader); ok {
		return !d.Degraded()
	}
	return true
}
