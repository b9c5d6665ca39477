package engine

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/warpdl/warplock/common"
)

// handle is one armed timer. Its fields are guarded by Engine.mu.
type handle struct {
	mode       common.Mode
	requester  string
	scheduleID string
	isDaily    bool
	target     time.Time
	// occurrence is the stored scheduledTime a multi-mode handle was
	// armed for.
	occurrence time.Time

	timer   *clock.Timer
	stopped bool
}

func (h *handle) stop() {
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

// timerSet is the collection of handles owned by one (mode, requester).
// Single mode holds at most one handle.
type timerSet struct {
	handles []*handle
}

func (s *timerSet) stopAll() {
	for _, h := range s.handles {
		h.stop()
	}
	s.handles = nil
}

func (s *timerSet) remove(h *handle) {
	for i, x := range s.handles {
		if x == h {
			s.handles = append(s.handles[:i], s.handles[i+1:]...)
			return
		}
	}
}
