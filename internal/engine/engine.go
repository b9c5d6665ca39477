// Package engine arms, cancels and fires screen-lock timers.
//
// Timers are grouped into sets keyed by mode and requester. Each timer
// polls its absolute target at a bounded interval instead of sleeping for
// the whole delay, so a suspended machine or a drifting clock delays a lock
// by at most one poll interval after the target is reached.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/lockscreen"
	"github.com/warpdl/warplock/internal/store"
	"github.com/warpdl/warplock/pkg/logger"
	"github.com/warpdl/warplock/pkg/schedule"
)

const (
	// MaxPollInterval caps the time between two checks of a target.
	MaxPollInterval = 100 * time.Millisecond

	defaultLockTimeout = 30 * time.Second
)

// Options configures an Engine. Store and Invoker are required.
type Options struct {
	Clock    clock.Clock
	Store    store.Store
	Invoker  lockscreen.Invoker
	Notifier Notifier
	Observer Observer
	Log      logger.Logger

	// PollInterval is clamped to (0, MaxPollInterval].
	PollInterval time.Duration
	// LockTimeout bounds a single lock attempt.
	LockTimeout time.Duration
	// NotifyOnCancel sends a failed lock-execution-result when a timer set
	// is cancelled.
	NotifyOnCancel bool
	// RearmDaily arms the next occurrence of a daily schedule after it
	// fires.
	RearmDaily bool
}

// MultiOptions modifies a set-multi-schedules request.
type MultiOptions struct {
	// IsDelete marks the request as removing a schedule from the list.
	IsDelete bool
	// IsSilent suppresses the success notification.
	IsSilent bool
}

// Engine owns every armed timer of the daemon.
type Engine struct {
	clk     clock.Clock
	store   store.Store
	invoker lockscreen.Invoker
	notify  Notifier
	obs     Observer
	log     logger.Logger

	poll           time.Duration
	lockTimeout    time.Duration
	notifyOnCancel bool
	rearmDaily     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	sets   map[common.Mode]map[string]*timerSet
	closed bool
}

// New creates an engine with no armed timers.
func New(opts Options) *Engine {
	e := &Engine{
		clk:            opts.Clock,
		store:          opts.Store,
		invoker:        opts.Invoker,
		notify:         opts.Notifier,
		obs:            opts.Observer,
		log:            opts.Log,
		poll:           opts.PollInterval,
		lockTimeout:    opts.LockTimeout,
		notifyOnCancel: opts.NotifyOnCancel,
		rearmDaily:     opts.RearmDaily,
		sets:           make(map[common.Mode]map[string]*timerSet),
	}
	if e.clk == nil {
		e.clk = clock.New()
	}
	if e.notify == nil {
		e.notify = nopNotifier{}
	}
	if e.obs == nil {
		e.obs = nopObserver{}
	}
	if e.log == nil {
		e.log = logger.NewNopLogger()
	}
	if e.poll <= 0 || e.poll > MaxPollInterval {
		e.poll = MaxPollInterval
	}
	if e.lockTimeout <= 0 {
		e.lockTimeout = defaultLockTimeout
	}
	for _, m := range common.Modes {
		e.sets[m] = make(map[string]*timerSet)
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// DelayFromSeconds converts a countdown in seconds, rejecting values that
// are not finite and positive or that overflow a time.Duration.
func DelayFromSeconds(sec float64) (time.Duration, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 {
		return 0, ErrInvalidDelay
	}
	if sec > float64(math.MaxInt64/int64(time.Second)) {
		return 0, ErrInvalidDelay
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// ArmSingle replaces the single-mode countdown of requester with one due
// after delay and returns its target time.
func (e *Engine) ArmSingle(requester string, delay time.Duration) (time.Time, error) {
	if delay <= 0 {
		return time.Time{}, ErrInvalidDelay
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return time.Time{}, ErrEngineClosed
	}
	e.cancelLocked(common.ModeSingle, requester)
	now := e.clk.Now()
	h := &handle{mode: common.ModeSingle, requester: requester, target: now.Add(delay)}
	e.addLocked(h, now)
	e.log.Info("engine: %s armed single countdown for %s", requester, delay)
	return h.target, nil
}

// Cancel stops every timer of requester in mode. An empty mode cancels
// all modes. Cancelling nothing is not an error.
func (e *Engine) Cancel(requester string, mode common.Mode) error {
	modes := common.Modes
	if mode != "" {
		if !mode.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
		modes = []common.Mode{mode}
	}
	var cancelled []common.Mode
	e.mu.Lock()
	for _, m := range modes {
		if e.cancelLocked(m, requester) {
			cancelled = append(cancelled, m)
		}
	}
	e.mu.Unlock()

	for _, m := range cancelled {
		e.log.Info("engine: %s cancelled %s timers", requester, m)
		if e.notifyOnCancel {
			e.notify.Notify(requester, common.UPDATE_LOCK_EXECUTION_RESULT, common.LockExecutionResult{
				Error: common.MsgTimerCancelled,
				Mode:  m,
			})
		}
	}
	return nil
}

// ArmMulti persists raw as the schedule list and replaces the multi-mode
// timers of requester with one timer per valid schedule. It returns the
// number of timers armed.
//
// raw must be a JSON array. Entries whose time is not a finite positive
// number are stored but not armed. A list without valid entries leaves
// requester with no timers and sends no notification.
func (e *Engine) ArmMulti(requester string, raw json.RawMessage, opts MultiOptions) (int, error) {
	list, err := decodeList(raw)
	if err != nil {
		e.RejectMulti(requester, err)
		return 0, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrEngineClosed
	}
	now := e.clk.Now()
	list.EnsureIDs()
	list.Stamp(now)
	e.saveLocked(list)
	e.cancelLocked(common.ModeMulti, requester)

	valid := list.Valid()
	for _, s := range valid {
		d, _ := s.Delay()
		e.addLocked(&handle{
			mode:       common.ModeMulti,
			requester:  requester,
			scheduleID: s.ID,
			isDaily:    s.IsDaily,
			target:     now.Add(d),
			occurrence: *s.ScheduledTime,
		}, now)
	}
	e.mu.Unlock()

	if len(valid) == 0 {
		e.log.Info("engine: %s submitted %d schedules, none valid", requester, len(list))
		return 0, nil
	}
	e.log.Info("engine: %s armed %d of %d schedules", requester, len(valid), len(list))
	if !opts.IsSilent {
		msg := common.MsgSchedulesSet
		if opts.IsDelete {
			msg = common.MsgScheduleDeleted
		}
		e.notify.Notify(requester, common.UPDATE_MULTI_SCHEDULE_RESULT, common.MultiScheduleResult{
			Success:           true,
			Message:           msg,
			FromMultiSchedule: true,
		})
	}
	return len(valid), nil
}

// RejectMulti sends requester a failed multi-schedule-result for a
// request that could not be applied.
func (e *Engine) RejectMulti(requester string, err error) {
	e.notify.Notify(requester, common.UPDATE_MULTI_SCHEDULE_RESULT, common.MultiScheduleResult{
		Error:             err.Error(),
		FromMultiSchedule: true,
	})
}

// Restore re-arms the persisted schedule list for requester. Daily entries
// that were missed roll forward to their next occurrence and missed
// one-shot entries are dropped; the healed list is persisted.
func (e *Engine) Restore(requester string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrEngineClosed
	}
	list, err := store.LoadSchedules(e.store)
	if err != nil {
		return 0, err
	}
	now := e.clk.Now()
	healed, changed := list.Heal(now)
	if changed {
		e.saveLocked(healed)
	}
	e.cancelLocked(common.ModeMulti, requester)
	n := 0
	for _, s := range healed {
		if !s.Valid() || s.ID == "" || s.ScheduledTime == nil {
			continue
		}
		e.addLocked(&handle{
			mode:       common.ModeMulti,
			requester:  requester,
			scheduleID: s.ID,
			isDaily:    s.IsDaily,
			target:     *s.ScheduledTime,
			occurrence: *s.ScheduledTime,
		}, now)
		n++
	}
	if n > 0 {
		e.log.Info("engine: restored %d schedules for %s", n, requester)
	}
	return n, nil
}

// Shutdown stops every timer and waits for lock attempts in flight to
// finish. Arming after Shutdown fails with ErrEngineClosed.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, sets := range e.sets {
		for requester, set := range sets {
			set.stopAll()
			delete(sets, requester)
		}
	}
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

// Active returns the timers of requester in mode, in arming order.
func (e *Engine) Active(requester string, mode common.Mode) []common.TimerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.sets[mode][requester]
	if set == nil {
		return nil
	}
	out := make([]common.TimerStatus, 0, len(set.handles))
	for _, h := range set.handles {
		out = append(out, h.status())
	}
	return out
}

// Snapshot returns every armed timer ordered by target time.
func (e *Engine) Snapshot() []common.TimerStatus {
	e.mu.Lock()
	var out []common.TimerStatus
	for _, sets := range e.sets {
		for _, set := range sets {
			for _, h := range set.handles {
				out = append(out, h.status())
			}
		}
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].TargetTime.Before(out[j].TargetTime)
	})
	return out
}

// Count returns the number of armed timers in mode.
func (e *Engine) Count(mode common.Mode) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, set := range e.sets[mode] {
		n += len(set.handles)
	}
	return n
}

func (h *handle) status() common.TimerStatus {
	return common.TimerStatus{
		Requester:  h.requester,
		Mode:       h.mode,
		ScheduleID: h.scheduleID,
		TargetTime: h.target,
	}
}

// addLocked registers h in its set and starts polling.
func (e *Engine) addLocked(h *handle, now time.Time) {
	sets := e.sets[h.mode]
	set := sets[h.requester]
	if set == nil {
		set = &timerSet{}
		sets[h.requester] = set
	}
	set.handles = append(set.handles, h)
	e.scheduleLocked(h, now)
	e.obs.TimerArmed(h.mode)
}

func (e *Engine) scheduleLocked(h *handle, now time.Time) {
	wait := h.target.Sub(now)
	if wait > e.poll {
		wait = e.poll
	}
	if wait < 0 {
		wait = 0
	}
	h.timer = e.clk.AfterFunc(wait, func() { e.tick(h) })
}

// cancelLocked stops and removes the set of requester in mode and reports
// whether one existed.
func (e *Engine) cancelLocked(mode common.Mode, requester string) bool {
	set := e.sets[mode][requester]
	if set == nil {
		return false
	}
	for range set.handles {
		e.obs.TimerCancelled(mode)
	}
	set.stopAll()
	delete(e.sets[mode], requester)
	return true
}

func (e *Engine) tick(h *handle) {
	e.mu.Lock()
	if h.stopped {
		e.mu.Unlock()
		return
	}
	now := e.clk.Now()
	if now.Before(h.target) {
		e.scheduleLocked(h, now)
		e.mu.Unlock()
		return
	}
	h.stopped = true
	if set := e.sets[h.mode][h.requester]; set != nil {
		set.remove(h)
		if len(set.handles) == 0 {
			delete(e.sets[h.mode], h.requester)
		}
	}
	if h.mode == common.ModeMulti && !e.pendingLocked(h) {
		e.obs.TimerCancelled(h.mode)
		e.mu.Unlock()
		e.log.Info("engine: schedule %s for %s was already handled", h.scheduleID, h.requester)
		return
	}
	e.obs.TimerFired(h.mode, now.Sub(h.target))
	e.startLockLocked(h)

	var executed *common.ScheduleExecuted
	if h.mode == common.ModeMulti {
		executed = e.applyFiredLocked(h, now)
	}
	e.mu.Unlock()

	if executed != nil {
		e.notify.Notify(h.requester, common.UPDATE_SCHEDULE_EXECUTED, *executed)
	}
}

// startLockLocked runs the lock invoker in the background. The result is
// recorded and delivered when it completes.
func (e *Engine) startLockLocked(h *handle) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, e.lockTimeout)
		defer cancel()
		start := time.Now()
		res := e.invoker.Invoke(ctx)
		e.obs.LockAttempted(res.Success, time.Since(start))
		if res.Success {
			e.log.Info("engine: screen locked for %s (%s)", h.requester, h.mode)
			if err := store.SetLastLockTime(e.store, e.clk.Now()); err != nil {
				e.log.Error("engine: failed to record lock time: %v", err)
			}
		} else {
			e.log.Error("engine: lock failed for %s (%s): %s", h.requester, h.mode, res.Error)
		}
		e.notify.Notify(h.requester, common.UPDATE_LOCK_EXECUTION_RESULT, common.LockExecutionResult{
			Success:    res.Success,
			Error:      res.Error,
			Mode:       h.mode,
			ScheduleID: h.scheduleID,
		})
	}()
}

// pendingLocked reports whether the occurrence h was armed for is still
// the stored one. Once any handle fires or replaces an occurrence, other
// handles armed for it are stale. An unreadable list counts as pending.
func (e *Engine) pendingLocked(h *handle) bool {
	list, err := store.LoadSchedules(e.store)
	if err != nil {
		return true
	}
	i := list.Index(h.scheduleID)
	if i < 0 {
		return false
	}
	at := list[i].ScheduledTime
	if at == nil || h.occurrence.IsZero() {
		return true
	}
	return at.UnixMilli() == h.occurrence.UnixMilli()
}

// applyFiredLocked updates the persisted list after the multi-mode
// handle h fired.
func (e *Engine) applyFiredLocked(h *handle, firedAt time.Time) *common.ScheduleExecuted {
	list, err := store.LoadSchedules(e.store)
	if err != nil {
		e.log.Error("engine: failed to load schedules: %v", err)
		return nil
	}
	i := list.Index(h.scheduleID)
	if i < 0 {
		e.log.Warning("engine: fired schedule %s is no longer stored", h.scheduleID)
		return nil
	}
	if !list[i].IsDaily {
		out := list.RemoveFired(h.scheduleID, firedAt)
		e.saveLocked(out)
		return &common.ScheduleExecuted{ScheduleID: h.scheduleID, UpdatedSchedules: out}
	}

	out, next, _ := list.AdvanceDaily(h.scheduleID, firedAt)
	if !next.After(firedAt) {
		// fired more than a day late
		next = schedule.NextDailyAfter(next, firedAt)
		out[out.Index(h.scheduleID)].ScheduledTime = &next
	}
	e.saveLocked(out)
	if e.rearmDaily && !e.closed {
		e.addLocked(&handle{
			mode:       common.ModeMulti,
			requester:  h.requester,
			scheduleID: h.scheduleID,
			isDaily:    true,
			target:     next,
			occurrence: next,
		}, firedAt)
	}
	return &common.ScheduleExecuted{ScheduleID: h.scheduleID, UpdatedSchedules: out, IsDaily: true}
}

func (e *Engine) saveLocked(l schedule.List) {
	if err := store.SaveSchedules(e.store, l); err != nil {
		e.log.Error("engine: failed to persist schedules: %v", err)
	}
}

func decodeList(raw json.RawMessage) (schedule.List, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidSchedules
	}
	var list schedule.List
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedules, err)
	}
	return list, nil
}
