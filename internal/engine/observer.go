package engine

import (
	"time"

	"github.com/warpdl/warplock/common"
)

// Notifier delivers events to the requester that owns a timer set.
type Notifier interface {
	Notify(requester string, kind common.UpdateType, payload any)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(requester string, kind common.UpdateType, payload any)

func (f NotifierFunc) Notify(requester string, kind common.UpdateType, payload any) {
	f(requester, kind, payload)
}

// Observer receives engine events for instrumentation.
type Observer interface {
	TimerArmed(mode common.Mode)
	TimerCancelled(mode common.Mode)
	// TimerFired reports how far past its target a timer fired.
	TimerFired(mode common.Mode, late time.Duration)
	LockAttempted(success bool, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) TimerArmed(common.Mode)                {}
func (nopObserver) TimerCancelled(common.Mode)            {}
func (nopObserver) TimerFired(common.Mode, time.Duration) {}
func (nopObserver) LockAttempted(bool, time.Duration)     {}

type nopNotifier struct{}

func (nopNotifier) Notify(string, common.UpdateType, any) {}
