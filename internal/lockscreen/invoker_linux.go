//go:build linux

package lockscreen

import (
	"context"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest      = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	login1Manager   = "org.freedesktop.login1.Manager"
	login1LockCall  = "org.freedesktop.login1.Session.Lock"
	sessionIDEnvVar = "XDG_SESSION_ID"
)

// LoginSession locks a logind session over the system bus.
type LoginSession struct {
	// SessionID selects the session; empty asks logind for the caller's.
	SessionID string
}

func (l LoginSession) Invoke(ctx context.Context) Result {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return failure(fmt.Errorf("failed to connect to system bus: %w", err))
	}
	defer conn.Close()

	path, err := l.sessionPath(ctx, conn.Object(login1Dest, login1Path))
	if err != nil {
		return failure(err)
	}
	if err := conn.Object(login1Dest, path).CallWithContext(ctx, login1LockCall, 0).Err; err != nil {
		return failure(fmt.Errorf("could not lock session: %w", err))
	}
	return Result{Success: true}
}

func (l LoginSession) sessionPath(ctx context.Context, mgr dbus.BusObject) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	var err error
	if l.SessionID != "" {
		err = mgr.CallWithContext(ctx, login1Manager+".GetSession", 0, l.SessionID).Store(&path)
	} else {
		err = mgr.CallWithContext(ctx, login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
		if err != nil {
			// not started from inside a session; use the user's display session
			err = mgr.CallWithContext(ctx, login1Manager+".GetSession", 0, "auto").Store(&path)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to find session object: %w", err)
	}
	return path, nil
}

func platformInvoker() Invoker {
	return Fallback{
		Primary:   LoginSession{SessionID: os.Getenv(sessionIDEnvVar)},
		Secondary: NewCommand("loginctl", "lock-session"),
	}
}
