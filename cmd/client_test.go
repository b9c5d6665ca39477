package cmd

import (
	"errors"
	"testing"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/pkg/lockcli"
)

func TestNewClientPrintsError(t *testing.T) {
	old := newClientFunc
	var got lockcli.Options
	newClientFunc = func(opts lockcli.Options) (*lockcli.Client, error) {
		got = opts
		return nil, errors.New("connection refused")
	}
	defer func() { newClientFunc = old }()

	requester, daemonURI = "ext", "tcp://127.0.0.1:1"
	defer func() { requester, daemonURI = "", "" }()

	var client *lockcli.Client
	stdout, _ := captureOutput(func() {
		client = newClient(newContext(cli.NewApp(), nil, "start"), "start")
	})
	if client != nil {
		t.Fatal("expected nil client on error")
	}
	assertErrorFormat(t, stdout, "start", "new_client")
	if got.Requester != "ext" || got.DaemonURI != "tcp://127.0.0.1:1" {
		t.Fatalf("unexpected options: %+v", got)
	}
	if got.AutoStart {
		t.Fatalf("AutoStart must be off when %s is set", skipDaemonEnv)
	}
}

func TestVersionWithoutDaemon(t *testing.T) {
	old := newClientFunc
	newClientFunc = func(lockcli.Options) (*lockcli.Client, error) {
		return nil, errors.New("no daemon")
	}
	defer func() { newClientFunc = old }()
	cmdCommon.VersionCmdStr = "warplock 1.0.0"

	stdout, _ := captureOutput(func() {
		_ = version(newContext(cli.NewApp(), nil, "version"))
	})
	assertContains(t, stdout, "warplock 1.0.0")
	assertContains(t, stdout, "Daemon: not running")
}

func TestVersionWithDaemon(t *testing.T) {
	client := newTestClient(t, func(req daemonRequest) []string {
		return []string{`{"ok":true,"update":{"type":"version","message":{"version":"1.0.0","commit":"abc","type":"release"}}}`}
	})
	useTestClient(t, client)

	stdout, _ := captureOutput(func() {
		_ = version(newContext(cli.NewApp(), nil, "version"))
	})
	assertContains(t, stdout, "Daemon: 1.0.0-release (abc)")
}
