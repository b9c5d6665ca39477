package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/warpdl/warplock/common"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Dir != dir {
		t.Errorf("Dir = %q", c.Dir)
	}
	if c.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q", c.Store.Backend)
	}
	if c.Engine.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", c.Engine.PollInterval)
	}
	if c.Engine.NotifyOnCancel || !c.Engine.RearmDaily || !c.Engine.RestoreOnStart {
		t.Errorf("unexpected engine flags %+v", c.Engine)
	}
	if c.Engine.RestoreRequester != common.DefaultRequester {
		t.Errorf("RestoreRequester = %q", c.Engine.RestoreRequester)
	}
	if c.RPC.Port != 0 || c.Server.MaxConnections != 64 {
		t.Errorf("unexpected rpc/server %+v %+v", c.RPC, c.Server)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	toml := `
[store]
backend = "json"

[engine]
poll_interval = "50ms"
notify_on_cancel = true

[lock]
command = ["xdg-screensaver", "lock"]

[rpc]
port = 3860

[log]
file = "daemon.log"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Store.Backend != "json" || c.Engine.PollInterval != 50*time.Millisecond || !c.Engine.NotifyOnCancel {
		t.Errorf("file values not applied: %+v", c)
	}
	if len(c.Lock.Command) != 2 || c.Lock.Command[0] != "xdg-screensaver" {
		t.Errorf("Lock.Command = %v", c.Lock.Command)
	}
	if c.RPC.Port != 3860 {
		t.Errorf("RPC.Port = %d", c.RPC.Port)
	}
	if c.LogPath() != filepath.Join(dir, "daemon.log") {
		t.Errorf("LogPath = %q", c.LogPath())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WARPLOCK_STORE_BACKEND", "memory")
	t.Setenv("WARPLOCK_ENGINE_REARM_DAILY", "false")
	t.Setenv(common.DebugEnv, "1")
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Store.Backend != "memory" || c.Engine.RearmDaily || !c.Log.Debug {
		t.Errorf("env overrides not applied: %+v", c)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, FileName), []byte("[store]\nbackend = \"etcd\"\n"), 0o644)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error")
	}

	bad := t.TempDir()
	_ = os.WriteFile(filepath.Join(bad, FileName), []byte("[store\n"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDirFromEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "warplock")
	t.Setenv(common.ConfigDirEnv, want)
	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if got != want {
		t.Errorf("Dir() = %q; want %q", got, want)
	}
	if st, err := os.Stat(got); err != nil || !st.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}
