package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/warpdl/warplock/internal/config"
	"github.com/warpdl/warplock/pkg/logger"
)

func TestNewDaemonLoggerWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Dir: dir}
	cfg.Log.File = "daemon.log"
	cfg.Log.MaxSizeMB = 1

	l := newDaemonLogger(cfg)
	if _, ok := l.(*logger.MultiLogger); !ok {
		t.Fatalf("expected a MultiLogger, got %T", l)
	}
	captureOutput(func() {
		l.Info("daemon: hello %d", 42)
	})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "daemon.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "daemon: hello 42") {
		t.Fatalf("log file missing entry: %q", data)
	}
}
