package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/internal/config"
	daemonpkg "github.com/warpdl/warplock/internal/daemon"
	"github.com/warpdl/warplock/pkg/logger"
)

func daemon(ctx *cli.Context) error {
	dir, err := config.Dir()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "daemon", "config_dir", err)
		return nil
	}
	cfg, err := config.Load(dir)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	if pid, err := ReadPidFile(); err == nil && pid != os.Getpid() && isProcessRunning(pid) {
		fmt.Printf("Daemon is already running (PID %d)\n", pid)
		return nil
	}

	l := newDaemonLogger(cfg)
	defer l.Close()

	if err := WritePidFile(); err != nil {
		l.Warning("daemon: writing pid file: %v", err)
	}
	defer func() {
		if err := RemovePidFile(); err != nil {
			l.Warning("daemon: removing pid file: %v", err)
		}
	}()

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	r := daemonpkg.New(l, cfg, daemonpkg.BuildInfo{
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	}, nil)
	l.Info("daemon: starting warplock %s (config %s)", currentBuildArgs.Version, cfg.Dir)
	err = r.Start(sctx)
	l.Info("daemon: stopped")
	return err
}

// newDaemonLogger logs to stderr, to the rotating log file when one is
// configured and to the platform log when available.
func newDaemonLogger(cfg *config.Config) logger.Logger {
	loggers := []logger.Logger{
		logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags)),
	}
	if path := cfg.LogPath(); path != "" {
		loggers = append(loggers, logger.NewFileLogger(logger.FileOptions{
			Path:       path,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}))
	}
	loggers = append(loggers, platformLoggers()...)
	if len(loggers) == 1 {
		return loggers[0]
	}
	return logger.NewMultiLogger(loggers...)
}
