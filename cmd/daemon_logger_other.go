//go:build !windows

package cmd

import "github.com/warpdl/warplock/pkg/logger"

func platformLoggers() []logger.Logger {
	return nil
}
