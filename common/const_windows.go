//go:build windows

package common

import (
	"os"
	"strings"
)

const (
	// DefaultPipeName names the daemon pipe when WARPLOCK_PIPE_NAME is unset.
	DefaultPipeName = "warplock"

	pipePrefix = `\\.\pipe\`
)

func DefaultPipePath() string {
	return pipePrefix + DefaultPipeName
}

// PipePath returns the named pipe of the daemon. WARPLOCK_PIPE_NAME may
// hold a bare name or a full \\.\pipe\ path.
func PipePath() string {
	name := os.Getenv(PipeNameEnv)
	switch {
	case name == "":
		return DefaultPipePath()
	case strings.HasPrefix(name, pipePrefix):
		return name
	}
	return pipePrefix + name
}
