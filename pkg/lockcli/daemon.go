package lockcli

import (
	"fmt"
	"time"
)

const (
	daemonStartTimeout = 3 * time.Second
	socketPollInterval = 50 * time.Millisecond
)

// spawnFunc is replaced in tests.
var spawnFunc = spawnDaemon

// ensureDaemon spawns the daemon if it does not accept connections and
// waits for it to come up.
func ensureDaemon() error {
	if isDaemonRunning() {
		return nil
	}
	if err := spawnFunc(); err != nil {
		return err
	}
	return waitForDaemon(daemonStartTimeout)
}

func isDaemonRunning() bool {
	conn, err := dial()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// waitForDaemon polls until the daemon accepts connections or timeout
// expires.
func waitForDaemon(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isDaemonRunning() {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
