package nativehost

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/nativehost"
	"github.com/warpdl/warplock/pkg/lockcli"
)

// newClientFunc is replaced in tests.
var newClientFunc = func() (nativehost.Client, error) {
	return lockcli.NewClient(lockcli.Options{
		Requester: common.BrowserRequester,
		DaemonURI: os.Getenv("WARPLOCK_DAEMON_URI"),
		AutoStart: true,
	})
}

// run stays silent on stdout, which belongs to the browser; errors go to
// stderr where the browser logs them.
func run(c *cli.Context) error {
	client, err := newClientFunc()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to daemon: %v\n", err)
		return cli.NewExitError("failed to connect to daemon", 1)
	}
	defer client.Close()

	if err := nativehost.NewHost(client).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "native host error: %v\n", err)
		return cli.NewExitError("native host error", 1)
	}
	return nil
}
