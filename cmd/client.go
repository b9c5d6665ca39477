package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/pkg/lockcli"
)

var (
	requester string
	daemonURI string

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "requester, r",
			Usage:       "name the timers of this client belong to",
			Value:       "",
			EnvVar:      "WARPLOCK_REQUESTER",
			Destination: &requester,
		},
		cli.StringFlag{
			Name:        "daemon-uri",
			Usage:       "daemon URI to connect to (e.g., tcp://localhost:3859, unix:///tmp/warplock.sock)",
			EnvVar:      "WARPLOCK_DAEMON_URI",
			Destination: &daemonURI,
		},
	}
)

// newClientFunc is replaced in tests.
var newClientFunc = lockcli.NewClient

// newClient connects to the daemon, starting it when no explicit URI was
// given. Errors are printed; the returned client is nil in that case.
func newClient(ctx *cli.Context, cmd string) *lockcli.Client {
	client, err := newClientFunc(lockcli.Options{
		Requester: requester,
		DaemonURI: daemonURI,
		AutoStart: os.Getenv(skipDaemonEnv) == "",
	})
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, cmd, "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(os.Stderr, currentBuildArgs.Version)
	return client
}

// skipDaemonEnv disables spawning the daemon from client commands.
const skipDaemonEnv = "WARPLOCK_NO_AUTOSTART"

func version(ctx *cli.Context) error {
	if err := cmdCommon.GetVersion(ctx); err != nil {
		return err
	}
	client, err := newClientFunc(lockcli.Options{Requester: requester, DaemonURI: daemonURI})
	if err != nil {
		fmt.Println("Daemon: not running")
		return nil
	}
	defer client.Close()
	v, err := client.GetDaemonVersion()
	if err != nil {
		fmt.Println("Daemon: unknown version:", err)
		return nil
	}
	fmt.Printf("Daemon: %s-%s (%s)\n", v.Version, v.Type, v.Commit)
	return nil
}
