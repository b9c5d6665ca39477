// Package nativehost provides the CLI commands that register and run the
// browser extension bridge.
package nativehost

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/internal/nativehost"
)

// Commands contains all native-host related subcommands.
var Commands = []cli.Command{
	{
		Name:   "install",
		Action: install,
		Usage:  "install native messaging manifest for browsers",
		Flags:  installFlags,
	},
	{
		Name:   "uninstall",
		Action: uninstall,
		Usage:  "remove native messaging manifest from browsers",
		Flags:  uninstallFlags,
	},
	{
		Name:   "run",
		Action: run,
		Usage:  "run native messaging host (called by browser)",
		Hidden: true,
	},
	{
		Name:   "status",
		Action: status,
		Usage:  "show installation status for all browsers",
	},
}

var browserFlag = cli.StringFlag{
	Name:  "browser",
	Usage: "browser to use (chrome, firefox, chromium, edge, brave, all)",
	Value: "all",
}

var installFlags = []cli.Flag{
	browserFlag,
	cli.StringFlag{
		Name:  "chrome-extension-id",
		Usage: "Chrome extension ID (required for Chrome-based browsers)",
	},
	cli.StringFlag{
		Name:  "firefox-extension-id",
		Usage: "Firefox extension ID (required for Firefox)",
	},
}

var uninstallFlags = []cli.Flag{browserFlag}

// newInstaller is replaced in tests.
var newInstaller = func(chromeID, firefoxID string) (*nativehost.ManifestInstaller, error) {
	hostPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &nativehost.ManifestInstaller{
		HostPath:           hostPath,
		ChromeExtensionID:  chromeID,
		FirefoxExtensionID: firefoxID,
	}, nil
}

// IsBrowserLaunch reports whether args come from a browser starting the
// host: Chrome passes the caller origin, Firefox the manifest path and the
// extension ID.
func IsBrowserLaunch(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return strings.HasPrefix(args[1], "chrome-extension://") ||
		filepath.Base(args[1]) == nativehost.HostName+".json"
}
