package nativehost

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/internal/nativehost"
)

func status(c *cli.Context) error {
	installer, err := newInstaller("", "")
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get executable path: %v", err), 1)
	}

	fmt.Println("Native Messaging Host Status")
	fmt.Println("============================")
	fmt.Printf("Host Name: %s\n\n", nativehost.HostName)

	for _, b := range nativehost.SupportedBrowsers() {
		if installer.Installed(b) {
			fmt.Printf("%s: Installed\n", b)
			fmt.Printf("  Path: %s\n", installer.Path(b))
			continue
		}
		fmt.Printf("%s: Not installed\n", b)
	}
	return nil
}
