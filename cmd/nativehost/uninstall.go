package nativehost

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/internal/nativehost"
)

func uninstall(c *cli.Context) error {
	browsers, err := nativehost.ParseBrowser(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	installer, err := newInstaller("", "")
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get executable path: %v", err), 1)
	}

	var removed, errs []string
	for _, b := range browsers {
		if err := installer.Uninstall(b); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", b, err))
			continue
		}
		removed = append(removed, fmt.Sprintf("%s: removed (or was not installed)", b))
	}

	if len(removed) > 0 {
		fmt.Println("Uninstalled manifests:")
		for _, m := range removed {
			fmt.Printf("  %s\n", m)
		}
	}
	if len(errs) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errs {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}
