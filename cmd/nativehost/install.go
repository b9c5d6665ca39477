package nativehost

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/internal/nativehost"
)

func install(c *cli.Context) error {
	chromeID := c.String("chrome-extension-id")
	firefoxID := c.String("firefox-extension-id")
	if chromeID == "" && firefoxID == "" {
		return cli.NewExitError("at least one extension ID is required (--chrome-extension-id or --firefox-extension-id)", 1)
	}
	browsers, err := nativehost.ParseBrowser(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	installer, err := newInstaller(chromeID, firefoxID)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get executable path: %v", err), 1)
	}

	var installed, errs []string
	for _, b := range browsers {
		// browsers without a matching ID are skipped when installing for all
		if len(browsers) > 1 && ((b.IsFirefox() && firefoxID == "") || (!b.IsFirefox() && chromeID == "")) {
			continue
		}
		path, err := installer.Install(b)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", b, err))
			continue
		}
		installed = append(installed, fmt.Sprintf("%s: %s", b, path))
	}

	if len(installed) > 0 {
		fmt.Println("Installed manifests:")
		for _, m := range installed {
			fmt.Printf("  %s\n", m)
		}
	}
	if len(errs) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errs {
			fmt.Printf("  %s\n", e)
		}
		if len(installed) == 0 {
			return cli.NewExitError("installation failed", 1)
		}
	}
	return nil
}
