package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/common"
)

var (
	cancelMode string

	cancelFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "mode, m",
			Usage:       "cancel only the single countdown or the multi schedules (single|multi)",
			Destination: &cancelMode,
		},
	}
)

func cancel(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	mode := common.Mode(cancelMode)
	if mode != "" && !mode.Valid() {
		return cmdCommon.PrintErrWithCmdHelp(ctx, fmt.Errorf("unknown mode %q", cancelMode))
	}
	client := newClient(ctx, "cancel")
	if client == nil {
		return nil
	}
	defer client.Close()
	if err := client.CancelLockTimer(mode); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "cancel", "cancel_lock_timer", err)
		return nil
	}
	fmt.Println("Lock timers cancelled.")
	return nil
}
