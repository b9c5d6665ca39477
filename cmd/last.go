package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
)

func last(ctx *cli.Context) error {
	client := newClient(ctx, "last")
	if client == nil {
		return nil
	}
	defer client.Close()
	t, err := client.GetLastLockTime()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "last", "get_last_lock_time", err)
		return nil
	}
	if t == nil {
		fmt.Println("The screen has not been locked by warplock yet.")
		return nil
	}
	fmt.Printf("Last locked %s (%s ago).\n", t.Local().Format(time.RFC1123), time.Since(*t).Round(time.Second))
	return nil
}
