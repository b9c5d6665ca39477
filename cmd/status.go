package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/common"
)

var (
	statusAll bool

	statusFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "list the timers of every requester",
			Destination: &statusAll,
		},
	}
)

func status(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client := newClient(ctx, "status")
	if client == nil {
		return nil
	}
	defer client.Close()
	st, err := client.Status(statusAll)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "status", "status", err)
		return nil
	}
	fmt.Println(formatStatus(st, time.Now()))
	return nil
}

func formatStatus(st *common.StatusResponse, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s", st.StoreBackend)
	if !st.Durable {
		b.WriteString(" (not durable, timers are lost on restart)")
	}
	if len(st.Timers) == 0 {
		b.WriteString("\nNo armed timers.")
		return b.String()
	}
	timers := append([]common.TimerStatus(nil), st.Timers...)
	sort.Slice(timers, func(i, j int) bool {
		return timers[i].TargetTime.Before(timers[j].TargetTime)
	})
	for _, t := range timers {
		fmt.Fprintf(&b, "\n%-8s %-6s in %-9s at %s",
			t.Requester,
			t.Mode,
			cmdCommon.FormatCountdown(max(t.TargetTime.Sub(now), 0)),
			t.TargetTime.Local().Format("Jan 02 15:04:05"),
		)
		if t.ScheduleID != "" {
			fmt.Fprintf(&b, " [%s]", t.ScheduleID)
		}
	}
	return b.String()
}
