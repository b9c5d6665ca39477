package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/lockcli"
)

func watch(ctx *cli.Context) error {
	client := newClient(ctx, "watch")
	if client == nil {
		return nil
	}
	defer client.Close()
	registerWatchHandlers(client)
	st, err := client.Attach()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "watch", "attach", err)
		return nil
	}
	fmt.Println(formatStatus(st, time.Now()))
	fmt.Printf("Watching notifications for %s, press Ctrl+C to stop.\n", client.Requester())
	return client.Listen()
}

func registerWatchHandlers(client *lockcli.Client) {
	client.AddHandler(common.UPDATE_LOCK_EXECUTION_RESULT, lockcli.NewLockResultHandler(func(r *common.LockExecutionResult) error {
		fmt.Println(describeLockResult(r, time.Now()))
		return nil
	}))
	client.AddHandler(common.UPDATE_MULTI_SCHEDULE_RESULT, lockcli.NewMultiScheduleHandler(func(r *common.MultiScheduleResult) error {
		if r.Success {
			fmt.Printf("%s schedules: %s\n", stamp(time.Now()), r.Message)
		} else {
			fmt.Printf("%s schedules rejected: %s\n", stamp(time.Now()), r.Error)
		}
		return nil
	}))
	client.AddHandler(common.UPDATE_SCHEDULE_EXECUTED, lockcli.NewScheduleExecutedHandler(func(e *common.ScheduleExecuted) error {
		kind := "one-shot"
		if e.IsDaily {
			kind = "daily"
		}
		fmt.Printf("%s %s schedule %s fired, %d remaining\n", stamp(time.Now()), kind, e.ScheduleID, len(e.UpdatedSchedules))
		return nil
	}))
}

func describeLockResult(r *common.LockExecutionResult, now time.Time) string {
	src := string(r.Mode)
	if r.ScheduleID != "" {
		src += " " + r.ScheduleID
	}
	if r.Success {
		return fmt.Sprintf("%s screen locked (%s)", stamp(now), src)
	}
	return fmt.Sprintf("%s lock failed (%s): %s", stamp(now), src, r.Error)
}

func stamp(t time.Time) string {
	return t.Local().Format("15:04:05")
}
