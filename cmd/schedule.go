package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/lockcli"
	"github.com/warpdl/warplock/pkg/schedule"
)

var (
	scheduleDaily bool
	scheduleAt    string
	scheduleLabel string

	scheduleAddFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "daily, d",
			Usage:       "repeat every day at the same time",
			Destination: &scheduleDaily,
		},
		cli.StringFlag{
			Name:        "at, a",
			Usage:       "lock at a time of day (HH:MM) instead of after a delay",
			Destination: &scheduleAt,
		},
		cli.StringFlag{
			Name:        "label, l",
			Usage:       "free text shown next to the schedule",
			Destination: &scheduleLabel,
		},
	}
)

// newSchedule builds the schedule described by the add flags.
func newSchedule(arg string, now time.Time) (schedule.Schedule, error) {
	var delay time.Duration
	switch {
	case scheduleAt != "" && arg != "":
		return schedule.Schedule{}, errors.New("use either a delay or --at, not both")
	case scheduleAt != "":
		at, err := parseClock(scheduleAt, now)
		if err != nil {
			return schedule.Schedule{}, err
		}
		delay = at.Sub(now)
	default:
		d, err := parseDelay(arg)
		if err != nil {
			return schedule.Schedule{}, err
		}
		delay = d
	}
	s := schedule.New(delay, scheduleDaily, now)
	s.Label = scheduleLabel
	return s, nil
}

func scheduleAdd(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	now := time.Now()
	s, err := newSchedule(arg, now)
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}
	client := newClient(ctx, "schedule-add")
	if client == nil {
		return nil
	}
	defer client.Close()
	list, err := client.GetSavedSchedules()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-add", "get_saved_schedules", err)
		return nil
	}
	list = append(list.Rebase(now), s)
	if err := submitSchedules(client, list, nil); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-add", "set_multi_schedules", err)
		return nil
	}
	fmt.Printf("Scheduled %s at %s.\n", s.ID, s.ScheduledTime.Local().Format("Mon 15:04"))
	return nil
}

func scheduleList(ctx *cli.Context) error {
	client := newClient(ctx, "schedule-list")
	if client == nil {
		return nil
	}
	defer client.Close()
	list, err := client.GetSavedSchedules()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-list", "get_saved_schedules", err)
		return nil
	}
	fmt.Println(formatSchedules(list, time.Now()))
	return nil
}

func scheduleRemove(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return cmdCommon.PrintErrWithCmdHelp(ctx, errors.New("no schedule id provided"))
	} else if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client := newClient(ctx, "schedule-rm")
	if client == nil {
		return nil
	}
	defer client.Close()
	list, err := client.GetSavedSchedules()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-rm", "get_saved_schedules", err)
		return nil
	}
	i := list.Index(id)
	if i < 0 {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-rm", "find", fmt.Errorf("no schedule with id %s", id))
		return nil
	}
	list = append(list[:i:i], list[i+1:]...).Rebase(time.Now())
	if err := submitSchedules(client, list, &lockcli.ScheduleOpts{IsDelete: true}); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-rm", "set_multi_schedules", err)
		return nil
	}
	fmt.Println("Schedule removed.")
	return nil
}

func scheduleClear(ctx *cli.Context) error {
	client := newClient(ctx, "schedule-clear")
	if client == nil {
		return nil
	}
	defer client.Close()
	if err := submitSchedules(client, schedule.List{}, &lockcli.ScheduleOpts{IsDelete: true}); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "schedule-clear", "set_multi_schedules", err)
		return nil
	}
	fmt.Println("All schedules removed.")
	return nil
}

// submitSchedules sends list and reports a failed multi-schedule-result
// pushed before the reply as an error.
func submitSchedules(client *lockcli.Client, list schedule.List, opts *lockcli.ScheduleOpts) error {
	var failure error
	client.AddHandler(common.UPDATE_MULTI_SCHEDULE_RESULT, lockcli.NewMultiScheduleHandler(func(r *common.MultiScheduleResult) error {
		if !r.Success {
			failure = errors.New(r.Error)
		}
		return nil
	}))
	res, err := client.SetMultiSchedules(list, opts)
	if err != nil {
		return err
	}
	if failure != nil {
		return failure
	}
	if res.Armed == 0 && len(list) > 0 {
		return errors.New(common.MsgNoValidSchedules)
	}
	return nil
}

const (
	idWidth    = 36
	nextWidth  = 12
	labelWidth = 14
)

func formatSchedules(list schedule.List, now time.Time) string {
	if len(list) == 0 {
		return "warplock: no schedules found"
	}
	txt := "Here are your schedules:"
	header := fmt.Sprintf("| %s | %s | %s | %s |",
		cmdCommon.Beaut("ID", idWidth),
		cmdCommon.Beaut("Next", nextWidth),
		cmdCommon.Beaut("Daily", 5),
		cmdCommon.Beaut("Label", labelWidth),
	)
	rule := strings.Repeat("-", len(header))
	txt += "\n\n" + rule
	txt += "\n" + header
	txt += "\n" + rule
	for _, s := range list {
		next := "invalid"
		if s.Valid() && s.ScheduledTime != nil {
			next = s.ScheduledTime.Local().Format("Jan 02 15:04")
			if !s.ScheduledTime.After(now) && !s.IsDaily {
				next = "missed"
			}
		}
		daily := "no"
		if s.IsDaily {
			daily = "yes"
		}
		id := s.ID
		if id == "" {
			id = "-"
		}
		txt += fmt.Sprintf("\n| %s | %s | %s | %s |",
			cmdCommon.Fit(id, idWidth),
			cmdCommon.Fit(next, nextWidth),
			cmdCommon.Beaut(daily, 5),
			cmdCommon.Fit(s.Label, labelWidth),
		)
	}
	txt += "\n" + rule
	return txt
}
