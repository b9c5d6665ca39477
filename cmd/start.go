package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/lockcli"
)

var (
	waitForLock bool

	startFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "wait, w",
			Usage:       "stay attached and show the countdown until the screen locks",
			Destination: &waitForLock,
		},
	}
)

func start(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if arg == "" {
		arg = DEF_DELAY
	}
	delay, err := parseDelay(arg)
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}
	client := newClient(ctx, "start")
	if client == nil {
		return nil
	}
	defer client.Close()
	res, err := client.StartLockTimer(delay)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "start", "start_lock_timer", err)
		return nil
	}
	fmt.Printf("Screen locks at %s (in %s).\n", res.TargetTime.Local().Format(time.Kitchen), cmdCommon.FormatCountdown(time.Until(res.TargetTime)))
	if !waitForLock {
		return nil
	}
	return waitCountdown(client, time.Now(), res.TargetTime)
}

// waitCountdown renders a countdown bar until the lock result of the
// requester arrives.
func waitCountdown(client *lockcli.Client, from, target time.Time) error {
	rr := 100 * time.Millisecond
	p := mpb.New(mpb.WithWidth(48), mpb.WithRefreshRate(rr), mpb.WithOutput(os.Stdout))
	bar := cmdCommon.InitCountdownBar(p, "Locking in", target.Sub(from))

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(rr)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-t.C:
				bar.SetCurrent(min(now.Sub(from), target.Sub(from)).Milliseconds())
			}
		}
	}()

	var result *common.LockExecutionResult
	client.AddHandler(common.UPDATE_LOCK_EXECUTION_RESULT, lockcli.NewLockResultHandler(func(r *common.LockExecutionResult) error {
		if r.Mode != common.ModeSingle {
			return nil
		}
		result = r
		return lockcli.ErrDisconnect
	}))
	err := client.Listen()
	close(stop)
	if result != nil && result.Success {
		bar.SetTotal(-1, true)
	} else {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return err
	}
	switch {
	case result == nil:
	case result.Success:
		fmt.Println("Screen locked.")
	default:
		fmt.Println("Lock failed:", result.Error)
	}
	return nil
}
