package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/cmd/nativehost"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	if nativehost.IsBrowserLaunch(args) {
		args = []string{args[0], "native-host", "run"}
	}
	app := cli.App{
		Name:                  "warplock",
		HelpName:              "warplock",
		Usage:                 "Lock your screen on a timer.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "warplock <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          cmdCommon.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "runs the timer daemon in the foreground",
				Description:        DaemonDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             daemon,
			},
			{
				Name:                   "start",
				Aliases:                []string{"s"},
				Usage:                  "locks the screen after a delay",
				ArgsUsage:              "[delay]",
				Description:            StartDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           cmdCommon.UsageErrorCallback,
				Action:                 start,
				Flags:                  startFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "cancel",
				Aliases:            []string{"c"},
				Usage:              "cancels pending lock timers",
				Description:        CancelDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       cmdCommon.UsageErrorCallback,
				Action:             cancel,
				Flags:              cancelFlags,
			},
			{
				Name:        "schedule",
				Aliases:     []string{"sc"},
				Usage:       "manages one-shot and daily lock schedules",
				Description: ScheduleDescription,
				Subcommands: []cli.Command{
					{
						Name:                   "add",
						Usage:                  "adds a schedule",
						ArgsUsage:              "[delay]",
						CustomHelpTemplate:     CMD_HELP_TEMPL,
						OnUsageError:           cmdCommon.UsageErrorCallback,
						Action:                 scheduleAdd,
						Flags:                  scheduleAddFlags,
						UseShortOptionHandling: true,
					},
					{
						Name:               "list",
						Aliases:            []string{"ls"},
						Usage:              "lists saved schedules",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Action:             scheduleList,
					},
					{
						Name:               "rm",
						Usage:              "removes a schedule by id",
						ArgsUsage:          "<id>",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Action:             scheduleRemove,
					},
					{
						Name:               "clear",
						Usage:              "removes every schedule",
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Action:             scheduleClear,
					},
				},
			},
			{
				Name:               "last",
				Usage:              "prints when the screen was last locked",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             last,
			},
			{
				Name:               "status",
				Usage:              "lists armed timers",
				Description:        StatusDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       cmdCommon.UsageErrorCallback,
				Action:             status,
				Flags:              statusFlags,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "prints lock notifications as they happen",
				Description:        WatchDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
			},
			{
				Name:               "rpc-secret",
				Usage:              "prints or rotates the JSON-RPC bearer token",
				Description:        RPCSecretDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       cmdCommon.UsageErrorCallback,
				Action:             rpcSecret,
				Flags:              rpcSecretFlags,
			},
			{
				Name:        "native-host",
				Usage:       "manages the browser extension bridge",
				Description: NativeHostDescription,
				Subcommands: nativehost.Commands,
			},
			{
				Name:               "stop-daemon",
				Usage:              "stops the running daemon",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             stopDaemon,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  cmdCommon.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of warplock",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             version,
			},
		},
		Action:      cmdCommon.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	cmdCommon.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
