package cmd

const DEF_DELAY = "2m"

const DESCRIPTION = `
warplock locks your screen after a countdown or at scheduled times
of the day. A small background daemon keeps the timers, so they keep
running after the command that armed them has returned.
`

const (
	DaemonDescription = `The daemon command runs the timer daemon in the foreground.
Other commands start it automatically when it is not running.

Example:
        warplock daemon

`
	StartDescription = `The start command arms a countdown and locks the screen
when it reaches zero. Arming again replaces the previous
countdown. The delay accepts plain seconds or a duration
such as 90s, 15m or 1h30m (default 2m).

Example:
        warplock start 10m
        warplock start --wait 45s

`
	CancelDescription = `The cancel command stops pending timers of the requester.
Without --mode both the countdown and every schedule are
cancelled.

Example:
        warplock cancel
        warplock cancel --mode single

`
	ScheduleDescription = `The schedule command manages lock schedules. A schedule
fires once after its delay, or every day at the same time
with --daily. Schedules are saved by the daemon and
restored when it starts again.

Example:
        warplock schedule add 30m
        warplock schedule add --daily --at 22:30 --label bedtime
        warplock schedule list
        warplock schedule rm <id>

`
	StatusDescription = `The status command lists the armed timers of the requester,
or of every requester with --all.

Example:
        warplock status --all

`
	WatchDescription = `The watch command stays connected to the daemon and prints
every lock and schedule notification of the requester.

Example:
        warplock watch

`
	RPCSecretDescription = `The rpc-secret command prints the bearer token of the
JSON-RPC endpoint, creating one in the OS keyring if
needed. The endpoint is served when rpc.port is set in
warplock.toml.

Example:
        warplock rpc-secret
        warplock rpc-secret --rotate

`
	NativeHostDescription = `The native-host commands register warplock as a native
messaging host so the browser extension can arm and
cancel timers through the daemon.

Example:
        warplock native-host install --chrome-extension-id <id>
        warplock native-host status

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}{{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
