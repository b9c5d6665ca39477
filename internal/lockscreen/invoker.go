// Package lockscreen locks the interactive session of the current user.
package lockscreen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNotSupported is returned by platforms without a lock mechanism.
var ErrNotSupported = errors.New("screen lock is not supported")

// Result is the outcome of one lock attempt.
type Result struct {
	Success bool
	Error   string
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}

// Invoker locks the screen. Implementations report failures through
// Result and must not panic.
type Invoker interface {
	Invoke(ctx context.Context) Result
}

// Func adapts a function to Invoker.
type Func func(ctx context.Context) Result

func (f Func) Invoke(ctx context.Context) Result { return f(ctx) }

// Runner runs a command and returns what it wrote to stderr.
type Runner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Command locks the screen by running an external program. The attempt
// fails if the program cannot be run, exits non-zero or writes to stderr.
type Command struct {
	Name string
	Args []string
	run  Runner
}

// NewCommand builds a Command from argv.
func NewCommand(argv ...string) *Command {
	c := &Command{run: execRunner}
	if len(argv) > 0 {
		c.Name, c.Args = argv[0], argv[1:]
	}
	return c
}

// WithRunner replaces the function used to execute the command.
func (c *Command) WithRunner(r Runner) *Command {
	c.run = r
	return c
}

func (c *Command) Invoke(ctx context.Context) Result {
	if c.Name == "" {
		return failure(errors.New("empty lock command"))
	}
	stderr, err := c.run(ctx, c.Name, c.Args...)
	msg := strings.TrimSpace(string(stderr))
	switch {
	case err != nil && msg != "":
		return Result{Error: fmt.Sprintf("%v: %s", err, msg)}
	case err != nil:
		return failure(err)
	case msg != "":
		return Result{Error: msg}
	}
	return Result{Success: true}
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Unsupported always fails with an explanation naming the OS.
type Unsupported struct {
	OS string
}

func (u Unsupported) Invoke(context.Context) Result {
	return failure(fmt.Errorf("%w on %s", ErrNotSupported, u.OS))
}

// Fallback tries Primary and, if it fails, Secondary. A failure of both
// carries both messages.
type Fallback struct {
	Primary   Invoker
	Secondary Invoker
}

func (f Fallback) Invoke(ctx context.Context) Result {
	r := f.Primary.Invoke(ctx)
	if r.Success || f.Secondary == nil {
		return r
	}
	r2 := f.Secondary.Invoke(ctx)
	if r2.Success {
		return r2
	}
	return Result{Error: r.Error + "; " + r2.Error}
}

// Safe recovers a panic raised by inv and reports it as a failure.
func Safe(inv Invoker) Invoker {
	return Func(func(ctx context.Context) (r Result) {
		defer func() {
			if p := recover(); p != nil {
				r = Result{Error: fmt.Sprintf("lock invoker panicked: %v", p)}
			}
		}()
		return inv.Invoke(ctx)
	})
}

// New returns the invoker for this platform, or a Command running
// override when one is given.
func New(override []string) Invoker {
	if len(override) > 0 {
		return Safe(NewCommand(override...))
	}
	return Safe(platformInvoker())
}

func unsupported() Invoker {
	return Unsupported{OS: runtime.GOOS}
}
