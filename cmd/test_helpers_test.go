package cmd

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/urfave/cli"
	"github.com/warpdl/warplock/pkg/lockcli"
)

// captureOutput captures stdout and stderr while f runs.
func captureOutput(f func()) (stdout, stderr string) {
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	var bufOut, bufErr bytes.Buffer
	doneOut := make(chan struct{})
	doneErr := make(chan struct{})
	go func() { io.Copy(&bufOut, rOut); close(doneOut) }()
	go func() { io.Copy(&bufErr, rErr); close(doneErr) }()

	f()

	wOut.Close()
	wErr.Close()
	<-doneOut
	<-doneErr
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	rOut.Close()
	rErr.Close()

	return bufOut.String(), bufErr.String()
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

func assertNotContains(t *testing.T, output, notExpected string) {
	t.Helper()
	if strings.Contains(output, notExpected) {
		t.Errorf("expected output to NOT contain %q, got:\n%s", notExpected, output)
	}
}

// assertErrorFormat checks for the "warplock: cmd[action]:" prefix
// printed by PrintRuntimeErr.
func assertErrorFormat(t *testing.T, output, cmd, action string) {
	t.Helper()
	pattern := cmd + "[" + action + "]:"
	if !strings.Contains(output, pattern) {
		t.Errorf("expected error format %q, got:\n%s", pattern, output)
	}
}

// newContext creates a CLI context for testing commands.
func newContext(app *cli.App, args []string, name string) *cli.Context {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

type daemonRequest struct {
	Method  string         `json:"method"`
	Message map[string]any `json:"message"`
}

// newTestClient returns a client wired to an in-process fake daemon.
// reply returns the frames sent back for each request, pushes first.
func newTestClient(t *testing.T, reply func(req daemonRequest) []string) *lockcli.Client {
	t.Helper()
	c1, c2 := net.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	go func() {
		head := make([]byte, 4)
		for {
			if _, err := io.ReadFull(c2, head); err != nil {
				return
			}
			buf := make([]byte, binary.LittleEndian.Uint32(head))
			if _, err := io.ReadFull(c2, buf); err != nil {
				return
			}
			var req daemonRequest
			_ = json.Unmarshal(buf, &req)
			for _, f := range reply(req) {
				frame := binary.LittleEndian.AppendUint32(nil, uint32(len(f)))
				if _, err := c2.Write(append(frame, f...)); err != nil {
					return
				}
			}
		}
	}()
	return lockcli.NewClientWithConn(c1, "cli")
}

// useTestClient makes newClient return client for the duration of the test.
func useTestClient(t *testing.T, client *lockcli.Client) {
	t.Helper()
	old := newClientFunc
	newClientFunc = func(lockcli.Options) (*lockcli.Client, error) {
		return client, nil
	}
	t.Cleanup(func() { newClientFunc = old })
}
