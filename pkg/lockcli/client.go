// Package lockcli is a Go client for the warplock daemon socket protocol.
package lockcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/warpdl/warplock/common"
)

// Options configures NewClient.
type Options struct {
	// Requester names the caller; empty means common.DefaultRequester.
	Requester string
	// DaemonURI selects an explicit transport (unix://, tcp://, pipe://).
	// Empty uses the platform socket with TCP fallback.
	DaemonURI string
	// AutoStart spawns the daemon when it is not running. It is ignored
	// when DaemonURI is set.
	AutoStart bool
}

type Client struct {
	mu        *sync.RWMutex
	d         *Dispatcher
	conn      net.Conn
	requester string
}

// NewClient connects to the daemon.
func NewClient(opts Options) (*Client, error) {
	var (
		conn net.Conn
		err  error
	)
	if opts.DaemonURI != "" {
		uri, perr := ParseDaemonURI(opts.DaemonURI)
		if perr != nil {
			return nil, perr
		}
		conn, err = dialURI(uri)
	} else {
		if opts.AutoStart {
			if err := ensureDaemon(); err != nil {
				return nil, err
			}
		}
		conn, err = dial()
	}
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	return NewClientWithConn(conn, opts.Requester), nil
}

// NewClientWithConn wraps an established connection.
func NewClientWithConn(conn net.Conn, requester string) *Client {
	if requester == "" {
		requester = common.DefaultRequester
	}
	return &Client{
		conn:      conn,
		mu:        &sync.RWMutex{},
		d:         NewDispatcher(),
		requester: requester,
	}
}

// Requester returns the name the client sends with its requests.
func (c *Client) Requester() string {
	return c.requester
}

// AddHandler registers h for pushed notifications of utype. Handlers run
// from Listen and from method calls that receive pushes before their
// reply.
func (c *Client) AddHandler(utype common.UpdateType, h Handler) {
	c.d.AddHandler(utype, h)
}

// Listen dispatches pushed notifications until a handler returns
// ErrDisconnect or the connection fails.
func (c *Client) Listen() (err error) {
	for {
		c.mu.RLock()
		var buf []byte
		buf, err = read(c.conn)
		if err != nil {
			c.mu.RUnlock()
			return fmt.Errorf("error reading: %w", err)
		}
		err = c.d.process(buf)
		c.mu.RUnlock()
		if err != nil {
			if errors.Is(err, ErrDisconnect) {
				return nil
			}
			return fmt.Errorf("error processing: %w", err)
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// invoke sends a request and waits for its reply. Pushes received before
// the reply are dispatched to the registered handlers.
func (c *Client) invoke(method common.UpdateType, message any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, err := json.Marshal(&Request{
		Method:  method,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	if err := write(c.conn, buf); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	for {
		buf, err = read(c.conn)
		if err != nil {
			return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
		}
		var res Response
		if err := json.Unmarshal(buf, &res); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", method, err)
		}
		if !res.Ok {
			return nil, errors.New(res.Error)
		}
		if res.Update != nil && res.Update.Type == method {
			return res.Update.Message, nil
		}
		if err := c.d.dispatch(&res); err != nil && !errors.Is(err, ErrDisconnect) {
			return nil, err
		}
	}
}
