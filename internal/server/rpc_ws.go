package server

import (
	"context"

	cws "github.com/coder/websocket"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
// One wsChannel serves one WebSocket session; lock notifications pushed
// through RPCNotifier travel over the same channel as call replies.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// Send writes one JSON-RPC message as a text frame.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads the next JSON-RPC message. It fails once the request context
// ends or the peer closes the session.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close ends the session with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}
