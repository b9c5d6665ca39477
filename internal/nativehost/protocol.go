// Package nativehost bridges a browser extension to the warplock daemon
// over the Chrome/Firefox native messaging protocol: a 4-byte
// little-endian length prefix followed by a JSON payload, on stdin and
// stdout.
package nativehost

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/warpdl/warplock/common"
)

// MaxMessageSize limits native messaging payloads in both directions.
// Browsers accept at most 1MB from the host.
const MaxMessageSize = min(common.MaxMessageSize, 1<<20)

// Request is a call from the extension. ID correlates the response.
type Request struct {
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Message json.RawMessage `json:"message,omitempty"`
}

// Response answers a Request, or carries a daemon notification when Push
// is set. Pushes always have ID 0.
type Response struct {
	ID     int    `json:"id"`
	Ok     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
	Push   *Push  `json:"push,omitempty"`
}

// Push is a notification forwarded from the daemon.
type Push struct {
	Type    common.UpdateType `json:"type"`
	Message json.RawMessage   `json:"message"`
}

// ReadMessage reads one length-prefixed message from r.
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length > uint32(MaxMessageSize) {
		return nil, fmt.Errorf("message too large: %d bytes (max %d)", length, MaxMessageSize)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMessage writes msg to w with its length prefix.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(msg), MaxMessageSize)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(msg))); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

func ParseRequest(b []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func MakeSuccessResponse(id int, result any) []byte {
	b, _ := json.Marshal(Response{ID: id, Ok: true, Result: result})
	return b
}

func MakeErrorResponse(id int, err error) []byte {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	b, _ := json.Marshal(Response{ID: id, Error: msg})
	return b
}

// MakePushMessage wraps a daemon notification for the extension.
func MakePushMessage(utype common.UpdateType, message json.RawMessage) []byte {
	b, _ := json.Marshal(Response{Ok: true, Push: &Push{Type: utype, Message: message}})
	return b
}
