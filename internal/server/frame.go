package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/warpdl/warplock/common"
)

// ErrMessageTooLarge is returned for frames above common.MaxMessageSize.
var ErrMessageTooLarge = errors.New("message too large")

func intToBytes(v uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return b
}

func bytesToInt(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// readFrame reads one length-prefixed message. The prefix is a 4 byte
// little-endian length.
func readFrame(r io.Reader) ([]byte, error) {
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	size := bytesToInt(head)
	if size > common.MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeFrame writes b with its length prefix in a single write.
func writeFrame(w io.Writer, b []byte) error {
	if len(b) > common.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(b))
	}
	frame := append(intToBytes(uint32(len(b))), b...)
	_, err := w.Write(frame)
	return err
}
