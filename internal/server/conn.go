package server

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// SyncConn serializes reads and writes on a client connection so that
// pushed notifications and request replies never interleave.
type SyncConn struct {
	Conn     net.Conn
	ID       string
	rmu, wmu sync.Mutex
}

func NewSyncConn(conn net.Conn) *SyncConn {
	return &SyncConn{
		Conn: conn,
		ID:   uuid.NewString(),
	}
}

func (s *SyncConn) Write(b []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return writeFrame(s.Conn, b)
}

func (s *SyncConn) Read() ([]byte, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	return readFrame(s.Conn)
}

func (s *SyncConn) Close() error {
	return s.Conn.Close()
}
