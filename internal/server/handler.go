package server

import (
	"encoding/json"

	"github.com/warpdl/warplock/common"
)

// HandlerFunc defines the signature for socket request handlers.
// It receives the connection the request arrived on, the connection pool
// and the raw JSON message body. It returns the update type for the
// reply, the reply payload and any error encountered.
type HandlerFunc func(
	conn *SyncConn,
	pool *Pool,
	body json.RawMessage,
) (
	common.UpdateType,
	any,
	error,
)

// RequestObserver is told about every request the daemon serves.
type RequestObserver interface {
	RequestHandled(method, transport string)
}

type nopRequestObserver struct{}

func (nopRequestObserver) RequestHandled(string, string) {}
