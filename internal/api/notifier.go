package api

import (
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/engine"
	"github.com/warpdl/warplock/internal/server"
	"github.com/warpdl/warplock/pkg/logger"
)

// Notifier delivers engine notifications to the socket connections of the
// requester and to every JSON-RPC WebSocket session.
type Notifier struct {
	pool *server.Pool
	rpc  *server.RPCNotifier
	log  logger.Logger
}

var _ engine.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier. rpc may be nil when the web endpoint is
// disabled.
func NewNotifier(pool *server.Pool, rpc *server.RPCNotifier, l logger.Logger) *Notifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Notifier{pool: pool, rpc: rpc, log: l}
}

func (n *Notifier) Notify(requester string, kind common.UpdateType, payload any) {
	sent := n.pool.Send(requester, server.MakeResult(kind, payload))
	if n.rpc != nil {
		n.rpc.Broadcast(string(kind), server.PushNotification{Requester: requester, Data: payload})
		sent += n.rpc.Count()
	}
	if sent == 0 && common.DebugMode() {
		n.log.Info("notify: no listener for %s of %s", kind, requester)
	}
}
