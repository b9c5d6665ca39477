package server

import (
	"sort"
	"sync"

	"github.com/warpdl/warplock/pkg/logger"
)

// Pool tracks which connections listen for the notifications of each
// requester. A connection may listen for several requesters and a
// requester may have several connections.
type Pool struct {
	mu  sync.RWMutex
	m   map[string][]*SyncConn
	log logger.Logger
}

func NewPool(l logger.Logger) *Pool {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Pool{
		m:   make(map[string][]*SyncConn),
		log: l,
	}
}

// Add registers conn for the notifications of requester. Adding the same
// pair twice is a no-op.
func (p *Pool) Add(requester string, conn *SyncConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.m[requester] {
		if c == conn {
			return
		}
	}
	p.m[requester] = append(p.m[requester], conn)
}

// Remove drops conn from every requester it listens for.
func (p *Pool) Remove(conn *SyncConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for requester, conns := range p.m {
		for i, c := range conns {
			if c != conn {
				continue
			}
			conns[i] = conns[len(conns)-1]
			conns = conns[:len(conns)-1]
			break
		}
		if len(conns) == 0 {
			delete(p.m, requester)
		} else {
			p.m[requester] = conns
		}
	}
}

// Send writes data to every connection of requester and returns the
// number of connections that received it. Connections that fail are
// closed and removed.
func (p *Pool) Send(requester string, data []byte) int {
	p.mu.RLock()
	conns := make([]*SyncConn, len(p.m[requester]))
	copy(conns, p.m[requester])
	p.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if err := c.Write(data); err != nil {
			p.log.Warning("pool: dropping connection %s of %s: %v", c.ID, requester, err)
			_ = c.Close()
			p.Remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Has reports whether requester has at least one connection.
func (p *Pool) Has(requester string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m[requester]) > 0
}

// Requesters returns every requester with a connection, sorted.
func (p *Pool) Requesters() []string {
	p.mu.RLock()
	out := make([]string, 0, len(p.m))
	for r := range p.m {
		out = append(out, r)
	}
	p.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Count returns the number of distinct connections in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := make(map[*SyncConn]struct{})
	for _, conns := range p.m {
		for _, c := range conns {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}
