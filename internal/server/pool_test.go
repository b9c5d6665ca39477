package server

import (
	"net"
	"sync"
	"testing"

	"github.com/warpdl/warplock/pkg/logger"
)

func pipeConn(t *testing.T) (*SyncConn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewSyncConn(a), b
}

func TestPoolAddIsIdempotent(t *testing.T) {
	p := NewPool(nil)
	c, _ := pipeConn(t)
	p.Add("cli", c)
	p.Add("cli", c)
	p.Add("ui", c)
	if n := p.Count(); n != 1 {
		t.Fatalf("Count() = %d; want 1", n)
	}
	if got := p.Requesters(); len(got) != 2 || got[0] != "cli" || got[1] != "ui" {
		t.Fatalf("Requesters() = %v", got)
	}
	p.Remove(c)
	if p.Has("cli") || p.Has("ui") || p.Count() != 0 {
		t.Fatal("Remove should drop the connection from every requester")
	}
}

func TestPoolSendDeliversToRequesterOnly(t *testing.T) {
	p := NewPool(nil)
	c1, peer1 := pipeConn(t)
	c2, _ := pipeConn(t)
	p.Add("cli", c1)
	p.Add("ui", c2)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []byte
	var rerr error
	go func() {
		defer wg.Done()
		got, rerr = readFrame(peer1)
	}()
	if n := p.Send("cli", []byte("hello")); n != 1 {
		t.Fatalf("Send() = %d; want 1", n)
	}
	wg.Wait()
	if rerr != nil || string(got) != "hello" {
		t.Fatalf("peer read %q, %v", got, rerr)
	}
	if n := p.Send("nobody", []byte("x")); n != 0 {
		t.Fatalf("Send() to unknown requester = %d", n)
	}
}

func TestPoolSendDropsDeadConnections(t *testing.T) {
	m := logger.NewMockLogger()
	p := NewPool(m)
	c, peer := pipeConn(t)
	p.Add("cli", c)
	peer.Close()
	if n := p.Send("cli", []byte("x")); n != 0 {
		t.Fatalf("Send() = %d; want 0", n)
	}
	if p.Has("cli") {
		t.Fatal("dead connection should be removed")
	}
	if len(m.Warnings()) != 1 {
		t.Fatalf("expected one warning, got %v", m.Warnings())
	}
}

func TestPoolConcurrentAccess(t *testing.T) {
	p := NewPool(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := pipeConn(t)
			p.Add("cli", c)
			_ = p.Requesters()
			_ = p.Count()
			p.Remove(c)
		}()
	}
	wg.Wait()
	if p.Count() != 0 {
		t.Fatalf("Count() = %d after all removals", p.Count())
	}
}
