package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/logger"
)

type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *countingObserver) RequestHandled(method, transport string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls[method+"/"+transport]++
}

func (o *countingObserver) get(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[key]
}

func startTestServer(t *testing.T, opts Options, register func(*Server)) (*Server, string) {
	t.Helper()
	s := NewServer(logger.NewNopLogger(), NewPool(nil), opts)
	if register != nil {
		register(s)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})
	return s, l.Addr().String()
}

func dialTest(t *testing.T, addr string) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))
	return c
}

func roundTrip(t *testing.T, c net.Conn, req string) Response {
	t.Helper()
	if err := writeFrame(c, []byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := readFrame(c)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var res Response
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("Unmarshal %s: %v", b, err)
	}
	return res
}

func TestServerDispatch(t *testing.T) {
	obs := &countingObserver{}
	_, addr := startTestServer(t, Options{Observer: obs}, func(s *Server) {
		s.RegisterHandler(common.UPDATE_VERSION, func(_ *SyncConn, _ *Pool, body json.RawMessage) (common.UpdateType, any, error) {
			return common.UPDATE_VERSION, common.VersionResponse{Version: "1.2.3"}, nil
		})
		s.RegisterHandler(common.UPDATE_STATUS, func(_ *SyncConn, _ *Pool, _ json.RawMessage) (common.UpdateType, any, error) {
			return "", nil, errors.New("engine is closed")
		})
		s.RegisterHandler(common.UPDATE_ATTACH, func(_ *SyncConn, _ *Pool, _ json.RawMessage) (common.UpdateType, any, error) {
			panic("boom")
		})
	})
	c := dialTest(t, addr)

	res := roundTrip(t, c, `{"method":"version"}`)
	if !res.Ok || res.Update == nil || res.Update.Type != common.UPDATE_VERSION {
		t.Fatalf("unexpected version reply: %+v", res)
	}
	if m, _ := res.Update.Message.(map[string]any); m["version"] != "1.2.3" {
		t.Fatalf("unexpected version payload: %v", res.Update.Message)
	}

	res = roundTrip(t, c, `{"method":"status"}`)
	if res.Ok || res.Error != "engine is closed" {
		t.Fatalf("expected handler error, got %+v", res)
	}

	res = roundTrip(t, c, `{"method":"nope"}`)
	if res.Ok || res.Error != "unknown method: nope" {
		t.Fatalf("expected unknown method error, got %+v", res)
	}

	res = roundTrip(t, c, `not json`)
	if res.Ok || res.Error == "" {
		t.Fatalf("expected invalid request error, got %+v", res)
	}

	res = roundTrip(t, c, `{"method":"attach"}`)
	if res.Ok || res.Error != "internal error: boom" {
		t.Fatalf("expected recovered panic, got %+v", res)
	}

	// the connection survives every kind of failure above
	res = roundTrip(t, c, `{"method":"version"}`)
	if !res.Ok {
		t.Fatalf("connection should still serve requests: %+v", res)
	}
	if n := obs.get("version/socket"); n != 2 {
		t.Fatalf("observer saw %d version requests; want 2", n)
	}
}

func TestServerRemovesClosedConnectionsFromPool(t *testing.T) {
	s, addr := startTestServer(t, Options{}, func(s *Server) {
		s.RegisterHandler(common.UPDATE_ATTACH, func(conn *SyncConn, pool *Pool, _ json.RawMessage) (common.UpdateType, any, error) {
			pool.Add("cli", conn)
			return common.UPDATE_ATTACH, nil, nil
		})
	})
	c := dialTest(t, addr)
	if res := roundTrip(t, c, `{"method":"attach"}`); !res.Ok {
		t.Fatalf("attach failed: %+v", res)
	}
	if !s.Pool().Has("cli") {
		t.Fatal("attach should register the connection")
	}
	c.Close()
	deadline := time.Now().Add(2 * time.Second)
	for s.Pool().Has("cli") {
		if time.Now().After(deadline) {
			t.Fatal("closed connection was not removed from the pool")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerPushReachesAttachedClient(t *testing.T) {
	s, addr := startTestServer(t, Options{}, func(s *Server) {
		s.RegisterHandler(common.UPDATE_ATTACH, func(conn *SyncConn, pool *Pool, _ json.RawMessage) (common.UpdateType, any, error) {
			pool.Add("cli", conn)
			return common.UPDATE_ATTACH, nil, nil
		})
	})
	c := dialTest(t, addr)
	roundTrip(t, c, `{"method":"attach"}`)

	push := MakeResult(common.UPDATE_LOCK_EXECUTION_RESULT, common.LockExecutionResult{Success: true, Mode: common.ModeSingle})
	go s.Pool().Send("cli", push)
	b, err := readFrame(c)
	if err != nil {
		t.Fatalf("read push: %v", err)
	}
	var res Response
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !res.Ok || res.Update.Type != common.UPDATE_LOCK_EXECUTION_RESULT {
		t.Fatalf("unexpected push: %s", b)
	}
}

func TestServerShutdownClosesConnections(t *testing.T) {
	s, addr := startTestServer(t, Options{MaxConnections: 4}, nil)
	c := dialTest(t, addr)
	// make sure the connection is accepted before shutting down
	res := roundTrip(t, c, `{"method":"status"}`)
	if res.Ok {
		t.Fatalf("unregistered method should fail: %+v", res)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := readFrame(c); err == nil {
		t.Fatal("expected the connection to be closed")
	}
	if s.Addr() != nil {
		t.Fatal("Addr() should be nil after Shutdown")
	}
}

func TestResponseHelpers(t *testing.T) {
	var res Response
	_ = json.Unmarshal(InitError(nil), &res)
	if res.Ok || res.Error != "Unknown" {
		t.Fatalf("InitError(nil) = %+v", res)
	}
	_ = json.Unmarshal(CreateError("bad"), &res)
	if res.Ok || res.Error != "bad" {
		t.Fatalf("CreateError = %+v", res)
	}
	req, err := ParseRequest([]byte(`{"method":"start-lock-timer","message":{"delaySeconds":5}}`))
	if err != nil || req.Method != common.UPDATE_START_LOCK_TIMER || string(req.Message) != `{"delaySeconds":5}` {
		t.Fatalf("ParseRequest = %+v, %v", req, err)
	}
}
