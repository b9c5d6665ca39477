package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cws "github.com/coder/websocket"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/engine"
)

type fakeService struct {
	mu      sync.Mutex
	started []common.StartLockTimerParams
	sets    []common.SetMultiSchedulesParams
}

func (f *fakeService) StartLockTimer(p common.StartLockTimerParams) (*common.StartLockTimerResponse, error) {
	if p.DelaySeconds <= 0 {
		return nil, engine.ErrInvalidDelay
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, p)
	return &common.StartLockTimerResponse{TargetTime: time.Unix(1700000000, 0).UTC()}, nil
}

func (f *fakeService) CancelLockTimer(p common.CancelLockTimerParams) error {
	if p.Mode != "" && !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", engine.ErrUnknownMode, p.Mode)
	}
	return nil
}

func (f *fakeService) SetMultiSchedules(p common.SetMultiSchedulesParams) (*common.SetMultiSchedulesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, p)
	return &common.SetMultiSchedulesResponse{Armed: 2}, nil
}

func (f *fakeService) startCalls() []common.StartLockTimerParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.StartLockTimerParams(nil), f.started...)
}

func (f *fakeService) setCalls() []common.SetMultiSchedulesParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.SetMultiSchedulesParams(nil), f.sets...)
}

func (f *fakeService) SavedSchedules() (*common.SavedSchedulesResponse, error) {
	return &common.SavedSchedulesResponse{}, nil
}

func (f *fakeService) LastLockTime() (*common.LastLockTimeResponse, error) {
	return &common.LastLockTimeResponse{}, nil
}

func (f *fakeService) Status(string) *common.StatusResponse {
	return &common.StatusResponse{StoreBackend: "memory"}
}

func (f *fakeService) Version() *common.VersionResponse {
	return &common.VersionResponse{Version: "1.0.0", Commit: "abc123"}
}

const testSecret = "ws-test-secret"

func newTestWeb(t *testing.T) (*httptest.Server, *fakeService, *RPCNotifier, *countingObserver) {
	t.Helper()
	svc := &fakeService{}
	n := NewRPCNotifier(nil)
	obs := &countingObserver{}
	ws := NewWebServer(nil, WebConfig{
		Secret:   testSecret,
		Service:  svc,
		Notifier: n,
		Observer: obs,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "warplock_timer_active 0\n")
		}),
	})
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)
	return srv, svc, n, obs
}

func postRPC(t *testing.T, url, token, body string) (int, map[string]any) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, url+"/jsonrpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestJSONRPCRequiresToken(t *testing.T) {
	srv, _, _, _ := newTestWeb(t)
	for _, token := range []string{"", "wrong"} {
		code, out := postRPC(t, srv.URL, token, `{"jsonrpc":"2.0","id":1,"method":"system.getVersion"}`)
		if code != http.StatusUnauthorized {
			t.Fatalf("token %q: status %d; want 401", token, code)
		}
		e, _ := out["error"].(map[string]any)
		if e["code"] != float64(-32600) {
			t.Fatalf("token %q: unexpected error body %v", token, out)
		}
	}
}

func TestValidToken(t *testing.T) {
	tests := []struct {
		secret, header string
		want           bool
	}{
		{"s", "Bearer s", true},
		{"s", "Bearer x", false},
		{"s", "s", false},
		{"", "Bearer ", false},
		{"s", "bearer s", false},
	}
	for _, tt := range tests {
		if got := validToken(tt.secret, tt.header); got != tt.want {
			t.Errorf("validToken(%q, %q) = %v", tt.secret, tt.header, got)
		}
	}
}

func TestJSONRPCMethods(t *testing.T) {
	srv, svc, _, obs := newTestWeb(t)

	_, out := postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":1,"method":"system.getVersion"}`)
	if r, _ := out["result"].(map[string]any); r["version"] != "1.0.0" {
		t.Fatalf("system.getVersion = %v", out)
	}

	_, out = postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":2,"method":"lock.start","params":{"delaySeconds":5}}`)
	if _, ok := out["result"].(map[string]any); !ok {
		t.Fatalf("lock.start = %v", out)
	}
	if started := svc.startCalls(); len(started) != 1 || started[0].Requester != common.DefaultRPCRequester {
		t.Fatalf("lock.start should default the requester: %+v", started)
	}

	_, out = postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":3,"method":"lock.start","params":{"delaySeconds":-10}}`)
	if e, _ := out["error"].(map[string]any); e["code"] != float64(codeInvalidParams) {
		t.Fatalf("expected invalid params, got %v", out)
	}

	_, out = postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":4,"method":"lock.cancel","params":{"mode":"weekly"}}`)
	if e, _ := out["error"].(map[string]any); e["code"] != float64(codeInvalidParams) {
		t.Fatalf("expected invalid params for unknown mode, got %v", out)
	}

	_, out = postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":5,"method":"schedules.set","params":{"requester":"ui","schedules":[{"time":1000}]}}`)
	if r, _ := out["result"].(map[string]any); r["armed"] != float64(2) {
		t.Fatalf("schedules.set = %v", out)
	}
	if sets := svc.setCalls(); len(sets) != 1 || sets[0].Requester != "ui" || string(sets[0].Schedules) != `[{"time":1000}]` {
		t.Fatalf("schedules.set params = %+v", sets)
	}

	_, out = postRPC(t, srv.URL, testSecret, `{"jsonrpc":"2.0","id":6,"method":"daemon.status"}`)
	if r, _ := out["result"].(map[string]any); r["storeBackend"] != "memory" {
		t.Fatalf("daemon.status = %v", out)
	}

	if n := obs.get("lock.start/jsonrpc"); n != 2 {
		t.Fatalf("observer saw %d lock.start calls; want 2", n)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _, _, _ := newTestWeb(t)
	for path, want := range map[string]string{"/healthz": "ok", "/metrics": "warplock_timer_active"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), want) {
			t.Fatalf("GET %s = %d %q", path, resp.StatusCode, b)
		}
	}
}

func dialWS(t *testing.T, srvURL string) (*cws.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http") + "/jsonrpc/ws"
	conn, _, err := cws.Dial(ctx, wsURL, &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + testSecret}},
	})
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close(cws.StatusNormalClosure, "") })
	return conn, ctx
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	srv, _, _, _ := newTestWeb(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, resp, err := cws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/jsonrpc/ws", nil)
	if err == nil {
		t.Fatal("expected error for unauthorized WebSocket connection")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWebSocketRequestAndPush(t *testing.T) {
	srv, _, n, _ := newTestWeb(t)
	conn, ctx := dialWS(t, srv.URL)

	data, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": "system.getVersion", "id": 1})
	if err := conn.Write(ctx, cws.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, respData, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp map[string]any
	_ = json.Unmarshal(respData, &resp)
	if r, _ := resp["result"].(map[string]any); r["version"] != "1.0.0" {
		t.Fatalf("unexpected response %s", respData)
	}

	// the server registers with the notifier before serving, so it is
	// known once a reply has been read
	if n.Count() != 1 {
		t.Fatalf("notifier has %d servers; want 1", n.Count())
	}
	n.Broadcast(string(common.UPDATE_LOCK_EXECUTION_RESULT), PushNotification{
		Requester: "cli",
		Data:      common.LockExecutionResult{Success: true, Mode: common.ModeSingle},
	})
	_, pushData, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read push: %v", err)
	}
	var push struct {
		Method string           `json:"method"`
		Params PushNotification `json:"params"`
		ID     any              `json:"id"`
	}
	if err := json.Unmarshal(pushData, &push); err != nil {
		t.Fatalf("Unmarshal push: %v", err)
	}
	if push.Method != string(common.UPDATE_LOCK_EXECUTION_RESULT) || push.Params.Requester != "cli" || push.ID != nil {
		t.Fatalf("unexpected push %s", pushData)
	}
}

func TestRPCNotifierDropsStoppedServers(t *testing.T) {
	srv, _, n, _ := newTestWeb(t)
	conn, ctx := dialWS(t, srv.URL)
	data, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": "daemon.status", "id": 1})
	_ = conn.Write(ctx, cws.MessageText, data)
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close(cws.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for n.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed session was not unregistered")
		}
		n.Broadcast("noop", nil)
		time.Sleep(10 * time.Millisecond)
	}
}
