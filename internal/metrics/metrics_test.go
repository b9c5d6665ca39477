package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warpdl/warplock/common"
)

func TestCollectorsRecordEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	counts := map[common.Mode]int{common.ModeSingle: 1, common.ModeMulti: 3}
	if err := c.Register(reg, ActiveTimers(func(m common.Mode) int { return counts[m] }), ConnectedClients(func() int { return 2 })); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := c.Register(reg); err != nil {
		t.Fatalf("second Register must be a no-op: %v", err)
	}

	c.TimerArmed(common.ModeSingle)
	c.TimerArmed(common.ModeMulti)
	c.TimerCancelled(common.ModeMulti)
	c.TimerFired(common.ModeSingle, 40*time.Millisecond)
	c.LockAttempted(true, 10*time.Millisecond)
	c.LockAttempted(false, time.Second)
	c.RequestHandled("start-lock-timer", "socket")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	want := map[string]bool{
		"warplock_timer_armed_total":        false,
		"warplock_timer_cancelled_total":    false,
		"warplock_timer_fired_total":        false,
		"warplock_timer_lateness_seconds":   false,
		"warplock_lock_attempts_total":      false,
		"warplock_lock_duration_seconds":    false,
		"warplock_server_requests_total":    false,
		"warplock_timer_active":             false,
		"warplock_server_connected_clients": false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", mf.GetName())
			}
		}
		if mf.GetName() == "warplock_lock_attempts_total" && len(mf.GetMetric()) != 2 {
			t.Fatalf("expected success and failure series, got %d", len(mf.GetMetric()))
		}
	}
	for n, ok := range want {
		if !ok {
			t.Errorf("expected to find metric %s", n)
		}
	}
}

func TestHandlerServesText(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	_ = c.Register(reg, ActiveTimers(func(common.Mode) int { return 4 }))
	c.TimerArmed(common.ModeMulti)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `warplock_timer_active{mode="multi"} 4`) {
		t.Fatalf("unexpected body:\n%s", body)
	}
	if !strings.Contains(string(body), `warplock_timer_armed_total{mode="multi"} 1`) {
		t.Fatalf("armed counter missing:\n%s", body)
	}
}
