package logger

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestStandardLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		call   func(Logger)
		prefix string
		msg    string
	}{
		{"info", func(l Logger) { l.Info("armed %d timers", 2) }, "[INFO]", "armed 2 timers"},
		{"warning", func(l Logger) { l.Warning("store %s", "fallback") }, "[WARNING]", "store fallback"},
		{"error", func(l Logger) { l.Error("lock: %v", "denied") }, "[ERROR]", "lock: denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.call(NewStandardLogger(log.New(buf, "", 0)))
			out := buf.String()
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("expected %s prefix, got: %s", tt.prefix, out)
			}
			if !strings.Contains(out, tt.msg) {
				t.Errorf("expected %q in output, got: %s", tt.msg, out)
			}
		})
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x")
	l.Warning("x")
	l.Error("x")
	if err := l.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestMockLogger_RecordsCalls(t *testing.T) {
	m := NewMockLogger()
	m.Info("info %d", 1)
	m.Warning("warn %s", "a")
	m.Error("err %v", "b")
	m.Error("err %v", "c")

	if len(m.InfoCalls) != 1 || m.InfoCalls[0] != "info 1" {
		t.Errorf("unexpected info calls: %v", m.InfoCalls)
	}
	if w := m.Warnings(); len(w) != 1 || w[0] != "warn a" {
		t.Errorf("unexpected warnings: %v", w)
	}
	if e := m.Errors(); len(e) != 2 || e[1] != "err c" {
		t.Errorf("unexpected errors: %v", e)
	}
	_ = m.Close()
	if !m.CloseCalled {
		t.Error("CloseCalled should be true after Close()")
	}
}

func TestMockLogger_Concurrent(t *testing.T) {
	m := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Error("e")
		}()
	}
	wg.Wait()
	if n := len(m.Errors()); n != 20 {
		t.Fatalf("expected 20 errors, got %d", n)
	}
}

type failingCloseLogger struct {
	NopLogger
	err error
}

func (f *failingCloseLogger) Close() error { return f.err }

func TestMultiLogger_Broadcasts(t *testing.T) {
	m1, m2 := NewMockLogger(), NewMockLogger()
	multi := NewMultiLogger(m1, m2)
	multi.Info("i")
	multi.Warning("w")
	multi.Error("e")
	for i, m := range []*MockLogger{m1, m2} {
		if len(m.InfoCalls) != 1 || len(m.WarningCalls) != 1 || len(m.ErrorCalls) != 1 {
			t.Errorf("logger %d did not receive every message", i)
		}
	}
}

func TestMultiLogger_CloseReturnsFirstError(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")
	mock := NewMockLogger()
	multi := NewMultiLogger(&failingCloseLogger{err: err1}, mock, &failingCloseLogger{err: err2})

	if err := multi.Close(); !errors.Is(err, err1) {
		t.Errorf("expected %v, got %v", err1, err)
	}
	if !mock.CloseCalled {
		t.Error("every logger should be closed after an error")
	}
}

func TestMultiLogger_Empty(t *testing.T) {
	multi := NewMultiLogger()
	multi.Info("test")
	if err := multi.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestToStdLogger(t *testing.T) {
	m := NewMockLogger()
	std := ToStdLogger(m, "http: ")
	std.Printf("accept: %s", "too many open files")

	errs := m.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0] != "http: accept: too many open files" {
		t.Errorf("unexpected message %q", errs[0])
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "daemon.log")
	l := NewFileLogger(FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1})
	l.Info("daemon started on %s", "unix")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "[INFO] daemon started on unix") {
		t.Errorf("unexpected file content: %s", b)
	}
}
