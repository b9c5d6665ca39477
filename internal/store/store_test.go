package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warplock/pkg/logger"
	"github.com/warpdl/warplock/pkg/schedule"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// exercise runs the behavior every backend must share.
func exercise(t *testing.T, s Store) {
	t.Helper()
	var got sample
	found, err := s.Get("missing", &got)
	if err != nil || found {
		t.Fatalf("Get(missing) = %v, %v", found, err)
	}

	if err := s.Set("k", sample{"a", 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", sample{"b", 2}); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	found, err = s.Get("k", &got)
	if err != nil || !found {
		t.Fatalf("Get(k) = %v, %v", found, err)
	}
	if got != (sample{"b", 2}) {
		t.Fatalf("Get(k) = %+v", got)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryDoesNotAlias(t *testing.T) {
	m := NewMemory()
	l := []string{"a"}
	_ = m.Set("l", l)
	l[0] = "changed"
	var got []string
	_, _ = m.Get("l", &got)
	if got[0] != "a" {
		t.Fatalf("stored value changed through caller slice: %v", got)
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "warplock.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	var got sample
	if found, _ := reopened.Get("k", &got); !found || got.Name != "b" {
		t.Fatalf("value did not survive reopen: %v %+v", found, got)
	}
}

func TestSQLiteCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warplock.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a database ", 200)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSQLite(path); err == nil {
		t.Fatal("expected error for corrupt database")
	}
}

func TestJSONFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewJSONFile(fs, "/cfg/warplock/config.json")
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	exercise(t, s)

	if ok, _ := afero.Exists(fs, "/cfg/warplock/config.json.tmp"); ok {
		t.Fatal("temporary file left behind")
	}
	reopened, err := NewJSONFile(fs, "/cfg/warplock/config.json")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var got sample
	if found, _ := reopened.Get("k", &got); !found || got.Count != 2 {
		t.Fatalf("value did not survive reopen: %v %+v", found, got)
	}
}

func TestJSONFileCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/c/config.json", []byte("{not json"), 0o644)
	if _, err := NewJSONFile(fs, "/c/config.json"); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestJSONFileWriteFailureKeepsPreviousValue(t *testing.T) {
	base := afero.NewMemMapFs()
	s, err := NewJSONFile(base, "/c/config.json")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Set("k", sample{"a", 1})

	s.fs = afero.NewReadOnlyFs(base)
	if err := s.Set("k", sample{"b", 2}); err == nil {
		t.Fatal("expected write error on read-only fs")
	}
	var got sample
	_, _ = s.Get("k", &got)
	if got.Name != "a" {
		t.Fatalf("failed write changed cached value: %+v", got)
	}
}

func TestOpenFallsBackToMemory(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/c/config.json", []byte("[]garbage"), 0o644)
	log := logger.NewMockLogger()

	s, durable := Open(Config{Backend: BackendJSON, Path: "/c/config.json", Fs: fs}, log)
	if durable {
		t.Fatal("expected non-durable store")
	}
	if s.Name() != BackendMemory {
		t.Fatalf("Name() = %q", s.Name())
	}
	if len(log.Errors()) != 1 {
		t.Fatalf("expected the open failure to be logged, got %v", log.Errors())
	}
	exercise(t, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := OpenBackend(Config{Backend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	s, durable := Open(Config{Backend: "etcd"}, logger.NewNopLogger())
	if durable || s == nil {
		t.Fatal("expected memory fallback")
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	s, durable := Open(Config{Dir: t.TempDir()}, logger.NewNopLogger())
	defer s.Close()
	if !durable || s.Name() != BackendSQLite {
		t.Fatalf("Open() = %s, durable=%v", s.Name(), durable)
	}
}

type failingStore struct {
	*Memory
	fail bool
}

func (f *failingStore) Set(key string, value any) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func TestFallbackShadowsFailedWrites(t *testing.T) {
	primary := &failingStore{Memory: NewMemory()}
	log := logger.NewMockLogger()
	f := WithFallback(primary, log)

	_ = f.Set("k", "disk")
	primary.fail = true
	if err := f.Set("k", "mem"); err != nil {
		t.Fatalf("Set must not surface persistence errors: %v", err)
	}
	_ = f.Set("other", 1)
	if len(log.Warnings()) != 1 {
		t.Fatalf("expected a single warning, got %v", log.Warnings())
	}
	if !f.Degraded() {
		t.Fatal("expected degraded state")
	}
	var got string
	_, _ = f.Get("k", &got)
	if got != "mem" {
		t.Fatalf("Get after failed write = %q", got)
	}

	primary.fail = false
	_ = f.Set("k", "disk again")
	_ = f.Set("other", 2)
	if f.Degraded() {
		t.Fatal("expected recovery once writes succeed")
	}
	_, _ = f.Get("k", &got)
	if got != "disk again" {
		t.Fatalf("Get after recovery = %q", got)
	}
}

func TestScheduleKeys(t *testing.T) {
	s := NewMemory()
	if l, err := LoadSchedules(s); err != nil || l != nil {
		t.Fatalf("LoadSchedules on empty store = %v, %v", l, err)
	}
	if v, err := LastLockTime(s); err != nil || v != nil {
		t.Fatalf("LastLockTime on empty store = %v, %v", v, err)
	}

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := schedule.List{schedule.New(time.Minute, false, at)}
	if err := SaveSchedules(s, in); err != nil {
		t.Fatal(err)
	}
	out, err := LoadSchedules(s)
	if err != nil || len(out) != 1 || out[0].ID != in[0].ID {
		t.Fatalf("LoadSchedules = %+v, %v", out, err)
	}

	if err := SetLastLockTime(s, at); err != nil {
		t.Fatal(err)
	}
	v, _ := LastLockTime(s)
	if v == nil || *v != "2024-03-01T10:00:00Z" {
		t.Fatalf("LastLockTime = %v", v)
	}
}
