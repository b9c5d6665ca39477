package secret

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

// fakeKeyring swaps the keyring functions for an in-memory map.
func fakeKeyring(t *testing.T, setErr error) map[string]string {
	t.Helper()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})
	m := make(map[string]string)
	keyringSet = func(app, key, value string) error {
		if setErr != nil {
			return setErr
		}
		m[app+"/"+key] = value
		return nil
	}
	keyringGet = func(app, key string) (string, error) {
		v, ok := m[app+"/"+key]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(app, key string) error {
		if _, ok := m[app+"/"+key]; !ok {
			return keyring.ErrNotFound
		}
		delete(m, app+"/"+key)
		return nil
	}
	return m
}

func TestKeyringGetSetDelete(t *testing.T) {
	m := fakeKeyring(t, nil)
	k := NewKeyring()
	if _, err := k.Get(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty keyring = %v; want ErrNotFound", err)
	}
	if err := k.Set("abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m["warplock/rpc-secret"] != "abc" {
		t.Fatalf("unexpected keyring contents: %v", m)
	}
	if got, err := k.Get(); err != nil || got != "abc" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := k.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := k.Delete(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v; want ErrNotFound", err)
	}
}

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := NewFileStore(fs, "/cfg")
	if _, err := f.Get(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v; want ErrNotFound", err)
	}
	if err := f.Set("token\n"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := f.Get(); err != nil || got != "token" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	info, err := fs.Stat("/cfg/" + fileName)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != fileMode {
		t.Fatalf("mode = %v; want %v", info.Mode().Perm(), fileMode)
	}
	if err := f.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.Delete(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete = %v; want ErrNotFound", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	f := NewFileStore(afero.NewMemMapFs(), "/cfg")
	first, created, err := GetOrCreate(f)
	if err != nil || !created {
		t.Fatalf("GetOrCreate = %q, %v, %v", first, created, err)
	}
	if len(first) != 64 {
		t.Fatalf("token length %d; want 64", len(first))
	}
	again, created, err := GetOrCreate(f)
	if err != nil || created || again != first {
		t.Fatalf("second GetOrCreate = %q, %v, %v", again, created, err)
	}
	rotated, err := Rotate(f)
	if err != nil || rotated == first {
		t.Fatalf("Rotate = %q, %v", rotated, err)
	}
}

func TestGenerateRandError(t *testing.T) {
	orig := randRead
	defer func() { randRead = orig }()
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	if _, err := Generate(); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := GetOrCreate(NewFileStore(afero.NewMemMapFs(), "/cfg")); err == nil {
		t.Fatal("expected GetOrCreate to fail")
	}
}

func TestChainFallsBackToFile(t *testing.T) {
	fakeKeyring(t, errors.New("no keyring service"))
	fs := afero.NewMemMapFs()
	c := Chain{NewKeyring(), NewFileStore(fs, "/cfg")}
	token, created, err := GetOrCreate(c)
	if err != nil || !created {
		t.Fatalf("GetOrCreate = %v, %v", created, err)
	}
	data, err := afero.ReadFile(fs, "/cfg/"+fileName)
	if err != nil || string(data) != token {
		t.Fatalf("token not written to file: %q, %v", data, err)
	}
	if got, err := c.Get(); err != nil || got != token {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := c.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete = %v; want ErrNotFound", err)
	}
}

func TestChainPrefersKeyring(t *testing.T) {
	m := fakeKeyring(t, nil)
	fs := afero.NewMemMapFs()
	c := Chain{NewKeyring(), NewFileStore(fs, "/cfg")}
	if err := c.Set("k"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m["warplock/rpc-secret"] != "k" {
		t.Fatal("token not stored in keyring")
	}
	if ok, _ := afero.Exists(fs, "/cfg/"+fileName); ok {
		t.Fatal("file store should not be written when keyring works")
	}
}
