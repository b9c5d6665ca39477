package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/internal/secret"
)

func useSecretStore(t *testing.T) secret.Store {
	t.Helper()
	t.Setenv(common.ConfigDirEnv, t.TempDir())
	s := secret.NewFileStore(afero.NewMemMapFs(), "/cfg")
	old := secretStore
	secretStore = func(string) secret.Store { return s }
	t.Cleanup(func() {
		secretStore = old
		rotateSecret, deleteSecret = false, false
	})
	return s
}

func runRPCSecret(t *testing.T) (stdout, stderr string) {
	t.Helper()
	return captureOutput(func() {
		if err := rpcSecret(newContext(cli.NewApp(), nil, "rpc-secret")); err != nil {
			t.Errorf("rpcSecret: %v", err)
		}
	})
}

func TestRPCSecretCreatesOnce(t *testing.T) {
	s := useSecretStore(t)

	first, stderr := runRPCSecret(t)
	assertContains(t, stderr, "A new secret was stored")
	token := strings.TrimSpace(first)
	if len(token) != 64 {
		t.Fatalf("unexpected token %q", token)
	}
	stored, err := s.Get()
	if err != nil || stored != token {
		t.Fatalf("stored token = %q, %v", stored, err)
	}

	second, stderr := runRPCSecret(t)
	if strings.TrimSpace(second) != token {
		t.Fatalf("token changed without --rotate")
	}
	assertNotContains(t, stderr, "A new secret was stored")
}

func TestRPCSecretRotateAndDelete(t *testing.T) {
	s := useSecretStore(t)
	if err := s.Set("old"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rotateSecret = true
	stdout, _ := runRPCSecret(t)
	rotated := strings.TrimSpace(stdout)
	if rotated == "old" || rotated == "" {
		t.Fatalf("token not rotated: %q", rotated)
	}

	rotateSecret, deleteSecret = false, true
	stdout, _ = runRPCSecret(t)
	assertContains(t, stdout, "RPC secret deleted.")
	if _, err := s.Get(); !errors.Is(err, secret.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
