package spacetime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/router-for-me/spacetime-oidc-login/internal/auth/oidc"
)

// writeFakeCLI creates an executable shell script standing in for the spacetime CLI.
func writeFakeCLI(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "spacetime")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake cli: %v", err)
	}
	return path
}

func TestInvokerLoginPassesToken(t *testing.T) {
	bin := writeFakeCLI(t, `echo "args: $*"`+"\n")

	var stdout bytes.Buffer
	inv := &Invoker{Binary: bin, Stdout: &stdout, Stderr: &bytes.Buffer{}}
	if err := inv.Login(context.Background(), "tok1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "args: login --token tok1" {
		t.Fatalf("child output = %q", got)
	}
}

func TestInvokerLoginRejected(t *testing.T) {
	bin := writeFakeCLI(t, "echo denied >&2\nexit 1\n")

	var stderr bytes.Buffer
	inv := &Invoker{Binary: bin, Stdout: &bytes.Buffer{}, Stderr: &stderr}
	err := inv.Login(context.Background(), "tok1")
	if !errors.Is(err, oidc.ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
	if oidc.ExitCode(err) != 4 {
		t.Fatalf("exit code = %d, want 4", oidc.ExitCode(err))
	}
	if !strings.Contains(stderr.String(), "denied") {
		t.Fatalf("child stderr was not passed through: %q", stderr.String())
	}
}

func TestInvokerLoginMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	inv := NewInvoker("spacetime-does-not-exist")
	err := inv.Login(context.Background(), "tok1")
	if !errors.Is(err, oidc.ErrLoginToolMissing) {
		t.Fatalf("expected ErrLoginToolMissing, got %v", err)
	}
	if oidc.ExitCode(err) != 4 {
		t.Fatalf("exit code = %d, want 4", oidc.ExitCode(err))
	}
}
