// Package spacetime hands an OIDC token to the Spacetime CLI via
// `spacetime login --token <token>`.
package spacetime

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/router-for-me/spacetime-oidc-login/internal/auth/oidc"
	log "github.com/sirupsen/logrus"
)

// Invoker runs the login executable. The child's stdout and stderr are passed through.
type Invoker struct {
	// Binary is the executable name or path, looked up on PATH.
	Binary string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewInvoker returns an Invoker for binary wired to the process's standard streams.
func NewInvoker(binary string) *Invoker {
	return &Invoker{
		Binary: binary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Login runs `<binary> login --token <token>`. A binary missing from PATH yields
// ErrLoginToolMissing; a non-zero exit or any other run failure yields ErrLoginRejected.
func (i *Invoker) Login(ctx context.Context, token string) error {
	path, err := exec.LookPath(i.Binary)
	if err != nil {
		return oidc.NewAuthenticationError(oidc.ErrLoginToolMissing, err)
	}

	cmd := exec.CommandContext(ctx, path, "login", "--token", token)
	cmd.Stdin = i.Stdin
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr

	log.Debugf("Running %s login --token <redacted>", path)
	if err = cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Debugf("%s exited with status %d", i.Binary, exitErr.ExitCode())
		}
		return oidc.NewAuthenticationError(oidc.ErrLoginRejected, err)
	}
	return nil
}
