package oidc

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"missing client id", ErrMissingClientID, 2},
		{"port in use", NewAuthenticationError(ErrPortInUse, errors.New("bind")), 2},
		{"timeout", NewAuthenticationError(ErrCallbackTimeout, nil), 2},
		{"state", NewAuthenticationError(ErrInvalidState, nil), 2},
		{"token request", NewAuthenticationError(ErrTokenRequestFailed, nil), 3},
		{"token parse", NewAuthenticationError(ErrTokenResponseInvalid, nil), 3},
		{"no token", NewAuthenticationError(ErrNoUsableToken, nil), 3},
		{"tool missing", NewAuthenticationError(ErrLoginToolMissing, nil), 4},
		{"rejected", NewAuthenticationError(ErrLoginRejected, nil), 4},
		{"wrapped", fmt.Errorf("outer: %w", NewAuthenticationError(ErrNoUsableToken, nil)), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAuthenticationErrorMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAuthenticationError(ErrTokenRequestFailed, cause)

	if !errors.Is(err, ErrTokenRequestFailed) {
		t.Fatalf("wrapped error should match its base")
	}
	if errors.Is(err, ErrNoUsableToken) {
		t.Fatalf("wrapped error should not match a different base")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if !IsAuthenticationError(err) || IsAuthenticationError(cause) {
		t.Fatalf("IsAuthenticationError misclassified")
	}
	if !strings.Contains(err.Error(), "caused by: connection refused") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestGetUserFriendlyMessage(t *testing.T) {
	if got := GetUserFriendlyMessage(NewAuthenticationError(ErrInvalidState, nil)); got != "State mismatch. Aborting." {
		t.Fatalf("state message = %q", got)
	}
	if got := GetUserFriendlyMessage(errors.New("boom")); !strings.Contains(got, "boom") {
		t.Fatalf("generic message = %q", got)
	}
	if got := GetUserFriendlyMessage(nil); got != "" {
		t.Fatalf("nil message = %q", got)
	}
}
