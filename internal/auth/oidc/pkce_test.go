package oidc

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"golang.org/x/oauth2"
)

var base64URLAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGeneratePKCECodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		pkce, err := GeneratePKCECodes()
		if err != nil {
			t.Fatalf("GeneratePKCECodes() error = %v", err)
		}

		if n := len(pkce.CodeVerifier); n < 43 || n > 128 {
			t.Fatalf("CodeVerifier length = %d, want within [43,128]", n)
		}
		if len(pkce.CodeVerifier) != 86 {
			t.Fatalf("CodeVerifier length = %d, want 86 for 64 bytes of entropy", len(pkce.CodeVerifier))
		}
		if !base64URLAlphabet.MatchString(pkce.CodeVerifier) {
			t.Fatalf("CodeVerifier %q has characters outside the base64url alphabet", pkce.CodeVerifier)
		}

		hash := sha256.Sum256([]byte(pkce.CodeVerifier))
		expected := base64.RawURLEncoding.EncodeToString(hash[:])
		if pkce.CodeChallenge != expected {
			t.Fatalf("CodeChallenge = %q, want %q", pkce.CodeChallenge, expected)
		}
		if pkce.CodeChallenge != oauth2.S256ChallengeFromVerifier(pkce.CodeVerifier) {
			t.Fatalf("CodeChallenge disagrees with oauth2.S256ChallengeFromVerifier")
		}
		if !base64URLAlphabet.MatchString(pkce.CodeChallenge) {
			t.Fatalf("CodeChallenge %q is not unpadded base64url", pkce.CodeChallenge)
		}
	}
}

func TestGeneratePKCECodes_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pkce, err := GeneratePKCECodes()
		if err != nil {
			t.Fatalf("GeneratePKCECodes() error = %v", err)
		}
		if seen[pkce.CodeVerifier] {
			t.Fatalf("duplicate verifier generated")
		}
		seen[pkce.CodeVerifier] = true
	}
}
