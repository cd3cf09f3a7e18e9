// Package misc holds small helpers for the login flow: the anti-forgery state token and
// the hint printed for users logging in over SSH.
package misc

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// stateEntropyBytes is the amount of randomness behind a state token.
const stateEntropyBytes = 16

// GenerateRandomState generates a cryptographically secure random state parameter
// for OAuth2 flows to prevent CSRF attacks. The result is unpadded base64url.
func GenerateRandomState() (string, error) {
	bytes := make([]byte, stateEntropyBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
