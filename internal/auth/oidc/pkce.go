// Package oidc implements the loopback OAuth2 Authorization Code + PKCE flow used to
// obtain a token from the local OIDC provider. It covers PKCE generation, the
// one-shot callback receiver, authorization URL construction and the code exchange.
package oidc

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// verifierEntropyBytes yields an 86 character verifier, inside RFC 7636's 43-128 bound.
const verifierEntropyBytes = 64

// GeneratePKCECodes generates a new PKCE verifier and its S256 challenge.
// The verifier must later be sent unchanged with the token request.
func GeneratePKCECodes() (*PKCECodes, error) {
	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCECodes{
		CodeVerifier:  codeVerifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(codeVerifier),
	}, nil
}

// generateCodeVerifier returns unpadded base64url of 64 random bytes.
func generateCodeVerifier() (string, error) {
	bytes := make([]byte, verifierEntropyBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
