package oidc

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// IDTokenClaims is the subset of ID token claims used to describe the logged-in identity.
type IDTokenClaims struct {
	Subject           string
	Email             string
	PreferredUsername string
	Name              string
	Issuer            string
	ExpiresAt         time.Time
}

// ParseIDTokenClaims decodes the payload of a JWT without verifying its signature.
// The login tool validates the token; the claims are only used for log output.
func ParseIDTokenClaims(token string) (*IDTokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT token format: expected 3 parts, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT claims: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("failed to parse JWT claims: payload is not JSON")
	}

	claims := gjson.ParseBytes(payload)
	result := &IDTokenClaims{
		Subject:           claims.Get("sub").String(),
		Email:             claims.Get("email").String(),
		PreferredUsername: claims.Get("preferred_username").String(),
		Name:              claims.Get("name").String(),
		Issuer:            claims.Get("iss").String(),
	}
	if exp := claims.Get("exp"); exp.Exists() {
		result.ExpiresAt = time.Unix(exp.Int(), 0)
	}
	return result, nil
}

// DisplayName returns the most readable identifier available: email, then
// preferred_username, then sub.
func (c *IDTokenClaims) DisplayName() string {
	switch {
	case c.Email != "":
		return c.Email
	case c.PreferredUsername != "":
		return c.PreferredUsername
	default:
		return c.Subject
	}
}
