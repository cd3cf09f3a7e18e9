package logging

import (
	"net/url"
	"strings"
)

// sensitiveQueryParams lists callback query parameters that must not appear in logs.
var sensitiveQueryParams = map[string]struct{}{
	"code":          {},
	"state":         {},
	"code_verifier": {},
	"id_token":      {},
	"access_token":  {},
	"refresh_token": {},
}

// HideSecret obfuscates a credential for logging, keeping a short prefix and suffix.
// Values of two characters or fewer are replaced entirely.
func HideSecret(secret string) string {
	switch n := len(secret); {
	case n == 0:
		return ""
	case n <= 2:
		return "***"
	case n <= 4:
		return secret[:1] + "..." + secret[n-1:]
	case n <= 8:
		return secret[:2] + "..." + secret[n-2:]
	default:
		return secret[:4] + "..." + secret[n-4:]
	}
}

// MaskSensitiveQuery masks the values of sensitive parameters, e.g. code and state,
// within a raw query string. Parameter order and all other pairs are preserved byte
// for byte.
func MaskSensitiveQuery(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	rest := raw
	for {
		pair, tail, more := strings.Cut(rest, "&")
		b.WriteString(maskQueryPair(pair))
		if !more {
			break
		}
		b.WriteByte('&')
		rest = tail
	}
	return b.String()
}

// maskQueryPair returns pair with its value masked when the key is sensitive.
// A sensitive key without '=' is left alone; it carries nothing to hide.
func maskQueryPair(pair string) string {
	key, value, hasValue := strings.Cut(pair, "=")
	if !hasValue {
		return pair
	}
	name, err := url.QueryUnescape(key)
	if err != nil {
		name = key
	}
	if _, ok := sensitiveQueryParams[strings.ToLower(name)]; !ok {
		return pair
	}
	if decoded, errValue := url.QueryUnescape(value); errValue == nil {
		value = decoded
	}
	return key + "=" + url.QueryEscape(HideSecret(strings.TrimSpace(value)))
}
