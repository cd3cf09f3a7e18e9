package oidc

// PKCECodes holds the verification codes for the OAuth2 PKCE (Proof Key for Code Exchange) flow.
type PKCECodes struct {
	// CodeVerifier is the high-entropy secret kept by the client until the token request.
	CodeVerifier string `json:"code_verifier"`
	// CodeChallenge is the unpadded base64url SHA-256 digest of CodeVerifier.
	CodeChallenge string `json:"code_challenge"`
}

// OAuthResult contains the parameters captured from the first accepted callback.
// All fields are empty when the wait deadline elapsed without a callback.
type OAuthResult struct {
	// Code is the authorization code issued by the provider.
	Code string
	// State is the anti-forgery value echoed back by the provider.
	State string
	// Error is the OAuth error code reported by the provider, if any.
	Error string
	// ErrorDescription is the optional human readable detail for Error.
	ErrorDescription string
}

// TokenResult is the outcome of a successful code exchange.
type TokenResult struct {
	// Token is the value handed to the login tool.
	Token string
	// Field names the response member Token was taken from, id_token or access_token.
	Field string
	// Raw is the unmodified token endpoint response body.
	Raw []byte
}
