package oidc

import (
	"errors"
	"fmt"
)

// Process exit codes. The exit status is the only machine readable result of a run.
const (
	ExitOK            = 0
	ExitUnexpected    = 1
	ExitAuthFlow      = 2
	ExitTokenExchange = 3
	ExitLoginTool     = 4
)

// AuthenticationError represents a terminal failure of the login flow.
type AuthenticationError struct {
	// Type is the machine readable error category.
	Type string `json:"type"`
	// Message is the diagnostic shown to the user.
	Message string `json:"message"`
	// Code is the process exit code associated with the error.
	Code int `json:"code"`
	// Cause is the underlying error that caused this authentication error.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuthenticationError of the same type, so wrapped
// instances match the base values below.
func (e *AuthenticationError) Is(target error) bool {
	var t *AuthenticationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// Base authentication errors. Use NewAuthenticationError to attach a cause.
var (
	// ErrMissingClientID is returned when OIDC_CLIENT_ID is not provided.
	ErrMissingClientID = &AuthenticationError{
		Type:    "missing_client_id",
		Message: "Missing OIDC_CLIENT_ID environment variable.",
		Code:    ExitAuthFlow,
	}

	// ErrPortInUse is returned when the callback listener cannot bind its address.
	ErrPortInUse = &AuthenticationError{
		Type:    "port_in_use",
		Message: "Cannot bind callback server",
		Code:    ExitAuthFlow,
	}

	// ErrServerStartFailed is returned when the callback server cannot be started.
	ErrServerStartFailed = &AuthenticationError{
		Type:    "server_start_failed",
		Message: "Failed to start OAuth callback server",
		Code:    ExitAuthFlow,
	}

	// ErrCallbackTimeout is returned when no authorization code arrived in time.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "No authorization code received (timeout).",
		Code:    ExitAuthFlow,
	}

	// ErrInvalidState is returned when the callback state does not match the request.
	ErrInvalidState = &AuthenticationError{
		Type:    "invalid_state",
		Message: "State mismatch. Aborting.",
		Code:    ExitAuthFlow,
	}

	// ErrProviderDenied is returned when the callback carries an OAuth error.
	ErrProviderDenied = &AuthenticationError{
		Type:    "provider_denied",
		Message: "Authorization was denied by the provider.",
		Code:    ExitAuthFlow,
	}

	// ErrTokenRequestFailed is returned on transport failures talking to the token endpoint.
	ErrTokenRequestFailed = &AuthenticationError{
		Type:    "token_request_failed",
		Message: "Token request failed",
		Code:    ExitTokenExchange,
	}

	// ErrTokenResponseInvalid is returned when the token response is not JSON.
	ErrTokenResponseInvalid = &AuthenticationError{
		Type:    "token_response_invalid",
		Message: "Failed to parse token response:",
		Code:    ExitTokenExchange,
	}

	// ErrNoUsableToken is returned when neither id_token nor access_token is a non-empty string.
	ErrNoUsableToken = &AuthenticationError{
		Type:    "no_usable_token",
		Message: "No usable token in response:",
		Code:    ExitTokenExchange,
	}

	// ErrLoginToolMissing is returned when the login executable is not on PATH.
	ErrLoginToolMissing = &AuthenticationError{
		Type:    "login_tool_missing",
		Message: "'spacetime' CLI not found in PATH.",
		Code:    ExitLoginTool,
	}

	// ErrLoginRejected is returned when the login executable exits non-zero.
	ErrLoginRejected = &AuthenticationError{
		Type:    "login_rejected",
		Message: "Spacetime login with provided token failed. You may need a Spacetime-issued token or configure --server-issued-login instead.",
		Code:    ExitLoginTool,
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	return errors.As(err, &authenticationError)
}

// ExitCode maps an error returned by the flow to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ExitUnexpected
}

// GetUserFriendlyMessage returns the diagnostic line for err.
func GetUserFriendlyMessage(err error) string {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if err == nil {
		return ""
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

// TokenResponseError carries the token endpoint body for diagnostics.
type TokenResponseError struct {
	// Reason describes what was wrong with the response.
	Reason string
	// Body is the response body, raw or pretty printed depending on Reason.
	Body []byte
}

func (e *TokenResponseError) Error() string {
	return e.Reason
}
