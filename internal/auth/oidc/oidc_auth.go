package oidc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/router-for-me/spacetime-oidc-login/internal/config"
	"github.com/router-for-me/spacetime-oidc-login/internal/logging"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"golang.org/x/oauth2"
)

// TokenRequestTimeout bounds the whole token exchange round trip.
const TokenRequestTimeout = 30 * time.Second

// tokenFields lists the response members accepted as login token, in priority order.
var tokenFields = []string{"id_token", "access_token"}

// redactedFields are masked before a token response is echoed in a diagnostic.
var redactedFields = []string{"refresh_token", "id_token", "access_token"}

// OIDCAuth builds the authorization URL and performs the code exchange against the
// endpoints in its Config.
type OIDCAuth struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewOIDCAuth creates an OIDCAuth for cfg. A nil client gets a client with
// TokenRequestTimeout.
func NewOIDCAuth(cfg *config.Config, client *http.Client) *OIDCAuth {
	if client == nil {
		client = &http.Client{Timeout: TokenRequestTimeout}
	}
	return &OIDCAuth{
		cfg:        cfg,
		httpClient: client,
	}
}

func (o *OIDCAuth) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: o.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  o.cfg.AuthURL,
			TokenURL: o.cfg.TokenURL,
		},
		RedirectURL: o.cfg.RedirectURI,
		Scopes:      strings.Fields(o.cfg.Scope),
	}
}

// GenerateAuthURL returns the authorization endpoint URL carrying response_type,
// client_id, redirect_uri, scope, state and the S256 PKCE challenge. The query is
// joined with '&' when the endpoint already has one, otherwise with '?'.
//
// Parameters:
//   - state: The anti-forgery value the callback must echo
//   - pkceCodes: The PKCE pair whose challenge is sent
//
// Returns:
//   - string: The URL to open in the browser
//   - error: An error if state or pkceCodes is missing
func (o *OIDCAuth) GenerateAuthURL(state string, pkceCodes *PKCECodes) (string, error) {
	if pkceCodes == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}
	if state == "" {
		return "", fmt.Errorf("state is required")
	}

	return o.oauthConfig().AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkceCodes.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

// ExchangeCodeForTokens trades the authorization code and PKCE verifier for a token.
// Transport failures and non-2xx statuses yield ErrTokenRequestFailed, a non-JSON
// body ErrTokenResponseInvalid, and a response without a usable token ErrNoUsableToken.
//
// Parameters:
//   - ctx: The context for the HTTP request
//   - code: The authorization code from the callback
//   - pkceCodes: The PKCE pair generated for this login
//
// Returns:
//   - *TokenResult: The selected token and the response field it came from
//   - error: An *AuthenticationError describing the failure
func (o *OIDCAuth) ExchangeCodeForTokens(ctx context.Context, code string, pkceCodes *PKCECodes) (*TokenResult, error) {
	if pkceCodes == nil {
		return nil, fmt.Errorf("PKCE codes are required for token exchange")
	}

	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {o.cfg.ClientID},
		"code":          {code},
		"redirect_uri":  {o.cfg.RedirectURI},
		"code_verifier": {pkceCodes.CodeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenRequestFailed, fmt.Errorf("failed to create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	log.Debugf("Exchanging authorization code %s at %s", logging.HideSecret(code), o.cfg.TokenURL)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenRequestFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenRequestFailed, fmt.Errorf("failed to read token response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewAuthenticationError(ErrTokenRequestFailed,
			fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if !gjson.ValidBytes(body) {
		return nil, NewAuthenticationError(ErrTokenResponseInvalid, &TokenResponseError{
			Reason: "token response is not valid JSON",
			Body:   body,
		})
	}

	token, field, ok := SelectToken(body)
	if !ok {
		return nil, NewAuthenticationError(ErrNoUsableToken, &TokenResponseError{
			Reason: "token response has neither id_token nor access_token",
			Body:   pretty.Pretty(redactTokenResponse(body)),
		})
	}

	log.Infof("Received %s %s", field, logging.HideSecret(token))

	return &TokenResult{
		Token: token,
		Field: field,
		Raw:   body,
	}, nil
}

// SelectToken returns the first of id_token and access_token that is a non-empty
// JSON string, together with the member name.
func SelectToken(body []byte) (token string, field string, ok bool) {
	if !gjson.ValidBytes(body) {
		return "", "", false
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return "", "", false
	}
	for _, name := range tokenFields {
		value := parsed.Get(name)
		if value.Type == gjson.String && value.Str != "" {
			return value.Str, name, true
		}
	}
	return "", "", false
}

// redactTokenResponse masks credential-like string members so a failing response can
// be printed without leaking a refresh token.
func redactTokenResponse(body []byte) []byte {
	out := body
	for _, name := range redactedFields {
		value := gjson.GetBytes(out, name)
		if value.Type != gjson.String || value.Str == "" {
			continue
		}
		updated, err := sjson.SetBytes(out, name, logging.HideSecret(value.Str))
		if err != nil {
			log.Debugf("failed to redact %s: %v", name, err)
			continue
		}
		out = updated
	}
	return out
}

// ResponseBody extracts the response body attached to a token exchange error.
func ResponseBody(err error) ([]byte, bool) {
	var responseErr *TokenResponseError
	if errors.As(err, &responseErr) {
		return responseErr.Body, true
	}
	return nil, false
}
