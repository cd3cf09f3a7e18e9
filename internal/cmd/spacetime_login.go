// Package cmd wires the login flow together: callback receiver, browser launch, code
// exchange and the hand-off to the Spacetime CLI. It maps every failure to the
// process exit code documented for the tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/router-for-me/spacetime-oidc-login/internal/auth/oidc"
	"github.com/router-for-me/spacetime-oidc-login/internal/browser"
	"github.com/router-for-me/spacetime-oidc-login/internal/config"
	"github.com/router-for-me/spacetime-oidc-login/internal/misc"
	"github.com/router-for-me/spacetime-oidc-login/internal/spacetime"
	log "github.com/sirupsen/logrus"
)

// TokenLogin hands the obtained token to the external login tool.
type TokenLogin interface {
	Login(ctx context.Context, token string) error
}

// LoginOptions contains the collaborators of the login flow. Zero values select the
// real implementations; tests replace them with doubles.
type LoginOptions struct {
	// OpenBrowser launches the authorization URL. Failures are not fatal.
	OpenBrowser func(url string) error
	// BrowserAvailable reports whether OpenBrowser can work at all.
	BrowserAvailable func() bool
	// CopyToClipboard is tried when the browser could not be launched.
	CopyToClipboard func(text string) error

	// HTTPClient performs the token request.
	HTTPClient *http.Client
	// Login receives the token at the end of the flow.
	Login TokenLogin

	// LookupEnv is consulted for SSH session detection.
	LookupEnv func(key string) (string, bool)

	Stdout io.Writer
	Stderr io.Writer
}

func (o *LoginOptions) withDefaults(cfg *config.Config) *LoginOptions {
	opts := LoginOptions{}
	if o != nil {
		opts = *o
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = browser.OpenURL
	}
	if opts.BrowserAvailable == nil {
		opts.BrowserAvailable = browser.IsAvailable
	}
	if opts.CopyToClipboard == nil {
		opts.CopyToClipboard = browser.CopyToClipboard
	}
	if opts.Login == nil && cfg != nil {
		opts.Login = spacetime.NewInvoker(cfg.LoginBinary)
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &opts
}

// DoSpacetimeLogin runs one Authorization Code + PKCE login and passes the resulting
// token to `spacetime login --token`. It returns the process exit code: 0 on success,
// 2 for configuration, callback and state failures, 3 for token exchange failures and
// 4 when the Spacetime CLI is missing or rejects the token.
func DoSpacetimeLogin(ctx context.Context, cfg *config.Config, options *LoginOptions) int {
	opts := options.withDefaults(cfg)

	if cfg == nil || cfg.ClientID == "" {
		_, _ = fmt.Fprintln(opts.Stderr, oidc.ErrMissingClientID.Message)
		return oidc.ErrMissingClientID.Code
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := runLogin(ctx, cfg, opts); err != nil {
		return reportFailure(opts.Stderr, cfg, err)
	}

	_, _ = fmt.Fprintln(opts.Stdout, "Spacetime login succeeded via OIDC token.")
	return oidc.ExitOK
}

func runLogin(ctx context.Context, cfg *config.Config, opts *LoginOptions) error {
	pkceCodes, err := oidc.GeneratePKCECodes()
	if err != nil {
		return fmt.Errorf("pkce generation failed: %w", err)
	}

	state, err := misc.GenerateRandomState()
	if err != nil {
		return fmt.Errorf("state generation failed: %w", err)
	}

	host, port, path := cfg.CallbackTarget()
	oauthServer := oidc.NewOAuthServer(host, port, path)
	if err = oauthServer.Start(); err != nil {
		return err
	}
	defer oauthServer.Stop()

	authSvc := oidc.NewOIDCAuth(cfg, opts.HTTPClient)
	authURL, err := authSvc.GenerateAuthURL(state, pkceCodes)
	if err != nil {
		return fmt.Errorf("authorization url generation failed: %w", err)
	}

	launchBrowser(opts, authURL, port)

	log.Infof("Waiting up to %s for the authorization callback on %s", cfg.Timeout, cfg.RedirectURI)
	result := oauthServer.WaitForCode(cfg.Timeout)

	if result.Error != "" {
		return oidc.NewAuthenticationError(oidc.ErrProviderDenied, providerError(result))
	}
	if result.Code == "" {
		return oidc.NewAuthenticationError(oidc.ErrCallbackTimeout, nil)
	}
	if result.State != state {
		return oidc.NewAuthenticationError(oidc.ErrInvalidState, errors.New("state mismatch"))
	}

	log.Debug("Authorization code received; exchanging for tokens")

	tokenResult, err := authSvc.ExchangeCodeForTokens(ctx, result.Code, pkceCodes)
	if err != nil {
		return err
	}
	logIdentity(tokenResult)

	return opts.Login.Login(ctx, tokenResult.Token)
}

// launchBrowser opens authURL on a best-effort basis and always prints it, so the
// user can continue by hand if no browser appeared.
func launchBrowser(opts *LoginOptions, authURL string, callbackPort int) {
	opened := false
	if !opts.BrowserAvailable() {
		log.Warn("No browser available; please open the URL manually")
	} else if err := opts.OpenBrowser(authURL); err != nil {
		log.Warnf("Failed to open browser automatically: %v", err)
	} else {
		opened = true
	}

	if !opened {
		if err := opts.CopyToClipboard(authURL); err != nil {
			log.Debugf("clipboard fallback unavailable: %v", err)
		} else {
			log.Info("Authorization URL copied to clipboard")
		}
	}

	_, _ = fmt.Fprintf(opts.Stdout, "Opened browser for login. If it didn't open, visit:\n%s\n", authURL)

	if misc.IsRemoteSession(opts.LookupEnv) {
		misc.PrintSSHTunnelInstructions(opts.Stdout, callbackPort, opts.LookupEnv)
	}
}

func providerError(result oidc.OAuthResult) error {
	if result.ErrorDescription != "" {
		return fmt.Errorf("%s: %s", result.Error, result.ErrorDescription)
	}
	return errors.New(result.Error)
}

func logIdentity(tokenResult *oidc.TokenResult) {
	if tokenResult.Field != "id_token" {
		return
	}
	claims, err := oidc.ParseIDTokenClaims(tokenResult.Token)
	if err != nil {
		log.Debugf("id_token claims not readable: %v", err)
		return
	}
	if name := claims.DisplayName(); name != "" {
		log.Infof("Authenticated as %s", name)
	}
}

// reportFailure writes the diagnostic for err to w and returns its exit code.
func reportFailure(w io.Writer, cfg *config.Config, err error) int {
	log.Debugf("login failed: %v", err)

	var authErr *oidc.AuthenticationError
	if !errors.As(err, &authErr) {
		_, _ = fmt.Fprintln(w, oidc.GetUserFriendlyMessage(err))
		return oidc.ExitCode(err)
	}

	switch {
	case errors.Is(err, oidc.ErrPortInUse):
		host, port, _ := cfg.CallbackTarget()
		_, _ = fmt.Fprintf(w, "Cannot bind callback server on %s:%d: %v\n", host, port, authErr.Cause)
	case errors.Is(err, oidc.ErrCallbackTimeout):
		_, _ = fmt.Fprintf(w, "No authorization code on %s (timeout).\n", cfg.RedirectURI)
	case errors.Is(err, oidc.ErrProviderDenied):
		_, _ = fmt.Fprintf(w, "Authorization denied by provider: %v\n", authErr.Cause)
	case errors.Is(err, oidc.ErrTokenRequestFailed):
		_, _ = fmt.Fprintf(w, "Token request failed: %v\n", authErr.Cause)
	case errors.Is(err, oidc.ErrTokenResponseInvalid), errors.Is(err, oidc.ErrNoUsableToken):
		_, _ = fmt.Fprintln(w, authErr.Message)
		if body, ok := oidc.ResponseBody(err); ok {
			_, _ = fmt.Fprintln(w, strings.TrimRight(string(body), "\n"))
		}
	case errors.Is(err, oidc.ErrLoginToolMissing):
		_, _ = fmt.Fprintf(w, "'%s' CLI not found in PATH.\n", cfg.LoginBinary)
	default:
		_, _ = fmt.Fprintln(w, authErr.Message)
	}
	return authErr.Code
}
