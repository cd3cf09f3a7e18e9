// Package config provides configuration loading for the Spacetime OIDC login tool.
// Only the client identifier and the callback timeout come from the environment;
// the provider endpoints, scope and redirect URI are fixed constants that are
// injected into the Config so tests can point them at local doubles.
package config

import (
	"errors"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Fixed provider endpoints. These are intentionally not read from the environment.
const (
	AuthURL     = "http://127.0.0.1:8000/o/authorize/"
	TokenURL    = "http://127.0.0.1:8000/o/token/"
	Scope       = "openid"
	RedirectURI = "http://127.0.0.1:8765/callback"
	LoginBinary = "spacetime"
)

// Environment variable names.
const (
	EnvClientID = "OIDC_CLIENT_ID"
	EnvTimeout  = "OIDC_TIMEOUT"
	EnvDebug    = "OIDC_DEBUG"
	EnvLogFile  = "OIDC_LOG_FILE"
	EnvEnvFile  = "OIDC_ENV_FILE"
)

const (
	// DefaultTimeout is used when OIDC_TIMEOUT is unset or malformed. A zero or
	// negative OIDC_TIMEOUT also selects it instead of timing out immediately,
	// which would leave no window to finish the browser login.
	DefaultTimeout = 180 * time.Second
	// MaxTimeout is the largest wait a time.Duration can express in whole seconds.
	// Larger OIDC_TIMEOUT values are clamped to it.
	MaxTimeout = time.Duration(math.MaxInt64/int64(time.Second)) * time.Second
	// DefaultEnvFile is the dotenv file loaded before the environment is read.
	DefaultEnvFile = ".env.oidc"

	defaultCallbackHost = "127.0.0.1"
	defaultCallbackPort = 8765
	defaultCallbackPath = "/callback"
)

// ErrMissingClientID is returned when OIDC_CLIENT_ID is absent or empty.
var ErrMissingClientID = errors.New("missing OIDC_CLIENT_ID environment variable")

// LookupFunc resolves an environment variable. It has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Config holds the settings for a single login run. It is not modified after construction.
type Config struct {
	// ClientID is the OAuth client identifier registered with the provider.
	ClientID string
	// AuthURL is the provider's authorization endpoint.
	AuthURL string
	// TokenURL is the provider's token endpoint.
	TokenURL string
	// Scope is the space separated scope string requested.
	Scope string
	// RedirectURI is the loopback callback address registered for the client.
	RedirectURI string
	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration
	// LoginBinary is the executable that receives the token.
	LoginBinary string

	// Debug raises the log level to debug.
	Debug bool
	// LogFile, when set, redirects log output to a rotating file.
	LogFile string
}

// New returns a Config populated with the fixed endpoints and the default timeout.
func New(clientID string) *Config {
	return &Config{
		ClientID:    clientID,
		AuthURL:     AuthURL,
		TokenURL:    TokenURL,
		Scope:       Scope,
		RedirectURI: RedirectURI,
		Timeout:     DefaultTimeout,
		LoginBinary: LoginBinary,
	}
}

// LoadFromEnv builds a Config from the environment. A nil lookup uses os.LookupEnv.
// It fails only when the client identifier is missing; a malformed timeout silently
// falls back to DefaultTimeout.
func LoadFromEnv(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	clientID, _ := lookup(EnvClientID)
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	cfg := New(clientID)
	cfg.Timeout = parseTimeout(lookup)
	cfg.Debug = parseBool(lookup, EnvDebug)
	if logFile, ok := lookup(EnvLogFile); ok {
		cfg.LogFile = strings.TrimSpace(logFile)
	}
	return cfg, nil
}

// EnvFilePath returns the dotenv file to load, honouring OIDC_ENV_FILE.
func EnvFilePath(lookup LookupFunc) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if path, ok := lookup(EnvEnvFile); ok && strings.TrimSpace(path) != "" {
		return strings.TrimSpace(path)
	}
	return DefaultEnvFile
}

// CallbackTarget splits the redirect URI into the host, port and path the
// callback receiver binds to. Missing parts fall back to 127.0.0.1, 8765 and /callback.
func (c *Config) CallbackTarget() (host string, port int, path string) {
	host, port, path = defaultCallbackHost, defaultCallbackPort, defaultCallbackPath

	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		log.Debugf("config: unparsable redirect uri %q: %v", c.RedirectURI, err)
		return host, port, path
	}
	if h := u.Hostname(); h != "" {
		host = h
	}
	if p, errPort := strconv.Atoi(u.Port()); errPort == nil && p > 0 {
		port = p
	}
	if u.Path != "" {
		path = u.Path
	}
	return host, port, path
}

func parseTimeout(lookup LookupFunc) time.Duration {
	raw, ok := lookup(EnvTimeout)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return DefaultTimeout
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if errors.Is(err, strconv.ErrRange) && seconds > 0 {
		log.Debugf("config: %s=%q out of range, using %s", EnvTimeout, raw, MaxTimeout)
		return MaxTimeout
	}
	if err != nil || seconds <= 0 {
		log.Debugf("config: ignoring %s=%q, using %s", EnvTimeout, raw, DefaultTimeout)
		return DefaultTimeout
	}
	if seconds > int64(MaxTimeout/time.Second) {
		return MaxTimeout
	}
	return time.Duration(seconds) * time.Second
}

func parseBool(lookup LookupFunc, key string) bool {
	raw, ok := lookup(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
