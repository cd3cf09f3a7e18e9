package oidc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/spacetime-oidc-login/internal/logging"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// shutdownTimeout bounds the graceful shutdown before connections are force closed.
	shutdownTimeout = time.Second
	// joinTimeout bounds the wait for the serve goroutine; a goroutine that does not
	// return in time is abandoned.
	joinTimeout = time.Second
)

// ServerState is the lifecycle phase of an OAuthServer.
type ServerState int

const (
	StateIdle ServerState = iota
	StateBound
	StateListening
	StateReceived
	StateTimedOut
	StateStopped
)

func (s ServerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateReceived:
		return "received"
	case StateTimedOut:
		return "timed_out"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// OAuthServer is the one-shot loopback receiver for the authorization redirect.
// It accepts the first GET request on its callback path, hands the captured
// parameters to WaitForCode and then shuts itself down. Every other request gets
// a 404 and leaves the server running.
type OAuthServer struct {
	host string
	port int
	path string

	server    *http.Server
	group     *errgroup.Group
	serveDone <-chan struct{}
	addr      string

	// resultChan receives exactly one result; deliverOnce guards the single send.
	resultChan  chan *OAuthResult
	deliverOnce sync.Once
	stopOnce    sync.Once

	mu      sync.Mutex
	state   ServerState
	stopped bool
}

// NewOAuthServer creates a callback receiver for host:port and the given callback path.
// A port of 0 binds an ephemeral port; see Addr.
//
// Parameters:
//   - host: The loopback host to bind, usually 127.0.0.1
//   - port: The port to listen on
//   - path: The callback path, e.g. /callback
//
// Returns:
//   - *OAuthServer: A receiver in StateIdle
func NewOAuthServer(host string, port int, path string) *OAuthServer {
	return &OAuthServer{
		host:       host,
		port:       port,
		path:       path,
		resultChan: make(chan *OAuthResult, 1),
		state:      StateIdle,
	}
}

// Start binds the listener and begins serving on a background goroutine.
//
// Returns:
//   - error: ErrPortInUse if the address cannot be bound, ErrServerStartFailed if the
//     server is already running or was stopped
func (s *OAuthServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return NewAuthenticationError(ErrServerStartFailed, errors.New("server has already been stopped"))
	}
	if s.server != nil {
		return NewAuthenticationError(ErrServerStartFailed, errors.New("server is already running"))
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return NewAuthenticationError(ErrPortInUse, err)
	}
	s.addr = listener.Addr().String()
	s.state = StateBound
	log.Debugf("OAuth callback server bound on %s", s.addr)

	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())
	engine.GET(s.path, s.handleCallback)
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	group, ctx := errgroup.WithContext(context.Background())
	server := s.server
	group.Go(func() error {
		if errServe := server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("callback server failed: %w", errServe)
		}
		return nil
	})
	s.group = group
	s.serveDone = ctx.Done()
	s.state = StateListening

	return nil
}

// WaitForCode blocks until the callback is received or timeout elapses, then stops
// the server.
//
// Parameters:
//   - timeout: The maximum time to wait for the browser redirect
//
// Returns:
//   - OAuthResult: The captured query parameters, or the zero value on timeout
func (s *OAuthServer) WaitForCode(timeout time.Duration) OAuthResult {
	defer s.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	s.mu.Lock()
	serveDone := s.serveDone
	s.mu.Unlock()

	select {
	case result := <-s.resultChan:
		return *result
	case <-serveDone:
		// The serve loop ended; a result delivered just before shutdown is still valid.
		select {
		case result := <-s.resultChan:
			return *result
		default:
		}
		log.Warn("OAuth callback server stopped before a callback was received")
		return OAuthResult{}
	case <-timer.C:
		s.setState(StateTimedOut)
		log.Debugf("no OAuth callback within %s", timeout)
		return OAuthResult{}
	}
}

// Stop shuts the server down and waits briefly for the serve goroutine. It is safe to
// call more than once and from any goroutine; teardown errors are logged, not returned.
func (s *OAuthServer) Stop() {
	s.stopOnce.Do(s.teardown)
}

func (s *OAuthServer) teardown() {
	s.mu.Lock()
	server, group := s.server, s.group
	s.server = nil
	s.stopped = true
	s.state = StateStopped
	s.mu.Unlock()

	if server == nil {
		return
	}

	log.Debug("Stopping OAuth callback server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Debugf("OAuth callback server shutdown: %v", err)
		_ = server.Close()
	}

	joined := make(chan error, 1)
	go func() {
		joined <- group.Wait()
	}()
	select {
	case err := <-joined:
		if err != nil {
			log.Debugf("OAuth callback server exited: %v", err)
		}
	case <-time.After(joinTimeout):
		log.Debug("OAuth callback server goroutine did not exit in time; abandoning it")
	}
}

// Addr returns the bound listener address, or an empty string before Start.
func (s *OAuthServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// State returns the current lifecycle phase.
func (s *OAuthServer) State() ServerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *OAuthServer) setState(state ServerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		s.state = state
	}
}

// handleCallback captures code and state from the first callback request. Shutdown
// is scheduled on a separate goroutine because Shutdown waits for this handler.
func (s *OAuthServer) handleCallback(c *gin.Context) {
	query := c.Request.URL.Query()
	result := &OAuthResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	if !s.deliver(result) {
		log.Debug("Ignoring duplicate OAuth callback")
		c.String(http.StatusConflict, "Login already completed. You can close this tab.")
		return
	}

	if result.Error != "" {
		log.Errorf("OAuth error received: %s", result.Error)
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(LoginFailedHtml))
	} else {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(LoginSuccessHtml))
	}

	go s.Stop()
}

// deliver hands result to WaitForCode. Only the first call succeeds.
func (s *OAuthServer) deliver(result *OAuthResult) bool {
	delivered := false
	s.deliverOnce.Do(func() {
		s.resultChan <- result
		delivered = true
		s.setState(StateReceived)
	})
	return delivered
}
