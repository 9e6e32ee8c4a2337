// Package auth manages authenticated sessions against token-issuing
// sources: obtaining a credential, persisting it, and transparently
// refreshing it when a request comes back unauthorized.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/logger"
)

// TokenExchanger performs the source-specific credential exchanges.
// Implementations live in the connector packages.
type TokenExchanger interface {
	// Login performs a fresh credentials-for-token exchange.
	Login(ctx context.Context) (*domain.SessionCredential, error)

	// Refresh exchanges a refresh token for a new credential. Sources
	// without a refresh flow return domain.ErrAuthFailed to force the
	// login fallback.
	Refresh(ctx context.Context, cred *domain.SessionCredential) (*domain.SessionCredential, error)
}

// Authorize attaches a token to an outgoing request. The default sends
// "Authorization: Bearer <token>".
type Authorize func(req *http.Request, token string)

// BearerAuthorize is the default Authorize.
func BearerAuthorize(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// RawAuthorize sends the token as the bare Authorization header value, for
// sources that reject the Bearer scheme.
func RawAuthorize(req *http.Request, token string) {
	req.Header.Set("Authorization", token)
}

// Session is the per-source credential state machine: NoToken, Cached,
// Authenticated, Expired. It loads a persisted credential on first use
// (Cached), logs in when there is none (NoToken), and on an unauthorized
// response refreshes (falling back to login) and retries exactly once.
//
// All credential mutation happens under the session mutex, so two in-flight
// requests cannot double-refresh and invalidate each other's token.
type Session struct {
	source    string
	exchanger TokenExchanger
	store     driven.CredentialStore
	client    *http.Client
	authorize Authorize

	mu   sync.Mutex
	cred *domain.SessionCredential
}

// NewSession creates a session for the named source. The store may be
// backed by anything that satisfies the port; an empty or corrupt store is
// treated as "no token yet". A nil client gets a default with
// a 5 second timeout.
func NewSession(source string, exchanger TokenExchanger, store driven.CredentialStore, client *http.Client) *Session {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Session{
		source:    source,
		exchanger: exchanger,
		store:     store,
		client:    client,
		authorize: BearerAuthorize,
	}
}

// WithAuthorize overrides how the token is attached to requests.
func (s *Session) WithAuthorize(a Authorize) *Session {
	s.authorize = a
	return s
}

// Token returns a valid access token, loading the persisted credential or
// logging in as needed.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, err := s.currentLocked(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// currentLocked resolves the active credential. Caller holds s.mu.
func (s *Session) currentLocked(ctx context.Context) (*domain.SessionCredential, error) {
	if s.cred.HasToken() {
		return s.cred, nil
	}

	// Cached → Authenticated: reuse a persisted token without a network
	// call. Load tolerates absent and corrupt stores.
	if s.store != nil {
		cred, err := s.store.Load(ctx, s.source)
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		if cred.HasToken() {
			s.cred = cred
			return cred, nil
		}
	}

	// NoToken → Authenticated.
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) (*domain.SessionCredential, error) {
	logger.Info("%s: logging in", s.source)
	cred, err := s.exchanger.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	s.persistLocked(ctx, cred)
	return cred, nil
}

// refreshLocked performs the Expired → Authenticated transition: a refresh
// exchange when a refresh token exists, otherwise (or on refresh failure) a
// fresh login. Caller holds s.mu.
func (s *Session) refreshLocked(ctx context.Context) (*domain.SessionCredential, error) {
	if s.cred.HasRefreshToken() {
		logger.Info("%s: refreshing token", s.source)
		cred, err := s.exchanger.Refresh(ctx, s.cred)
		if err == nil {
			s.persistLocked(ctx, cred)
			return cred, nil
		}
		logger.Warn("%s: token refresh failed, falling back to login: %v", s.source, err)
	}
	return s.loginLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context, cred *domain.SessionCredential) {
	cred.ObtainedAt = time.Now()
	s.cred = cred
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.source, cred); err != nil {
		// A failed save costs a re-login on the next process, not this
		// request.
		logger.Warn("%s: persisting credential failed: %v", s.source, err)
	}
}

// Do sends an authenticated request. On a 401 or 403 it refreshes the
// credential and retries exactly once; a second unauthorized response is
// surfaced as domain.ErrAuthExpired with no further retries, so a source
// that keeps rejecting the token cannot trap the caller in a refresh loop.
//
// Other non-success statuses are returned to the caller untouched.
func (s *Session) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	resp, err := s.send(ctx, method, url, body, false)
	if err != nil {
		return nil, err
	}
	if !unauthorized(resp.StatusCode) {
		return resp, nil
	}
	drain(resp)

	logger.Warn("%s: got %d, refreshing credential and retrying once", s.source, resp.StatusCode)
	resp, err = s.send(ctx, method, url, body, true)
	if err != nil {
		return nil, err
	}
	if unauthorized(resp.StatusCode) {
		drain(resp)
		return nil, fmt.Errorf("%w: %s returned %d after refresh", domain.ErrAuthExpired, s.source, resp.StatusCode)
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, method, url string, body []byte, refresh bool) (*http.Response, error) {
	s.mu.Lock()
	var cred *domain.SessionCredential
	var err error
	if refresh {
		cred, err = s.refreshLocked(ctx)
	} else {
		cred, err = s.currentLocked(ctx)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.authorize(req, cred.AccessToken)

	logger.Debug("%s: %s %s", s.source, method, url)
	return s.client.Do(req)
}

func unauthorized(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
}

// IsAuthErr reports whether err is one of the authentication failures.
func IsAuthErr(err error) bool {
	return errors.Is(err, domain.ErrAuthFailed) || errors.Is(err, domain.ErrAuthExpired)
}
