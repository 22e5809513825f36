// Package session owns the authenticated session: login, logout and the
// credential renewal used by the request pipeline.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/credentials"
	"github.com/five82/petdesk/internal/logging"
)

// Status is the view-facing summary of the session.
type Status struct {
	Authenticated bool
	Loading       bool
	Error         string
	ExpiresAt     *time.Time
}

// Controller is the single writer of the credential store.
type Controller struct {
	store *credentials.Store
	auth  Authenticator
	log   logging.Logger
	now   func() time.Time

	renewals singleflight.Group

	mu      sync.Mutex
	loading bool
	lastErr string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController wires a controller over store and auth.
func NewController(store *credentials.Store, auth Authenticator, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		auth:  auth,
		log:   logging.Discard(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Authenticated reports whether a non-empty access token is held. It is
// derived from the store on every call.
func (c *Controller) Authenticated() bool {
	_, ok := c.store.Get()
	return ok
}

// Credential returns the live credential, if any.
func (c *Controller) Credential() (credentials.Credential, bool) {
	return c.store.Get()
}

// Status snapshots the session for display.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{Loading: c.loading, Error: c.lastErr}
	c.mu.Unlock()
	if cred, ok := c.store.Get(); ok {
		st.Authenticated = true
		st.ExpiresAt = cred.ExpiresAt
	}
	return st
}

// ClearError forgets the last login failure message.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Login authenticates and stores the returned credential. On failure the
// prior session, if any, is left as it was.
func (c *Controller) Login(ctx context.Context, username, password string) (credentials.Credential, error) {
	c.mu.Lock()
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	cred, err := c.login(ctx, username, password)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.lastErr = apperr.Message(err)
	}
	c.mu.Unlock()
	return cred, err
}

func (c *Controller) login(ctx context.Context, username, password string) (credentials.Credential, error) {
	if username == "" || password == "" {
		return credentials.Credential{}, fmt.Errorf("login: %w: username and password are required", apperr.ErrAuthenticationRejected)
	}
	pair, err := c.auth.Login(ctx, username, password)
	if err != nil {
		c.log.Warn(ctx, "login failed", "username", username, "error", err)
		return credentials.Credential{}, fmt.Errorf("login: %w", err)
	}
	cred := c.credentialFrom(pair)
	if err := c.store.Set(cred); err != nil {
		c.log.Warn(ctx, "persist credential failed", "error", err)
	}
	c.log.Info(ctx, "login succeeded", "username", username)
	return cred, nil
}

// Renew exchanges refreshToken for a new credential. Concurrent calls for the
// same refresh token share one remote call. Any failure tears the session
// down and returns an error matching apperr.ErrSessionExpired.
func (c *Controller) Renew(ctx context.Context, refreshToken string) (credentials.Credential, error) {
	if refreshToken == "" {
		c.expire(ctx, "no refresh token")
		return credentials.Credential{}, fmt.Errorf("renew: %w: no refresh token", apperr.ErrSessionExpired)
	}
	v, err, shared := c.renewals.Do(refreshToken, func() (any, error) {
		// Waiters share this call, so one caller's cancellation must not
		// fail everyone.
		return c.renew(context.WithoutCancel(ctx), refreshToken)
	})
	if err != nil {
		return credentials.Credential{}, err
	}
	if shared {
		c.log.Debug(ctx, "renewal shared with concurrent caller")
	}
	return v.(credentials.Credential), nil
}

func (c *Controller) renew(ctx context.Context, refreshToken string) (credentials.Credential, error) {
	// A caller holding a refresh token that has since been rotated lost the
	// race to an earlier renewal; hand it the result of that renewal.
	if cur, ok := c.store.Get(); ok && cur.RefreshToken != "" && cur.RefreshToken != refreshToken {
		return cur, nil
	}
	c.log.Info(ctx, "renewing credential")
	pair, err := c.auth.Refresh(ctx, refreshToken)
	if err != nil {
		c.expire(ctx, err.Error())
		return credentials.Credential{}, fmt.Errorf("renew: %w: %w", apperr.ErrSessionExpired, err)
	}
	cred := c.credentialFrom(pair)
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	if err := c.store.Set(cred); err != nil {
		c.log.Warn(ctx, "persist credential failed", "error", err)
	}
	c.log.Info(ctx, "renewal succeeded")
	return cred, nil
}

// Logout clears the credential locally. No remote call is made.
func (c *Controller) Logout() error {
	c.ClearError()
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Controller) expire(ctx context.Context, reason string) {
	c.log.Warn(ctx, "session expired", "reason", reason)
	if err := c.store.Clear(); err != nil {
		c.log.Warn(ctx, "clear credential failed", "error", err)
	}
}

func (c *Controller) credentialFrom(pair TokenPair) credentials.Credential {
	cred := credentials.Credential{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if pair.ExpiresIn > 0 {
		at := c.now().Add(time.Duration(pair.ExpiresIn) * time.Second)
		cred.ExpiresAt = &at
	} else {
		cred.ExpiresAt = credentials.ExpiryFromToken(pair.AccessToken)
	}
	return cred
}
