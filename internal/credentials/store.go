// Package credentials holds the process-wide access/refresh token pair and
// mirrors it into a kv.Store so it survives restarts.
package credentials

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/petdesk/internal/kv"
)

// Persistence keys.
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refreshToken"
)

// Credential is the live token pair.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// IsZero reports whether c carries no access token.
func (c Credential) IsZero() bool {
	return c.AccessToken == ""
}

// Store owns the current Credential. Set and Clear are the only write paths
// and the session controller is their only caller.
type Store struct {
	mu      sync.RWMutex
	backing kv.Store
	current Credential
}

// NewStore restores any credential already persisted in backing.
func NewStore(backing kv.Store) (*Store, error) {
	if backing == nil {
		return nil, fmt.Errorf("credential store requires a backing kv store")
	}
	access, err := backing.Get(AccessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("restore access token: %w", err)
	}
	refresh, err := backing.Get(RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("restore refresh token: %w", err)
	}
	s := &Store{backing: backing}
	if access != "" {
		s.current = Credential{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    ExpiryFromToken(access),
		}
	}
	return s, nil
}

// Get returns the current credential and whether one is present.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.IsZero() {
		return Credential{}, false
	}
	return s.current, true
}

// Set replaces the credential and persists both tokens. The in-memory value
// is updated even when persistence fails; the error is returned for logging.
func (s *Store) Set(c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
	return errors.Join(
		s.backing.Set(AccessTokenKey, c.AccessToken),
		s.backing.Set(RefreshTokenKey, c.RefreshToken),
	)
}

// Clear drops the credential and removes both tokens from persistence.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Credential{}
	return errors.Join(
		s.backing.Remove(AccessTokenKey),
		s.backing.Remove(RefreshTokenKey),
	)
}

// ExpiryFromToken reads the exp claim of a JWT without verifying it. Opaque
// tokens yield nil.
func ExpiryFromToken(token string) *time.Time {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	at := exp.Time
	return &at
}
