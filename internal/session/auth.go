package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/five82/petdesk/internal/apperr"
)

const (
	loginPath   = "/autenticacao/login"
	refreshPath = "/autenticacao/refresh"

	defaultAuthTimeout = 10 * time.Second
	maxErrorBody       = 1 << 20
)

// TokenPair mirrors the authentication endpoints' response.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// Authenticator talks to the remote authentication endpoints. It must not be
// routed through the request pipeline.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// HTTPAuthenticator implements Authenticator over plain HTTP.
type HTTPAuthenticator struct {
	baseURL *url.URL
	http    *http.Client
}

var _ Authenticator = (*HTTPAuthenticator)(nil)

// NewHTTPAuthenticator builds an authenticator for the service at baseURL.
// A nil httpClient gets a default with a 10s timeout.
func NewHTTPAuthenticator(baseURL *url.URL, httpClient *http.Client) *HTTPAuthenticator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultAuthTimeout}
	}
	return &HTTPAuthenticator{baseURL: baseURL, http: httpClient}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login posts the username/password pair. Any 4xx is reported as
// apperr.ErrAuthenticationRejected.
func (a *HTTPAuthenticator) Login(ctx context.Context, username, password string) (TokenPair, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return TokenPair{}, fmt.Errorf("marshal login: %w", err)
	}
	pair, err := a.exchange(ctx, http.MethodPost, loginPath, bytes.NewReader(body), "")
	if err != nil {
		if code := apperr.StatusCode(err); code >= 400 && code < 500 {
			return TokenPair{}, fmt.Errorf("%w: %w", apperr.ErrAuthenticationRejected, err)
		}
		return TokenPair{}, apperr.Classify("login", err)
	}
	return pair, nil
}

// Refresh exchanges refreshToken, sent as a bearer credential with an empty
// body, for a new pair.
func (a *HTTPAuthenticator) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return a.exchange(ctx, http.MethodPut, refreshPath, nil, refreshToken)
}

func (a *HTTPAuthenticator) exchange(ctx context.Context, method, path string, body io.Reader, bearer string) (TokenPair, error) {
	reqURL := a.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenPair{}, apperr.NewHTTPError(resp.StatusCode, raw)
	}
	var pair TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode response: %w", err)
	}
	if pair.AccessToken == "" {
		return TokenPair{}, errors.New("response missing access_token")
	}
	return pair, nil
}
