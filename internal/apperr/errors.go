// Package apperr defines the error taxonomy shared by the session, the
// request pipeline and the remote accessors.
package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthenticationRejected reports bad credentials at login.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrSessionExpired reports a failed renewal. The session is gone.
	ErrSessionExpired = errors.New("session expired")
	// ErrRemoteUnavailable reports a network or server-side failure.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrValidationRejected reports a 4xx (other than 401/404) from the service.
	ErrValidationRejected = errors.New("validation rejected")
	// ErrNotFound reports a lookup for an id the service does not know.
	ErrNotFound = errors.New("not found")
)

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, e.Message)
	}
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// NewHTTPError builds an HTTPError from a raw response body, lifting the
// service's "message" field when the body is JSON.
func NewHTTPError(status int, raw []byte) *HTTPError {
	body := strings.TrimSpace(string(raw))
	var payload struct {
		Message string `json:"message"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &payload) == nil {
		return &HTTPError{StatusCode: status, Message: payload.Message, Body: body}
	}
	return &HTTPError{StatusCode: status, Body: body}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Classify wraps err with the taxonomy sentinel that matches it. Errors that
// already carry a sentinel are returned with op context only.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrSessionExpired, ErrAuthenticationRejected, ErrRemoteUnavailable, ErrValidationRejected, ErrNotFound} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
	}
	switch {
	case httpErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case httpErr.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, err)
	case httpErr.StatusCode >= 500:
		return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrValidationRejected, err)
	}
}

// Message returns the text a user should see for err. The service's own
// message wins over the wrapped chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}
