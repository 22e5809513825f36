// Package transport implements the authenticated request pipeline as an
// http.RoundTripper: it attaches the bearer credential to every request and,
// on a 401, renews the credential once and replays the request once.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/five82/petdesk/internal/credentials"
	"github.com/five82/petdesk/internal/logging"
)

const (
	requestIDHeader  = "X-Request-ID"
	defaultUserAgent = "petdesk/0.1"
	maxDrain         = 64 << 10
)

// Session is the part of the session controller the pipeline consumes.
type Session interface {
	Credential() (credentials.Credential, bool)
	Renew(ctx context.Context, refreshToken string) (credentials.Credential, error)
}

// Pipeline is an http.RoundTripper. Renewal failures surface as errors
// matching apperr.ErrSessionExpired; navigation is left to the caller.
type Pipeline struct {
	base      http.RoundTripper
	session   Session
	log       logging.Logger
	userAgent string
}

var _ http.RoundTripper = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBase sets the underlying transport. Defaults to http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(p *Pipeline) { p.base = rt }
}

// WithLogger sets the pipeline's logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Pipeline) { p.userAgent = ua }
}

// New builds a Pipeline over session.
func New(session Session, opts ...Option) *Pipeline {
	p := &Pipeline{
		base:      http.DefaultTransport,
		session:   session,
		log:       logging.Discard(),
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Client returns an http.Client that routes through the pipeline.
func (p *Pipeline) Client(timeoutClient *http.Client) *http.Client {
	c := &http.Client{}
	if timeoutClient != nil {
		*c = *timeoutClient
	}
	c.Transport = p
	return c
}

type retriedKey struct{}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func alreadyRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	reqID := req.Header.Get(requestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := p.log.With("request_id", reqID, "method", req.Method, "path", req.URL.Path)

	cred, _ := p.session.Credential()
	resp, err := p.base.RoundTrip(p.decorate(req, req.Body, cred.AccessToken, reqID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || alreadyRetried(ctx) {
		return resp, nil
	}

	body, replayable := rewind(req)
	if !replayable {
		log.Warn(ctx, "401 on a request whose body cannot be replayed")
		return resp, nil
	}

	current, ok := p.session.Credential()
	if !ok || current.RefreshToken == "" {
		if body != nil {
			_ = body.Close()
		}
		log.Debug(ctx, "401 without refresh credential")
		return resp, nil
	}
	discard(resp)

	token := current.AccessToken
	if token == cred.AccessToken {
		log.Info(ctx, "401 received, renewing credential")
		renewed, err := p.session.Renew(ctx, current.RefreshToken)
		if err != nil {
			if body != nil {
				_ = body.Close()
			}
			log.Warn(ctx, "renewal failed", "error", err)
			return nil, fmt.Errorf("renew after 401: %w", err)
		}
		token = renewed.AccessToken
	} else {
		// A concurrent request already renewed; replay with the newer token.
		log.Debug(ctx, "credential changed while in flight, replaying")
	}

	retry := p.decorate(req.WithContext(markRetried(ctx)), body, token, reqID)
	resp, err = p.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "replayed after renewal", "status", resp.StatusCode)
	return resp, nil
}

func (p *Pipeline) decorate(req *http.Request, body io.ReadCloser, token, reqID string) *http.Request {
	out := req.Clone(req.Context())
	out.Body = body
	out.Header.Set(requestIDHeader, reqID)
	if out.Header.Get("User-Agent") == "" && p.userAgent != "" {
		out.Header.Set("User-Agent", p.userAgent)
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	return out
}

// rewind returns a fresh copy of the request body for a replay.
func rewind(req *http.Request) (io.ReadCloser, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	return body, true
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}
