package petapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/petdesk/internal/apperr"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 8 << 20
)

// Client talks to the pet manager REST API. Its http.Client is expected to
// route through the authenticated request pipeline.
type Client struct {
	baseURL *url.URL
	http    *http.Client

	Pets    *Resource[Pet, PetDetail]
	Tutores *TutorResource
}

// NewClient builds a Client for baseURL. A nil httpClient gets a plain client
// with a 10s timeout.
func NewClient(baseURL *url.URL, httpClient *http.Client) (*Client, error) {
	if baseURL == nil {
		return nil, fmt.Errorf("base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{baseURL: baseURL, http: httpClient}
	c.Pets = &Resource[Pet, PetDetail]{c: c, path: "/v1/pets", name: "pet"}
	c.Tutores = &TutorResource{Resource: &Resource[Tutor, TutorDetail]{c: c, path: "/v1/tutores", name: "tutor"}}
	return c, nil
}

type request struct {
	method      string
	rel         *url.URL
	body        io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, op string, r request, dest any) error {
	raw, err := c.send(ctx, r)
	if err != nil {
		return apperr.Classify(op, err)
	}
	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperr.Classify(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// doMessage runs r and returns the body as a message string. The service
// answers either with a JSON string or plain text.
func (c *Client) doMessage(ctx context.Context, op string, r request) (string, error) {
	raw, err := c.send(ctx, r)
	if err != nil {
		return "", apperr.Classify(op, err)
	}
	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return msg, nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message, nil
	}
	return strings.TrimSpace(string(raw)), nil
}

func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(r.rel)
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), r.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.NewHTTPError(resp.StatusCode, raw)
	}
	return raw, nil
}
