// Package transport provides the shared HTTP plumbing for the remote APIs
// airsync talks to: authentication, JSON encoding, error classification
// and retry with backoff.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
)

// Client provides HTTP client functionality with authentication and retries.
type Client struct {
	http       *http.Client
	auth       Authenticator
	apiKey     string
	service    string
	userAgent  string
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the base and maximum retry backoff.
func WithBackoff(base, maxBackoff time.Duration) Option {
	return func(c *Client) {
		c.backoff = base
		c.maxBackoff = maxBackoff
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new transport client for the named service.
func New(service string, auth Authenticator, apiKey string, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:       auth,
		apiKey:     apiKey,
		service:    service,
		userAgent:  "airsync",
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
		maxBackoff: constants.MaxRetryBackoff,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the name used in errors raised by this client.
func (c *Client) Service() string {
	return c.service
}

// Do performs an HTTP request with authentication and common headers applied.
// It does not retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, c.service, req, err)
	}
	return resp, nil
}

// Get performs a GET request and decodes the JSON response into target.
func (c *Client) Get(ctx context.Context, url string, target any) error {
	return c.DoJSON(ctx, http.MethodGet, url, nil, target)
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into
// target (if non-nil). Transient failures are retried with exponential
// backoff; a Retry-After header overrides the computed delay.
func (c *Client) DoJSON(ctx context.Context, method, url string, body, target any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", "request body", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.delay(attempt, lastErr)); err != nil {
				return err
			}
		}

		req, err := http.NewRequest(method, url, bytes.NewReader(payload))
		if err != nil {
			return errors.WrapResource("create", "request", method+" "+url, err)
		}

		resp, err := c.Do(ctx, req)
		if err == nil {
			err = DecodeResponse(c.service, resp, target)
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.IsTransient(err) || ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) delay(attempt int, lastErr error) time.Duration {
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.after > 0 {
		return min(ra.after, c.maxBackoff)
	}
	d := c.backoff << (attempt - 1)
	if d <= 0 || d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
