package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// retryAfterError carries the server's requested delay alongside the APIError.
type retryAfterError struct {
	*errors.APIError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.APIError }

// DecodeResponse decodes a JSON response into the target structure.
// Any non-2xx status becomes an *errors.APIError.
func DecodeResponse(service string, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("service", service).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errors.APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.Path
		}
		if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
			return &retryAfterError{APIError: apiErr, after: after}
		}
		return apiErr
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

// classifyTransportError maps client-side failures onto the error taxonomy.
// Per-request timeouts are transient; caller cancellation is returned as is.
func classifyTransportError(ctx context.Context, service string, req *http.Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			return errors.Join(errors.NewTimeoutError(req.Method+" "+req.URL.Path, "", "context deadline exceeded"), ctxErr)
		}
		return ctxErr
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return errors.Join(errors.NewTimeoutError(req.Method+" "+req.URL.Path, "", service+" did not respond"), err)
	}
	return &errors.APIError{Service: service, Message: err.Error(), Endpoint: req.URL.Path, Err: err}
}
