package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request describes one outbound HTTP call.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TimeoutError is returned when a request exceeds its own timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

// Do issues a single request bounded by timeout. The body is read before the
// timeout context is released. Do never retries.
func Do(ctx context.Context, client *http.Client, req Request, timeout time.Duration) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, callCtx, req.URL, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, callCtx, req.URL, timeout, fmt.Errorf("read body: %w", err))
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{URL: redact(req.URL), StatusCode: resp.StatusCode}
	}
	return out, nil
}

func classify(parent, call context.Context, rawURL string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: redact(rawURL), Timeout: timeout}
	}
	return err
}

// redact drops the query string so API keys never reach logs.
func redact(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	parsed.RawQuery = ""
	return parsed.String()
}
