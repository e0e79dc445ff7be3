package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"z2api-hq/z2api/pkg/config"
)

// Browser-shaped headers the upstream expects on chat traffic. The service
// serves a web client; requests that don't look like that client are
// rejected for some accounts.
const (
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	feVersion = "prod-fe-1.0.53"
	origin    = "https://chat.z.ai"
)

// Client performs HTTP calls to the Z.AI chat and sign-in endpoints.
// It is safe for concurrent use.
type Client struct {
	cfg    config.UpstreamConfig
	client *http.Client
}

// NewClient creates a client with connection pooling sized from the
// configuration. Per-call timeouts are applied via context deadlines so a
// single client serves chat, probe, and sign-in traffic.
func NewClient(cfg config.UpstreamConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
		},
	}
}

// do issues a single POST and maps failures onto the package error types.
// On success the caller owns the response body; closing it disarms the
// per-call timeout. Non-2xx responses are drained, closed, and returned
// as errors.
func (c *Client) do(ctx context.Context, operation, url string, body []byte, headers map[string]string, timeout time.Duration) (*http.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	c.setHeaders(req, headers)

	resp, err := c.client.Do(req)
	if err != nil {
		defer cancel()
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Operation: operation, Timeout: timeout}
		}
		return nil, &UpstreamError{Operation: operation, Message: "request failed", Cause: err}
	}

	if err := checkStatus(operation, resp); err != nil {
		cancel()
		return nil, err
	}

	// The timeout stays armed while a streaming body is read.
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, headers map[string]string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// checkStatus converts a non-2xx response into a typed error, consuming
// and closing the body.
func checkStatus(operation string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Operation: operation, Message: string(errorBody)}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Operation:  operation,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(errorBody),
		}
	default:
		return &UpstreamError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}
	}
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

// cancelOnCloseBody ties a context cancel function to the response body.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
