// Package httpx is the shared outbound HTTP client for collectors.
// Every request waits on the per-host rate limiter and self-reports to
// the collector trace carried on the context, so adapters get call
// attribution without any trace plumbing of their own.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moltpulse/moltpulse/internal/trace"
)

// Client wraps http.Client with retries, a body size cap, per-host rate
// limiting, and trace recording.
type Client struct {
	hc        *http.Client
	userAgent string
	maxBytes  int64
	retries   int
	limiter   *HostLimiter
}

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBytes    int64
	Retries     int
	RatePerHost float64
	RateBurst   int
}

// New creates a client. Zero option fields get conservative defaults.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 2_000_000
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 2.0
	}

	return &Client{
		hc: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		retries:   opts.Retries,
		limiter:   NewHostLimiter(opts.RatePerHost, opts.RateBurst),
	}
}

// GetJSON fetches the URL and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	body, err := c.get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty response from %s", rawURL)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetText fetches the URL and returns the body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	body, err := c.get(ctx, rawURL, headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJSON sends a JSON payload and decodes the JSON response into v.
func (c *Client) PostJSON(ctx context.Context, rawURL string, headers map[string]string, payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"

	body, err := c.do(ctx, http.MethodPost, rawURL, headers, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, headers, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, headers map[string]string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, status, err := c.doOnce(ctx, method, rawURL, headers, payload)
		latency := status.latency

		if err != nil {
			lastErr = err
			trace.RecordCall(ctx, trace.APICall{
				Endpoint:  rawURL,
				Method:    method,
				Status:    status.code,
				LatencyMS: latency,
				Error:     err.Error(),
			})
			// Client errors will not improve on retry.
			if status.code >= 400 && status.code < 500 && status.code != 429 {
				return nil, err
			}
			continue
		}

		trace.RecordCall(ctx, trace.APICall{
			Endpoint:  rawURL,
			Method:    method,
			Status:    status.code,
			LatencyMS: latency,
		})
		return body, nil
	}

	return nil, fmt.Errorf("%s %s: %w", method, rawURL, lastErr)
}

type callStatus struct {
	code    int
	latency int64
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, headers map[string]string, payload []byte) ([]byte, callStatus, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, callStatus{}, fmt.Errorf("create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/xml, text/html;q=0.9, */*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, callStatus{latency: latency}, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	status := callStatus{code: resp.StatusCode, latency: latency}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, status, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, status, fmt.Errorf("read body: %w", err)
	}
	return body, status, nil
}
