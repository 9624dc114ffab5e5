package sources

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// UserAgent is sent on every upstream request so competition operators can
// identify the updater in their logs.
const UserAgent = "mind-leaderboard updater (https://msnews.github.io/)"

const defaultTimeout = 45 * time.Second

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Client is the shared HTTP client for all upstream sources. Requests are
// rate limited so a refresh of every source stays polite to the competition
// hosts.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the default 45s request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithInsecureTLS disables certificate verification. Only for networks that
// inject a self-signed proxy certificate.
func WithInsecureTLS() ClientOption {
	return func(c *Client) {
		c.http.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithRateLimit overrides the default limit of 2 requests/second.
func WithRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// NewClient creates a Client with the given options applied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(2, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs one GET against url with the standard headers plus extra, and
// returns the full response body. Non-2xx statuses fail with *StatusError.
func (c *Client) Get(ctx context.Context, url string, extra http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
