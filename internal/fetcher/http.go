// Package fetcher provides the polite HTTP client shared by the site
// scrapers: a politeness delay before every request, bounded retries with
// exponential backoff and jitter on transient statuses, and Retry-After
// support for rate-limited endpoints.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/neon-guide/guide-cli/internal/resilience"
)

// Options configures a Client.
type Options struct {
	// UserAgent is sent on every request. Default: a desktop browser string
	// (the listing sites reject obvious bot agents).
	UserAgent string

	// Headers are extra headers sent on every request (e.g. Referer/Origin).
	Headers map[string]string

	// Timeout is the per-request HTTP timeout. Default: 20s.
	Timeout time.Duration

	// Delay is the politeness delay between requests. Default: 500ms.
	Delay time.Duration

	// MaxAttempts caps attempts per request, including the first. Default: 3.
	MaxAttempts int

	// MaxBackoff caps the computed wait between attempts. Default: 60s.
	MaxBackoff time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StatusError reports a permanent (non-retried) HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsStatus reports whether err carries the given permanent HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return eris.As(err, &se) && se.Code == code
}

// Client issues sequential, rate-limited GETs with retry/backoff.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
	retry   resilience.RetryConfig
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 60 * time.Second
	}

	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
		opts:    opts,
		retry: resilience.RetryConfig{
			MaxAttempts:    opts.MaxAttempts,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     opts.MaxBackoff,
			Multiplier:     2.0,
			JitterFraction: 0.25,
		},
	}
}

// SetHeader sets a header sent on every subsequent request.
func (c *Client) SetHeader(key, value string) {
	if c.opts.Headers == nil {
		c.opts.Headers = map[string]string{}
	}
	c.opts.Headers[key] = value
}

// Get fetches rawURL, retrying transient failures up to the attempt cap.
// A non-2xx status outside the transient set is returned as a *StatusError
// without retrying.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.getOnce(ctx, rawURL)
	})
}

// GetJSON fetches rawURL and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return eris.Wrapf(err, "fetcher: decode json from %s", rawURL)
	}
	return nil
}

func (c *Client) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	// Politeness delay applies to retries too.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewRateLimitedError(
			eris.Errorf("fetcher: 429 from %s", rawURL),
			parseRetryAfter(resp.Header.Get("Retry-After")),
		)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(eris.Errorf("fetcher: %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	return body, nil
}

// parseRetryAfter reads a numeric Retry-After value in seconds; anything
// else (HTTP dates included) falls back to the computed backoff.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
