// Package bluer collects restaurant listings from the Blue Ribbon Survey
// API, following its HAL-style pagination (an _embedded item collection plus
// a _links.next href) zone by zone.
package bluer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/fetcher"
)

const defaultBaseURL = "https://bluer.co.kr"

// Client pages through the restaurants listing endpoint.
type Client struct {
	baseURL  *url.URL
	http     *fetcher.Client
	pageSize int
	maxPages int
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

// WithHTTP overrides the underlying polite HTTP client.
func WithHTTP(h *fetcher.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithMaxPages caps the pages followed per zone.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithPageSize sets the page size requested from the listing endpoint.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a Client. The defaults mirror what the site itself
// sends: a browser user agent, search-page referer, and a sub-second delay
// between page requests; 429s retry with backoff up to six attempts.
func NewClient(opts ...Option) *Client {
	base, _ := url.Parse(defaultBaseURL)
	c := &Client{
		baseURL:  base,
		pageSize: 24,
		maxPages: 200,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = fetcher.New(fetcher.Options{
			Delay:       800 * time.Millisecond,
			MaxAttempts: 6,
			MaxBackoff:  60 * time.Second,
			Headers: map[string]string{
				"Accept":          "application/json, text/plain, */*",
				"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
				"Referer":         c.baseURL.String() + "/search",
				"Origin":          c.baseURL.String(),
			},
		})
	}
	return c
}

// CollectZone follows the listing's next links for one zone and returns the
// concatenated items in page order. It stops at the page cap, an empty page,
// or a missing next link. A page that exhausts its retries aborts the whole
// zone with an error.
func (c *Client) CollectZone(ctx context.Context, zone string) ([]Restaurant, error) {
	log := zap.L().With(zap.String("zone", zone))

	pageURL := c.firstPageURL(zone)
	var all []Restaurant

	for pageNum := 1; pageNum <= c.maxPages; pageNum++ {
		var page halPage
		if err := c.http.GetJSON(ctx, pageURL, &page); err != nil {
			return nil, eris.Wrapf(err, "bluer: fetch page %d for zone %q", pageNum, zone)
		}

		items, err := page.items()
		if err != nil {
			return nil, eris.Wrapf(err, "bluer: decode items on page %d for zone %q", pageNum, zone)
		}
		all = append(all, items...)

		next := page.next()
		log.Debug("collected listing page",
			zap.Int("page", pageNum),
			zap.Int("items", len(items)),
			zap.Int("total", len(all)),
			zap.Bool("next", next != ""),
		)

		if len(items) == 0 || next == "" {
			break
		}
		pageURL = c.normalizeNextURL(next)
	}

	return all, nil
}

// firstPageURL builds the page-1 query. The blank foodType params are sent
// because the site sends them.
func (c *Client) firstPageURL(zone string) string {
	q := url.Values{}
	q.Set("query", "")
	q.Set("zone1", zone)
	q.Set("page", "1")
	q.Set("size", fmt.Sprintf("%d", c.pageSize))
	q.Set("foodType", "")
	q.Set("foodTypeDetail", "")
	return c.baseURL.String() + "/api/v1/restaurants?" + q.Encode()
}

// normalizeNextURL repairs the quirky next hrefs the API emits (wrong
// scheme/port such as http://host:443, relative paths) and drops repeated
// sort parameters while preserving their first occurrence.
func (c *Client) normalizeNextURL(next string) string {
	var u *url.URL
	if strings.HasPrefix(next, "/") {
		parsed, err := url.Parse(next)
		if err != nil {
			return next
		}
		u = c.baseURL.ResolveReference(parsed)
	} else {
		parsed, err := url.Parse(next)
		if err != nil {
			return next
		}
		parsed.Scheme = c.baseURL.Scheme
		parsed.Host = c.baseURL.Host
		u = parsed
	}

	seenSorts := map[string]bool{}
	cleaned := url.Values{}
	var order []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, _ := url.QueryUnescape(k)
		val, _ := url.QueryUnescape(v)
		if key == "sort" {
			if seenSorts[val] {
				continue
			}
			seenSorts[val] = true
		}
		if _, ok := cleaned[key]; !ok {
			order = append(order, key)
		}
		cleaned.Add(key, val)
	}

	var b strings.Builder
	for _, key := range order {
		for _, val := range cleaned[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	u.RawQuery = b.String()
	return u.String()
}
