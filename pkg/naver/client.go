// Package naver wraps the Naver Open API blog search.
package naver

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/fetcher"
)

const defaultBaseURL = "https://openapi.naver.com"

// Client performs Naver Open API operations.
type Client interface {
	// SearchBlogs finds blog posts about the query, most relevant first.
	SearchBlogs(ctx context.Context, query string) ([]BlogPost, error)
}

// BlogPost is one blog search result. Title and Description carry
// Naver's <b> highlight markup in the raw response; both are returned
// with the markup stripped.
type BlogPost struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	BloggerName string `json:"bloggername"`
	PostDate    string `json:"postdate"`
}

type blogResponse struct {
	Items []BlogPost `json:"items"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithFetcher overrides the default HTTP fetcher.
func WithFetcher(f *fetcher.Client) Option {
	return func(c *client) { c.http = f }
}

type client struct {
	baseURL string
	http    *fetcher.Client
}

// NewClient creates a Naver Open API client with the given application
// credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &client{
		baseURL: defaultBaseURL,
		http: fetcher.New(fetcher.Options{
			Timeout:     10 * time.Second,
			Delay:       200 * time.Millisecond,
			MaxAttempts: 4,
			MaxBackoff:  15 * time.Second,
		}),
	}
	for _, o := range opts {
		o(c)
	}
	// Auth applies to replacement fetchers too.
	c.http.SetHeader("X-Naver-Client-Id", clientID)
	c.http.SetHeader("X-Naver-Client-Secret", clientSecret)
	return c
}

func (c *client) SearchBlogs(ctx context.Context, query string) ([]BlogPost, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("display", "10")
	q.Set("sort", "sim")

	var resp blogResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v1/search/blog.json?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "naver: blog search")
	}

	for i := range resp.Items {
		resp.Items[i].Title = stripHighlight(resp.Items[i].Title)
		resp.Items[i].Description = stripHighlight(resp.Items[i].Description)
	}
	return resp.Items, nil
}

func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}
