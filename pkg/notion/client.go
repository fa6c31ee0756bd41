// Package notion publishes the discovery review queue to a Notion
// database.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Notion allows 3 requests per second per integration.
const defaultRequestsPerSecond = 3

// Client is the slice of the Notion API the review queue needs.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*apiClient)

// WithRateLimit replaces the default request throttle. A non-positive
// rate disables throttling entirely.
func WithRateLimit(rps float64) ClientOption {
	return func(c *apiClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

type apiClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// NewClient builds a throttled Notion client from an integration token.
func NewClient(token string, opts ...ClientOption) Client {
	c := &apiClient{
		api:     notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(defaultRequestsPerSecond, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *apiClient) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

func (c *apiClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", dbID)
	}
	return resp, nil
}

func (c *apiClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}
