// Package kakao wraps the Kakao Local REST API: keyword search for
// place metadata and address search for coordinates.
package kakao

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/fetcher"
)

const defaultBaseURL = "https://dapi.kakao.com"

// foodCategory is the Kakao category group code for restaurants.
const foodCategory = "FD6"

// Client performs Kakao Local API operations.
type Client interface {
	// SearchNearby finds places matching query within radius meters of
	// the given point, nearest first.
	SearchNearby(ctx context.Context, query string, lon, lat float64, radius int) ([]Document, error)
	// SearchKeyword runs a paged keyword search without a location
	// bias. It returns the page's documents and whether this was the
	// last page.
	SearchKeyword(ctx context.Context, query string, page int) ([]Document, bool, error)
	// ResolveAddress geocodes a road or lot address, trying cleaned
	// query variants until one returns a result. A nil result with a
	// nil error means no variant matched.
	ResolveAddress(ctx context.Context, address string) (*Coord, error)
}

// Document is a place returned by keyword search.
type Document struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	PlaceURL        string `json:"place_url"`
	CategoryName    string `json:"category_name"`
	Phone           string `json:"phone"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
	Distance        string `json:"distance"`
}

// Coord is a geocoded point in Kakao's string encoding
// (X is longitude, Y is latitude).
type Coord struct {
	X string `json:"x"`
	Y string `json:"y"`
}

type keywordResponse struct {
	Documents []Document `json:"documents"`
	Meta      struct {
		IsEnd bool `json:"is_end"`
	} `json:"meta"`
}

type addressResponse struct {
	Documents []Coord `json:"documents"`
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

// NewClient creates a Kakao Local API client authenticating with the
// given REST API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		baseURL: defaultBaseURL,
		http: fetcher.New(fetcher.Options{
			Timeout:     10 * time.Second,
			Delay:       100 * time.Millisecond,
			MaxAttempts: 4,
			MaxBackoff:  15 * time.Second,
		}),
	}
	for _, o := range opts {
		o(c)
	}
	// Auth applies to replacement fetchers too.
	c.http.SetHeader("Authorization", "KakaoAK "+apiKey)
	return c
}

func (c *client) SearchNearby(ctx context.Context, query string, lon, lat float64, radius int) ([]Document, error) {
	q := url.Values{}
	q.Set("query", truncateQuery(query))
	q.Set("size", "3")
	q.Set("category_group_code", foodCategory)
	q.Set("x", fmt.Sprintf("%f", lon))
	q.Set("y", fmt.Sprintf("%f", lat))
	q.Set("radius", fmt.Sprintf("%d", radius))
	q.Set("sort", "distance")

	docs, _, err := c.keywordSearch(ctx, q)
	return docs, err
}

func (c *client) SearchKeyword(ctx context.Context, query string, page int) ([]Document, bool, error) {
	q := url.Values{}
	q.Set("query", truncateQuery(query))
	q.Set("size", "15")
	q.Set("category_group_code", foodCategory)
	if page > 1 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	return c.keywordSearch(ctx, q)
}

func (c *client) keywordSearch(ctx context.Context, q url.Values) ([]Document, bool, error) {
	var resp keywordResponse
	err := c.http.GetJSON(ctx, c.baseURL+"/v2/local/search/keyword.json?"+q.Encode(), &resp)
	if err != nil {
		// Kakao answers 400 for queries it cannot parse; treat as no match.
		if fetcher.IsStatus(err, 400) {
			return nil, true, nil
		}
		return nil, false, eris.Wrap(err, "kakao: keyword search")
	}
	return resp.Documents, resp.Meta.IsEnd, nil
}

func (c *client) ResolveAddress(ctx context.Context, address string) (*Coord, error) {
	for _, query := range addressQueries(address) {
		q := url.Values{}
		q.Set("query", query)
		q.Set("analyze_type", "similar")

		var resp addressResponse
		err := c.http.GetJSON(ctx, c.baseURL+"/v2/local/search/address.json?"+q.Encode(), &resp)
		if err != nil {
			if fetcher.IsStatus(err, 400) {
				continue
			}
			return nil, eris.Wrap(err, "kakao: address search")
		}
		if len(resp.Documents) > 0 {
			d := resp.Documents[0]
			return &d, nil
		}
	}
	return nil, nil
}

var (
	floorRe  = regexp.MustCompile(`(?i)\bB?\d+F\b,?`)
	zipRe    = regexp.MustCompile(`\b\d{5}\b`)
	guRe     = regexp.MustCompile(`(?i)([a-zA-Z]+-gu)`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// addressQueries builds search variants for an address. English-ordered
// addresses ("12 Dosan-daero, Gangnam-gu, Seoul") geocode poorly as-is,
// so when a "-gu" district appears the Korean ordering
// "Seoul <gu> <rest>" is tried first.
func addressQueries(address string) []string {
	clean := floorRe.ReplaceAllString(address, "")
	clean = zipRe.ReplaceAllString(clean, "")
	clean = strings.ReplaceAll(clean, "South Korea", "")
	clean = strings.ReplaceAll(clean, "Seoul", "")
	clean = strings.ReplaceAll(clean, ",", " ")
	clean = strings.TrimSpace(clean)

	queries := []string{clean}
	if m := guRe.FindString(clean); m != "" {
		rest := strings.TrimSpace(strings.Replace(clean, m, "", 1))
		queries = append([]string{"Seoul " + m + " " + rest}, queries...)
	}

	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(spacesRe.ReplaceAllString(q, " "))
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}

// truncateQuery keeps queries under Kakao's length limit.
func truncateQuery(q string) string {
	runes := []rune(q)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return q
}
