// Package scrape turns guide sites and blog posts into structured records.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/fetcher"
	"github.com/neon-guide/guide-cli/internal/model"
)

const (
	michelinBaseURL = "https://guide.michelin.com"
	michelinSeoul   = "/en/kr/seoul-capital-area/seoul/restaurants"
)

// MichelinScraper collects every Seoul restaurant from the guide's
// listing pages and parses each detail page.
type MichelinScraper struct {
	base    string
	listing string
	http    *fetcher.Client
	limit   int
}

// MichelinOption configures the scraper.
type MichelinOption func(*MichelinScraper)

// WithMichelinBaseURL points the scraper at a different host.
func WithMichelinBaseURL(base string) MichelinOption {
	return func(s *MichelinScraper) { s.base = base }
}

// WithMichelinFetcher overrides the HTTP fetcher.
func WithMichelinFetcher(f *fetcher.Client) MichelinOption {
	return func(s *MichelinScraper) { s.http = f }
}

// WithMichelinLimit caps the number of detail pages fetched.
func WithMichelinLimit(n int) MichelinOption {
	return func(s *MichelinScraper) { s.limit = n }
}

// NewMichelin creates a scraper with polite defaults.
func NewMichelin(opts ...MichelinOption) *MichelinScraper {
	s := &MichelinScraper{
		base:    michelinBaseURL,
		listing: michelinSeoul,
		http: fetcher.New(fetcher.Options{
			Headers: map[string]string{
				"Accept-Language": "en-US,en;q=0.9",
			},
			Delay:       500 * time.Millisecond,
			MaxAttempts: 4,
		}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run walks the listing pagination, then fetches each detail page in
// sorted URL order. Detail failures are logged and skipped.
func (s *MichelinScraper) Run(ctx context.Context) ([]model.Place, error) {
	urls, err := s.collectDetailURLs(ctx)
	if err != nil {
		return nil, err
	}
	if s.limit > 0 && len(urls) > s.limit {
		urls = urls[:s.limit]
	}
	zap.L().Info("michelin detail pages collected", zap.Int("count", len(urls)))

	capturedAt := time.Now().UTC()
	places := make([]model.Place, 0, len(urls))
	for _, u := range urls {
		p, err := s.scrapeDetail(ctx, u, capturedAt)
		if err != nil {
			zap.L().Warn("michelin detail failed, skipping", zap.String("url", u), zap.Error(err))
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// collectDetailURLs pages through /page/N until the site 404s, a page
// has no restaurant links, or a page adds nothing new.
func (s *MichelinScraper) collectDetailURLs(ctx context.Context) ([]string, error) {
	base, err := url.Parse(s.base)
	if err != nil {
		return nil, eris.Wrapf(err, "michelin: parse base url %q", s.base)
	}

	seen := make(map[string]bool)
	for page := 1; ; page++ {
		pageURL := s.base + s.listing
		if page > 1 {
			pageURL += "/page/" + strconv.Itoa(page)
		}

		body, err := s.http.Get(ctx, pageURL)
		if err != nil {
			if fetcher.IsStatus(err, 404) {
				break
			}
			if page == 1 {
				return nil, eris.Wrap(err, "michelin: fetch first listing page")
			}
			zap.L().Warn("michelin listing page failed, stopping pagination",
				zap.Int("page", page), zap.Error(err))
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrapf(err, "michelin: parse listing page %d", page)
		}

		added := 0
		doc.Find("a[href*='/restaurant/']").Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			full := base.ResolveReference(ref).String()
			if !seen[full] {
				seen[full] = true
				added++
			}
		})
		if added == 0 {
			break
		}
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

func (s *MichelinScraper) scrapeDetail(ctx context.Context, detailURL string, capturedAt time.Time) (model.Place, error) {
	body, err := s.http.Get(ctx, detailURL)
	if err != nil {
		return model.Place{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.Place{}, eris.Wrap(err, "michelin: parse detail page")
	}

	p := model.Place{
		Source:     model.SourceMichelin,
		City:       "Seoul",
		Country:    "South Korea",
		URL:        detailURL,
		CapturedAt: capturedAt,
	}

	p.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	if p.Name == "" {
		p.Name = "Unknown"
	}
	p.Description = strings.TrimSpace(doc.Find(".data-sheet__description").First().Text())

	// The data sheet shows "₩₩₩ · Korean Contemporary".
	if pc := strings.TrimSpace(doc.Find(".data-sheet__block--text").First().Text()); pc != "" {
		if before, after, found := strings.Cut(pc, "·"); found {
			p.Price = strings.TrimSpace(before)
			p.Cuisine = strings.TrimSpace(after)
		} else {
			p.Cuisine = pc
		}
	}

	lat, lon, addr := parseJSONLD(doc)
	if addr != "" {
		p.Address = addr
	}

	bodyText := doc.Find("body").Text()
	if lat == nil || lon == nil {
		lat, lon = coordRegexFallback(string(body))
	}
	if lat != nil && lon != nil {
		p.SetCoords(*lat, *lon)
	}
	if p.Address == "" {
		if m := seoulAddrRe.FindString(bodyText); m != "" {
			p.Address = strings.TrimSpace(m)
		}
	}
	p.Category = distinctionFromText(bodyText)

	return p, nil
}

// ldBlock is one JSON-LD entry, decoded tolerantly: @type may be a
// string or array, address a string or object, coordinates numbers or
// strings.
type ldBlock struct {
	Type    any             `json:"@type"`
	Address json.RawMessage `json:"address"`
	Geo     struct {
		Latitude  any `json:"latitude"`
		Longitude any `json:"longitude"`
	} `json:"geo"`
}

type ldAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
}

// parseJSONLD scans every ld+json script for an address and, preferring
// Restaurant/FoodEstablishment entries, coordinates.
func parseJSONLD(doc *goquery.Document) (lat, lon *float64, address string) {
	doc.Find(`script[type='application/ld+json']`).Each(func(_ int, sel *goquery.Selection) {
		raw := []byte(sel.Text())

		var blocks []ldBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			var single ldBlock
			if err := json.Unmarshal(raw, &single); err != nil {
				return
			}
			blocks = []ldBlock{single}
		}

		for _, b := range blocks {
			if address == "" && len(b.Address) > 0 {
				var a ldAddress
				if err := json.Unmarshal(b.Address, &a); err == nil && a.StreetAddress != "" {
					address = strings.TrimSpace(a.StreetAddress + ", " + a.AddressLocality)
				}
			}
			if isRestaurantType(b.Type) {
				la, okLa := toFloat(b.Geo.Latitude)
				lo, okLo := toFloat(b.Geo.Longitude)
				if okLa && okLo {
					lat, lon = &la, &lo
				}
			}
		}
	})
	return lat, lon, address
}

func isRestaurantType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Restaurant" || v == "FoodEstablishment"
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && (s == "Restaurant" || s == "FoodEstablishment") {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

var (
	latRe       = regexp.MustCompile(`["']?latitude["']?\s*[:=]\s*["']?([0-9.]+)["']?`)
	lonRe       = regexp.MustCompile(`["']?longitude["']?\s*[:=]\s*["']?([0-9.]+)["']?`)
	seoulAddrRe = regexp.MustCompile(`([^\n]+,\s*Seoul)`)
)

// coordRegexFallback scans raw HTML for latitude/longitude attributes
// when no JSON-LD block carried a geo object.
func coordRegexFallback(html string) (*float64, *float64) {
	latM := latRe.FindStringSubmatch(html)
	lonM := lonRe.FindStringSubmatch(html)
	if latM == nil || lonM == nil {
		return nil, nil
	}
	lat, errLa := strconv.ParseFloat(latM[1], 64)
	lon, errLo := strconv.ParseFloat(lonM[1], 64)
	if errLa != nil || errLo != nil {
		return nil, nil
	}
	return &lat, &lon
}

// distinctionFromText maps the award wording on the page to a category.
func distinctionFromText(bodyText string) string {
	lower := strings.ToLower(bodyText)
	switch {
	case strings.Contains(lower, "3 stars"):
		return "3 Stars"
	case strings.Contains(lower, "2 stars"):
		return "2 Stars"
	case strings.Contains(lower, "1 star"):
		return "1 Star"
	case strings.Contains(lower, "bib gourmand"):
		return "Bib Gourmand"
	}
	return "Selected"
}
