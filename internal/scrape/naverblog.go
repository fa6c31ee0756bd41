package scrape

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/fetcher"
)

const naverBlogBase = "https://blog.naver.com"

// BlogContent is the readable body of a blog post plus the last images
// of the post, kept so a reviewer can spot sponsorship banners.
type BlogContent struct {
	Text         string
	BottomImages []string
}

// BlogScraper extracts post text from Naver blogs, which render the
// actual post inside an iframe.
type BlogScraper struct {
	base string
	http *fetcher.Client
}

// BlogOption configures the scraper.
type BlogOption func(*BlogScraper)

// WithBlogBaseURL overrides the host used to resolve iframe sources.
func WithBlogBaseURL(base string) BlogOption {
	return func(s *BlogScraper) { s.base = base }
}

// WithBlogFetcher overrides the HTTP fetcher.
func WithBlogFetcher(f *fetcher.Client) BlogOption {
	return func(s *BlogScraper) { s.http = f }
}

// NewBlogScraper creates a scraper with polite defaults.
func NewBlogScraper(opts ...BlogOption) *BlogScraper {
	s := &BlogScraper{
		base: naverBlogBase,
		http: fetcher.New(fetcher.Options{
			Delay:       500 * time.Millisecond,
			MaxAttempts: 3,
		}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScrapePost fetches a blog post and returns its main text. The outer
// page only hosts an iframe; the real post lives at the iframe source.
func (s *BlogScraper) ScrapePost(ctx context.Context, postURL string) (*BlogContent, error) {
	outer, err := s.http.Get(ctx, postURL)
	if err != nil {
		return nil, eris.Wrap(err, "blog: fetch post")
	}
	outerDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(outer))
	if err != nil {
		return nil, eris.Wrap(err, "blog: parse outer page")
	}

	src, ok := outerDoc.Find("iframe#mainFrame").First().Attr("src")
	if !ok || src == "" {
		return nil, eris.Errorf("blog: no content iframe at %s", postURL)
	}
	realURL := src
	if !strings.HasPrefix(src, "http") {
		realURL = s.base + src
	}

	inner, err := s.http.Get(ctx, realURL)
	if err != nil {
		return nil, eris.Wrap(err, "blog: fetch iframe content")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(inner))
	if err != nil {
		return nil, eris.Wrap(err, "blog: parse iframe content")
	}

	// Main content only; sidebars and footers would pollute the text.
	container := doc.Find("div.se-main-container").First()
	if container.Length() == 0 {
		// Older blog layout.
		container = doc.Find("div#postViewArea").First()
	}
	if container.Length() == 0 {
		return nil, eris.Errorf("blog: unsupported layout at %s", postURL)
	}

	var blocks []string
	container.Find("p, span, div").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !strings.Contains(class, "se-text") {
			return
		}
		if t := strings.TrimSpace(sel.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	text := strings.Join(blocks, "\n")
	if text == "" {
		text = strings.TrimSpace(container.Text())
	}
	if text == "" {
		return nil, eris.Errorf("blog: empty post body at %s", postURL)
	}

	// Sponsored posts disclose at the bottom, usually as an image banner.
	var images []string
	container.Find("img").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !strings.Contains(class, "se-image") && !strings.Contains(class, "se-sticker") {
			return
		}
		if src, ok := sel.Attr("src"); ok && src != "" {
			images = append(images, src)
		}
	})
	if len(images) > 2 {
		images = images[len(images)-2:]
	}

	return &BlogContent{Text: text, BottomImages: images}, nil
}
