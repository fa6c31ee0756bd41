package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogInnerModern = `<html><body>
<div class="se-main-container">
  <p class="se-text-paragraph"><span class="se-text">성수동 숨은 맛집 발견.</span></p>
  <p class="se-text-paragraph"><span class="se-text">김치찌개가 정말 끝내줍니다.</span></p>
  <img class="se-image-resource" src="https://post.example/food1.jpg">
  <img class="se-image-resource" src="https://post.example/food2.jpg">
  <img class="se-image-resource" src="https://post.example/sponsor-banner.jpg">
</div>
<div class="sidebar">광고 배너</div>
</body></html>`

const blogInnerLegacy = `<html><body>
<div id="postViewArea">옛날 레이아웃 포스트 본문입니다.</div>
</body></html>`

func blogOuter(iframeSrc string) string {
	return fmt.Sprintf(`<html><body><iframe id="mainFrame" src="%s"></iframe></body></html>`, iframeSrc)
}

func TestScrapePost_ModernLayout(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/foodie/123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, blogOuter("/PostView.naver?blogId=foodie&logNo=123"))
	})
	mux.HandleFunc("/PostView.naver", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, blogInnerModern)
	})

	s := NewBlogScraper(WithBlogBaseURL(srv.URL), WithBlogFetcher(fastFetcher(t)))
	content, err := s.ScrapePost(context.Background(), srv.URL+"/foodie/123")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "성수동 숨은 맛집 발견.")
	assert.Contains(t, content.Text, "김치찌개가 정말 끝내줍니다.")
	assert.NotContains(t, content.Text, "광고 배너", "sidebar content excluded")

	// Only the last two images are kept for banner detection.
	assert.Equal(t, []string{
		"https://post.example/food2.jpg",
		"https://post.example/sponsor-banner.jpg",
	}, content.BottomImages)
}

func TestScrapePost_LegacyLayoutFallback(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/old/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, blogOuter("/PostView.naver?blogId=old&logNo=1"))
	})
	mux.HandleFunc("/PostView.naver", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, blogInnerLegacy)
	})

	s := NewBlogScraper(WithBlogBaseURL(srv.URL), WithBlogFetcher(fastFetcher(t)))
	content, err := s.ScrapePost(context.Background(), srv.URL+"/old/1")
	require.NoError(t, err)
	assert.Equal(t, "옛날 레이아웃 포스트 본문입니다.", content.Text)
	assert.Empty(t, content.BottomImages)
}

func TestScrapePost_NoIframe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body>no iframe here</body></html>")
	}))
	defer srv.Close()

	s := NewBlogScraper(WithBlogBaseURL(srv.URL), WithBlogFetcher(fastFetcher(t)))
	_, err := s.ScrapePost(context.Background(), srv.URL+"/whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content iframe")
}

func TestScrapePost_UnsupportedLayout(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, blogOuter("/PostView.naver"))
	})
	mux.HandleFunc("/PostView.naver", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><div class='other-layout'>text</div></body></html>")
	})

	s := NewBlogScraper(WithBlogBaseURL(srv.URL), WithBlogFetcher(fastFetcher(t)))
	_, err := s.ScrapePost(context.Background(), srv.URL+"/post")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported layout")
}
