package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-guide/guide-cli/internal/fetcher"
)

func fastFetcher() *fetcher.Client {
	return fetcher.New(fetcher.Options{
		Delay:       time.Millisecond,
		MaxAttempts: 2,
		MaxBackoff:  time.Millisecond,
	})
}

func TestSearchBlogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search/blog.json", r.URL.Path)
		assert.Equal(t, "id-123", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret-456", r.Header.Get("X-Naver-Client-Secret"))
		q := r.URL.Query()
		assert.Equal(t, "서울 교촌치킨 강남역점", q.Get("query"))
		assert.Equal(t, "10", q.Get("display"))
		assert.Equal(t, "sim", q.Get("sort"))

		_, _ = w.Write([]byte(`{"items":[{"title":"<b>교촌치킨</b> 강남역점 후기","link":"https://blog.naver.com/foodie/123","description":"진짜 <b>맛집</b>","bloggername":"foodie","postdate":"20250812"}]}`))
	}))
	defer srv.Close()

	c := NewClient("id-123", "secret-456", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	posts, err := c.SearchBlogs(context.Background(), "서울 교촌치킨 강남역점")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "교촌치킨 강남역점 후기", posts[0].Title, "highlight markup stripped")
	assert.Equal(t, "진짜 맛집", posts[0].Description)
	assert.Equal(t, "https://blog.naver.com/foodie/123", posts[0].Link)
}

func TestSearchBlogs_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad", "creds", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	_, err := c.SearchBlogs(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, fetcher.IsStatus(err, http.StatusUnauthorized))
}
