package kakao

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

func TestSearchNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/local/search/keyword.json", r.URL.Path)
		assert.Equal(t, "KakaoAK test-key", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "Mingles", q.Get("query"))
		assert.Equal(t, "FD6", q.Get("category_group_code"))
		assert.Equal(t, "200", q.Get("radius"))
		assert.Equal(t, "distance", q.Get("sort"))
		assert.Equal(t, "3", q.Get("size"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"documents":[{"id":"26853371","place_name":"밍글스","place_url":"http://place.map.kakao.com/26853371","x":"127.0276","y":"37.5244"}],"meta":{"is_end":true}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	docs, err := c.SearchNearby(context.Background(), "Mingles", 127.0276, 37.5244, 200)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "26853371", docs[0].ID)
	assert.Equal(t, "밍글스", docs[0].PlaceName)
}

func TestSearchKeyword_Paging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "15", q.Get("size"))
		if q.Get("page") == "2" {
			_, _ = w.Write([]byte(`{"documents":[{"id":"2"}],"meta":{"is_end":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"documents":[{"id":"1"}],"meta":{"is_end":false}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))

	docs, end, err := c.SearchKeyword(context.Background(), "성수동 맛집", 1)
	require.NoError(t, err)
	assert.False(t, end)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)

	docs, end, err = c.SearchKeyword(context.Background(), "성수동 맛집", 2)
	require.NoError(t, err)
	assert.True(t, end)
	assert.Equal(t, "2", docs[0].ID)
}

func TestSearchKeyword_BadRequestMeansNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	docs, end, err := c.SearchKeyword(context.Background(), "???", 1)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.True(t, end)
}

func TestResolveAddress_GuFlipTriedFirst(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/local/search/address.json", r.URL.Path)
		queries = append(queries, r.URL.Query().Get("query"))
		if len(queries) == 1 {
			_, _ = w.Write([]byte(`{"documents":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"documents":[{"x":"127.0276","y":"37.5244"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	coord, err := c.ResolveAddress(context.Background(), "12 Dosan-daero, Gangnam-gu, Seoul 06035, South Korea")
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.Equal(t, "127.0276", coord.X)

	require.Len(t, queries, 2)
	assert.Equal(t, "Seoul Gangnam-gu 12 Dosan-daero", queries[0], "Korean ordering tried first")
	assert.Equal(t, "12 Dosan-daero Gangnam-gu", queries[1])
}

func TestResolveAddress_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithFetcher(fastFetcher()))
	coord, err := c.ResolveAddress(context.Background(), "서울 어딘가")
	require.NoError(t, err)
	assert.Nil(t, coord)
}

func TestAddressQueries_CleansFloorsAndZip(t *testing.T) {
	qs := addressQueries("3F, 12 Dosan-daero, Gangnam-gu, Seoul 06035, South Korea")
	require.NotEmpty(t, qs)
	for _, q := range qs {
		assert.NotContains(t, q, "3F")
		assert.NotContains(t, q, "06035")
		assert.NotContains(t, q, ",")
	}
}

func TestTruncateQuery(t *testing.T) {
	long := make([]rune, 120)
	for i := range long {
		long[i] = '가'
	}
	assert.Len(t, []rune(truncateQuery(string(long))), 80)
	assert.Equal(t, "short", truncateQuery("short"))
}
