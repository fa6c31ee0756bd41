package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/pkg/bluer"
)

const bluerZonePage = `{
  "_embedded": {
    "restaurants": [
      {
        "id": 101,
        "status": "ACTIVE",
        "headerInfo": {"nameKR": "우래옥", "nameEN": "Woo Lae Oak", "ribbonType": "RIBBON_TWO", "bookYear": "2025"},
        "juso": {"roadAddrPart1": "서울 중구 창경궁로 62-29"},
        "gps": {"latitude": "37.5680", "longitude": "126.9986"},
        "defaultInfo": {"phone": "02-2265-0151"},
        "comment": "평양냉면의 정석."
      },
      {
        "id": 102,
        "status": "ACTIVE",
        "headerInfo": {"nameKR": "문닫은집", "ribbonType": "NONE", "bookYear": "2025"},
        "juso": {"roadAddrPart1": "서울 어딘가"}
      },
      {
        "id": 103,
        "status": "CLOSED",
        "headerInfo": {"nameKR": "폐업집", "ribbonType": "RIBBON_ONE", "bookYear": "2025"}
      }
    ]
  },
  "_links": {}
}`

func TestBlueRibbonPlaces(t *testing.T) {
	var zones []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zones = append(zones, r.URL.Query().Get("zone1"))
		_, _ = fmt.Fprint(w, bluerZonePage)
	}))
	defer srv.Close()

	client := bluer.NewClient(bluer.WithBaseURL(srv.URL), bluer.WithHTTP(fastFetcher(t)))
	places, err := BlueRibbonPlaces(context.Background(), client, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"서울 강북", "서울 강남"}, zones, "default zones split Seoul at the river")

	// Only the active, ribboned entry survives, once per zone.
	require.Len(t, places, 2)
	p := places[0]
	assert.Equal(t, model.SourceBlueRibbon, p.Source)
	assert.Equal(t, "우래옥", p.Name)
	assert.Equal(t, "서울 중구 창경궁로 62-29", p.Address)
	assert.Equal(t, "RIBBON_TWO", p.Category)
	assert.Equal(t, "02-2265-0151", p.Phone)
	assert.Equal(t, "2025", p.Year)
	assert.Equal(t, "평양냉면의 정석.", p.Description)
	lat, lon, ok := p.Coords()
	require.True(t, ok)
	assert.InDelta(t, 37.5680, lat, 1e-4)
	assert.InDelta(t, 126.9986, lon, 1e-4)
}

func TestBlueRibbonPlaces_YearFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, bluerZonePage)
	}))
	defer srv.Close()

	client := bluer.NewClient(bluer.WithBaseURL(srv.URL), bluer.WithHTTP(fastFetcher(t)))
	places, err := BlueRibbonPlaces(context.Background(), client, []string{"서울 강남"}, map[string]bool{"2024": true})
	require.NoError(t, err)
	assert.Empty(t, places, "2025 edition filtered out by a 2024-only year set")
}
