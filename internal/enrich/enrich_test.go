package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-guide/guide-cli/internal/ledger"
	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/pkg/kakao"
)

type fakeKakao struct {
	nearbyDocs   []kakao.Document
	nearbyRadius []int
	nearbyErr    error

	addressCoord *kakao.Coord

	keywordDocs    map[string][]kakao.Document
	keywordQueries []string

	calls int
}

func (f *fakeKakao) SearchNearby(_ context.Context, _ string, _, _ float64, radius int) ([]kakao.Document, error) {
	f.calls++
	f.nearbyRadius = append(f.nearbyRadius, radius)
	return f.nearbyDocs, f.nearbyErr
}

func (f *fakeKakao) SearchKeyword(_ context.Context, query string, _ int) ([]kakao.Document, bool, error) {
	f.calls++
	f.keywordQueries = append(f.keywordQueries, query)
	return f.keywordDocs[query], true, nil
}

func (f *fakeKakao) ResolveAddress(_ context.Context, _ string) (*kakao.Coord, error) {
	f.calls++
	return f.addressCoord, nil
}

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	return ledger.New(filepath.Join(t.TempDir(), "ledger.json"))
}

func placeWithCoords(name string, lat, lon float64) model.Place {
	p := model.Place{Name: name, Address: "Dosan-daero 67", Source: model.SourceMichelin}
	p.SetCoords(lat, lon)
	return p
}

func TestPlaces_NilClientPassesThrough(t *testing.T) {
	e := New(nil, newLedger(t))
	in := []model.Place{{Name: "Mingles"}}
	out, err := e.Places(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPlaces_LedgerHitMakesNoAPICall(t *testing.T) {
	l := newLedger(t)
	l.Update("Mingles", "Dosan-daero 67", ledger.Entry{ID: "26853371", PlaceURL: "http://place.map.kakao.com/26853371", X: "127.0276", Y: "37.5244"})
	require.NoError(t, l.Save())

	fk := &fakeKakao{}
	e := New(fk, l)
	out, err := e.Places(context.Background(), []model.Place{{Name: "Mingles", Address: "Dosan-daero 67"}})
	require.NoError(t, err)
	assert.Zero(t, fk.calls)
	require.Len(t, out, 1)
	assert.Equal(t, "26853371", out[0].KakaoID)
	lat, lon, ok := out[0].Coords()
	require.True(t, ok)
	assert.InDelta(t, 37.5244, lat, 1e-4)
	assert.InDelta(t, 127.0276, lon, 1e-4)
}

func TestPlaces_LedgerMissSentinelMakesNoAPICall(t *testing.T) {
	l := newLedger(t)
	l.Update("Ghost Diner", "", ledger.NotFound())
	require.NoError(t, l.Save())

	fk := &fakeKakao{}
	e := New(fk, l)
	out, err := e.Places(context.Background(), []model.Place{{Name: "Ghost Diner"}})
	require.NoError(t, err)
	assert.Zero(t, fk.calls)
	assert.Empty(t, out[0].KakaoID)
	assert.False(t, out[0].HasCoords())
}

func TestPlaces_KnownCoordsSearchNearbyKeepsCoords(t *testing.T) {
	fk := &fakeKakao{nearbyDocs: []kakao.Document{{
		ID: "111", PlaceURL: "http://place.map.kakao.com/111",
		X: "127.0280", Y: "37.5240",
	}}}
	e := New(fk, newLedger(t))

	out, err := e.Places(context.Background(), []model.Place{placeWithCoords("Mingles", 37.5244, 127.0276)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int{200}, fk.nearbyRadius)
	assert.Equal(t, "111", out[0].KakaoID)

	// Scraped coordinates are trusted over the API's.
	lat, lon, _ := out[0].Coords()
	assert.InDelta(t, 37.5244, lat, 1e-9)
	assert.InDelta(t, 127.0276, lon, 1e-9)
}

func TestPlaces_FarMatchRejected(t *testing.T) {
	// Busan is well beyond the 2km limit from a Seoul coordinate.
	fk := &fakeKakao{nearbyDocs: []kakao.Document{{ID: "999", X: "129.0756", Y: "35.1796"}}}
	l := newLedger(t)
	e := New(fk, l)

	out, err := e.Places(context.Background(), []model.Place{placeWithCoords("Mingles", 37.5244, 127.0276)})
	require.NoError(t, err)
	assert.Empty(t, out[0].KakaoID)
	assert.True(t, out[0].HasCoords())

	entry, ok := l.Get("Mingles", "Dosan-daero 67")
	require.True(t, ok)
	assert.False(t, entry.Miss())
	assert.Empty(t, entry.ID)
	assert.NotEmpty(t, entry.X)
}

func TestPlaces_NoNearbyMatchWritesCoordsOnlyEntry(t *testing.T) {
	fk := &fakeKakao{}
	l := newLedger(t)
	e := New(fk, l)

	_, err := e.Places(context.Background(), []model.Place{placeWithCoords("Mingles", 37.5244, 127.0276)})
	require.NoError(t, err)
	firstRun := fk.calls
	assert.Positive(t, firstRun)

	// Second run hits the ledger and never touches the API.
	_, err = e.Places(context.Background(), []model.Place{placeWithCoords("Mingles", 37.5244, 127.0276)})
	require.NoError(t, err)
	assert.Equal(t, firstRun, fk.calls)
}

func TestPlaces_AddressSearchAnchorsNearbyLookup(t *testing.T) {
	fk := &fakeKakao{
		addressCoord: &kakao.Coord{X: "127.0276", Y: "37.5244"},
		nearbyDocs:   []kakao.Document{{ID: "42", X: "127.0277", Y: "37.5245"}},
	}
	e := New(fk, newLedger(t))

	out, err := e.Places(context.Background(), []model.Place{{Name: "Onjium", Address: "Hyoja-ro 49", Source: model.SourceMichelin}})
	require.NoError(t, err)
	assert.Equal(t, []int{100}, fk.nearbyRadius)
	assert.Equal(t, "42", out[0].KakaoID)
	lat, lon, ok := out[0].Coords()
	require.True(t, ok)
	assert.InDelta(t, 37.5245, lat, 1e-4)
	assert.InDelta(t, 127.0277, lon, 1e-4)
}

func TestPlaces_KeywordFallbackSkippedForEnglishSources(t *testing.T) {
	fk := &fakeKakao{}
	l := newLedger(t)
	e := New(fk, l)

	out, err := e.Places(context.Background(), []model.Place{{Name: "Evett", Source: model.SourceMichelin}})
	require.NoError(t, err)
	assert.Empty(t, fk.keywordQueries, "no global keyword search for english names")
	assert.False(t, out[0].HasCoords())

	entry, ok := l.Get("Evett", "")
	require.True(t, ok)
	assert.True(t, entry.Miss())
}

func TestPlaces_KeywordFallbackTriesAddressTokens(t *testing.T) {
	fk := &fakeKakao{keywordDocs: map[string][]kakao.Document{
		"우래옥 서울 중구 창경궁로": {{ID: "7", X: "126.9986", Y: "37.5680"}},
	}}
	e := New(fk, newLedger(t), WithDelay(time.Millisecond))

	out, err := e.Places(context.Background(), []model.Place{{
		Name: "우래옥", Address: "서울 중구 창경궁로 62-29", Source: model.SourceBlueRibbon,
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"우래옥", "우래옥 서울 중구 창경궁로"}, fk.keywordQueries)
	assert.Equal(t, "7", out[0].KakaoID)
	assert.True(t, out[0].HasCoords())
}

func TestPlaces_LookupErrorSkipsPlace(t *testing.T) {
	fk := &fakeKakao{nearbyErr: errors.New("connection reset")}
	l := newLedger(t)
	e := New(fk, l)

	out, err := e.Places(context.Background(), []model.Place{placeWithCoords("Mingles", 37.5244, 127.0276)})
	require.NoError(t, err, "per-place failures never abort the run")
	require.Len(t, out, 1)
	assert.Empty(t, out[0].KakaoID)

	_, ok := l.Get("Mingles", "Dosan-daero 67")
	assert.False(t, ok, "failed lookups are not recorded")
}

func TestDistanceMeters(t *testing.T) {
	// Gangnam station to Yeoksam station is roughly 700m.
	d := distanceMeters(37.4979, 127.0276, 37.5006, 127.0364)
	assert.InDelta(t, 700, d, 150)
	assert.Zero(t, distanceMeters(37.5, 127.0, 37.5, 127.0))
}
