// Package enrich resolves places against Kakao Local: it attaches Kakao
// IDs and place URLs, fills in missing coordinates, and records every
// outcome in a persistent ledger so later runs skip the API entirely.
package enrich

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/ledger"
	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/pkg/kakao"
)

// maxMatchDistanceMeters rejects API candidates implausibly far from a
// coordinate we already trust.
const maxMatchDistanceMeters = 2000

// Enricher runs the lookup strategies over a place list.
type Enricher struct {
	kakao  kakao.Client
	ledger *ledger.Ledger
	delay  time.Duration
}

// Option configures the Enricher.
type Option func(*Enricher)

// WithDelay sets the pause between fallback keyword queries.
func WithDelay(d time.Duration) Option {
	return func(e *Enricher) { e.delay = d }
}

// New creates an Enricher. A nil Kakao client turns enrichment into a
// pass-through, so a build without credentials still produces output.
func New(k kakao.Client, l *ledger.Ledger, opts ...Option) *Enricher {
	e := &Enricher{kakao: k, ledger: l, delay: 100 * time.Millisecond}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Places enriches every place in order. Per-place lookup failures are
// logged and the place passes through untouched; only ledger I/O can
// fail the run.
func (e *Enricher) Places(ctx context.Context, places []model.Place) ([]model.Place, error) {
	if e.kakao == nil {
		zap.L().Warn("no kakao credentials, skipping enrichment")
		return places, nil
	}
	if err := e.ledger.Load(); err != nil {
		return nil, eris.Wrap(err, "enrich: load ledger")
	}

	var hits, calls int
	out := make([]model.Place, 0, len(places))
	for _, p := range places {
		if cached, ok := e.ledger.Get(p.Name, p.Address); ok {
			hits++
			if !cached.Miss() {
				applyEntry(&p, cached)
			}
			out = append(out, p)
			continue
		}

		calls++
		entry, err := e.resolve(ctx, p)
		if err != nil {
			zap.L().Warn("kakao lookup failed, skipping place",
				zap.String("name", p.Name), zap.Error(err))
			out = append(out, p)
			continue
		}
		e.ledger.Update(p.Name, p.Address, entry)
		if !entry.Miss() {
			applyEntry(&p, entry)
		}
		out = append(out, p)
	}

	if err := e.ledger.Save(); err != nil {
		return nil, eris.Wrap(err, "enrich: save ledger")
	}
	zap.L().Info("enrichment finished", zap.Int("ledger_hits", hits), zap.Int("api_lookups", calls))
	return out, nil
}

// resolve tries the lookup strategies in order and returns the ledger
// entry to record for the place.
func (e *Enricher) resolve(ctx context.Context, p model.Place) (ledger.Entry, error) {
	// A coordinate we scraped beats anything the API says about location;
	// with coords in hand the search only hunts for the Kakao ID.
	if lat, lon, ok := p.Coords(); ok {
		docs, err := e.kakao.SearchNearby(ctx, p.Name, lon, lat, 200)
		if err != nil {
			return ledger.Entry{}, err
		}
		if len(docs) > 0 {
			if d, ok := docCoords(docs[0]); !ok || distanceMeters(lat, lon, d.lat, d.lon) <= maxMatchDistanceMeters {
				return entryFromDoc(docs[0]), nil
			}
			zap.L().Debug("kakao match too far from known location, keeping coords only",
				zap.String("name", p.Name))
		}
		return coordsOnlyEntry(lat, lon), nil
	}

	// No coords. An address gives us a point to anchor a tight search.
	if p.Address != "" {
		coord, err := e.kakao.ResolveAddress(ctx, p.Address)
		if err != nil {
			return ledger.Entry{}, err
		}
		if coord != nil {
			lon, errX := strconv.ParseFloat(coord.X, 64)
			lat, errY := strconv.ParseFloat(coord.Y, 64)
			if errX == nil && errY == nil {
				docs, err := e.kakao.SearchNearby(ctx, p.Name, lon, lat, 100)
				if err != nil {
					return ledger.Entry{}, err
				}
				if len(docs) > 0 {
					return entryFromDoc(docs[0]), nil
				}
				return ledger.Entry{X: coord.X, Y: coord.Y}, nil
			}
		}
	}

	// Last resort: a global keyword search. English-named places match
	// wildly wrong results, so never do this for them.
	if p.Source == model.SourceMichelin {
		zap.L().Debug("skipping keyword fallback for english-named place", zap.String("name", p.Name))
		return ledger.NotFound(), nil
	}

	candidates := []string{p.Name}
	if p.Address != "" {
		tokens := strings.Fields(p.Address)
		if len(tokens) > 3 {
			tokens = tokens[:3]
		}
		candidates = append(candidates, p.Name+" "+strings.Join(tokens, " "))
	}
	for i, q := range candidates {
		if i > 0 {
			time.Sleep(e.delay)
		}
		docs, _, err := e.kakao.SearchKeyword(ctx, q, 1)
		if err != nil {
			return ledger.Entry{}, err
		}
		if len(docs) > 0 {
			return entryFromDoc(docs[0]), nil
		}
	}
	return ledger.NotFound(), nil
}

// applyEntry copies a found entry onto the place. Coordinates are only
// taken when the place had none.
func applyEntry(p *model.Place, e ledger.Entry) {
	p.KakaoID = e.ID
	p.KakaoURL = e.PlaceURL
	if p.HasCoords() {
		return
	}
	lon, errX := strconv.ParseFloat(e.X, 64)
	lat, errY := strconv.ParseFloat(e.Y, 64)
	if errX == nil && errY == nil {
		p.SetCoords(lat, lon)
	}
}

func entryFromDoc(d kakao.Document) ledger.Entry {
	return ledger.Entry{ID: d.ID, PlaceURL: d.PlaceURL, X: d.X, Y: d.Y}
}

// coordsOnlyEntry records a place we located ourselves but could not
// match to a Kakao ID, so the lookup is not repeated next run.
func coordsOnlyEntry(lat, lon float64) ledger.Entry {
	return ledger.Entry{
		X: strconv.FormatFloat(lon, 'f', -1, 64),
		Y: strconv.FormatFloat(lat, 'f', -1, 64),
	}
}

type point struct{ lat, lon float64 }

func docCoords(d kakao.Document) (point, bool) {
	lon, errX := strconv.ParseFloat(d.X, 64)
	lat, errY := strconv.ParseFloat(d.Y, 64)
	if errX != nil || errY != nil {
		return point{}, false
	}
	return point{lat: lat, lon: lon}, true
}

// distanceMeters is the haversine great-circle distance.
func distanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}
