package emit

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/model"
)

// WriteGeoJSON writes a FeatureCollection of every place that has
// coordinates. Places without coordinates are dropped, never emitted
// with null geometry.
func WriteGeoJSON(path string, places []model.Place) error {
	features := make([]*geojson.Feature, 0, len(places))
	dropped := 0
	for _, p := range places {
		lat, lon, ok := p.Coords()
		if !ok {
			dropped++
			continue
		}
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{lon, lat}),
			Properties: placeProperties(p),
		})
	}
	if dropped > 0 {
		zap.L().Warn("places without coordinates omitted from geojson", zap.Int("count", dropped))
	}

	raw, err := json.MarshalIndent(&geojson.FeatureCollection{Features: features}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "emit: marshal geojson")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrap(err, "emit: write geojson")
	}
	return nil
}

func placeProperties(p model.Place) map[string]any {
	props := map[string]any{
		"source":   p.Source,
		"name":     p.Name,
		"category": p.Category,
	}
	optional := map[string]string{
		"address":     p.Address,
		"city":        p.City,
		"country":     p.Country,
		"cuisine":     p.Cuisine,
		"price":       p.Price,
		"phone":       p.Phone,
		"url":         p.URL,
		"year":        p.Year,
		"description": p.Description,
		"kakao_id":    p.KakaoID,
		"kakao_url":   p.KakaoURL,
	}
	for k, v := range optional {
		if v != "" {
			props[k] = v
		}
	}
	return props
}
