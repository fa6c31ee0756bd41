package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/pkg/bluer"
)

// DefaultBlueRibbonZones split Seoul along the Han river, which is how
// the site itself partitions search results.
var DefaultBlueRibbonZones = []string{"서울 강북", "서울 강남"}

// BlueRibbonPlaces collects ribbon-awarded restaurants for each zone
// and converts them to places. A years set restricts results to those
// book editions; empty accepts any edition.
func BlueRibbonPlaces(ctx context.Context, client *bluer.Client, zones []string, years map[string]bool) ([]model.Place, error) {
	if len(zones) == 0 {
		zones = DefaultBlueRibbonZones
	}
	capturedAt := time.Now().UTC()

	var places []model.Place
	for _, zone := range zones {
		restaurants, err := client.CollectZone(ctx, zone)
		if err != nil {
			return nil, err
		}
		kept := 0
		for i := range restaurants {
			r := &restaurants[i]
			if !r.Ribboned(years) {
				continue
			}
			places = append(places, blueRibbonPlace(r, capturedAt))
			kept++
		}
		zap.L().Info("blue ribbon zone collected",
			zap.String("zone", zone), zap.Int("fetched", len(restaurants)), zap.Int("ribboned", kept))
	}
	return places, nil
}

func blueRibbonPlace(r *bluer.Restaurant, capturedAt time.Time) model.Place {
	p := model.Place{
		Source:      model.SourceBlueRibbon,
		Name:        r.Name(),
		Address:     r.Juso.RoadAddrPart1,
		City:        "Seoul",
		Country:     "South Korea",
		Category:    r.HeaderInfo.RibbonType,
		Phone:       r.DefaultInfo.Phone,
		Year:        r.HeaderInfo.BookYear,
		Description: r.Description(),
		CapturedAt:  capturedAt,
	}
	if r.GPS.Latitude.Valid && r.GPS.Longitude.Valid {
		p.SetCoords(r.GPS.Latitude.Value, r.GPS.Longitude.Value)
	}
	return p
}
