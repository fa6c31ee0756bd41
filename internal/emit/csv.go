// Package emit writes the build and discovery artifacts: CSV, GeoJSON,
// KML, shapefile, and the review-queue spreadsheet.
package emit

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/model"
)

// WritePlacesCSV writes the full place list. Missing coordinates stay
// empty cells, never zeroes.
func WritePlacesCSV(path string, places []model.Place) error {
	raw, err := csvutil.Marshal(places)
	if err != nil {
		return eris.Wrap(err, "emit: marshal places csv")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrap(err, "emit: write places csv")
	}
	return nil
}

// ReadPlacesCSV loads a place list written by WritePlacesCSV.
func ReadPlacesCSV(path string) ([]model.Place, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "emit: read places csv")
	}
	var places []model.Place
	if err := csvutil.Unmarshal(raw, &places); err != nil {
		return nil, eris.Wrap(err, "emit: unmarshal places csv")
	}
	return places, nil
}

// reviewRow matches the column layout reviewers already work with in
// their spreadsheets.
type reviewRow struct {
	Neighborhood  string `csv:"Neighborhood"`
	Keyword       string `csv:"Keyword"`
	Name          string `csv:"Restaurant Name"`
	Score         int    `csv:"Score"`
	AwardLevel    string `csv:"Award Level"`
	Justification string `csv:"AI Justification"`
	DescriptionEN string `csv:"English Desc"`
	DescriptionKO string `csv:"Korean Desc"`
	KakaoURL      string `csv:"Kakao URL"`
	Latitude      string `csv:"Lat"`
	Longitude     string `csv:"Lon"`
}

func reviewRows(finds []model.Find) []reviewRow {
	rows := make([]reviewRow, len(finds))
	for i, f := range finds {
		rows[i] = reviewRow{
			Neighborhood:  f.Neighborhood,
			Keyword:       f.Keyword,
			Name:          f.Name,
			Score:         f.Score,
			AwardLevel:    f.AwardLevel,
			Justification: f.Justification,
			DescriptionEN: f.DescriptionEN,
			DescriptionKO: f.DescriptionKO,
			KakaoURL:      f.KakaoURL,
			Latitude:      f.Latitude,
			Longitude:     f.Longitude,
		}
	}
	return rows
}

// WriteReviewQueueCSV writes discovery finds for spreadsheet review.
func WriteReviewQueueCSV(path string, finds []model.Find) error {
	raw, err := csvutil.Marshal(reviewRows(finds))
	if err != nil {
		return eris.Wrap(err, "emit: marshal review queue csv")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrap(err, "emit: write review queue csv")
	}
	return nil
}
