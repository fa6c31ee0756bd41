package emit

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/model"
)

// WriteShapefile writes a point shapefile for GIS tools. DBF columns
// are capped string fields; places without coordinates are dropped.
func WriteShapefile(path string, places []model.Place) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "emit: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.StringField("NAME", 80),
		shp.StringField("SOURCE", 16),
		shp.StringField("CATEGORY", 32),
		shp.StringField("ADDRESS", 120),
		shp.StringField("KAKAO_ID", 24),
	})

	row := 0
	for _, p := range places {
		lat, lon, ok := p.Coords()
		if !ok {
			continue
		}
		w.Write(&shp.Point{X: lon, Y: lat})

		attrs := []string{p.Name, p.Source, p.Category, p.Address, p.KakaoID}
		for col, v := range attrs {
			if err := w.WriteAttribute(row, col, v); err != nil {
				return eris.Wrapf(err, "emit: write shapefile attribute row %d", row)
			}
		}
		row++
	}
	return nil
}
