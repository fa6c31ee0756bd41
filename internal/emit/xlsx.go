package emit

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/neon-guide/guide-cli/internal/model"
)

var reviewQueueHeader = []string{
	"Neighborhood", "Keyword", "Restaurant Name", "Score", "Award Level",
	"AI Justification", "English Desc", "Korean Desc", "Kakao URL", "Lat", "Lon",
}

// WriteReviewQueueXLSX writes discovery finds as a spreadsheet, same
// column layout as the CSV review queue.
func WriteReviewQueueXLSX(path string, finds []model.Find) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Review Queue")
	if err != nil {
		return eris.Wrap(err, "emit: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, h := range reviewQueueHeader {
		header.AddCell().Value = h
	}

	for _, f := range finds {
		row := sheet.AddRow()
		row.AddCell().Value = f.Neighborhood
		row.AddCell().Value = f.Keyword
		row.AddCell().Value = f.Name
		row.AddCell().SetInt(f.Score)
		row.AddCell().Value = f.AwardLevel
		row.AddCell().Value = f.Justification
		row.AddCell().Value = f.DescriptionEN
		row.AddCell().Value = f.DescriptionKO
		row.AddCell().Value = f.KakaoURL
		row.AddCell().Value = f.Latitude
		row.AddCell().Value = f.Longitude
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "emit: save xlsx")
	}
	return nil
}
