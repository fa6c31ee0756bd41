package emit

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/model"
)

// KML output uses hand-rolled encoding/xml structs: the document is a
// plain placemark tree and no library in use covers KML writing.

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	XMLNS    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name    string      `xml:"name"`
	Folders []kmlFolder `xml:"Folder"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description,omitempty"`
	Address     string   `xml:"address,omitempty"`
	Point       kmlPoint `xml:"Point"`
}

type kmlPoint struct {
	// KML coordinate order is lon,lat.
	Coordinates string `xml:"coordinates"`
}

// WriteKML writes placemarks grouped into one folder per category.
// Places without coordinates are dropped.
func WriteKML(path, name string, places []model.Place) error {
	byCategory := make(map[string][]kmlPlacemark)
	for _, p := range places {
		lat, lon, ok := p.Coords()
		if !ok {
			continue
		}
		cat := p.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		byCategory[cat] = append(byCategory[cat], kmlPlacemark{
			Name:        p.Name,
			Description: p.Description,
			Address:     p.Address,
			Point:       kmlPoint{Coordinates: fmt.Sprintf("%f,%f", lon, lat)},
		})
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	doc := kmlRoot{
		XMLNS:    "http://www.opengis.net/kml/2.2",
		Document: kmlDocument{Name: name},
	}
	for _, c := range categories {
		doc.Document.Folders = append(doc.Document.Folders, kmlFolder{Name: c, Placemarks: byCategory[c]})
	}

	raw, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "emit: marshal kml")
	}
	out := append([]byte(xml.Header), raw...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrap(err, "emit: write kml")
	}
	return nil
}
