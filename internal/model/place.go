// Package model defines the place record shared by the scrape, merge,
// enrichment, and emit stages.
package model

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source tags identify the origin system of a scraped record.
const (
	SourceMichelin   = "michelin"
	SourceBlueRibbon = "blueribbon"
)

// Place is one restaurant record. Latitude and Longitude are either both
// set or both nil; use SetCoords and Coords rather than touching the
// pointers directly.
type Place struct {
	Source      string     `json:"source" csv:"source"`
	Name        string     `json:"name" csv:"name"`
	Address     string     `json:"address" csv:"address"`
	City        string     `json:"city" csv:"city"`
	Country     string     `json:"country" csv:"country"`
	Category    string     `json:"category" csv:"category"`
	Cuisine     string     `json:"cuisine" csv:"cuisine"`
	Price       string     `json:"price" csv:"price"`
	Phone       string     `json:"phone" csv:"phone"`
	URL         string     `json:"url" csv:"url"`
	Year        string     `json:"year" csv:"year"`
	Description string     `json:"description" csv:"description"`
	Latitude    *float64   `json:"latitude,omitempty" csv:"latitude"`
	Longitude   *float64   `json:"longitude,omitempty" csv:"longitude"`
	CapturedAt  time.Time  `json:"captured_at" csv:"captured_at"`
	KakaoID     string     `json:"kakao_id,omitempty" csv:"kakao_id"`
	KakaoURL    string     `json:"kakao_url,omitempty" csv:"kakao_url"`
}

// HasCoords reports whether both coordinates are present.
func (p *Place) HasCoords() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Coords returns (lat, lon, true) when both coordinates are set.
func (p *Place) Coords() (float64, float64, bool) {
	if !p.HasCoords() {
		return 0, 0, false
	}
	return *p.Latitude, *p.Longitude, true
}

// SetCoords sets both coordinates at once, preserving the both-or-neither
// invariant.
func (p *Place) SetCoords(lat, lon float64) {
	p.Latitude = &lat
	p.Longitude = &lon
}

// ClearCoords removes both coordinates.
func (p *Place) ClearCoords() {
	p.Latitude = nil
	p.Longitude = nil
}

// Key returns the fuzzy-identity merge key: slug(name) + "__" + slug(address),
// or just slug(name) when the address is empty.
func (p *Place) Key() string {
	return MergeKey(p.Name, p.Address)
}

// MergeKey builds the merge key for a name/address pair.
func MergeKey(name, address string) string {
	n := Slug(name)
	if n == "" {
		n = "unknown"
	}
	a := Slug(address)
	if a == "" {
		return n
	}
	return n + "__" + a
}

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug lowercases s, strips diacritics, and collapses every run of
// characters that is not a letter or digit into a single hyphen. Hangul and
// other non-Latin letters survive intact so Korean names keep distinct keys.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
