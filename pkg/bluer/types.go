package bluer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Restaurant is one item from the restaurants listing endpoint. The upstream
// schema is loose: every field is optional and the ribbon award appears
// under several historical names, so the struct spells out each variant and
// RibbonScore checks them in a fixed priority order.
type Restaurant struct {
	ID          json.Number `json:"id"`
	Status      string      `json:"status"`
	Comment     string      `json:"comment"`
	HeaderInfo  HeaderInfo  `json:"headerInfo"`
	Juso        Juso        `json:"juso"`
	GPS         GPS         `json:"gps"`
	DefaultInfo DefaultInfo `json:"defaultInfo"`
}

// HeaderInfo holds naming and award metadata.
type HeaderInfo struct {
	NameKR      string      `json:"nameKR"`
	NameEN      string      `json:"nameEN"`
	BookYear    string      `json:"bookYear"`
	RibbonType  string      `json:"ribbonType"`
	RibbonCount json.Number `json:"ribbonCount"`
	RibbonCnt   json.Number `json:"ribbonCnt"`
}

// Juso is the road-address block.
type Juso struct {
	RoadAddrPart1 string `json:"roadAddrPart1"`
}

// DefaultInfo holds contact details.
type DefaultInfo struct {
	Phone string `json:"phone"`
}

// GPS holds the listing coordinates. The endpoint serves them sometimes as
// numbers and sometimes as strings, so both decode into Coord.
type GPS struct {
	Latitude  Coord `json:"latitude"`
	Longitude Coord `json:"longitude"`
}

// Coord is a coordinate that may arrive as a JSON number, a quoted numeric
// string, an empty string, or null. Valid is false for the latter two.
type Coord struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coord) UnmarshalJSON(data []byte) error {
	c.Value, c.Valid = 0, false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable coordinates are treated as absent, not fatal.
		return nil
	}
	c.Value, c.Valid = v, true
	return nil
}

// Name returns the Korean name, falling back to the English one.
func (r *Restaurant) Name() string {
	if r.HeaderInfo.NameKR != "" {
		return r.HeaderInfo.NameKR
	}
	return r.HeaderInfo.NameEN
}

// Description returns the editorial comment, falling back to the English name.
func (r *Restaurant) Description() string {
	if r.Comment != "" {
		return r.Comment
	}
	return r.HeaderInfo.NameEN
}

// RibbonScore infers the ribbon count, checking candidate fields in a fixed
// priority order: ribbonCount, ribbonCnt, then ribbonType. Unknown yields 0.
func (r *Restaurant) RibbonScore() int {
	for _, n := range []json.Number{r.HeaderInfo.RibbonCount, r.HeaderInfo.RibbonCnt} {
		if v, err := n.Int64(); err == nil && v > 0 {
			return int(v)
		}
	}
	switch strings.ToUpper(strings.TrimSpace(r.HeaderInfo.RibbonType)) {
	case "ONE", "RIBBON_ONE":
		return 1
	case "TWO", "RIBBON_TWO":
		return 2
	case "THREE", "RIBBON_THREE":
		return 3
	}
	return 0
}

// Ribboned reports whether the item is an active, ribbon-awarded entry for
// one of the given book years. An empty years set accepts any year.
func (r *Restaurant) Ribboned(years map[string]bool) bool {
	if r.Status != "ACTIVE" {
		return false
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(r.HeaderInfo.RibbonType)), "RIBBON_") {
		return false
	}
	if len(years) == 0 {
		return true
	}
	return years[strings.TrimSpace(r.HeaderInfo.BookYear)]
}

// halPage is the pagination envelope: an item collection under _embedded
// plus an optional next link.
type halPage struct {
	Embedded map[string]json.RawMessage `json:"_embedded"`
	Links    halLinks                   `json:"_links"`
}

type halLinks struct {
	Next *halHref `json:"next"`
}

type halHref struct {
	Href string `json:"href"`
}

// embeddedCollections lists the _embedded keys to try, in priority order,
// before falling back to the first key that holds an array.
var embeddedCollections = []string{"restaurants", "restaurantList", "items"}

// items decodes the embedded item collection. Returns nil when the envelope
// holds no list.
func (p *halPage) items() ([]Restaurant, error) {
	raw, ok := p.itemsRaw()
	if !ok {
		return nil, nil
	}
	var out []Restaurant
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *halPage) itemsRaw() (json.RawMessage, bool) {
	if len(p.Embedded) == 0 {
		return nil, false
	}
	for _, key := range embeddedCollections {
		if raw, ok := p.Embedded[key]; ok && isJSONArray(raw) {
			return raw, true
		}
	}
	for _, raw := range p.Embedded {
		if isJSONArray(raw) {
			return raw, true
		}
	}
	return nil, false
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// next returns the next-page href, or "" when pagination is exhausted.
func (p *halPage) next() string {
	if p.Links.Next == nil {
		return ""
	}
	return p.Links.Next.Href
}
