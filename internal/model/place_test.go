package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kim's Chicken", "kim-s-chicken"},
		{"  Mingles  ", "mingles"},
		{"Café Société", "cafe-societe"},
		{"을지로 골뱅이", "을지로-골뱅이"},
		{"12 Main St, Seoul", "12-main-st-seoul"},
		{"", ""},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slug(tc.in), "slug(%q)", tc.in)
	}
}

func TestMergeKey(t *testing.T) {
	assert.Equal(t, "mingles__12-main-st", MergeKey("Mingles", "12 Main St"))
	assert.Equal(t, "mingles", MergeKey("Mingles", ""))
	assert.Equal(t, "unknown", MergeKey("", ""))
}

func TestPlaceCoordsInvariant(t *testing.T) {
	var p Place
	assert.False(t, p.HasCoords())

	_, _, ok := p.Coords()
	assert.False(t, ok)

	p.SetCoords(37.5, 127.0)
	lat, lon, ok := p.Coords()
	assert.True(t, ok)
	assert.InDelta(t, 37.5, lat, 1e-9)
	assert.InDelta(t, 127.0, lon, 1e-9)

	p.ClearCoords()
	assert.Nil(t, p.Latitude)
	assert.Nil(t, p.Longitude)
}

func TestPlaceKeyUsesAddress(t *testing.T) {
	p := Place{Name: "Kim's", Address: "12 Main St"}
	assert.Equal(t, "kim-s__12-main-st", p.Key())

	p.Address = ""
	assert.Equal(t, "kim-s", p.Key())
}
