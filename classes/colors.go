package classes

import (
	"math/rand/v2"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ErrColorIndex is returned for indices outside the color table.
var ErrColorIndex = errors.New("color index out of range")

// ColorTable is the ordered list of object colors. Index i is the value a
// class refers to with its color column.
type ColorTable []colorful.Color

// ParseColorTable parses "#rrggbb" strings in order.
func ParseColorTable(hexes []string) (ColorTable, error) {
	out := make(ColorTable, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Wrapf(err, "color %d", i)
		}
		out[i] = c
	}
	return out, nil
}

// Len returns the number of colors.
func (t ColorTable) Len() int {
	return len(t)
}

// At returns the color at idx.
func (t ColorTable) At(idx int) (colorful.Color, error) {
	if idx < 0 || idx >= len(t) {
		return colorful.Color{}, errors.Wrapf(ErrColorIndex, "index %d, have %d colors", idx, len(t))
	}
	return t[idx], nil
}

// DefaultPaletteSize is the number of colors generated when no color file is
// given.
const DefaultPaletteSize = 40

// GenerateColors draws n distinct food-waste colors, ranging from red through
// yellow and brown to green, sorted by hue.
func GenerateColors(rng *rand.Rand, n int) ColorTable {
	seen := make(map[string]struct{}, n)
	out := make(ColorTable, 0, n)
	for len(out) < n {
		c := colorful.Hsv(
			rng.Float64()*0.25*360,
			0.2+rng.Float64()*0.8,
			0.3+rng.Float64()*0.5,
		)
		hex := c.Clamped().Hex()
		if _, dup := seen[hex]; dup {
			continue
		}
		seen[hex] = struct{}{}
		// Store the quantized value so the table round-trips through hex.
		q, _ := colorful.Hex(hex)
		out = append(out, q)
	}
	out.SortByHue()
	return out
}

// SortByHue orders the table by HSV hue, in place.
func (t ColorTable) SortByHue() {
	sort.SliceStable(t, func(i, j int) bool {
		hi, _, _ := t[i].Hsv()
		hj, _, _ := t[j].Hsv()
		return hi < hj
	})
}

// Hexes returns the table as "#rrggbb" strings.
func (t ColorTable) Hexes() []string {
	out := make([]string, len(t))
	for i, c := range t {
		out[i] = c.Clamped().Hex()
	}
	return out
}
