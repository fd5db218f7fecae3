// Package trash - per-class trash polygon generation and placement inside the bin.
package trash

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/shapes"
)

// Generator turns class labels into deformed unit-square polygons.
//
// A Generator holds only read-only state and may be shared between
// goroutines, each passing its own *rand.Rand.
type Generator struct {
	registry *classes.Registry
	colors   classes.ColorTable
	library  *shapes.Library
}

// NewGenerator builds a Generator.
//
// Arguments:
//   - registry: The loaded classes.
//   - colors: The color table. Fixed class colors must index into it.
//   - library: The base shape library. nil builds a new one.
//
// Returns:
//   - The generator, or an error if the registry is empty or a class color is
//     out of range.
func NewGenerator(registry *classes.Registry, colors classes.ColorTable, library *shapes.Library) (*Generator, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New("trash generator needs at least one class")
	}
	if colors.Len() == 0 {
		return nil, errors.New("trash generator needs at least one color")
	}
	if err := classes.CheckColors(registry, colors); err != nil {
		return nil, err
	}
	if library == nil {
		library = shapes.NewLibrary()
	}
	return &Generator{registry: registry, colors: colors, library: library}, nil
}

// Registry returns the class registry the generator draws from.
func (g *Generator) Registry() *classes.Registry {
	return g.registry
}

// Colors returns the color table.
func (g *Generator) Colors() classes.ColorTable {
	return g.colors
}

// Generate produces the polygons of one draw of a class.
//
// Every polygon starts as the class's base shape. Bananas are always rotated
// and scaled. Warping applies when the class sets a warp probability and a
// uniform draw exceeds it; slicing likewise, followed by a random rotation and
// scale. Every polygon is finally shrunk back into the unit square. All
// polygons of a draw share one color.
//
// Arguments:
//   - rng: Source of randomness.
//   - label: The class label.
//
// Returns:
//   - The polygons in unit-square coordinates.
//   - The color table index for the draw.
//   - An error wrapping classes.ErrUnknownLabel for labels outside the registry.
func (g *Generator) Generate(rng *rand.Rand, label int) ([]shapes.Polygon, int, error) {
	class, err := g.registry.Get(label)
	if err != nil {
		return nil, 0, err
	}

	count := 1
	if class.MaxItems != nil {
		count = 1 + rng.IntN(*class.MaxItems)
	}

	polys := make([]shapes.Polygon, count)
	for i := range polys {
		polys[i] = g.instance(rng, class)
	}

	color := 0
	if class.Color != nil {
		color = *class.Color
	} else {
		color = rng.IntN(g.colors.Len())
	}
	return polys, color, nil
}

func (g *Generator) instance(rng *rand.Rand, class classes.ClassConfig) shapes.Polygon {
	p := g.library.Generate(rng, class.Shape)
	if class.Shape == shapes.KindBanana {
		p = shapes.RandomRotate(rng, p)
		p = shapes.RandomScale(rng, p)
	}

	if class.PWarp != nil && rng.Float64() > *class.PWarp {
		p = shapes.Warp(rng, p)
	}
	if class.PSlice != nil && rng.Float64() > *class.PSlice {
		p = shapes.Slice(rng, p)
		p = shapes.RandomRotate(rng, p)
		p = shapes.RandomScale(rng, p)
	}
	// Rotation and warping can carry points out of the unit square.
	return p.Fit()
}

// Region reports whether a pixel belongs to the area trash may cover, such as
// the interior mask of a bin.
type Region interface {
	Inside(x, y int) bool
}

const (
	placeAttempts = 32
	placeShrink   = 0.9
)

// Place maps unit-square polygons into frame coordinates inside the bin
// interior.
//
// For n polygons each axis is scaled by the interior size times a factor
// uniform in [0.1/n, 0.8/n], so a larger draw yields smaller pieces. The
// offset is uniform over the positions that keep the polygon's bounding box,
// grown by margin pixels, inside the interior box. When region is non-nil
// every vertex grown by margin must also lie in it. A failed draw is retried
// at 0.9 times the size; after 32 failures the polygon is centred.
func Place(rng *rand.Rand, polys []shapes.Polygon, interior image.Rectangle, region Region, margin float64) []shapes.Polygon {
	n := float64(len(polys))
	w, h := float64(interior.Dx()), float64(interior.Dy())

	out := make([]shapes.Polygon, len(polys))
	for i, p := range polys {
		sx := w * (0.1 + rng.Float64()*0.7) / n
		sy := h * (0.1 + rng.Float64()*0.7) / n
		out[i] = place(rng, p, sx, sy, interior, region, margin)
	}
	return out
}

func place(rng *rand.Rand, p shapes.Polygon, sx, sy float64, interior image.Rectangle, region Region, margin float64) shapes.Polygon {
	lo, hi := p.Bounds()
	minX, maxX := float64(interior.Min.X)+margin, float64(interior.Max.X-1)-margin
	minY, maxY := float64(interior.Min.Y)+margin, float64(interior.Max.Y-1)-margin

	for attempt := 0; attempt < placeAttempts; attempt++ {
		tx, okX := span(rng, minX-lo.X*sx, maxX-hi.X*sx)
		ty, okY := span(rng, minY-lo.Y*sy, maxY-hi.Y*sy)
		if okX && okY {
			q := p.Transform(sx, sy, tx, ty)
			if covers(region, q, margin) {
				return q
			}
		}
		sx *= placeShrink
		sy *= placeShrink
	}

	cx := float64(interior.Min.X+interior.Max.X) / 2
	cy := float64(interior.Min.Y+interior.Max.Y) / 2
	return p.Transform(sx, sy, cx-(lo.X+hi.X)/2*sx, cy-(lo.Y+hi.Y)/2*sy)
}

// span draws uniformly from [lo, hi] and reports false when it is empty.
func span(rng *rand.Rand, lo, hi float64) (float64, bool) {
	if hi < lo {
		return 0, false
	}
	return lo + rng.Float64()*(hi-lo), true
}

// covers reports whether every vertex of p, grown to a square of half-size
// margin, lies in region. A convex region then holds the whole grown polygon.
func covers(region Region, p shapes.Polygon, margin float64) bool {
	if region == nil {
		return true
	}
	for _, pt := range p {
		x0, x1 := int(math.Floor(pt.X-margin)), int(math.Floor(pt.X+margin))
		y0, y1 := int(math.Floor(pt.Y-margin)), int(math.Floor(pt.Y+margin))
		if !region.Inside(x0, y0) || !region.Inside(x1, y0) || !region.Inside(x0, y1) || !region.Inside(x1, y1) {
			return false
		}
	}
	return true
}
