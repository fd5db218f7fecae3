// Package wastebin - randomized waste bin backgrounds and their interior masks.
package wastebin

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/nvr-ai/go-trashgen/images"
)

// Shape is the outline of the bin seen from above.
type Shape int

const (
	// Circular bins are drawn as concentric discs.
	Circular Shape = iota
	// Rectangular bins are drawn as concentric squares.
	Rectangular
)

// String returns the lowercase shape name.
func (s Shape) String() string {
	if s == Rectangular {
		return "rectangular"
	}
	return "circular"
}

// Palette is the color triple of a bin scene.
type Palette struct {
	Background color.RGBA
	Exterior   color.RGBA
	Interior   color.RGBA
}

var (
	backgroundColors = []string{"#D9D9D9", "#CBD8CD", "#B6B4D4", "#FFFFFF", "#90A2C3", "#848588", "#FFF7BC"}
	exteriorColors   = []string{"#ED1C24", "#F68E56", "#363636", "#00A651", "#0054A6"}
	interiorColors   = []string{"#252525", "#DFDFDF"}
)

// ChoosePalette picks one background, exterior and interior color from the
// fixed bin color lists.
func ChoosePalette(rng *rand.Rand) Palette {
	return Palette{
		Background: mustHex(backgroundColors[rng.IntN(len(backgroundColors))]),
		Exterior:   mustHex(exteriorColors[rng.IntN(len(exteriorColors))]),
		Interior:   mustHex(interiorColors[rng.IntN(len(interiorColors))]),
	}
}

// ParseHex converts "#rrggbb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "parse color %q", s)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Geometry is one generated bin scene.
type Geometry struct {
	// The colors used to paint the scene.
	Palette Palette
	// The outline kind.
	Shape Shape
	// Bounding box of the bin exterior.
	Exterior image.Rectangle
	// Bounding box of the bin interior. It lies strictly inside Exterior.
	Interior image.Rectangle
	// 255 where a pixel is inside the bin interior, 0 elsewhere. Same size as
	// the frame.
	Mask *image.Alpha
	// The painted scene without any trash.
	Background *image.RGBA
}

// Lip returns the rim width in pixels for a frame.
func Lip(height, width int) float64 {
	return float64(min(height, width)) / 20
}

// Generate draws a bin somewhere near the middle of a height x width frame.
//
// The bin radius is U(0.75, 1.0) of half the shorter side, the interior is
// inset by a lip of a twentieth of the shorter side, and the centre is
// jittered by up to one lip per axis. The interior mask is computed first and
// used as the paint mask for the interior color, so painted interior pixels
// and mask pixels are the same set.
//
// Arguments:
//   - rng: Source of randomness.
//   - palette: Scene colors, usually from ChoosePalette.
//   - height: Frame height in pixels.
//   - width: Frame width in pixels.
//
// Returns:
//   - The generated geometry.
func Generate(rng *rand.Rand, palette Palette, height, width int) *Geometry {
	minDim := float64(min(height, width))
	radius := (0.75 + rng.Float64()*0.25) * minDim / 2
	lip := minDim / 20
	inner := radius - lip

	maxShift := minDim / 20
	cx := float64(width)/2 + (rng.Float64()*2-1)*maxShift
	cy := float64(height)/2 + (rng.Float64()*2-1)*maxShift

	shape := Circular
	if rng.IntN(2) == 1 {
		shape = Rectangular
	}

	g := &Geometry{
		Palette:  palette,
		Shape:    shape,
		Exterior: box(cx, cy, radius),
		Interior: box(cx, cy, inner),
	}

	frame := image.Rect(0, 0, width, height)
	exterior := regionMask(frame, g.Exterior, shape)
	g.Mask = regionMask(frame, g.Interior, shape)

	g.Background = image.NewRGBA(frame)
	draw.Draw(g.Background, frame, image.NewUniform(palette.Background), image.Point{}, draw.Src)
	draw.DrawMask(g.Background, frame, image.NewUniform(palette.Exterior), image.Point{}, exterior, image.Point{}, draw.Over)
	draw.DrawMask(g.Background, frame, image.NewUniform(palette.Interior), image.Point{}, g.Mask, image.Point{}, draw.Over)
	return g
}

// box returns the floored square of half-size r around (cx, cy).
func box(cx, cy, r float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Floor(cx+r)), int(math.Floor(cy+r)),
	)
}

// regionMask rasterizes an ellipse inscribed in r, or r itself, clipped to the
// frame. A pixel is inside the ellipse when its centre is.
func regionMask(frame, r image.Rectangle, shape Shape) *image.Alpha {
	mask := image.NewAlpha(frame)
	clip := r.Intersect(frame)
	if clip.Empty() {
		return mask
	}

	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2

	images.Parallel(clip.Dy(), func(start, end int) {
		for y := clip.Min.Y + start; y < clip.Min.Y+end; y++ {
			row := mask.Pix[mask.PixOffset(clip.Min.X, y):]
			for x := clip.Min.X; x < clip.Max.X; x++ {
				if shape == Circular {
					dx := (float64(x) + 0.5 - cx) / rx
					dy := (float64(y) + 0.5 - cy) / ry
					if dx*dx+dy*dy > 1 {
						continue
					}
				}
				row[x-clip.Min.X] = 0xff
			}
		}
	})
	return mask
}

// Inside reports whether the pixel (x, y) is in the bin interior.
func (g *Geometry) Inside(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(g.Mask.Rect) {
		return false
	}
	return g.Mask.Pix[g.Mask.PixOffset(x, y)] != 0
}
