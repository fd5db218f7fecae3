// Package pattern - colorized, randomly transformed texture fills for trash objects.
package pattern

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/images"
	"github.com/nvr-ai/go-trashgen/noise"
)

const (
	minRescale = 0.3
	maxRescale = 2.0

	// noiseCell is the tile-to-noise-grid downsampling factor.
	noiseCell  = 8
	noiseScale = 0.25

	colorJitter = 0.1
)

// Synthesizer fills a full frame with the texture of a class.
type Synthesizer struct {
	source TileSource
	colors classes.ColorTable
	field  *noise.Field
	width  int
	height int
}

// NewSynthesizer builds a Synthesizer for width x height frames. seed fixes
// the noise field; per-call variation comes from the caller's generator.
func NewSynthesizer(source TileSource, colors classes.ColorTable, width, height int, seed int64) (*Synthesizer, error) {
	if source == nil {
		return nil, errors.New("pattern synthesizer needs a tile source")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", width, height)
	}
	return &Synthesizer{
		source: source,
		colors: colors,
		field:  noise.New(seed),
		width:  width,
		height: height,
	}, nil
}

// Synthesize renders the opaque texture of one object.
//
// The class tile is rotated by a whole number of degrees in [0, 360] and
// cropped to the largest rectangle free of rotation corners, cyclically
// shifted on both axes, rescaled by U(0.3, 2.0), and tiled over the frame.
// Two-octave noise sampled on a grid of one cell per 8 tile pixels is
// upsampled to the frame and blended in at one half. Finally the class color,
// jittered in HLS space, is blended in at one half.
//
// Arguments:
//   - rng: Source of randomness.
//   - label: Class label selecting the tile.
//   - colorIndex: Index into the color table.
//
// Returns:
//   - A frame-sized opaque texture.
//   - An error if the tile or color is missing.
func (s *Synthesizer) Synthesize(rng *rand.Rand, label, colorIndex int) (*image.RGBA, error) {
	base, err := s.colors.At(colorIndex)
	if err != nil {
		return nil, err
	}
	tile, err := s.source.Tile(label)
	if err != nil {
		return nil, err
	}

	tile = rotateCrop(tile, float64(rng.IntN(361)))

	tw, th := tile.Rect.Dx(), tile.Rect.Dy()
	tile = images.Roll(tile, rng.IntN(tw+1), rng.IntN(th+1))

	k := minRescale + rng.Float64()*(maxRescale-minRescale)
	sw := max(1, int(k*float64(tw)))
	sh := max(1, int(k*float64(th)))
	tile = images.ToRGBA(resize.Resize(uint(sw), uint(sh), tile, resize.Bicubic))

	texture := images.Tile(tile, s.width, s.height)
	texture = images.Blend(texture, s.noiseLayer(rng, sw, sh), 0.5)

	tint := JitterColor(rng, base)
	r, g, b := tint.Clamped().RGB255()
	layer := image.NewRGBA(texture.Rect)
	draw.Draw(layer, layer.Rect, image.NewUniform(color.RGBA{R: r, G: g, B: b, A: 0xff}), image.Point{}, draw.Src)

	out := images.Blend(texture, layer, 0.5)
	images.Opaque(out)
	return out, nil
}

// rotateCrop rotates tile and keeps the largest upright rectangle inside it,
// inset by a pixel so no partly transparent corner pixel survives.
func rotateCrop(tile *image.RGBA, deg float64) *image.RGBA {
	crop := LargestEnclosedRect(tile.Rect.Dx(), tile.Rect.Dy(), deg)
	if crop.Dx() > 2 && crop.Dy() > 2 {
		crop = crop.Inset(1)
	}
	if crop.Empty() {
		return tile
	}
	return images.Crop(images.Rotate(tile, deg), crop)
}

// noiseLayer renders the noise grid for a tw x th tile and stretches it over
// the frame.
func (s *Synthesizer) noiseLayer(rng *rand.Rand, tw, th int) *image.RGBA {
	gw := int(math.Ceil(float64(tw) / noiseCell))
	gh := int(math.Ceil(float64(th) / noiseCell))
	z := float64(rng.IntN(256))

	grid := s.field.Gray(gw, gh, z, noiseScale)
	up := resize.Resize(uint(s.width), uint(s.height), grid, resize.Bilinear)
	return images.ToRGBA(up)
}

// JitterColor shifts hue, lightness and saturation each by up to 10% of its
// own value and clips them to the valid range.
func JitterColor(rng *rand.Rand, c colorful.Color) colorful.Color {
	h, s, l := c.Hsl()
	hn := h / 360

	hn += (rng.Float64()*2 - 1) * colorJitter * hn
	l += (rng.Float64()*2 - 1) * colorJitter * l
	s += (rng.Float64()*2 - 1) * colorJitter * s

	hn = images.Clamp(hn, 0, 1)
	l = images.Clamp(l, 0, 1)
	s = images.Clamp(s, 0, 1)
	return colorful.Hsl(math.Mod(hn*360, 360), s, l)
}
