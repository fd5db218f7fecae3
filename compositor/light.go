package compositor

import (
	"image"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-trashgen/images"
)

const (
	minLightStrength = 0.3
	maxLightStrength = 1.0

	// highlightFactor scales the strength of the highlight against the shadow.
	highlightFactor = 0.67
)

// Light is a radial brightness gradient whose bright spot sits off the
// centre, so rotating it moves the light source around the bin.
//
// The gradient is square with a side equal to the frame diagonal; any
// rotation of it still covers the whole frame. A Light is read-only after
// construction and may be shared between sequences.
type Light struct {
	gradient *image.RGBA
	width    int
	height   int
}

// NewLight builds the gradient for width x height frames.
func NewLight(width, height int) *Light {
	hw, hh := float32(width)/2, float32(height)/2
	d := int(math32.Ceil(math32.Sqrt(hw*hw+hh*hh) * 2))

	// Bright spot a quarter of the side above the centre, fading out over
	// three quarters of the side.
	fx := float32(d) / 2
	fy := float32(d) / 4
	reach := float32(d) * 0.75

	img := image.NewRGBA(image.Rect(0, 0, d, d))
	images.Parallel(d, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < d; x++ {
				dx := float32(x) + 0.5 - fx
				dy := float32(y) + 0.5 - fy
				t := 1 - math32.Min(math32.Sqrt(dx*dx+dy*dy)/reach, 1)
				v := uint8(t*t*(3-2*t)*255 + 0.5)

				o := img.PixOffset(x, y)
				img.Pix[o+0] = v
				img.Pix[o+1] = v
				img.Pix[o+2] = v
				img.Pix[o+3] = 0xff
			}
		}
	})
	return &Light{gradient: img, width: width, height: height}
}

// Mask returns the gradient rotated by angle degrees and cropped around its
// centre to the frame size.
func (l *Light) Mask(angle float64) *image.Gray {
	rot := images.CenterCrop(images.Rotate(l.gradient, angle), l.width, l.height)
	out := image.NewGray(rot.Rect)
	for i := range out.Pix {
		out.Pix[i] = rot.Pix[i*4]
	}
	return out
}

// Apply lights dst in place.
//
// Inside the bin interior the frame is darkened by strength*g, outside it is
// brightened toward white by 0.67*strength*g, where g is the rotated
// gradient.
func (l *Light) Apply(dst *image.RGBA, interior *image.Alpha, angle, strength float64) {
	mask := l.Mask(angle)
	b := dst.Rect.Intersect(image.Rect(0, 0, l.width, l.height))
	s := float32(strength)

	images.Parallel(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := float32(mask.Pix[mask.PixOffset(x, y)]) / 255
				if g == 0 {
					continue
				}
				inside := (image.Point{X: x, Y: y}).In(interior.Rect) && interior.Pix[interior.PixOffset(x, y)] != 0

				px := dst.Pix[dst.PixOffset(x, y):]
				for c := 0; c < 3; c++ {
					v := float32(px[c])
					if inside {
						v *= 1 - s*g
					} else {
						v += (255 - v) * highlightFactor * s * g
					}
					px[c] = uint8(math32.Min(v+0.5, 255))
				}
			}
		}
	})
}

// randomLight draws the angle and strength of one frame's light.
func randomLight(rng *rand.Rand) (float64, float64) {
	angle := float64(rng.IntN(360))
	strength := minLightStrength + rng.Float64()*(maxLightStrength-minLightStrength)
	return angle, strength
}
