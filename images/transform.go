package images

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ToRGBA returns img as *image.RGBA with the same bounds. *image.RGBA inputs
// are returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// Clone copies img into a new image with the same bounds.
func Clone(img *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(img.Rect)
	copy(dst.Pix, img.Pix)
	return dst
}

// Crop copies r out of src into a new image whose bounds start at (0,0).
func Crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	r = r.Intersect(src.Rect)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Rect, src, r.Min, draw.Src)
	return dst
}

// CenterCrop copies a w x h window from the middle of src.
func CenterCrop(src *image.RGBA, w, h int) *image.RGBA {
	b := src.Rect
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	return Crop(src, image.Rect(x0, y0, x0+w, y0+h))
}

// Rotate turns src counter-clockwise by deg degrees about its centre with
// bilinear sampling. The output has the same bounds as src; corners that
// leave the source are transparent.
func Rotate(src *image.RGBA, deg float64) *image.RGBA {
	b := src.Rect
	dst := image.NewRGBA(b)
	sin, cos := math.Sincos(deg * math.Pi / 180)
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2

	// Screen coordinates point down, so a visual counter-clockwise turn
	// negates the usual sine terms.
	s2d := f64.Aff3{
		cos, sin, cx - cos*cx - sin*cy,
		-sin, cos, cy + sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

// Roll shifts src cyclically by (dx, dy), wrapping pixels that leave one edge
// back in at the opposite edge.
func Roll(src *image.RGBA, dx, dy int) *image.RGBA {
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(b)
	if w == 0 || h == 0 {
		return dst
	}
	Parallel(h, func(start, end int) {
		for y := start; y < end; y++ {
			sy := MapCoord(y-dy, h, WrapEdgeMode)
			for x := 0; x < w; x++ {
				sx := MapCoord(x-dx, w, WrapEdgeMode)
				so := sy*src.Stride + sx*4
				do := y*dst.Stride + x*4
				copy(dst.Pix[do:do+4], src.Pix[so:so+4])
			}
		}
	})
	return dst
}

// Tile repeats src to fill a w x h image starting at (0,0).
func Tile(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	Parallel(h, func(start, end int) {
		for y := start; y < end; y++ {
			so := (y % sh) * src.Stride
			do := y * dst.Stride
			for x := 0; x < w; x += sw {
				n := min(sw, w-x)
				copy(dst.Pix[do+x*4:do+(x+n)*4], src.Pix[so:so+n*4])
			}
		}
	})
	return dst
}

// Blend returns a*(1-t) + b*t per channel. a and b must have equal sizes; the
// result takes the bounds of a.
func Blend(a, b *image.RGBA, t float64) *image.RGBA {
	dst := image.NewRGBA(a.Rect)
	n := min(len(a.Pix), len(b.Pix))
	Parallel(n/4, func(start, end int) {
		for i := start * 4; i < end*4; i++ {
			dst.Pix[i] = ClampByte(float64(a.Pix[i])*(1-t) + float64(b.Pix[i])*t)
		}
	})
	return dst
}

// Over composites src onto dst at offset, respecting src's alpha.
func Over(dst *image.RGBA, src *image.RGBA, offset image.Point) {
	r := src.Rect.Add(offset)
	draw.Draw(dst, r, src, src.Rect.Min, draw.Over)
}

// Opaque forces every alpha channel of img to 255, in place.
func Opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
