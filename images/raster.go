package images

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/nvr-ai/go-trashgen/shapes"
)

// PolygonBounds returns the pixel rectangle covering p, clipped to frame.
func PolygonBounds(p shapes.Polygon, frame image.Rectangle) image.Rectangle {
	lo, hi := p.Bounds()
	r := image.Rect(
		int(math.Floor(lo.X)), int(math.Floor(lo.Y)),
		int(math.Ceil(hi.X))+1, int(math.Ceil(hi.Y))+1,
	)
	return r.Intersect(frame)
}

// FillPolygon rasterizes p with anti-aliased edges.
//
// The returned mask covers only the polygon's bounding box clipped to frame,
// in frame coordinates. Its Rect is empty when p lies outside frame.
func FillPolygon(p shapes.Polygon, frame image.Rectangle) *image.Alpha {
	r := PolygonBounds(p, frame)
	mask := image.NewAlpha(r)
	if r.Empty() || len(p) < 3 {
		return mask
	}

	// The rasterizer works in its own (0,0)-based space aligned to r.Min.
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	z.MoveTo(float32(p[0].X-ox), float32(p[0].Y-oy))
	for _, pt := range p[1:] {
		z.LineTo(float32(pt.X-ox), float32(pt.Y-oy))
	}
	z.ClosePath()
	z.Draw(mask, r, image.Opaque, image.Point{})
	return mask
}

// IntersectMask multiplies a by the overlapping region of clip, in place.
// Pixels of a outside clip become transparent.
func IntersectMask(a, clip *image.Alpha) {
	b := a.Rect
	Parallel(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			row := a.Pix[a.PixOffset(b.Min.X, y) : a.PixOffset(b.Min.X, y)+b.Dx()]
			for i := range row {
				x := b.Min.X + i
				if !(image.Point{X: x, Y: y}).In(clip.Rect) {
					row[i] = 0
					continue
				}
				row[i] = mul8(row[i], clip.Pix[clip.PixOffset(x, y)])
			}
		}
	})
}

// Cutout returns the pixels of src under mask as a premultiplied RGBA image
// covering mask.Rect. src must contain mask.Rect.
func Cutout(src *image.RGBA, mask *image.Alpha) *image.RGBA {
	b := mask.Rect
	dst := image.NewRGBA(b)
	Parallel(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				a := mask.Pix[mask.PixOffset(x, y)]
				if a == 0 {
					continue
				}
				s := src.Pix[src.PixOffset(x, y):]
				d := dst.Pix[dst.PixOffset(x, y):]
				d[0] = mul8(s[0], a)
				d[1] = mul8(s[1], a)
				d[2] = mul8(s[2], a)
				d[3] = mul8(s[3], a)
			}
		}
	})
	return dst
}

// ClipAlpha multiplies every premultiplied pixel of img by the overlapping
// value of clip, in place. Pixels outside clip become transparent.
func ClipAlpha(img *image.RGBA, clip *image.Alpha) {
	b := img.Rect
	Parallel(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				var a uint8
				if (image.Point{X: x, Y: y}).In(clip.Rect) {
					a = clip.Pix[clip.PixOffset(x, y)]
				}
				if a == 0xff {
					continue
				}
				d := img.Pix[img.PixOffset(x, y):]
				d[0] = mul8(d[0], a)
				d[1] = mul8(d[1], a)
				d[2] = mul8(d[2], a)
				d[3] = mul8(d[3], a)
			}
		}
	})
}

// Footprint returns the points of img whose alpha is at least threshold, as
// a binary mask over img.Rect.
func Footprint(img *image.RGBA, threshold uint8) *image.Alpha {
	b := img.Rect
	out := image.NewAlpha(b)
	Parallel(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if img.Pix[img.PixOffset(x, y)+3] >= threshold {
					out.Pix[out.PixOffset(x, y)] = 0xff
				}
			}
		}
	})
	return out
}

// Stamp writes value into dst wherever mask is set. Later stamps overwrite
// earlier ones.
func Stamp(dst *image.Gray, mask *image.Alpha, value uint8) {
	r := mask.Rect.Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.Pix[mask.PixOffset(x, y)] != 0 {
				dst.Pix[dst.PixOffset(x, y)] = value
			}
		}
	}
}

// mul8 is a*b/255 rounded.
func mul8(a, b uint8) uint8 {
	v := uint32(a)*uint32(b) + 0x80
	return uint8((v + v>>8) >> 8)
}

// AlphaBounds returns the smallest rectangle holding every non-zero pixel of
// mask. It is empty when mask is fully transparent.
func AlphaBounds(mask *image.Alpha) image.Rectangle {
	b := mask.Rect
	x0, y0, x1, y1 := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y) : mask.PixOffset(b.Min.X, y)+b.Dx()]
		for i, v := range row {
			if v == 0 {
				continue
			}
			x := b.Min.X + i
			x0, x1 = min(x0, x), max(x1, x+1)
			y0, y1 = min(y0, y), max(y1, y+1)
		}
	}
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x1, y1)
}
