// Package kernels - separable blur kernels over premultiplied RGBA images.
package kernels

import (
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/nvr-ai/go-trashgen/images"
)

// Options configures the blur call.
type Options struct {
	Radius   int             // Blur radius (window size = 2*Radius + 1). Must be >= 0.
	Edge     images.EdgeMode // Edge sampling mode. Empty means clamp.
	Parallel bool            // Enable row/column parallelism (good for full frames).
}

// BoxBlur applies a fast, separable box blur to an image.
// - Converts to premultiplied RGBA once and operates on raw bytes.
// - Uses a sliding window per row/col to achieve O(1) updates per pixel.
// - Correctly accounts for non-zero image bounds.
//
// Performance: O(W*H) per pass, independent of Radius.
//
// Returns a new *image.RGBA with the bounds of src.
func BoxBlur(src image.Image, opt Options) *image.RGBA {
	rgbaSrc := toRGBA(src)
	b := rgbaSrc.Rect
	if opt.Radius <= 0 {
		dst := image.NewRGBA(b)
		copy(dst.Pix, rgbaSrc.Pix)
		return dst
	}

	tmp := image.NewRGBA(b)
	dst := image.NewRGBA(b)
	boxBlurHorizRGBA(rgbaSrc, tmp, opt.Radius, opt.Edge, opt.Parallel)
	boxBlurVertRGBA(tmp, dst, opt.Radius, opt.Edge, opt.Parallel)
	return dst
}

// GaussianBlur approximates a Gaussian of standard deviation sigma with three
// successive box blurs whose widths are chosen to match its variance.
// sigma <= 0 returns a copy.
func GaussianBlur(src image.Image, sigma float64, edge images.EdgeMode, parallel bool) *image.RGBA {
	out := toRGBA(src)
	if sigma <= 0 {
		return BoxBlur(out, Options{})
	}
	for _, r := range GaussianBoxRadii(sigma, 3) {
		out = BoxBlur(out, Options{Radius: r, Edge: edge, Parallel: parallel})
	}
	return out
}

// GaussianBoxRadii returns n box radii whose repeated application has the
// variance of a Gaussian with standard deviation sigma. Widths are the two odd
// integers bracketing the ideal width; the first m use the narrower one.
func GaussianBoxRadii(sigma float64, n int) []int {
	ideal := math.Sqrt(12*sigma*sigma/float64(n) + 1)
	wl := int(math.Floor(ideal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2

	mIdeal := (12*sigma*sigma - float64(n*wl*wl) - float64(4*n*wl) - float64(3*n)) / float64(-4*wl-4)
	m := int(math.Round(mIdeal))

	radii := make([]int, n)
	for i := range radii {
		w := wu
		if i < m {
			w = wl
		}
		radii[i] = (w - 1) / 2
	}
	return radii
}

// toRGBA returns a *image.RGBA view/copy of src.
// If src already is *image.RGBA, it returns it directly.
func toRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok {
		return r
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// boxBlurHorizRGBA applies horizontal blur into dst using a sliding window.
// Reads from src.Pix and writes to dst.Pix. Both must share the same bounds.
// The sliding window means we:
//   - Compute an initial sum for x in [-r .. +r], respecting edges.
//   - For each step to the right, we subtract the pixel leaving on the left
//     and add the pixel entering on the right. This keeps O(1) cost per pixel.
func boxBlurHorizRGBA(src, dst *image.RGBA, r int, edge images.EdgeMode, parallel bool) {
	b := src.Rect
	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return
	}

	window := uint32(2*r + 1)
	rowTask := func(y int) {
		srcRowStart := y * src.Stride
		dstRowStart := y * dst.Stride

		load := func(xRel int) (r, g, b, a uint32) {
			off := srcRowStart + images.MapCoord(xRel, w, edge)*4
			p := src.Pix[off : off+4 : off+4]
			return uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])
		}

		var sumR, sumG, sumB, sumA uint32
		for dx := -r; dx <= r; dx++ {
			r8, g8, b8, a8 := load(dx)
			sumR += r8
			sumG += g8
			sumB += b8
			sumA += a8
		}

		for x := 0; x < w; x++ {
			dstOff := dstRowStart + x*4
			dst.Pix[dstOff+0] = uint8((sumR + window/2) / window)
			dst.Pix[dstOff+1] = uint8((sumG + window/2) / window)
			dst.Pix[dstOff+2] = uint8((sumB + window/2) / window)
			dst.Pix[dstOff+3] = uint8((sumA + window/2) / window)

			// Next window: remove the sample at x - r, add the one at x + r + 1.
			lr, lg, lb, la := load(x - r)
			rr, rg, rb, ra := load(x + r + 1)
			sumR += rr - lr
			sumG += rg - lg
			sumB += rb - lb
			sumA += ra - la
		}
	}

	split(h, parallel, rowTask)
}

// boxBlurVertRGBA mirrors the horizontal pass but along columns.
func boxBlurVertRGBA(src, dst *image.RGBA, r int, edge images.EdgeMode, parallel bool) {
	b := src.Rect
	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return
	}

	window := uint32(2*r + 1)
	colTask := func(x int) {
		load := func(yRel int) (r, g, b, a uint32) {
			off := images.MapCoord(yRel, h, edge)*src.Stride + x*4
			p := src.Pix[off : off+4 : off+4]
			return uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])
		}

		var sumR, sumG, sumB, sumA uint32
		for dy := -r; dy <= r; dy++ {
			r8, g8, b8, a8 := load(dy)
			sumR += r8
			sumG += g8
			sumB += b8
			sumA += a8
		}

		for y := 0; y < h; y++ {
			dstOff := y*dst.Stride + x*4
			dst.Pix[dstOff+0] = uint8((sumR + window/2) / window)
			dst.Pix[dstOff+1] = uint8((sumG + window/2) / window)
			dst.Pix[dstOff+2] = uint8((sumB + window/2) / window)
			dst.Pix[dstOff+3] = uint8((sumA + window/2) / window)

			lr, lg, lb, la := load(y - r)
			rr, rg, rb, ra := load(y + r + 1)
			sumR += rr - lr
			sumG += rg - lg
			sumB += rb - lb
			sumA += ra - la
		}
	}

	split(w, parallel, colTask)
}

// split runs task for every index in [0, n), in chunks across goroutines when
// parallel is set.
func split(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
