// Package noise - fractal simplex noise fields rendered as grayscale images.
package noise

import (
	"image"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/nvr-ai/go-trashgen/images"
)

// Field samples multi-octave simplex noise. A Field is deterministic for a
// seed and safe for concurrent reads.
type Field struct {
	src opensimplex.Noise
}

// New returns a field for seed.
func New(seed int64) *Field {
	return &Field{src: opensimplex.New(seed)}
}

// Octaves sums n octaves of noise at (x, y, z), each at double the frequency
// and half the amplitude of the last, normalized back to about [-1, 1].
func (f *Field) Octaves(x, y, z float64, n int) float64 {
	var sum, norm float64
	freq, amp := 1.0, 1.0
	for i := 0; i < n; i++ {
		sum += amp * f.src.Eval3(x*freq, y*freq, z*freq)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Gray renders a w x h grid of 2-octave noise as 8-bit values centred on 128.
// Grid cell (x, y) samples the field at (x*scale, y*scale, z).
func (f *Field) Gray(w, h int, z, scale float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	images.Parallel(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			for x := range row {
				v := f.Octaves(float64(x)*scale, float64(y)*scale, z, 2)
				row[x] = images.ClampByte(v*127 + 128)
			}
		}
	})
	return img
}
