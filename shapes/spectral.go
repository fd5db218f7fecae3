package shapes

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// Interpolate upsamples a closed polygon by inserting n points between every
// pair of consecutive vertices using spectral (zero-padding) interpolation.
// Each axis is transformed independently.
//
// The result has len(coarse)*(n+1) points, is band-limited to the frequencies
// of the coarse polygon, and passes through every coarse vertex. The output
// sequence starts one step after the first coarse vertex.
//
// Arguments:
//   - coarse: The polygon to upsample. Must not be empty.
//   - n: Points to insert per edge. Must be >= 0.
//
// Returns:
//   - The smooth, upsampled polygon.
func Interpolate(coarse Polygon, n int) Polygon {
	xs := make([]float64, len(coarse))
	ys := make([]float64, len(coarse))
	for i, pt := range coarse {
		xs[i], ys[i] = pt.X, pt.Y
	}

	ix := interpolateAxis(xs, n)
	iy := interpolateAxis(ys, n)

	out := make(Polygon, len(ix))
	for i := range ix {
		out[i] = Point{X: ix[i], Y: iy[i]}
	}
	return out
}

// interpolateAxis zero-pads the spectrum of vals at its midpoint and
// transforms it back. A second forward transform followed by index reversal is
// an inverse transform scaled by the padded length, so dividing by len(vals)
// yields the interpolated samples without depending on the library's inverse
// normalization.
func interpolateAxis(vals []float64, n int) []float64 {
	m := len(vals)
	seq := make([]complex128, m)
	for i, v := range vals {
		seq[i] = complex(v, 0)
	}
	coeff := fourier.NewCmplxFFT(m).Coefficients(nil, seq)

	half := (m + 1) / 2
	padded := make([]complex128, m*(n+1))
	copy(padded[:half], coeff[:half])
	copy(padded[half+m*n:], coeff[half:])

	twice := fourier.NewCmplxFFT(len(padded)).Coefficients(nil, padded)

	out := make([]float64, len(twice))
	last := len(twice) - 1
	for i := range twice {
		out[i] = real(twice[last-i]) / float64(m)
	}
	return out
}
