package shapes

import (
	"math"
	"math/rand/v2"
)

const (
	warpMaxGenerators = 11
	warpMinAmplitude  = 0.001
	warpMaxAmplitude  = 0.03
	warpMinWavelength = 0.3
	warpMaxWavelength = 0.6

	sliceMinX     = 0.3
	sliceMaxX     = 0.7
	sliceAttempts = 8
	minSliceArea  = 1e-9

	minScale = 0.1
	maxScale = 1.0
)

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Warp displaces the perimeter with a sum of 1 to 11 sine waves. Each wave
// first shifts X by a function of Y and then shifts Y by a function of the
// already shifted X, each axis with its own amplitude and wavelength.
func Warp(rng *rand.Rand, p Polygon) Polygon {
	out := p.Clone()
	n := 1 + rng.IntN(warpMaxGenerators)
	for g := 0; g < n; g++ {
		a := uniform(rng, warpMinAmplitude, warpMaxAmplitude)
		wl := uniform(rng, warpMinWavelength, warpMaxWavelength)
		for i := range out {
			out[i].X += a * math.Sin(2*math.Pi*out[i].Y/wl)
		}

		a = uniform(rng, warpMinAmplitude, warpMaxAmplitude)
		wl = uniform(rng, warpMinWavelength, warpMaxWavelength)
		for i := range out {
			out[i].Y += a * math.Sin(2*math.Pi*out[i].X/wl)
		}
	}
	return out
}

// Slice cuts the shape along a random line through (x0, 0) and (x1, 1) and
// keeps the points on one side, preserving their order.
//
// When a cut would leave fewer than three points, or points enclosing no
// area, a new line is drawn. After eight unsuccessful lines the input is
// returned unchanged.
func Slice(rng *rand.Rand, p Polygon) Polygon {
	for attempt := 0; attempt < sliceAttempts; attempt++ {
		x0 := uniform(rng, sliceMinX, sliceMaxX)
		x1 := uniform(rng, sliceMinX, sliceMaxX)

		kept := make(Polygon, 0, len(p))
		for _, pt := range p {
			if (x1-x0)*pt.Y-(pt.X-x0) > 0 {
				kept = append(kept, pt)
			}
		}
		if len(kept) >= 3 && math.Abs(kept.Area()) > minSliceArea {
			return kept
		}
	}
	return p.Clone()
}

// Rotate turns the polygon by angle radians about Center.
func Rotate(p Polygon, angle float64) Polygon {
	sin, cos := math.Sincos(angle)
	out := make(Polygon, len(p))
	for i, pt := range p {
		dx, dy := pt.X-Center.X, pt.Y-Center.Y
		out[i] = Point{
			X: Center.X + dx*cos - dy*sin,
			Y: Center.Y + dx*sin + dy*cos,
		}
	}
	return out
}

// RandomRotate rotates by an angle uniform in [0, 2pi).
func RandomRotate(rng *rand.Rand, p Polygon) Polygon {
	return Rotate(p, rng.Float64()*2*math.Pi)
}

// Scale multiplies distances from Center by sx and sy. Negative factors
// mirror the shape.
func Scale(p Polygon, sx, sy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{
			X: Center.X + (pt.X-Center.X)*sx,
			Y: Center.Y + (pt.Y-Center.Y)*sy,
		}
	}
	return out
}

// RandomScale draws per-axis magnitudes in [0.1, 1.0], each with a random
// sign.
func RandomScale(rng *rand.Rand, p Polygon) Polygon {
	sx := uniform(rng, minScale, maxScale)
	if rng.IntN(2) == 0 {
		sx = -sx
	}
	sy := uniform(rng, minScale, maxScale)
	if rng.IntN(2) == 0 {
		sy = -sy
	}
	return Scale(p, sx, sy)
}
