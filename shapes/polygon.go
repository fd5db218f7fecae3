// Package shapes - closed polygon generation and deformation for synthetic trash objects.
package shapes

import "math"

// Point is a 2D coordinate. Shapes are produced in the unit square and later
// placed into frame coordinates.
type Point struct {
	X, Y float64
}

// Polygon is an ordered, implicitly closed perimeter. The last point connects
// back to the first.
type Polygon []Point

// Center is the pivot used by rotation, scaling and unit-square fitting.
var Center = Point{X: 0.5, Y: 0.5}

// Clone returns a copy that shares no memory with p.
func (p Polygon) Clone() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Bounds returns the axis-aligned extent of the polygon.
//
// Returns:
//   - min: The smallest X and Y over all points.
//   - max: The largest X and Y over all points.
//
// An empty polygon yields zero points for both.
func (p Polygon) Bounds() (Point, Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	lo, hi := p[0], p[0]
	for _, pt := range p[1:] {
		lo.X = math.Min(lo.X, pt.X)
		lo.Y = math.Min(lo.Y, pt.Y)
		hi.X = math.Max(hi.X, pt.X)
		hi.Y = math.Max(hi.Y, pt.Y)
	}
	return lo, hi
}

// InUnitSquare reports whether every point lies in [0,1]^2, allowing eps of
// floating point slack.
func (p Polygon) InUnitSquare(eps float64) bool {
	for _, pt := range p {
		if pt.X < -eps || pt.X > 1+eps || pt.Y < -eps || pt.Y > 1+eps {
			return false
		}
	}
	return true
}

// Fit shrinks the polygon uniformly about Center until it fits the unit
// square. Polygons already inside are returned unchanged (as a copy).
func (p Polygon) Fit() Polygon {
	out := p.Clone()
	var reach float64
	for _, pt := range out {
		reach = math.Max(reach, math.Abs(pt.X-Center.X))
		reach = math.Max(reach, math.Abs(pt.Y-Center.Y))
	}
	if reach <= 0.5 {
		return out
	}
	k := 0.5 / reach
	for i, pt := range out {
		out[i] = Point{
			X: Center.X + (pt.X-Center.X)*k,
			Y: Center.Y + (pt.Y-Center.Y)*k,
		}
	}
	return out
}

// Transform maps every point through an affine scale followed by a
// translation: (x*sx + tx, y*sy + ty). It is how unit-square shapes are placed
// into frame coordinates.
func (p Polygon) Transform(sx, sy, tx, ty float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: pt.X*sx + tx, Y: pt.Y*sy + ty}
	}
	return out
}

// Area returns the signed shoelace area. Counter-clockwise perimeters (in a
// Y-up frame) are positive.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}
