package shapes

import "sort"

// ConvexHull returns the vertices of the convex hull of pts in
// counter-clockwise order (Y-up), starting from the lowest-X point. Collinear
// points on hull edges are dropped.
//
// This is Andrew's monotone chain: sort by (X, Y), build the lower and upper
// chains, and join them. Inputs with fewer than three distinct points are
// returned deduplicated, which callers treat as a degenerate shape.
//
// Arguments:
//   - pts: Any set of points. It is not modified.
//
// Returns:
//   - The hull perimeter as a new Polygon.
func ConvexHull(pts []Point) Polygon {
	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	uniq := sorted[:0]
	for i, pt := range sorted {
		if i == 0 || pt != sorted[i-1] {
			uniq = append(uniq, pt)
		}
	}
	if len(uniq) < 3 {
		return Polygon(append([]Point(nil), uniq...))
	}

	hull := make(Polygon, 0, 2*len(uniq))
	// Lower chain.
	for _, pt := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	// Upper chain.
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		pt := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}

	// The last point repeats the first.
	return hull[:len(hull)-1]
}

// cross is the z component of (a->b) x (a->c).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
