package shapes

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
)

// Kind selects the base shape generator for a class.
type Kind int

const (
	// KindBlob is a smoothed convex hull of random points. It is the default.
	KindBlob Kind = iota
	// KindBanana is the fixed, hand-authored banana outline.
	KindBanana
	// KindEllipse is a randomly sized and oriented ellipse.
	KindEllipse
	// KindSemiEllipse is an ellipse cut in half by a vertical line.
	KindSemiEllipse
)

// String returns the class-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindBanana:
		return "banana"
	case KindEllipse:
		return "circle"
	case KindSemiEllipse:
		return "semicircle"
	default:
		return "blob"
	}
}

// ParseKind maps the shape column of a class file to a Kind. A blank value
// selects KindBlob.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blob":
		return KindBlob, nil
	case "banana":
		return KindBanana, nil
	case "circle", "ellipse":
		return KindEllipse, nil
	case "semicircle", "semi-ellipse", "semiellipse":
		return KindSemiEllipse, nil
	}
	return KindBlob, errors.Errorf("unknown shape %q", s)
}

var (
	// ErrTooFewPoints is returned when a blob is requested with fewer than
	// three seed points.
	ErrTooFewPoints = errors.New("blob needs at least 3 points")
	// ErrNegativeSmoothness is returned for a negative interpolation factor.
	ErrNegativeSmoothness = errors.New("smoothness cannot be negative")
)

const (
	// DefaultBlobPoints is the number of random seed points of a blob.
	DefaultBlobPoints = 10
	// DefaultBlobSmoothness is the number of points interpolated per hull edge.
	DefaultBlobSmoothness = 25

	bananaSmoothness = 10
	ellipseSamples   = 128
	ellipseMinRadius = 0.15
	ellipseMaxRadius = 0.5
)

// bananaOutline is traced by hand in the unit square.
var bananaOutline = Polygon{
	{0.790, 0.120}, {0.734, 0.273}, {0.672, 0.448}, {0.393, 0.694},
	{0.123, 0.743}, {0.027, 0.801}, {0.020, 0.852}, {0.054, 0.893},
	{0.222, 0.933}, {0.433, 0.924}, {0.638, 0.835}, {0.811, 0.672},
	{0.896, 0.537}, {0.954, 0.374}, {0.956, 0.307}, {0.925, 0.232},
	{0.893, 0.187}, {0.856, 0.131}, {0.818, 0.104},
}

// Box is an axis-aligned region of the unit square used to restrict ellipse
// perimeters. Points are kept when Min <= p < Max on both axes.
type Box struct {
	Min, Max Point
}

func (b Box) contains(p Point) bool {
	return p.X >= b.Min.X && p.X < b.Max.X && p.Y >= b.Min.Y && p.Y < b.Max.Y
}

// semiEllipseBox keeps the left half of the unit square.
var semiEllipseBox = Box{Max: Point{X: 0.5, Y: 1}}

// Library produces base shapes. The banana outline is interpolated once at
// construction; everything else is drawn from the caller's generator, so a
// Library is safe for concurrent use.
type Library struct {
	banana Polygon
}

// NewLibrary builds a Library.
func NewLibrary() *Library {
	return &Library{banana: Interpolate(bananaOutline, bananaSmoothness).Fit()}
}

// Generate dispatches to the generator bound to kind, using default blob
// parameters.
func (l *Library) Generate(rng *rand.Rand, kind Kind) Polygon {
	switch kind {
	case KindBanana:
		return l.Banana()
	case KindEllipse:
		return l.Ellipse(rng, nil)
	case KindSemiEllipse:
		return l.SemiEllipse(rng)
	default:
		// Defaults are always valid.
		p, _ := l.Blob(rng, DefaultBlobPoints, DefaultBlobSmoothness)
		return p
	}
}

// Blob generates a random organic shape.
//
// numPoints uniform points are drawn in the unit square, their convex hull is
// taken as a coarse polygon, and the hull is upsampled spectrally with
// smoothness points per edge. The result has len(hull)*(smoothness+1) points.
//
// Arguments:
//   - rng: Source of randomness.
//   - numPoints: Seed points, >= 3.
//   - smoothness: Points interpolated per hull edge, >= 0.
//
// Returns:
//   - The blob perimeter inside [0,1]^2.
//   - ErrTooFewPoints or ErrNegativeSmoothness (wrapped) on bad arguments.
func (l *Library) Blob(rng *rand.Rand, numPoints, smoothness int) (Polygon, error) {
	if numPoints < 3 {
		return nil, errors.Wrapf(ErrTooFewPoints, "got %d", numPoints)
	}
	if smoothness < 0 {
		return nil, errors.Wrapf(ErrNegativeSmoothness, "got %d", smoothness)
	}

	for {
		pts := make([]Point, numPoints)
		for i := range pts {
			pts[i] = Point{X: rng.Float64(), Y: rng.Float64()}
		}
		hull := ConvexHull(pts)
		// A collinear draw has probability zero but cannot produce an area.
		if len(hull) < 3 {
			continue
		}
		return Interpolate(hull, smoothness).Fit(), nil
	}
}

// Banana returns a copy of the banana outline. It always has the same
// orientation; callers rotate and scale it.
func (l *Library) Banana() Polygon {
	return l.banana.Clone()
}

// Ellipse samples the perimeter of an ellipse centred in the unit square with
// radii uniform in [0.15, 0.5] and orientation uniform in [0, pi). When clip is
// non-nil only perimeter samples inside it are kept. The convex hull of the
// samples is returned so the perimeter never self-intersects.
func (l *Library) Ellipse(rng *rand.Rand, clip *Box) Polygon {
	a := ellipseMinRadius + rng.Float64()*(ellipseMaxRadius-ellipseMinRadius)
	b := ellipseMinRadius + rng.Float64()*(ellipseMaxRadius-ellipseMinRadius)
	theta := rng.Float64() * math.Pi
	sinT, cosT := math.Sincos(theta)

	pts := make([]Point, 0, ellipseSamples)
	for i := 0; i < ellipseSamples; i++ {
		t := 2 * math.Pi * float64(i) / ellipseSamples
		u, v := a*math.Cos(t), b*math.Sin(t)
		pt := Point{
			X: Center.X + u*cosT - v*sinT,
			Y: Center.Y + u*sinT + v*cosT,
		}
		if clip != nil && !clip.contains(pt) {
			continue
		}
		pts = append(pts, pt)
	}
	return ConvexHull(pts).Fit()
}

// SemiEllipse is an Ellipse restricted to the left half of the unit square.
func (l *Library) SemiEllipse(rng *rand.Rand) Polygon {
	return l.Ellipse(rng, &semiEllipseBox)
}
