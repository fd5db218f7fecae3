package shapes

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func assertPolygonsEqual(t *testing.T, want, got Polygon, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, delta, "x at %d", i)
		assert.InDelta(t, want[i].Y, got[i].Y, delta, "y at %d", i)
	}
}

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name string
		in   []Point
		want int
	}{
		{
			name: "square with interior point",
			in:   []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}},
			want: 4,
		},
		{
			name: "collinear edge point dropped",
			in:   []Point{{0, 0}, {0.5, 0}, {1, 0}, {1, 1}, {0, 1}},
			want: 4,
		},
		{
			name: "duplicates",
			in:   []Point{{0, 0}, {0, 0}, {1, 0}, {0, 1}, {1, 0}},
			want: 3,
		},
		{
			name: "degenerate",
			in:   []Point{{0, 0}, {0, 0}},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hull := ConvexHull(tt.in)
			assert.Len(t, hull, tt.want)
			if len(hull) >= 3 {
				assert.Greater(t, hull.Area(), 0.0, "hull must be counter-clockwise")
			}
		})
	}
}

func TestInterpolatePassesThroughVertices(t *testing.T) {
	coarse := Polygon{{0.2, 0.1}, {0.9, 0.3}, {0.7, 0.8}, {0.3, 0.9}, {0.1, 0.5}}
	for _, n := range []int{0, 1, 4, 10} {
		out := Interpolate(coarse, n)
		require.Len(t, out, len(coarse)*(n+1))
		for k := 1; k <= len(coarse); k++ {
			got := out[k*(n+1)-1]
			want := coarse[k%len(coarse)]
			assert.InDelta(t, want.X, got.X, 1e-9, "n=%d k=%d", n, k)
			assert.InDelta(t, want.Y, got.Y, 1e-9, "n=%d k=%d", n, k)
		}
	}
}

func TestInterpolateEvenLength(t *testing.T) {
	coarse := Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	out := Interpolate(coarse, 3)
	require.Len(t, out, 16)
	assert.InDelta(t, 1.0, out[3].X, 1e-9)
	assert.InDelta(t, 0.0, out[3].Y, 1e-9)
}

func TestBlob(t *testing.T) {
	lib := NewLibrary()
	rng := newRand(1)
	for i := 0; i < 100; i++ {
		for _, smooth := range []int{0, 5, DefaultBlobSmoothness} {
			p, err := lib.Blob(rng, DefaultBlobPoints, smooth)
			require.NoError(t, err)
			assert.True(t, p.InUnitSquare(1e-9), "blob escaped the unit square")
			assert.Zero(t, len(p)%(smooth+1))
			assert.GreaterOrEqual(t, len(p), 3*(smooth+1))
		}
	}
}

func TestBlobPreconditions(t *testing.T) {
	lib := NewLibrary()
	rng := newRand(2)

	_, err := lib.Blob(rng, 2, 10)
	assert.True(t, errors.Is(err, ErrTooFewPoints))

	_, err = lib.Blob(rng, 10, -1)
	assert.True(t, errors.Is(err, ErrNegativeSmoothness))

	_, err = lib.Blob(rng, 3, 0)
	assert.NoError(t, err)
}

func TestBanana(t *testing.T) {
	lib := NewLibrary()
	a := lib.Banana()
	assert.Len(t, a, len(bananaOutline)*(bananaSmoothness+1))
	assert.True(t, a.InUnitSquare(1e-9))

	// Callers own the copy.
	a[0].X = 42
	assert.NotEqual(t, 42.0, lib.Banana()[0].X)
}

func TestEllipse(t *testing.T) {
	lib := NewLibrary()
	rng := newRand(3)
	for i := 0; i < 50; i++ {
		e := lib.Ellipse(rng, nil)
		require.GreaterOrEqual(t, len(e), 3)
		assert.True(t, e.InUnitSquare(1e-9))

		s := lib.SemiEllipse(rng)
		require.GreaterOrEqual(t, len(s), 3)
		_, hi := s.Bounds()
		assert.Less(t, hi.X, 0.5)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	lib := NewLibrary()
	for _, kind := range []Kind{KindBlob, KindBanana, KindEllipse, KindSemiEllipse} {
		a := lib.Generate(newRand(7), kind)
		b := lib.Generate(newRand(7), kind)
		assert.Equal(t, a, b, kind.String())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "", want: KindBlob},
		{in: "banana", want: KindBanana},
		{in: "Circle", want: KindEllipse},
		{in: " semicircle ", want: KindSemiEllipse},
		{in: "hexagon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRotateScaleIdentity(t *testing.T) {
	p, err := NewLibrary().Blob(newRand(4), 10, 5)
	require.NoError(t, err)

	assertPolygonsEqual(t, p, Rotate(p, 0), 1e-12)
	assertPolygonsEqual(t, p, Scale(p, 1, 1), 1e-12)
	assertPolygonsEqual(t, p, Rotate(p, 2*math.Pi), 1e-9)
	assertPolygonsEqual(t, p, Scale(Scale(p, -1, 1), -1, 1), 1e-12)
}

func TestRotateQuarterTurn(t *testing.T) {
	got := Rotate(Polygon{{1, 0.5}}, math.Pi/2)
	assert.InDelta(t, 0.5, got[0].X, 1e-12)
	assert.InDelta(t, 1.0, got[0].Y, 1e-12)
}

func TestRandomScaleBounds(t *testing.T) {
	rng := newRand(5)
	corner := Polygon{{1, 1}}
	for i := 0; i < 200; i++ {
		got := RandomScale(rng, corner)[0]
		sx := math.Abs(got.X-Center.X) / 0.5
		sy := math.Abs(got.Y-Center.Y) / 0.5
		assert.GreaterOrEqual(t, sx, minScale-1e-12)
		assert.LessOrEqual(t, sx, maxScale+1e-12)
		assert.GreaterOrEqual(t, sy, minScale-1e-12)
		assert.LessOrEqual(t, sy, maxScale+1e-12)
	}
}

func TestWarpKeepsPointCount(t *testing.T) {
	rng := newRand(6)
	p := NewLibrary().Banana()
	w := Warp(rng, p)
	require.Len(t, w, len(p))

	var moved float64
	for i := range p {
		dx := w[i].X - p[i].X
		dy := w[i].Y - p[i].Y
		moved = math.Max(moved, math.Hypot(dx, dy))
	}
	assert.Greater(t, moved, 0.0)
	// 11 generators of at most 0.03 per axis.
	assert.Less(t, moved, 11*0.03*math.Sqrt2+1e-9)
}

func TestSlice(t *testing.T) {
	rng := newRand(8)
	lib := NewLibrary()
	for i := 0; i < 50; i++ {
		p := lib.Generate(rng, KindBlob)
		s := Slice(rng, p)
		require.GreaterOrEqual(t, len(s), 3)
		assert.LessOrEqual(t, len(s), len(p))
		assert.NotZero(t, s.Area())
	}
}

func TestSliceFallback(t *testing.T) {
	// Every point sits right of any line with x0, x1 in [0.3, 0.7].
	p := Polygon{{0.9, 0.1}, {0.95, 0.5}, {0.9, 0.9}}
	got := Slice(newRand(9), p)
	assert.Equal(t, p, got)

	// Every point is kept, but they enclose nothing.
	flat := Polygon{{0.1, 0.1}, {0.1, 0.5}, {0.1, 0.9}}
	assert.Equal(t, flat, Slice(newRand(9), flat))
}

func TestFit(t *testing.T) {
	p := Polygon{{-0.5, 0.5}, {0.5, 1.5}, {1.5, 0.5}}
	f := p.Fit()
	assert.True(t, f.InUnitSquare(1e-12))
	assert.InDelta(t, 0.0, f[0].X, 1e-12)
	assert.InDelta(t, 1.0, f[1].Y, 1e-12)

	inside := Polygon{{0.2, 0.2}, {0.8, 0.3}}
	assert.Equal(t, inside, inside.Fit())
}
