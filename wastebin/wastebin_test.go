package wastebin

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContainment(t *testing.T) {
	const h, w = 800, 1024
	lip := Lip(h, w)
	frame := image.Rect(0, 0, w, h)
	shapes := map[Shape]int{}

	for seed := uint64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewPCG(seed, 0))
		g := Generate(rng, ChoosePalette(rng), h, w)
		shapes[g.Shape]++

		require.False(t, g.Interior.Intersect(frame).Empty(), "seed %d", seed)
		require.True(t, g.Interior.In(g.Exterior), "seed %d", seed)

		for _, inset := range []int{
			g.Interior.Min.X - g.Exterior.Min.X,
			g.Interior.Min.Y - g.Exterior.Min.Y,
			g.Exterior.Max.X - g.Interior.Max.X,
			g.Exterior.Max.Y - g.Interior.Max.Y,
		} {
			assert.Greater(t, inset, 0, "seed %d", seed)
			assert.InDelta(t, lip, float64(inset), 1, "seed %d", seed)
		}

		assert.Equal(t, frame, g.Mask.Rect)
		assert.Equal(t, frame, g.Background.Rect)
	}
	assert.Len(t, shapes, 2, "both bin shapes should appear")
}

func TestGenerateMaskMatchesPaint(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 7))
		g := Generate(rng, ChoosePalette(rng), 240, 320)

		for y := 0; y < 240; y++ {
			for x := 0; x < 320; x++ {
				painted := g.Background.RGBAAt(x, y) == g.Palette.Interior
				require.Equal(t, painted, g.Inside(x, y), "seed %d at (%d,%d)", seed, x, y)
				if g.Inside(x, y) {
					require.True(t, image.Pt(x, y).In(g.Interior))
				}
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	gen := func() *Geometry {
		rng := rand.New(rand.NewPCG(42, 42))
		return Generate(rng, ChoosePalette(rng), 120, 160)
	}
	a, b := gen(), gen()
	assert.Equal(t, a.Palette, b.Palette)
	assert.Equal(t, a.Shape, b.Shape)
	assert.Equal(t, a.Exterior, b.Exterior)
	assert.Equal(t, a.Interior, b.Interior)
	assert.Equal(t, a.Mask.Pix, b.Mask.Pix)
	assert.Equal(t, a.Background.Pix, b.Background.Pix)
}

func TestRectangularMaskFillsInterior(t *testing.T) {
	for seed := uint64(0); ; seed++ {
		rng := rand.New(rand.NewPCG(seed, 1))
		g := Generate(rng, ChoosePalette(rng), 100, 100)
		if g.Shape != Rectangular {
			continue
		}
		var n int
		for _, v := range g.Mask.Pix {
			if v != 0 {
				n++
			}
		}
		assert.Equal(t, g.Interior.Dx()*g.Interior.Dy(), n)
		return
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ED1C24")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xED), c.R)
	assert.Equal(t, uint8(0x1C), c.G)
	assert.Equal(t, uint8(0x24), c.B)
	assert.Equal(t, uint8(0xFF), c.A)

	_, err = ParseHex("red")
	assert.Error(t, err)
}
