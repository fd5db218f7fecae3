package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-trashgen/shapes"
)

func solid(r image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func countSet(a *image.Alpha, threshold uint8) int {
	n := 0
	for _, v := range a.Pix {
		if v >= threshold {
			n++
		}
	}
	return n
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		coord, max int
		mode       EdgeMode
		want       int
	}{
		{-1, 5, ClampEdgeMode, 0},
		{7, 5, ClampEdgeMode, 4},
		{-1, 5, MirrorEdgeMode, 0},
		{5, 5, MirrorEdgeMode, 4},
		{-2, 5, MirrorEdgeMode, 1},
		{-1, 5, WrapEdgeMode, 4},
		{12, 5, WrapEdgeMode, 2},
		{3, 1, MirrorEdgeMode, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapCoord(tt.coord, tt.max, tt.mode), "%d in %d (%s)", tt.coord, tt.max, tt.mode)
	}
}

func TestParallelCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		seen := make([]int32, n)
		Parallel(n, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, v := range seen {
			require.Equal(t, int32(1), v, "index %d of %d", i, n)
		}
	}
}

func TestFillPolygon(t *testing.T) {
	frame := image.Rect(0, 0, 100, 80)
	square := shapes.Polygon{{10, 10}, {30, 10}, {30, 30}, {10, 30}}

	mask := FillPolygon(square, frame)
	assert.True(t, mask.Rect.In(frame))
	assert.Equal(t, 400, countSet(mask, 128))
	assert.Greater(t, mask.AlphaAt(20, 20).A, uint8(250))
	assert.Equal(t, uint8(0), mask.AlphaAt(9, 20).A)

	// Coverage is kept when the polygon hangs off the frame.
	edge := shapes.Polygon{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}}
	clipped := FillPolygon(edge, frame)
	assert.Equal(t, image.Rect(0, 0, 11, 11), clipped.Rect)
	assert.Equal(t, 100, countSet(clipped, 128))

	outside := FillPolygon(shapes.Polygon{{200, 200}, {210, 200}, {210, 210}}, frame)
	assert.True(t, outside.Rect.Empty())
}

func TestIntersectMaskAndFootprint(t *testing.T) {
	frame := image.Rect(0, 0, 40, 40)
	mask := image.NewAlpha(frame)
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}

	clip := image.NewAlpha(frame)
	for y := 0; y < 40; y++ {
		for x := 0; x < 20; x++ {
			clip.SetAlpha(x, y, color.Alpha{A: 255})
		}
	}
	IntersectMask(mask, clip)
	assert.Equal(t, 800, countSet(mask, 1))

	tex := Cutout(solid(frame, color.RGBA{200, 100, 50, 255}), mask)
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, tex.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, tex.RGBAAt(30, 5))

	fp := Footprint(tex, 128)
	assert.Equal(t, 800, countSet(fp, 255))

	ClipAlpha(tex, image.NewAlpha(image.Rect(0, 0, 10, 10)))
	assert.Equal(t, color.RGBA{}, tex.RGBAAt(5, 5))
}

func TestStampLastWriteWins(t *testing.T) {
	dst := image.NewGray(image.Rect(0, 0, 10, 10))
	a := image.NewAlpha(image.Rect(0, 0, 6, 6))
	b := image.NewAlpha(image.Rect(4, 4, 10, 10))
	for i := range a.Pix {
		a.Pix[i] = 255
	}
	for i := range b.Pix {
		b.Pix[i] = 255
	}
	Stamp(dst, a, 3)
	Stamp(dst, b, 7)
	assert.Equal(t, uint8(3), dst.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(7), dst.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(0), dst.GrayAt(1, 8).Y)
}

func TestRollAndTile(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})

	rolled := Roll(src, 1, 2)
	assert.Equal(t, uint8(255), rolled.RGBAAt(1, 2).R)
	assert.Equal(t, uint8(0), rolled.RGBAAt(0, 0).R)

	back := Roll(rolled, -5, -2)
	assert.Equal(t, src.Pix, back.Pix)

	tiled := Tile(src, 10, 7)
	assert.Equal(t, image.Rect(0, 0, 10, 7), tiled.Rect)
	for _, p := range []image.Point{{0, 0}, {4, 0}, {8, 3}, {0, 6}} {
		assert.Equal(t, uint8(255), tiled.RGBAAt(p.X, p.Y).R, "%v", p)
	}
	assert.Equal(t, uint8(0), tiled.RGBAAt(9, 6).R)
}

func TestRotate(t *testing.T) {
	src := solid(image.Rect(0, 0, 21, 21), color.RGBA{0, 0, 0, 255})
	// A bright pixel to the right of the centre.
	src.SetRGBA(18, 10, color.RGBA{255, 255, 255, 255})

	same := Rotate(src, 0)
	assert.Equal(t, src.Pix, same.Pix)

	// A counter-clockwise quarter turn moves it above the centre.
	turned := Rotate(src, 90)
	assert.Greater(t, turned.RGBAAt(10, 2).R, uint8(200))
	assert.Less(t, turned.RGBAAt(18, 10).R, uint8(50))

	// Corners leave the source at 45 degrees.
	diag := Rotate(src, 45)
	assert.Equal(t, uint8(0), diag.RGBAAt(0, 0).A)
}

func TestCropAndBlend(t *testing.T) {
	a := solid(image.Rect(0, 0, 8, 8), color.RGBA{0, 0, 0, 255})
	b := solid(image.Rect(0, 0, 8, 8), color.RGBA{200, 100, 255, 255})

	mid := Blend(a, b, 0.5)
	assert.Equal(t, color.RGBA{100, 50, 128, 255}, mid.RGBAAt(3, 3))

	c := CenterCrop(b, 4, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 2), c.Rect)
	assert.Equal(t, b.RGBAAt(2, 3), c.RGBAAt(0, 0))
}

func TestOver(t *testing.T) {
	dst := solid(image.Rect(0, 0, 10, 10), color.RGBA{0, 0, 255, 255})
	src := solid(image.Rect(2, 2, 4, 4), color.RGBA{255, 0, 0, 255})
	Over(dst, src, image.Pt(3, 1))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(5, 3))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, dst.RGBAAt(2, 2))
}

func TestEncode(t *testing.T) {
	img := solid(image.Rect(0, 0, 16, 16), color.RGBA{10, 20, 30, 255})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatJPEG, 90))
	_, err := jpeg.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.Pix[5] = 6
	require.NoError(t, Encode(&buf, gray, FormatPNG, 0))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decoded.(*image.Gray).GrayAt(1, 1).Y)

	assert.Error(t, Encode(&buf, img, ImageFormat("webp"), 0))
	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, ".png", FormatPNG.Extension())
}
