package dataset

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/compositor"
	"github.com/nvr-ai/go-trashgen/images"
	"github.com/nvr-ai/go-trashgen/pattern"
	"github.com/nvr-ai/go-trashgen/shapes"
	"github.com/nvr-ai/go-trashgen/trash"
)

func testRegistry() *classes.Registry {
	return classes.NewRegistry([]classes.ClassConfig{
		{SuperCategory: "organic", Category: "banana", Shape: shapes.KindBanana},
		{SuperCategory: "plastic", Category: "lid", Avoidable: true, Shape: shapes.KindEllipse},
	})
}

func testCompositor(t *testing.T, reg *classes.Registry, w, h int) *compositor.Compositor {
	t.Helper()
	colors, err := classes.ParseColorTable([]string{"#7a9a3c", "#c0392b", "#2980b9"})
	require.NoError(t, err)
	gen, err := trash.NewGenerator(reg, colors, nil)
	require.NoError(t, err)
	synth, err := pattern.NewSynthesizer(pattern.NewProceduralSource(24, 1), colors, w, h, 1)
	require.NoError(t, err)
	c, err := compositor.New(compositor.Options{Width: w, Height: h, MaxObjectsPerFrame: 2}, gen, synth, nil)
	require.NoError(t, err)
	return c
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/data")
	name := FrameName(3, 12)
	assert.Equal(t, "0003-0012", name)
	assert.Equal(t, "0003-0012.jpg", ImageName(name))
	assert.Equal(t, filepath.Join("/data", "trash_dataset", "images", "0003-0012.jpg"), l.ImagePath(name))
	assert.Equal(t, filepath.Join("/data", "trash_dataset", "new_object_masks", "0003-0012.png"), l.NewObjectMaskPath(name))
	assert.Equal(t, filepath.Join("/data", "trash_dataset", "top_20_masks", "0003-0012.png"), l.TopKMaskPath(name))
	assert.Equal(t, "new_object_masks/0003-0012.png", NewObjectMaskRel(name))
	assert.Equal(t, "top_20_masks/0003-0012.png", TopKMaskRel(name))
	assert.Equal(t, filepath.Join("/data", "trash_dataset", "annotations.json"), l.ManifestPath())
}

func TestAnnotate(t *testing.T) {
	reg := testRegistry()
	f := compositor.Frame{
		Index: 0,
		Objects: []compositor.Object{
			{Label: 1, Layer: 0, BBox: images.Rect{X1: 1, Y1: 2, X2: 5, Y2: 6}},
		},
	}

	ann, err := Annotate(reg, 2, 3, f)
	require.NoError(t, err)
	assert.Nil(t, ann.PrevImg)
	require.NotNil(t, ann.NextImg)
	assert.Equal(t, "0002-0001.jpg", *ann.NextImg)
	assert.Equal(t, "new_object_masks/0002-0000.png", ann.NewObjMask)
	require.Len(t, ann.Objects, 1)
	assert.Equal(t, ObjectAnnotation{
		Label: 1, CategoryID: 2, SuperCategory: "plastic", Category: "lid", Avoidable: true,
		IntroducedAt: 0, BBox: images.Rect{X1: 1, Y1: 2, X2: 5, Y2: 6},
	}, ann.Objects[0])

	f.Index = 2
	ann, err = Annotate(reg, 2, 3, f)
	require.NoError(t, err)
	require.NotNil(t, ann.PrevImg)
	assert.Equal(t, "0002-0001.jpg", *ann.PrevImg)
	assert.Nil(t, ann.NextImg)

	f.Objects[0].Label = 9
	_, err = Annotate(reg, 2, 3, f)
	assert.True(t, errors.Is(err, classes.ErrUnknownLabel))
}

func TestManifestNullLinks(t *testing.T) {
	m := NewManifest(Info{RunID: "run"}, testRegistry())
	assert.Equal(t, Category{SuperCategory: "organic", Category: "banana"}, m.Categories["1"])
	m.Add("0000-0000.jpg", ImageAnnotation{NewObjMask: "new_object_masks/0000-0000.png"})

	p := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, m.Write(p))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prev_img": null`)
	assert.Contains(t, string(data), `"next_img": null`)
}

func TestLengths(t *testing.T) {
	reg := testRegistry()
	c := testCompositor(t, reg, 32, 24)

	r, err := NewRunner(NewLayout(t.TempDir()), c, reg, Options{Sequences: 20, Seed: 4, Workers: 1}, nil)
	require.NoError(t, err)
	lengths := r.Lengths()
	require.Len(t, lengths, 20)
	for _, n := range lengths {
		assert.GreaterOrEqual(t, n, MinLength)
		assert.LessOrEqual(t, n, MaxLength)
	}
	assert.Equal(t, lengths, r.Lengths())

	r, err = NewRunner(NewLayout(t.TempDir()), c, reg, Options{Sequences: 3, Length: 7, Workers: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 7, 7}, r.Lengths())

	_, err = NewRunner(NewLayout(t.TempDir()), c, reg, Options{}, nil)
	assert.Error(t, err)
	_, err = NewRunner(NewLayout(t.TempDir()), c, reg, Options{Sequences: 1, Length: -1}, nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	reg := testRegistry()
	c := testCompositor(t, reg, 64, 48)
	layout := NewLayout(t.TempDir())
	core, logs := observer.New(zap.InfoLevel)

	r, err := NewRunner(layout, c, reg, Options{Sequences: 2, Length: 3, Seed: 1, Workers: 2}, zap.New(core))
	require.NoError(t, err)
	m, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, m.Len())
	assert.Equal(t, 2, logs.FilterMessage("sequence done").Len())

	read, err := ReadManifest(layout.ManifestPath())
	require.NoError(t, err)
	assert.NotEmpty(t, read.Info.RunID)
	assert.Equal(t, 6, read.Info.Frames)
	assert.Len(t, read.Categories, 2)
	require.Len(t, read.Images, 6)

	first := read.Images["0001-0000.jpg"]
	assert.Nil(t, first.PrevImg)
	require.NotNil(t, first.NextImg)
	assert.Equal(t, "0001-0001.jpg", *first.NextImg)
	assert.Nil(t, read.Images["0001-0002.jpg"].NextImg)

	for name, ann := range read.Images {
		for _, o := range ann.Objects {
			assert.LessOrEqual(t, o.IntroducedAt, ann.Frame, name)
		}
	}

	img := decodeFile(t, layout.ImagePath("0000-0002"), jpeg.Decode)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	mask := decodeFile(t, layout.TopKMaskPath("0000-0002"), png.Decode)
	_, gray := mask.(*image.Gray)
	assert.True(t, gray)
	decodeFile(t, filepath.Join(layout.Root, filepath.FromSlash(first.NewObjMask)), png.Decode)
}

func TestRunSameOutputForAnyWorkerCount(t *testing.T) {
	reg := testRegistry()
	c := testCompositor(t, reg, 48, 32)

	var masks [2][]byte
	for i, workers := range []int{1, 3} {
		layout := NewLayout(t.TempDir())
		r, err := NewRunner(layout, c, reg, Options{Sequences: 3, Length: 2, Seed: 8, Workers: workers}, nil)
		require.NoError(t, err)
		_, err = r.Run(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(layout.TopKMaskPath("0002-0001"))
		require.NoError(t, err)
		masks[i] = data
	}
	assert.Equal(t, masks[0], masks[1])
}

func TestRunCancelled(t *testing.T) {
	reg := testRegistry()
	c := testCompositor(t, reg, 32, 24)
	layout := NewLayout(t.TempDir())
	r, err := NewRunner(layout, c, reg, Options{Sequences: 4, Length: 2, Workers: 1}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	_, statErr := os.Stat(layout.ManifestPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestSuggestWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, SuggestWorkers(1024, 800), 1)
	assert.GreaterOrEqual(t, SuggestWorkers(0, 0), 1)
}

func decodeFile(t *testing.T, path string, decode func(io.Reader) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := decode(f)
	require.NoError(t, err)
	return img
}
