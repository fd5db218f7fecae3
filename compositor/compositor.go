// Package compositor - layered, drifting trash scenes rendered into a bin with ground-truth masks.
package compositor

import (
	"image"
	"math/rand/v2"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/nvr-ai/go-trashgen/images"
	"github.com/nvr-ai/go-trashgen/images/kernels"
	"github.com/nvr-ai/go-trashgen/pattern"
	"github.com/nvr-ai/go-trashgen/shapes"
	"github.com/nvr-ai/go-trashgen/trash"
	"github.com/nvr-ai/go-trashgen/wastebin"
)

const (
	// DefaultMaxObjectsPerFrame bounds the class draws introduced per frame.
	DefaultMaxObjectsPerFrame = 5
	// DefaultTopK is the number of leading labels written to the top-K mask.
	DefaultTopK = 20

	// maxDrift is the largest per-frame drift as a fraction of the frame size.
	maxDrift = 0.1
	// maxBlur is the largest blur radius applied to an instance.
	maxBlur = 2
	// footprintThreshold is the clipped coverage from which a pixel belongs
	// to an object in the masks. Any coverage counts.
	footprintThreshold = 1
)

// placeMargin keeps new instances and their widest blur halo off the edge of
// the interior mask, with a pixel of slack on each side for rasterization.
var placeMargin = float64(blurPad(maxBlur) + 2)

// ErrShortState is returned when a State tracks fewer layers than requested.
var ErrShortState = errors.New("compositor state has too few layers")

// Options configures a Compositor.
type Options struct {
	Width              int
	Height             int
	MaxObjectsPerFrame int
	TopK               int
}

// Instance is one rasterized trash polygon.
type Instance struct {
	Label int
	Color int
	// Layer is the frame index at which the instance was introduced.
	Layer int
	// Polygon is the placed outline in frame coordinates.
	Polygon shapes.Polygon
	// Texture is the premultiplied fill clipped to the bin interior, covering
	// the polygon's bounding box in frame coordinates.
	Texture *image.RGBA
}

// Layer holds the instances introduced at one frame.
type Layer struct {
	Index     int
	Instances []Instance
}

// State is the mutable state of one sequence: its bin and the cumulative
// drift of every layer.
type State struct {
	Bin    *wastebin.Geometry
	Shifts []image.Point
}

// NewState returns the state of an n-frame sequence in bin.
func NewState(bin *wastebin.Geometry, n int) *State {
	return &State{Bin: bin, Shifts: make([]image.Point, n)}
}

// Object describes an instance visible in a frame.
type Object struct {
	Label int
	// Layer is the frame index at which the object was introduced.
	Layer int
	// BBox bounds the visible footprint.
	BBox images.Rect
	// Footprint is the binary visible mask in frame coordinates.
	Footprint *image.Alpha
}

// Frame is one rendered image of a sequence with its ground truth.
type Frame struct {
	Index int
	// Image is opaque.
	Image *image.RGBA
	// NewObjectMask is 255 where an object introduced at this frame is
	// visible and 0 elsewhere.
	NewObjectMask *image.Gray
	// TopKMask is label+1 where a new object with label < TopK is visible
	// and 0 elsewhere.
	TopKMask *image.Gray
	Objects  []Object
}

// Compositor renders sequences of trash piling up in a bin.
//
// A Compositor holds only read-only state. Sequences may be generated
// concurrently as long as each owns its *rand.Rand and State.
type Compositor struct {
	opts      Options
	generator *trash.Generator
	synth     *pattern.Synthesizer
	light     *Light
}

// New builds a Compositor. Zero MaxObjectsPerFrame and TopK take their
// defaults. A nil light builds one for the frame size.
func New(opts Options, generator *trash.Generator, synth *pattern.Synthesizer, light *Light) (*Compositor, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if generator == nil || synth == nil {
		return nil, errors.New("compositor needs a trash generator and a pattern synthesizer")
	}
	if opts.MaxObjectsPerFrame <= 0 {
		opts.MaxObjectsPerFrame = DefaultMaxObjectsPerFrame
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if light == nil {
		light = NewLight(opts.Width, opts.Height)
	}
	return &Compositor{opts: opts, generator: generator, synth: synth, light: light}, nil
}

// Options returns the effective options.
func (c *Compositor) Options() Options {
	return c.opts
}

func (c *Compositor) frame() image.Rectangle {
	return image.Rect(0, 0, c.opts.Width, c.opts.Height)
}

// NewBin draws a fresh bin scene for a sequence.
func (c *Compositor) NewBin(rng *rand.Rand) *wastebin.Geometry {
	return wastebin.Generate(rng, wastebin.ChoosePalette(rng), c.opts.Height, c.opts.Width)
}

// BuildLayer generates the instances introduced at frame i.
//
// Between one and MaxObjectsPerFrame class draws are made with labels uniform
// over the registry. Every polygon of a draw is placed so that it and its
// blur halo lie inside the interior mask, then rasterized and filled with its
// own pattern.
func (c *Compositor) BuildLayer(rng *rand.Rand, st *State, i int) (Layer, error) {
	numClasses := c.generator.Registry().Len()
	count := 1 + rng.IntN(c.opts.MaxObjectsPerFrame)

	layer := Layer{Index: i}
	for range count {
		label := rng.IntN(numClasses)
		polys, color, err := c.generator.Generate(rng, label)
		if err != nil {
			return Layer{}, errors.Wrapf(err, "layer %d", i)
		}
		for _, p := range trash.Place(rng, polys, st.Bin.Interior, st.Bin, placeMargin) {
			inst, err := c.rasterize(rng, st.Bin, p, label, color, i)
			if err != nil {
				return Layer{}, errors.Wrapf(err, "layer %d", i)
			}
			layer.Instances = append(layer.Instances, inst)
		}
	}
	return layer, nil
}

func (c *Compositor) rasterize(rng *rand.Rand, bin *wastebin.Geometry, p shapes.Polygon, label, color, layer int) (Instance, error) {
	inst := Instance{Label: label, Color: color, Layer: layer, Polygon: p}

	alpha := images.FillPolygon(p, c.frame())
	images.IntersectMask(alpha, bin.Mask)
	if images.AlphaBounds(alpha).Empty() {
		inst.Texture = image.NewRGBA(image.Rectangle{})
		return inst, nil
	}

	fill, err := c.synth.Synthesize(rng, label, color)
	if err != nil {
		return Instance{}, err
	}
	inst.Texture = images.Cutout(fill, alpha)
	return inst, nil
}

// ComposeFrame renders frame i from layers[0..i].
//
// Every older layer j first drifts by U(-0.1, 0.1) of the frame size divided
// by 2*(i-j), accumulated in st. All instances are clipped to the interior
// mask, blurred with a radius in {0, 1, 2} and composited over the bin in
// layer order. Only layer i contributes to the masks, where later instances
// overwrite earlier ones. The frame is then lit.
func (c *Compositor) ComposeFrame(rng *rand.Rand, st *State, layers []Layer, i int) (Frame, error) {
	if i < 0 || i >= len(layers) {
		return Frame{}, errors.Errorf("frame %d outside %d layers", i, len(layers))
	}
	if len(st.Shifts) <= i {
		return Frame{}, errors.Wrapf(ErrShortState, "frame %d with %d shifts", i, len(st.Shifts))
	}

	frame := c.frame()
	out := Frame{
		Index:         i,
		Image:         images.Clone(st.Bin.Background),
		NewObjectMask: image.NewGray(frame),
		TopKMask:      image.NewGray(frame),
	}

	fw, fh := float64(c.opts.Width), float64(c.opts.Height)
	for j := 0; j < i; j++ {
		div := 2 * float64(max(i-j, 1))
		st.Shifts[j].X += int((rng.Float64()*2 - 1) * maxDrift * fw / div)
		st.Shifts[j].Y += int((rng.Float64()*2 - 1) * maxDrift * fh / div)

		for _, inst := range layers[j].Instances {
			fp := c.render(out.Image, st.Bin, inst, st.Shifts[j], rng.IntN(maxBlur+1))
			out.Objects = appendObject(out.Objects, inst, fp)
		}
	}

	for _, inst := range layers[i].Instances {
		fp := c.render(out.Image, st.Bin, inst, image.Point{}, rng.IntN(maxBlur+1))
		if fp == nil {
			continue
		}
		images.Stamp(out.NewObjectMask, fp, 0xff)
		if inst.Label < c.opts.TopK {
			images.Stamp(out.TopKMask, fp, uint8(inst.Label+1))
		}
		out.Objects = appendObject(out.Objects, inst, fp)
	}

	angle, strength := randomLight(rng)
	c.light.Apply(out.Image, st.Bin.Mask, angle, strength)
	return out, nil
}

// render composites inst onto dst at shift and returns its footprint: the
// pixels the clipped instance covers before blurring. It returns nil when
// nothing of it lands in the frame.
func (c *Compositor) render(dst *image.RGBA, bin *wastebin.Geometry, inst Instance, shift image.Point, radius int) *image.Alpha {
	if inst.Texture == nil || inst.Texture.Rect.Empty() {
		return nil
	}

	pad := blurPad(radius)
	at := inst.Texture.Rect.Add(shift)
	buf := image.NewRGBA(at.Inset(-pad).Intersect(dst.Rect))
	if buf.Rect.Empty() {
		return nil
	}
	draw.Draw(buf, at, inst.Texture, inst.Texture.Rect.Min, draw.Src)
	images.ClipAlpha(buf, bin.Mask)
	fp := images.Footprint(buf, footprintThreshold)

	if radius > 0 {
		buf = kernels.GaussianBlur(buf, float64(radius), images.ClampEdgeMode, false)
		images.ClipAlpha(buf, bin.Mask)
	}
	images.Over(dst, buf, image.Point{})
	return fp
}

// blurPad is how far a blur of radius spreads an instance.
func blurPad(radius int) int {
	if radius <= 0 {
		return 0
	}
	pad := 0
	for _, r := range kernels.GaussianBoxRadii(float64(radius), 3) {
		pad += r
	}
	return pad
}

func appendObject(objs []Object, inst Instance, fp *image.Alpha) []Object {
	if fp == nil {
		return objs
	}
	box := images.AlphaBounds(fp)
	if box.Empty() {
		return objs
	}
	return append(objs, Object{
		Label:     inst.Label,
		Layer:     inst.Layer,
		BBox:      images.RectFrom(box),
		Footprint: fp,
	})
}

// Run generates an n-frame sequence and hands every frame to emit in order.
//
// A fresh bin is drawn, all layers are built, and frames are then rendered
// one at a time so only the current frame is held in memory. An error from
// emit stops the run.
func (c *Compositor) Run(rng *rand.Rand, n int, emit func(Frame) error) error {
	if n <= 0 {
		return errors.Errorf("sequence length %d must be positive", n)
	}

	st := NewState(c.NewBin(rng), n)
	layers := make([]Layer, n)
	for i := range layers {
		layer, err := c.BuildLayer(rng, st, i)
		if err != nil {
			return err
		}
		layers[i] = layer
	}

	for i := range layers {
		f, err := c.ComposeFrame(rng, st, layers, i)
		if err != nil {
			return err
		}
		if err := emit(f); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	return nil
}

// Generate returns all frames of an n-frame sequence.
func (c *Compositor) Generate(rng *rand.Rand, n int) ([]Frame, error) {
	frames := make([]Frame, 0, max(n, 0))
	err := c.Run(rng, n, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}
