package dataset

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/compositor"
	"github.com/nvr-ai/go-trashgen/profiler"
)

// Bounds of randomly drawn sequence lengths.
const (
	MinLength = 5
	MaxLength = 50
)

// DefaultQuality is the JPEG quality of frame images.
const DefaultQuality = 90

// Options configures a Runner.
type Options struct {
	// Sequences is the number of sequences to generate.
	Sequences int
	// Length is the number of frames per sequence. 0 draws every length
	// uniformly from [MinLength, MaxLength].
	Length int
	// Seed fixes every random draw of the run.
	Seed uint64
	// Workers bounds the sequences generated at once. 0 sizes it to the host.
	Workers int
	// Quality is the JPEG quality. 0 means DefaultQuality.
	Quality int
}

// Runner generates a dataset of independent sequences in parallel.
type Runner struct {
	layout     Layout
	compositor *compositor.Compositor
	registry   *classes.Registry
	opts       Options
	logger     *zap.Logger
	profiler   *profiler.Profiler
}

// NewRunner validates opts and builds a Runner. A nil logger discards logs.
func NewRunner(layout Layout, comp *compositor.Compositor, registry *classes.Registry, opts Options, logger *zap.Logger) (*Runner, error) {
	if comp == nil || registry == nil {
		return nil, errors.New("runner needs a compositor and a class registry")
	}
	if opts.Sequences <= 0 {
		return nil, errors.Errorf("sequence count %d must be positive", opts.Sequences)
	}
	if opts.Length < 0 {
		return nil, errors.Errorf("sequence length %d cannot be negative", opts.Length)
	}
	if opts.Workers <= 0 {
		o := comp.Options()
		opts.Workers = SuggestWorkers(o.Width, o.Height)
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		layout:     layout,
		compositor: comp,
		registry:   registry,
		opts:       opts,
		logger:     logger,
		profiler:   profiler.New(profiler.Options{}, logger),
	}, nil
}

// Lengths returns the frame count of every sequence.
func (r *Runner) Lengths() []int {
	lengths := make([]int, r.opts.Sequences)
	rng := rand.New(rand.NewPCG(r.opts.Seed, math.MaxUint64))
	for i := range lengths {
		if r.opts.Length > 0 {
			lengths[i] = r.opts.Length
		} else {
			lengths[i] = MinLength + rng.IntN(MaxLength-MinLength+1)
		}
	}
	return lengths
}

// Run generates every sequence and writes the manifest.
//
// Sequence i draws from a PCG generator seeded with (Seed, i), so output does
// not depend on the worker count. The first failing sequence cancels the
// rest. When ctx is cancelled no new sequence starts and its error is
// returned.
func (r *Runner) Run(ctx context.Context) (*Manifest, error) {
	if err := r.layout.Create(); err != nil {
		return nil, err
	}

	lengths := r.Lengths()
	total := 0
	for _, n := range lengths {
		total += n
	}
	o := r.compositor.Options()
	m := NewManifest(Info{
		RunID:     uuid.NewString(),
		Created:   time.Now().UTC(),
		Width:     o.Width,
		Height:    o.Height,
		Seed:      r.opts.Seed,
		Sequences: len(lengths),
		Frames:    total,
	}, r.registry)

	r.logger.Info("run started",
		zap.String("run_id", m.Info.RunID),
		zap.String("root", r.layout.Root),
		zap.Int("sequences", len(lengths)),
		zap.Int("frames", total),
		zap.Int("workers", r.opts.Workers),
	)
	r.profiler.Start(ctx)
	defer r.profiler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, n := range lengths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return r.sequence(gctx, m, i, n)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := m.Write(r.layout.ManifestPath()); err != nil {
		return nil, err
	}
	r.logger.Info("run finished", r.profiler.Snapshot().Fields()...)
	return m, nil
}

func (r *Runner) sequence(ctx context.Context, m *Manifest, seq, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.profiler.StartOperation("sequence")()
	start := time.Now()

	rng := rand.New(rand.NewPCG(r.opts.Seed, uint64(seq)))
	err := r.compositor.Run(rng, n, func(f compositor.Frame) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		defer r.profiler.StartOperation("frame_write")()

		name := FrameName(seq, f.Index)
		if err := r.layout.WriteFrame(name, f, r.opts.Quality); err != nil {
			return err
		}
		ann, err := Annotate(r.registry, seq, n, f)
		if err != nil {
			return err
		}
		m.Add(ImageName(name), ann)
		r.profiler.RecordMetric("objects", float64(len(f.Objects)))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "sequence %d", seq)
	}

	r.logger.Info("sequence done",
		zap.Int("sequence", seq),
		zap.Int("frames", n),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
