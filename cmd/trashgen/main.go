// Command trashgen writes a synthetic dataset of waste bins filling up.
//
// Usage:
//
//	trashgen [flags] DIR CLASSES_CSV N [LENGTH]
//
// DIR receives a trash_dataset directory with N sequences. LENGTH fixes the
// frames per sequence; without it every sequence gets between 5 and 50.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/compositor"
	"github.com/nvr-ai/go-trashgen/config"
	"github.com/nvr-ai/go-trashgen/dataset"
	"github.com/nvr-ai/go-trashgen/pattern"
	"github.com/nvr-ai/go-trashgen/trash"
	"github.com/nvr-ai/go-trashgen/util"
)

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "trashgen:", err)
		os.Exit(2)
	}

	if err := util.InitLogger(cfg.Log.Mode); err != nil {
		fmt.Fprintln(os.Stderr, "trashgen: init logger:", err)
		os.Exit(1)
	}
	defer util.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, util.Logger); err != nil {
		util.Logger.Error("generation failed", zap.Error(err))
		util.Sync()
		os.Exit(1)
	}
}

// parseArgs builds the configuration from an optional config file, the
// positional arguments and any flags given explicitly.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("trashgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: trashgen [flags] DIR CLASSES_CSV N [LENGTH]")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "YAML configuration file")
	colors := fs.String("colors", "", "color table CSV (default: generated palette)")
	patterns := fs.String("patterns", "", "directory of pattern__NNNN tiles (default: procedural tiles)")
	height := fs.Int("height", 800, "frame height in pixels")
	width := fs.Int("width", 1024, "frame width in pixels")
	resolution := fs.String("resolution", "", "frame size preset (vga, svga, 720p, 1080p) or WxH")
	seed := fs.Uint64("seed", 0, "run seed")
	workers := fs.Int("workers", 0, "parallel sequences (default: sized to the host)")
	quality := fs.Int("quality", 90, "JPEG quality")
	maxObjects := fs.Int("max-objects", 5, "maximum class draws per frame")
	logMode := fs.String("log-mode", "development", "logger mode: development or release")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 3 || fs.NArg() > 4 {
		fs.Usage()
		return nil, errors.Errorf("expected 3 or 4 arguments, got %d", fs.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	cfg.Output.Dir = fs.Arg(0)
	cfg.Classes.CSV = fs.Arg(1)
	if cfg.Sequence.Count, err = strconv.Atoi(fs.Arg(2)); err != nil {
		return nil, errors.Wrapf(err, "parse N %q", fs.Arg(2))
	}
	if fs.NArg() == 4 {
		if cfg.Sequence.Length, err = strconv.Atoi(fs.Arg(3)); err != nil {
			return nil, errors.Wrapf(err, "parse LENGTH %q", fs.Arg(3))
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "colors":
			cfg.Classes.Colors = *colors
		case "patterns":
			cfg.Classes.Patterns = *patterns
		case "height":
			cfg.Frame.Height = *height
		case "width":
			cfg.Frame.Width = *width
		case "resolution":
			cfg.Frame.Resolution = *resolution
			flagErr = cfg.ApplyResolution()
		case "seed":
			cfg.Run.Seed = *seed
		case "workers":
			cfg.Run.Workers = *workers
		case "quality":
			cfg.Output.Quality = *quality
		case "max-objects":
			cfg.Sequence.MaxObjectsPerFrame = *maxObjects
		case "log-mode":
			cfg.Log.Mode = *logMode
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run wires the generators from cfg and writes the dataset.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	registry, err := classes.LoadClasses(cfg.Classes.CSV)
	if err != nil {
		return err
	}
	colors, err := loadColors(cfg, registry)
	if err != nil {
		return err
	}

	var source pattern.TileSource
	if cfg.Classes.Patterns != "" {
		source, err = pattern.NewDirSource(cfg.Classes.Patterns)
		if err != nil {
			return err
		}
	} else {
		source = pattern.NewProceduralSource(cfg.Classes.PatternSize, cfg.Run.Seed)
	}

	generator, err := trash.NewGenerator(registry, colors, nil)
	if err != nil {
		return err
	}
	synth, err := pattern.NewSynthesizer(source, colors, cfg.Frame.Width, cfg.Frame.Height, int64(cfg.Run.Seed))
	if err != nil {
		return err
	}
	comp, err := compositor.New(compositor.Options{
		Width:              cfg.Frame.Width,
		Height:             cfg.Frame.Height,
		MaxObjectsPerFrame: cfg.Sequence.MaxObjectsPerFrame,
		TopK:               cfg.Sequence.TopK,
	}, generator, synth, nil)
	if err != nil {
		return err
	}

	layout := dataset.NewLayout(cfg.Output.Dir)
	if err := layout.Create(); err != nil {
		return err
	}
	if err := cfg.Save(layout.SnapshotPath()); err != nil {
		return err
	}

	runner, err := dataset.NewRunner(layout, comp, registry, dataset.Options{
		Sequences: cfg.Sequence.Count,
		Length:    cfg.Sequence.Length,
		Seed:      cfg.Run.Seed,
		Workers:   cfg.Run.Workers,
		Quality:   cfg.Output.Quality,
	}, logger)
	if err != nil {
		return err
	}

	m, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("dataset written",
		zap.String("root", layout.Root),
		zap.String("run_id", m.Info.RunID),
		zap.Int("images", m.Len()),
	)
	return nil
}

// loadColors reads the color table, or generates a palette large enough for
// every fixed class color when no table is configured.
func loadColors(cfg *config.Config, registry *classes.Registry) (classes.ColorTable, error) {
	if cfg.Classes.Colors != "" {
		return classes.LoadColors(cfg.Classes.Colors)
	}

	n := classes.DefaultPaletteSize
	for _, c := range registry.All() {
		if c.Color != nil {
			n = max(n, *c.Color+1)
		}
	}
	rng := rand.New(rand.NewPCG(cfg.Run.Seed, 0xc0105))
	return classes.GenerateColors(rng, n), nil
}
