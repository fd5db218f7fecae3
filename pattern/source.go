package pattern

import (
	"bytes"
	"image"
	"math"
	"math/rand/v2"
	"sync"

	// Decoders for tile files.
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/images"
	"github.com/nvr-ai/go-trashgen/noise"
	"github.com/nvr-ai/go-trashgen/util"
)

// ErrNoTile is returned when a source has no tile for a label.
var ErrNoTile = errors.New("no pattern tile for label")

// TileSource supplies the base texture tile of a class. Implementations must
// be safe for concurrent use and must not let callers modify shared tiles.
type TileSource interface {
	// Tile returns the texture of label with bounds starting at (0,0).
	Tile(label int) (*image.RGBA, error)
}

// DirSource serves tiles decoded from "pattern__NNNN" image files, where NNNN
// is the class label.
type DirSource struct {
	tiles map[int]*image.RGBA
}

// NewDirSource decodes every pattern tile in dir.
func NewDirSource(dir string) (*DirSource, error) {
	files, err := util.LoadDirectoryImageFiles(dir, util.PatternPrefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no %s* tiles in %s", util.PatternPrefix, dir)
	}

	s := &DirSource{tiles: make(map[int]*image.RGBA, len(files))}
	for _, f := range files {
		img, _, err := image.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", f.Path)
		}
		rgba := images.ToRGBA(img)
		if rgba.Rect.Min != (image.Point{}) {
			rgba = images.Crop(rgba, rgba.Rect)
		}
		s.tiles[f.Index] = rgba
	}
	return s, nil
}

// Len returns the number of loaded tiles.
func (s *DirSource) Len() int {
	return len(s.tiles)
}

// Tile returns a copy of the tile for label.
func (s *DirSource) Tile(label int) (*image.RGBA, error) {
	t, ok := s.tiles[label]
	if !ok {
		return nil, errors.Wrapf(ErrNoTile, "label %d", label)
	}
	return images.Clone(t), nil
}

// DefaultTileSize is the side of procedural tiles.
const DefaultTileSize = 200

// ProceduralSource renders a grayscale texture per label when no tile
// directory is available. Each label gets one of a few motifs with
// parameters derived from the seed and the label, so tiles are stable
// across runs and sequences.
type ProceduralSource struct {
	size int
	seed uint64

	mu    sync.Mutex
	cache map[int]*image.RGBA
}

// NewProceduralSource builds a source of size x size tiles.
func NewProceduralSource(size int, seed uint64) *ProceduralSource {
	if size <= 0 {
		size = DefaultTileSize
	}
	return &ProceduralSource{size: size, seed: seed, cache: make(map[int]*image.RGBA)}
}

// Tile returns a copy of the cached tile for label, rendering it on first use.
func (s *ProceduralSource) Tile(label int) (*image.RGBA, error) {
	if label < 0 {
		return nil, errors.Wrapf(ErrNoTile, "label %d", label)
	}

	s.mu.Lock()
	t, ok := s.cache[label]
	if !ok {
		t = s.render(label)
		s.cache[label] = t
	}
	s.mu.Unlock()
	return images.Clone(t), nil
}

type motif int

const (
	motifBlotches motif = iota
	motifStripes
	motifDots
	motifRidges
	motifCount
)

func (s *ProceduralSource) render(label int) *image.RGBA {
	rng := rand.New(rand.NewPCG(s.seed, uint64(label)))
	field := noise.New(rng.Int64())
	kind := motif(label % int(motifCount))

	scale := 0.02 + rng.Float64()*0.06
	period := 6 + rng.Float64()*18
	theta := rng.Float64() * math.Pi
	sinT, cosT := math.Sincos(theta)
	warp := 2 + rng.Float64()*6
	z := rng.Float64() * 255

	n := s.size
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	images.Parallel(n, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < n; x++ {
				fx, fy := float64(x), float64(y)
				nv := field.Octaves(fx*scale, fy*scale, z, 2)

				var v float64
				switch kind {
				case motifStripes:
					u := fx*cosT + fy*sinT + warp*nv
					v = 0.5 + 0.5*math.Sin(2*math.Pi*u/period)
				case motifDots:
					gx := math.Mod(fx+warp*nv, period) - period/2
					gy := math.Mod(fy+warp*nv, period) - period/2
					d := math.Hypot(gx, gy) / (period / 2)
					v = images.Clamp(1-d, 0, 1)
				case motifRidges:
					v = 1 - math.Abs(nv)
					v *= v
				default:
					v = 0.5 + 0.5*nv
				}

				c := images.ClampByte(40 + v*190)
				o := img.PixOffset(x, y)
				img.Pix[o+0] = c
				img.Pix[o+1] = c
				img.Pix[o+2] = c
				img.Pix[o+3] = 0xff
			}
		}
	})
	return img
}
