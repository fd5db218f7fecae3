package images

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ResolutionType names a preset frame size.
type ResolutionType string

// Preset frame sizes accepted by the resolution setting.
const (
	ResolutionTypeDefault ResolutionType = "default"
	ResolutionTypeVGA     ResolutionType = "vga"
	ResolutionTypeSVGA    ResolutionType = "svga"
	ResolutionTypeHD720p  ResolutionType = "720p"
	ResolutionTypeFHD     ResolutionType = "1080p"
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Name   ResolutionType `json:"name" yaml:"name"`
	Width  int            `json:"width" yaml:"width"`
	Height int            `json:"height" yaml:"height"`
}

// GetMegaPixels calculates the megapixel value rounded to two decimal places
// (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.GetMegaPixels())
}

// resolutions holds every preset keyed by name. The default matches the
// historical 1024x800 bin frames.
var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeDefault: {Name: ResolutionTypeDefault, Width: 1024, Height: 800},
	ResolutionTypeVGA:     {Name: ResolutionTypeVGA, Width: 640, Height: 480},
	ResolutionTypeSVGA:    {Name: ResolutionTypeSVGA, Width: 800, Height: 600},
	ResolutionTypeHD720p:  {Name: ResolutionTypeHD720p, Width: 1280, Height: 720},
	ResolutionTypeFHD:     {Name: ResolutionTypeFHD, Width: 1920, Height: 1080},
}

// GetAllResolutions returns every preset ordered by pixel count.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Width*all[i].Height < all[j].Width*all[j].Height
	})
	return all
}

// GetResolutionByType retrieves a preset by name.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[ResolutionType(strings.ToLower(string(t)))]
	return res, ok
}

// ParseResolution accepts a preset name or an explicit "WIDTHxHEIGHT".
func ParseResolution(s string) (Resolution, error) {
	s = strings.TrimSpace(s)
	if res, ok := GetResolutionByType(ResolutionType(s)); ok {
		return res, nil
	}

	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Resolution{}, errors.Errorf("unknown resolution %q", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return Resolution{}, errors.Errorf("invalid resolution %q", s)
	}
	return Resolution{Name: ResolutionType(s), Width: width, Height: height}, nil
}
