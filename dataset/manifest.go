package dataset

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/classes"
	"github.com/nvr-ai/go-trashgen/compositor"
	"github.com/nvr-ai/go-trashgen/images"
)

// Info describes the run that produced a dataset.
type Info struct {
	RunID     string    `json:"run_id"`
	Created   time.Time `json:"created"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Seed      uint64    `json:"seed"`
	Sequences int       `json:"sequences"`
	Frames    int       `json:"frames"`
}

// Category is the metadata of one class, keyed in the manifest by label+1.
type Category struct {
	SuperCategory string `json:"super_category"`
	Category      string `json:"category"`
	Avoidable     bool   `json:"avoidable"`
}

// ObjectAnnotation is an object visible in a frame.
type ObjectAnnotation struct {
	Label         int    `json:"label"`
	CategoryID    int    `json:"category_id"`
	SuperCategory string `json:"super_category"`
	Category      string `json:"category"`
	Avoidable     bool   `json:"avoidable"`
	// IntroducedAt is the frame index at which the object first appeared.
	IntroducedAt int         `json:"introduced_at"`
	BBox         images.Rect `json:"bbox"`
}

// ImageAnnotation is the manifest entry of one frame image.
type ImageAnnotation struct {
	Sequence   int                `json:"sequence"`
	Frame      int                `json:"frame"`
	NewObjMask string             `json:"new_obj_mask"`
	Top20Mask  string             `json:"top_20_mask"`
	PrevImg    *string            `json:"prev_img"`
	NextImg    *string            `json:"next_img"`
	Objects    []ObjectAnnotation `json:"objects"`
}

// Manifest is the annotations.json document. Add is safe for concurrent use.
type Manifest struct {
	Info       Info                       `json:"info"`
	Categories map[string]Category        `json:"categories"`
	Images     map[string]ImageAnnotation `json:"images"`

	mu sync.Mutex
}

// NewManifest starts a manifest with one category per registry class.
func NewManifest(info Info, registry *classes.Registry) *Manifest {
	m := &Manifest{
		Info:       info,
		Categories: make(map[string]Category, registry.Len()),
		Images:     make(map[string]ImageAnnotation),
	}
	for _, c := range registry.All() {
		m.Categories[strconv.Itoa(c.Label+1)] = Category{
			SuperCategory: c.SuperCategory,
			Category:      c.Category,
			Avoidable:     c.Avoidable,
		}
	}
	return m
}

// Add records the annotation of an image file.
func (m *Manifest) Add(imageName string, ann ImageAnnotation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images[imageName] = ann
}

// Len returns the number of annotated images.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Images)
}

// Write stores the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	m.mu.Lock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return m, nil
}

// Annotate builds the manifest entry of frame f in a sequence of n frames.
func Annotate(registry *classes.Registry, seq, n int, f compositor.Frame) (ImageAnnotation, error) {
	name := FrameName(seq, f.Index)
	ann := ImageAnnotation{
		Sequence:   seq,
		Frame:      f.Index,
		NewObjMask: NewObjectMaskRel(name),
		Top20Mask:  TopKMaskRel(name),
		Objects:    make([]ObjectAnnotation, 0, len(f.Objects)),
	}
	if f.Index > 0 {
		prev := ImageName(FrameName(seq, f.Index-1))
		ann.PrevImg = &prev
	}
	if f.Index < n-1 {
		next := ImageName(FrameName(seq, f.Index+1))
		ann.NextImg = &next
	}

	for _, o := range f.Objects {
		c, err := registry.Get(o.Label)
		if err != nil {
			return ImageAnnotation{}, errors.Wrapf(err, "frame %s", name)
		}
		ann.Objects = append(ann.Objects, ObjectAnnotation{
			Label:         o.Label,
			CategoryID:    o.Label + 1,
			SuperCategory: c.SuperCategory,
			Category:      c.Category,
			Avoidable:     c.Avoidable,
			IntroducedAt:  o.Layer,
			BBox:          o.BBox,
		})
	}
	return ann, nil
}
