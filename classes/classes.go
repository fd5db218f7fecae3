// Package classes - trash class definitions, the class registry and the shared color table.
package classes

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/shapes"
)

// ErrUnknownLabel is returned for labels outside the registry.
var ErrUnknownLabel = errors.New("unknown class label")

// ClassConfig describes one trash class. Optional fields are nil when the
// class file leaves them blank.
type ClassConfig struct {
	// The class index, equal to its row in the class file.
	Label int `json:"label" yaml:"label"`
	// The coarse grouping, e.g. "recyclable".
	SuperCategory string `json:"super_category" yaml:"super_category"`
	// The class name.
	Category string `json:"category" yaml:"category"`
	// Whether the class is a contaminant the bin should avoid.
	Avoidable bool `json:"avoidable" yaml:"avoidable"`
	// The base shape generator.
	Shape shapes.Kind `json:"-" yaml:"-"`
	// Probability threshold for the warp deformation. nil disables warping.
	PWarp *float64 `json:"p_warp_deform,omitempty" yaml:"p_warp_deform,omitempty"`
	// Probability threshold for the slice deformation. nil disables slicing.
	PSlice *float64 `json:"p_slice_deform,omitempty" yaml:"p_slice_deform,omitempty"`
	// Upper bound of instances per draw. nil means exactly one.
	MaxItems *int `json:"max_items,omitempty" yaml:"max_items,omitempty"`
	// Fixed color table index. nil means a random color per draw.
	Color *int `json:"color,omitempty" yaml:"color,omitempty"`
}

// Registry holds the loaded classes indexed by label.
type Registry struct {
	classes []ClassConfig
}

// NewRegistry builds a registry from classes ordered by label. Labels are
// reassigned to the slice position.
func NewRegistry(all []ClassConfig) *Registry {
	r := &Registry{classes: make([]ClassConfig, len(all))}
	for i, c := range all {
		c.Label = i
		r.classes[i] = c
	}
	return r
}

// Len returns the number of classes.
func (r *Registry) Len() int {
	return len(r.classes)
}

// Get returns the class for a label.
func (r *Registry) Get(label int) (ClassConfig, error) {
	if label < 0 || label >= len(r.classes) {
		return ClassConfig{}, errors.Wrapf(ErrUnknownLabel, "label %d, have %d classes", label, len(r.classes))
	}
	return r.classes[label], nil
}

// All returns a copy of every class in label order.
func (r *Registry) All() []ClassConfig {
	out := make([]ClassConfig, len(r.classes))
	copy(out, r.classes)
	return out
}
