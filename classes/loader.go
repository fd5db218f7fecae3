package classes

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/shapes"
)

// Class file columns.
const (
	ColSuperCategory = "super_category"
	ColCategory      = "category"
	ColAvoidable     = "avoidable"
	ColShape         = "shape"
	ColPWarp         = "p_warp_deform"
	ColPSlice        = "p_slice_deform"
	ColMaxItems      = "max_items"
	ColColor         = "color"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// LoadClasses reads a class file from disk. See ReadClasses.
func LoadClasses(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open classes")
	}
	defer f.Close()

	reg, err := ReadClasses(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return reg, nil
}

// ReadClasses parses a class CSV with a header row. Rows become labels in
// file order. Blank cells are unset, booleans are TRUE or FALSE.
//
// Only category is required; every other column may be absent from the header.
func ReadClasses(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := cols[ColCategory]; !ok {
		return nil, errors.Wrapf(ErrMissingColumn, "%q", ColCategory)
	}

	var all []ClassConfig
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		c, err := parseClass(cell)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
		all = append(all, c)
	}
	return NewRegistry(all), nil
}

func parseClass(cell func(string) string) (ClassConfig, error) {
	c := ClassConfig{
		SuperCategory: cell(ColSuperCategory),
		Category:      cell(ColCategory),
	}

	var err error
	if c.Avoidable, err = parseBool(cell(ColAvoidable)); err != nil {
		return c, errors.Wrap(err, ColAvoidable)
	}
	if c.Shape, err = shapes.ParseKind(cell(ColShape)); err != nil {
		return c, errors.Wrap(err, ColShape)
	}
	if c.PWarp, err = parseOptFloat(cell(ColPWarp)); err != nil {
		return c, errors.Wrap(err, ColPWarp)
	}
	if c.PSlice, err = parseOptFloat(cell(ColPSlice)); err != nil {
		return c, errors.Wrap(err, ColPSlice)
	}
	if c.MaxItems, err = parseOptInt(cell(ColMaxItems)); err != nil {
		return c, errors.Wrap(err, ColMaxItems)
	}
	if c.MaxItems != nil && *c.MaxItems < 1 {
		return c, errors.Errorf("%s must be >= 1, got %d", ColMaxItems, *c.MaxItems)
	}
	if c.Color, err = parseOptInt(cell(ColColor)); err != nil {
		return c, errors.Wrap(err, ColColor)
	}
	return c, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "", "FALSE":
		return false, nil
	case "TRUE":
		return true, nil
	}
	return false, errors.Errorf("invalid boolean %q", s)
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadColors reads a color file from disk. See ReadColors.
func LoadColors(path string) (ColorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open colors")
	}
	defer f.Close()

	t, err := ReadColors(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return t, nil
}

// ReadColors parses a single-column CSV with the header "color" followed by
// one "#rrggbb" value per row. Blank rows are skipped.
func ReadColors(r io.Reader) (ColorTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	var hexes []string
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		hexes = append(hexes, strings.TrimSpace(rec[0]))
	}
	return ParseColorTable(hexes)
}

// CheckColors verifies that every fixed class color exists in t.
func CheckColors(reg *Registry, t ColorTable) error {
	for _, c := range reg.classes {
		if c.Color == nil {
			continue
		}
		if _, err := t.At(*c.Color); err != nil {
			return errors.Wrapf(err, "class %d (%s)", c.Label, c.Category)
		}
	}
	return nil
}
