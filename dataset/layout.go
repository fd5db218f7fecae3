// Package dataset - on-disk layout, annotation manifest and the parallel sequence runner.
package dataset

import (
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-trashgen/compositor"
	"github.com/nvr-ai/go-trashgen/images"
)

// Directory and file names under the dataset root.
const (
	RootDirName       = "trash_dataset"
	ImagesDir         = "images"
	NewObjectMasksDir = "new_object_masks"
	TopKMasksDir      = "top_20_masks"
	ManifestFile      = "annotations.json"
	SnapshotFile      = "run.yaml"
)

const (
	imageFormat = images.FormatJPEG
	maskFormat  = images.FormatPNG
)

// Layout locates every output file of a dataset.
type Layout struct {
	Root string
}

// NewLayout places the dataset root under dir.
func NewLayout(dir string) Layout {
	return Layout{Root: filepath.Join(dir, RootDirName)}
}

// Create makes the root and its subdirectories.
func (l Layout) Create() error {
	for _, d := range []string{l.Root, l.dir(ImagesDir), l.dir(NewObjectMasksDir), l.dir(TopKMasksDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", d)
		}
	}
	return nil
}

func (l Layout) dir(name string) string {
	return filepath.Join(l.Root, name)
}

// FrameName is the base name shared by a frame's image and masks.
func FrameName(seq, frame int) string {
	return fmt.Sprintf("%04d-%04d", seq, frame)
}

// ImageName is the file name of a frame image.
func ImageName(name string) string {
	return name + imageFormat.Extension()
}

// NewObjectMaskRel is the new-object mask path relative to the root.
func NewObjectMaskRel(name string) string {
	return path.Join(NewObjectMasksDir, name+maskFormat.Extension())
}

// TopKMaskRel is the top-K mask path relative to the root.
func TopKMaskRel(name string) string {
	return path.Join(TopKMasksDir, name+maskFormat.Extension())
}

// ImagePath is the absolute path of a frame image.
func (l Layout) ImagePath(name string) string {
	return filepath.Join(l.Root, ImagesDir, ImageName(name))
}

// NewObjectMaskPath is the absolute path of a new-object mask.
func (l Layout) NewObjectMaskPath(name string) string {
	return filepath.Join(l.Root, filepath.FromSlash(NewObjectMaskRel(name)))
}

// TopKMaskPath is the absolute path of a top-K mask.
func (l Layout) TopKMaskPath(name string) string {
	return filepath.Join(l.Root, filepath.FromSlash(TopKMaskRel(name)))
}

// ManifestPath is the path of annotations.json.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, ManifestFile)
}

// SnapshotPath is the path of the run configuration snapshot.
func (l Layout) SnapshotPath() string {
	return filepath.Join(l.Root, SnapshotFile)
}

// WriteFrame encodes the image as JPEG and both masks as grayscale PNG.
func (l Layout) WriteFrame(name string, f compositor.Frame, quality int) error {
	if err := writeImage(l.ImagePath(name), f.Image, imageFormat, quality); err != nil {
		return err
	}
	if err := writeImage(l.NewObjectMaskPath(name), f.NewObjectMask, maskFormat, 0); err != nil {
		return err
	}
	return writeImage(l.TopKMaskPath(name), f.TopKMask, maskFormat, 0)
}

func writeImage(p string, img image.Image, format images.ImageFormat, quality int) error {
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrapf(err, "create %s", p)
	}
	if err := images.Encode(f, img, format, quality); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", p)
	}
	return errors.Wrapf(f.Close(), "close %s", p)
}
