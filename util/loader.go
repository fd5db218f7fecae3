package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PatternPrefix starts every pattern tile file name: pattern__0007.png is the
// tile of class 7.
const PatternPrefix = "pattern__"

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Index is the number encoded in the file name.
	Index int
}

// LoadDirectoryImageFiles reads all image files from a directory whose names
// are prefix followed by a decimal index, e.g. "pattern__0003.png".
//
// Arguments:
// - dir: Directory path containing image files.
// - prefix: File name prefix in front of the index.
//
// Returns:
// - []ImageFile: Slice of ImageFile sorted by index.
// - error: Error if loading fails or two files share an index.
func LoadDirectoryImageFiles(dir, prefix string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read pattern directory")
	}

	var images []ImageFile
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), prefix) {
			continue
		}

		ext := filepath.Ext(file.Name())
		switch strings.ToLower(ext) {
		case ".jpg", ".jpeg", ".png":
			index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file.Name(), prefix), ext))
			if err != nil {
				return nil, errors.Wrapf(err, "parse index of %s", file.Name())
			}
			if prev, dup := seen[index]; dup {
				return nil, errors.Errorf("%s and %s share index %d", prev, file.Name(), index)
			}
			seen[index] = file.Name()

			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "read %s", imgPath)
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Index: index,
			})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Index < images[j].Index
	})

	return images, nil
}
