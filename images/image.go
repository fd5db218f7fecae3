package images

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/pkg/errors"
)

// ImageFormat represents supported output image formats.
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// Extension returns the file extension for the format, including the dot.
func (f ImageFormat) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// Encode writes img to w in the given format. quality applies to JPEG only.
func Encode(w io.Writer, img image.Image, format ImageFormat, quality int) error {
	switch format {
	case FormatJPEG:
		return errors.Wrap(jpeg.Encode(w, img, &jpeg.Options{Quality: quality}), "encode jpeg")
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return errors.Wrap(enc.Encode(w, img), "encode png")
	}
	return errors.Errorf("unsupported image format %q", format)
}
