package pattern

import (
	"image"
	"math"
)

// LargestEnclosedRect returns the largest axis-aligned rectangle that fits
// inside a w x h rectangle after it is rotated by angle degrees about its
// centre. The rectangle is centred and expressed in the unrotated frame,
// clipped to (0,0)-(w,h).
func LargestEnclosedRect(w, h int, angle float64) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	fw, fh := float64(w), float64(h)

	longerWidth := w >= h
	sideLong, sideShort := fw, fh
	if !longerWidth {
		sideLong, sideShort = fh, fw
	}

	sinA, cosA := math.Sincos(angle * math.Pi / 180)
	sinA, cosA = math.Abs(sinA), math.Abs(cosA)

	var lw, lh float64
	if sideShort <= 2*sinA*cosA*sideLong || math.Abs(sinA-cosA) < 1e-10 {
		// Two crop corners touch the longer side and the other two sit on
		// the mid-line parallel to it.
		x := 0.5 * sideShort
		if longerWidth {
			lw, lh = x/sinA, x/cosA
		} else {
			lw, lh = x/cosA, x/sinA
		}
	} else {
		// The crop touches all four sides.
		cos2A := cosA*cosA - sinA*sinA
		lw = (fw*cosA - fh*sinA) / cos2A
		lh = (fh*cosA - fw*sinA) / cos2A
	}

	r := image.Rect(
		int(fw/2-lw/2), int(fh/2-lh/2),
		int(fw/2+lw/2), int(fh/2+lh/2),
	)
	return r.Intersect(image.Rect(0, 0, w, h))
}
