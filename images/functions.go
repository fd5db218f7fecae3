// Package images - provides deterministic pixel operations used to compose
// synthetic bin frames: rasterization, masking, compositing and tiling.
package images

import (
	"runtime"
	"sync"
)

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampByte rounds a float channel value to the nearest byte.
func ClampByte(v float64) uint8 {
	return uint8(Clamp(v+0.5, 0, 255))
}

// Parallel executes a function in Parallel across multiple goroutines.
// Every partition is disjoint, so results do not depend on scheduling as long
// as fn only writes inside its partition.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	// Small inputs are not worth the goroutines.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}
	wg.Wait()
}

// EdgeMode defines how to handle coordinates that are out of bounds.
type EdgeMode string

const (
	// ClampEdgeMode clamps the pixel values to the nearest valid value.
	ClampEdgeMode EdgeMode = "clamp"
	// MirrorEdgeMode mirrors the pixel values around the edge.
	MirrorEdgeMode EdgeMode = "mirror"
	// WrapEdgeMode wraps the pixel values around the edge.
	WrapEdgeMode EdgeMode = "wrap"
)

// MapCoord maps a coordinate to a valid value based on the edge mode.
//
// Arguments:
// - coord: The coordinate to map.
// - max: The exclusive upper bound of the coordinate. Must be > 0.
// - mode: The edge mode to use.
func MapCoord(coord, max int, mode EdgeMode) int {
	switch mode {
	case MirrorEdgeMode:
		if max == 1 {
			return 0
		}
		for coord < 0 || coord >= max {
			if coord < 0 {
				coord = -coord - 1
			} else {
				coord = 2*max - coord - 1
			}
		}
		return coord
	case WrapEdgeMode:
		return (coord%max + max) % max
	default:
		if coord < 0 {
			return 0
		} else if coord >= max {
			return max - 1
		}
		return coord
	}
}
