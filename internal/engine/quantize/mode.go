// Package quantize packs terrain vertices into compact float buffers.
//
// A tile whose extent fits in 12 bits per axis is stored as three floats per
// vertex, each holding two 12-bit values. Larger tiles fall back to raw floats
// relative to the tile center. An oct-encoded normal adds one float in either mode.
package quantize

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode is the per-tile quantization scheme.
type Mode int

const (
	// None stores center-relative position, height and texture coordinates as raw floats.
	None Mode = iota
	// Bits12 stores normalized values packed two per float with 12 bits each.
	Bits12
)

// Threshold is the largest extent, in meters, that Bits12 can represent.
const Threshold = 4095.0

func (m Mode) String() string {
	switch m {
	case Bits12:
		return "bits12"
	default:
		return "none"
	}
}

// SelectMode picks the quantization mode for a tile from the extent of its
// local bounding box and its height range.
func SelectMode(dimensions mgl64.Vec3, minimumHeight, maximumHeight float64) Mode {
	maxDim := gomath.Max(dimensions[0], gomath.Max(dimensions[1], dimensions[2]))
	maxDim = gomath.Max(maxDim, maximumHeight-minimumHeight)

	if maxDim < Threshold {
		return Bits12
	}
	return None
}

// Stride returns the number of floats per vertex.
func Stride(mode Mode, hasNormals bool) int {
	stride := 6
	if mode == Bits12 {
		stride = 3
	}
	if hasNormals {
		stride++
	}
	return stride
}
