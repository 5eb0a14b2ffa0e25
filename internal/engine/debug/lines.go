// Package debug provides debug visualization utilities.
package debug

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoxWireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BoxWireframeVertexCount = 24

// DefaultSphereSegments is the number of line segments per sphere circle.
const DefaultSphereSegments = 64

// BoxLines creates line vertices for a wireframe box.
// Returns 24 vertices (12 edges × 2 endpoints), format: [x, y, z] per vertex.
func BoxLines(minimum, maximum mgl64.Vec3) []float32 {
	minX, minY, minZ := float32(minimum[0]), float32(minimum[1]), float32(minimum[2])
	maxX, maxY, maxZ := float32(maximum[0]), float32(maximum[1]), float32(maximum[2])
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	if minZ > maxZ {
		minZ, maxZ = maxZ, minZ
	}

	return []float32{
		// Bottom face (4 edges)
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face (4 edges)
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges (4 edges)
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}

// UnitSphereLines creates line vertices for three great circles of the unit
// sphere, one around each axis. Scale and translate with a model matrix.
func UnitSphereLines(segments int) []float32 {
	if segments < 3 {
		segments = DefaultSphereSegments
	}

	out := make([]float32, 0, 3*segments*2*3)
	point := func(axis int, a float64) [3]float32 {
		c, s := float32(gomath.Cos(a)), float32(gomath.Sin(a))
		switch axis {
		case 0:
			return [3]float32{0, c, s}
		case 1:
			return [3]float32{s, 0, c}
		default:
			return [3]float32{c, s, 0}
		}
	}

	step := 2 * gomath.Pi / float64(segments)
	for axis := range 3 {
		for i := range segments {
			p0 := point(axis, float64(i)*step)
			p1 := point(axis, float64(i+1)*step)
			out = append(out, p0[0], p0[1], p0[2], p1[0], p1[1], p1[2])
		}
	}
	return out
}
