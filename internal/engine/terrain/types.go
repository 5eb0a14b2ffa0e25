// Package terrain builds encoded terrain tile meshes from heightmaps.
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

var (
	// ErrEmptyMesh is returned when a mesh has no vertices.
	ErrEmptyMesh = errors.New("terrain: mesh has no vertices")
	// ErrInvalidHeightmap is returned when heightmap dimensions and samples disagree.
	ErrInvalidHeightmap = errors.New("terrain: invalid heightmap")
	// ErrBuilderClosed is returned when submitting to a closed builder.
	ErrBuilderClosed = errors.New("terrain: builder closed")
)

// Vertex is an unencoded terrain vertex.
type Vertex struct {
	Position mgl64.Vec3 // Earth-fixed
	TexCoord mgl64.Vec2
	Height   float64
	Normal   mgl64.Vec3
}

// RawMesh is tessellated terrain before vertex encoding.
type RawMesh struct {
	Vertices []Vertex
	Indices  []uint32

	// Center is the Earth-fixed origin of the tile's ENU frame.
	Center  mgl64.Vec3
	FromENU mgl64.Mat4

	MinimumHeight float64
	MaximumHeight float64
	HasNormals    bool
}

// Mesh holds an encoded terrain tile ready for GPU upload.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
	Encoding *Encoding

	Center         mgl64.Vec3
	BoundingSphere math.BoundingSphere
	// OccludeePointInScaledSpace is nil when no horizon point exists.
	OccludeePointInScaledSpace *mgl64.Vec3

	MinimumHeight float64
	MaximumHeight float64
}

// VertexCount returns the number of encoded vertices.
func (m *Mesh) VertexCount() int {
	if m.Encoding == nil {
		return 0
	}
	return len(m.Vertices) / m.Encoding.Stride()
}

// Heightmap is a regular grid of height samples over a geographic rectangle.
// Row 0 is the northern edge and column 0 the western edge.
type Heightmap struct {
	Width     int
	Height    int
	Heights   []float32
	Rectangle math.Rectangle
}
