package terrain

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Scratch holds reusable buffers for mesh building. A Scratch must not be
// shared between goroutines.
type Scratch struct {
	positions []mgl64.Vec3
}

func (s *Scratch) reset(n int) []mgl64.Vec3 {
	if cap(s.positions) < n {
		s.positions = make([]mgl64.Vec3, n)
	}
	s.positions = s.positions[:n]
	return s.positions
}

// BuildMesh encodes raw into a GPU-ready mesh.
func BuildMesh(raw *RawMesh, ellipsoid *math.Ellipsoid) (*Mesh, error) {
	return BuildMeshWithScratch(raw, ellipsoid, &Scratch{})
}

// BuildMeshWithScratch is BuildMesh using caller-owned scratch buffers.
func BuildMeshWithScratch(raw *RawMesh, ellipsoid *math.Ellipsoid, scratch *Scratch) (*Mesh, error) {
	if len(raw.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}

	toENU := math.InverseTransformation(raw.FromENU)
	positions := scratch.reset(len(raw.Vertices))

	minimum := mgl64.Vec3{gomath.Inf(1), gomath.Inf(1), gomath.Inf(1)}
	maximum := mgl64.Vec3{gomath.Inf(-1), gomath.Inf(-1), gomath.Inf(-1)}

	for i, v := range raw.Vertices {
		positions[i] = v.Position
		enu := math.MultiplyByPoint(toENU, v.Position)
		for k := range 3 {
			minimum[k] = min(minimum[k], enu[k])
			maximum[k] = max(maximum[k], enu[k])
		}
	}

	box := math.AxisAlignedBoundingBox{Minimum: minimum, Maximum: maximum, Center: raw.Center}
	encoding := NewEncoding(box, raw.MinimumHeight, raw.MaximumHeight, raw.FromENU, raw.HasNormals)

	buf := make([]float32, len(raw.Vertices)*encoding.Stride())
	index := 0
	for _, v := range raw.Vertices {
		index = encoding.Encode(buf, index, v.Position, v.TexCoord, v.Height, v.Normal)
	}

	mesh := &Mesh{
		Vertices:       buf,
		Indices:        raw.Indices,
		Encoding:       encoding,
		Center:         raw.Center,
		BoundingSphere: math.BoundingSphereFromPoints(positions),
		MinimumHeight:  raw.MinimumHeight,
		MaximumHeight:  raw.MaximumHeight,
	}

	occluder := math.NewEllipsoidalOccluder(ellipsoid, mgl64.Vec3{})
	if p, ok := occluder.ComputeHorizonCullingPoint(raw.Center, positions); ok {
		mesh.OccludeePointInScaledSpace = &p
	}

	return mesh, nil
}
