package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// CullingVolume is a set of planes with normals pointing into the volume.
type CullingVolume struct {
	Planes []Plane
}

// ComputeVisibility classifies a bounding sphere against every plane.
func (cv CullingVolume) ComputeVisibility(s BoundingSphere) Intersect {
	intersecting := false
	for _, p := range cv.Planes {
		switch s.IntersectPlane(p) {
		case Outside:
			return Outside
		case Intersecting:
			intersecting = true
		}
	}
	if intersecting {
		return Intersecting
	}
	return Inside
}

// CullingVolumeFromPerspective builds the six frustum planes of a perspective camera.
// direction and up must be unit length and orthogonal.
func CullingVolumeFromPerspective(position, direction, up mgl64.Vec3, fovY, aspect, near, far float64) CullingVolume {
	t := near * gomath.Tan(0.5*fovY)
	b := -t
	r := aspect * t
	l := -r

	right := direction.Cross(up)
	nearCenter := position.Add(direction.Mul(near))
	farCenter := position.Add(direction.Mul(far))

	planes := make([]Plane, 6)

	normal := right.Mul(l).Add(nearCenter).Sub(position).Normalize().Cross(up)
	planes[0] = PlaneFromPointNormal(position, normal)

	normal = up.Cross(right.Mul(r).Add(nearCenter).Sub(position).Normalize())
	planes[1] = PlaneFromPointNormal(position, normal)

	normal = right.Cross(up.Mul(b).Add(nearCenter).Sub(position).Normalize())
	planes[2] = PlaneFromPointNormal(position, normal)

	normal = up.Mul(t).Add(nearCenter).Sub(position).Normalize().Cross(right)
	planes[3] = PlaneFromPointNormal(position, normal)

	planes[4] = PlaneFromPointNormal(nearCenter, direction)
	planes[5] = PlaneFromPointNormal(farCenter, direction.Mul(-1))

	return CullingVolume{Planes: planes}
}

// CullingVolumeFromOrthographic builds the six planes of an orthographic camera.
func CullingVolumeFromOrthographic(position, direction, up mgl64.Vec3, left, right, bottom, top, near, far float64) CullingVolume {
	rightDir := direction.Cross(up)
	nearCenter := position.Add(direction.Mul(near))
	farCenter := position.Add(direction.Mul(far))

	planes := []Plane{
		PlaneFromPointNormal(nearCenter.Add(rightDir.Mul(left)), rightDir),
		PlaneFromPointNormal(nearCenter.Add(rightDir.Mul(right)), rightDir.Mul(-1)),
		PlaneFromPointNormal(nearCenter.Add(up.Mul(bottom)), up),
		PlaneFromPointNormal(nearCenter.Add(up.Mul(top)), up.Mul(-1)),
		PlaneFromPointNormal(nearCenter, direction),
		PlaneFromPointNormal(farCenter, direction.Mul(-1)),
	}
	return CullingVolume{Planes: planes}
}
