// Package picking provides ray casting against the globe surface.
package picking

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // Normalized direction
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float64, invViewProj mgl64.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	nearWorld := invViewProj.Mul4x1(mgl64.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := invViewProj.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1.0, 1.0})

	near := perspectiveDivide(nearWorld)
	far := perspectiveDivide(farWorld)

	dir := far.Sub(near)
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{Origin: near, Direction: dir}
}

func perspectiveDivide(v mgl64.Vec4) mgl64.Vec3 {
	if v[3] != 0 {
		return mgl64.Vec3{v[0] / v[3], v[1] / v[3], v[2] / v[3]}
	}
	return v.Vec3()
}

// IntersectSphere returns the nearest non-negative ray parameter at which the
// ray meets the sphere. A ray starting inside hits at the exit point.
func (r Ray) IntersectSphere(s math.BoundingSphere) (t float64, hit bool) {
	oc := r.Origin.Sub(s.Center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := gomath.Sqrt(disc)
	t0, t1 := -b-sq, -b+sq
	if t1 < 0 {
		return 0, false
	}
	if t0 < 0 {
		return t1, true
	}
	return t0, true
}

// IntersectTriangle tests the ray against triangle (a, b, c) from both sides.
func (r Ray) IntersectTriangle(a, b, c mgl64.Vec3) (t float64, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if gomath.Abs(det) < math.Epsilon12 {
		return 0, false // Ray parallel to triangle
	}

	inv := 1.0 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = edge2.Dot(q) * inv
	if t < 0 {
		return 0, false // Intersection behind ray origin
	}
	return t, true
}

// IntersectEllipsoid returns the first intersection with the ellipsoid
// surface, or false when the ray misses it.
func (r Ray) IntersectEllipsoid(e *math.Ellipsoid) (t float64, hit bool) {
	o := e.TransformPositionToScaledSpace(r.Origin)
	d := e.TransformPositionToScaledSpace(r.Direction)

	a := d.Dot(d)
	b := 2 * o.Dot(d)
	c := o.Dot(o) - 1
	disc := b*b - 4*a*c
	if a == 0 || disc < 0 {
		return 0, false
	}

	sq := gomath.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t1 < 0 {
		return 0, false
	}
	if t0 < 0 {
		return t1, true
	}
	return t0, true
}

// DepthToWorld unprojects a window pixel and its depth-buffer value in
// [0, 1]. It reports false for the far plane, where nothing was drawn.
func DepthToWorld(screenX, screenY, depth, viewportW, viewportH float64, invViewProj mgl64.Mat4) (mgl64.Vec3, bool) {
	if depth >= 1 || viewportW <= 0 || viewportH <= 0 {
		return mgl64.Vec3{}, false
	}
	ndc := mgl64.Vec4{
		2.0*screenX/viewportW - 1.0,
		1.0 - 2.0*screenY/viewportH,
		2.0*depth - 1.0,
		1.0,
	}
	return perspectiveDivide(invViewProj.Mul4x1(ndc)), true
}
