package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// AxisAlignedBoundingBox is a box aligned with the axes of its frame.
type AxisAlignedBoundingBox struct {
	Minimum mgl64.Vec3
	Maximum mgl64.Vec3
	Center  mgl64.Vec3
}

// NewAxisAlignedBoundingBox creates a box from its corners.
func NewAxisAlignedBoundingBox(minimum, maximum mgl64.Vec3) AxisAlignedBoundingBox {
	return AxisAlignedBoundingBox{
		Minimum: minimum,
		Maximum: maximum,
		Center:  minimum.Add(maximum).Mul(0.5),
	}
}

// AxisAlignedBoundingBoxFromPoints computes the tightest box around points.
func AxisAlignedBoundingBoxFromPoints(points []mgl64.Vec3) AxisAlignedBoundingBox {
	if len(points) == 0 {
		return AxisAlignedBoundingBox{}
	}

	minimum := points[0]
	maximum := points[0]
	for _, p := range points[1:] {
		for i := range 3 {
			minimum[i] = gomath.Min(minimum[i], p[i])
			maximum[i] = gomath.Max(maximum[i], p[i])
		}
	}
	return NewAxisAlignedBoundingBox(minimum, maximum)
}

// Dimensions returns the extent of the box along each axis.
func (b AxisAlignedBoundingBox) Dimensions() mgl64.Vec3 {
	return b.Maximum.Sub(b.Minimum)
}

// Plane is a plane in Hessian normal form: Normal·p + Distance = 0.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// PlaneFromPointNormal creates a plane through point with the given unit normal.
func PlaneFromPointNormal(point, normal mgl64.Vec3) Plane {
	return Plane{Normal: normal, Distance: -normal.Dot(point)}
}

// DistanceToPoint returns the signed distance from the plane to p.
func (p Plane) DistanceToPoint(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.Distance
}

// Vec4 packs the plane as (normal, distance).
func (p Plane) Vec4() mgl64.Vec4 {
	return p.Normal.Vec4(p.Distance)
}

// Intersect classifies a volume against a plane or a set of planes.
type Intersect int

const (
	Outside      Intersect = -1
	Intersecting Intersect = 0
	Inside       Intersect = 1
)

func (i Intersect) String() string {
	switch i {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	default:
		return "intersecting"
	}
}

// BoundingSphere is a sphere enclosing a volume.
type BoundingSphere struct {
	Center mgl64.Vec3
	Radius float64
}

// BoundingSphereFromPoints computes a tight sphere around points. It runs
// Ritter's algorithm and an AABB-centered sphere and keeps the smaller one.
func BoundingSphereFromPoints(points []mgl64.Vec3) BoundingSphere {
	if len(points) == 0 {
		return BoundingSphere{}
	}

	first := points[0]
	xMin, yMin, zMin := first, first, first
	xMax, yMax, zMax := first, first, first

	for _, p := range points[1:] {
		if p[0] < xMin[0] {
			xMin = p
		}
		if p[0] > xMax[0] {
			xMax = p
		}
		if p[1] < yMin[1] {
			yMin = p
		}
		if p[1] > yMax[1] {
			yMax = p
		}
		if p[2] < zMin[2] {
			zMin = p
		}
		if p[2] > zMax[2] {
			zMax = p
		}
	}

	xSpan := xMax.Sub(xMin).LenSqr()
	ySpan := yMax.Sub(yMin).LenSqr()
	zSpan := zMax.Sub(zMin).LenSqr()

	diameter1, diameter2 := xMin, xMax
	maxSpan := xSpan
	if ySpan > maxSpan {
		maxSpan = ySpan
		diameter1, diameter2 = yMin, yMax
	}
	if zSpan > maxSpan {
		diameter1, diameter2 = zMin, zMax
	}

	ritterCenter := diameter1.Add(diameter2).Mul(0.5)
	radiusSquared := diameter2.Sub(ritterCenter).LenSqr()
	ritterRadius := gomath.Sqrt(radiusSquared)

	minBox := mgl64.Vec3{xMin[0], yMin[1], zMin[2]}
	maxBox := mgl64.Vec3{xMax[0], yMax[1], zMax[2]}
	naiveCenter := minBox.Add(maxBox).Mul(0.5)
	naiveRadius := 0.0

	for _, p := range points {
		if r := p.Sub(naiveCenter).Len(); r > naiveRadius {
			naiveRadius = r
		}

		oldCenterToPointSquared := p.Sub(ritterCenter).LenSqr()
		if oldCenterToPointSquared > radiusSquared {
			oldCenterToPoint := gomath.Sqrt(oldCenterToPointSquared)
			ritterRadius = (ritterRadius + oldCenterToPoint) * 0.5
			radiusSquared = ritterRadius * ritterRadius
			oldToNew := oldCenterToPoint - ritterRadius
			ritterCenter = ritterCenter.Mul(ritterRadius).Add(p.Mul(oldToNew)).Mul(1 / oldCenterToPoint)
		}
	}

	if ritterRadius < naiveRadius {
		return BoundingSphere{Center: ritterCenter, Radius: ritterRadius}
	}
	return BoundingSphere{Center: naiveCenter, Radius: naiveRadius}
}

// BoundingSphereFromRectangleWithHeights2D computes a sphere around a rectangle
// projected into map coordinates, with z spanning [minimumHeight, maximumHeight].
func BoundingSphereFromRectangleWithHeights2D(r Rectangle, projection Projection, minimumHeight, maximumHeight float64) BoundingSphere {
	lowerLeft := projection.Project(r.Southwest())
	upperRight := projection.Project(r.Northeast())

	width := upperRight[0] - lowerLeft[0]
	height := upperRight[1] - lowerLeft[1]
	elevation := maximumHeight - minimumHeight

	return BoundingSphere{
		Center: mgl64.Vec3{
			lowerLeft[0] + width*0.5,
			lowerLeft[1] + height*0.5,
			minimumHeight + elevation*0.5,
		},
		Radius: gomath.Sqrt(width*width+height*height+elevation*elevation) * 0.5,
	}
}

// Swizzle2D moves a projected (x, y, height) vector into the 2D scene frame
// where x is height, y is projected x and z is projected y.
func Swizzle2D(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[2], v[0], v[1]}
}

// IntersectPlane classifies the sphere against a plane whose normal points inside.
func (s BoundingSphere) IntersectPlane(p Plane) Intersect {
	d := p.DistanceToPoint(s.Center)
	if d < -s.Radius {
		return Outside
	}
	if d < s.Radius {
		return Intersecting
	}
	return Inside
}

// Union returns a sphere enclosing both spheres.
func (s BoundingSphere) Union(o BoundingSphere) BoundingSphere {
	toRight := o.Center.Sub(s.Center)
	centerSeparation := toRight.Len()

	if s.Radius >= centerSeparation+o.Radius {
		return s
	}
	if o.Radius >= centerSeparation+s.Radius {
		return o
	}

	halfDistanceBetweenTangentPoints := (s.Radius + centerSeparation + o.Radius) * 0.5
	center := s.Center.Add(toRight.Mul((halfDistanceBetweenTangentPoints - s.Radius) / centerSeparation))
	return BoundingSphere{Center: center, Radius: halfDistanceBetweenTangentPoints}
}

// DistanceSquaredTo returns the squared distance from p to the sphere surface,
// or 0 when p is inside.
func (s BoundingSphere) DistanceSquaredTo(p mgl64.Vec3) float64 {
	d := p.Sub(s.Center).Len() - s.Radius
	if d <= 0 {
		return 0
	}
	return d * d
}
