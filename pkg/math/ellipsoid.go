package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cartographic is a geodetic position. Longitude and latitude are in radians,
// height is in meters above the ellipsoid.
type Cartographic struct {
	Longitude float64
	Latitude  float64
	Height    float64
}

// CartographicFromDegrees creates a Cartographic from degree angles.
func CartographicFromDegrees(lonDeg, latDeg, height float64) Cartographic {
	return Cartographic{
		Longitude: ToRadians(lonDeg),
		Latitude:  ToRadians(latDeg),
		Height:    height,
	}
}

// Ellipsoid is a quadratic surface x²/a² + y²/b² + z²/c² = 1 in the Earth-fixed frame.
type Ellipsoid struct {
	Radii               mgl64.Vec3
	RadiiSquared        mgl64.Vec3
	OneOverRadii        mgl64.Vec3
	OneOverRadiiSquared mgl64.Vec3
}

// WGS84 is the WGS84 reference ellipsoid.
var WGS84 = NewEllipsoid(6378137.0, 6378137.0, 6356752.3142451793)

// UnitSphere is a sphere with radius 1.
var UnitSphere = NewEllipsoid(1, 1, 1)

// NewEllipsoid creates an ellipsoid from its three radii.
func NewEllipsoid(x, y, z float64) *Ellipsoid {
	if x <= 0 || y <= 0 || z <= 0 {
		panic("ellipsoid radii must be greater than zero")
	}
	return &Ellipsoid{
		Radii:               mgl64.Vec3{x, y, z},
		RadiiSquared:        mgl64.Vec3{x * x, y * y, z * z},
		OneOverRadii:        mgl64.Vec3{1 / x, 1 / y, 1 / z},
		OneOverRadiiSquared: mgl64.Vec3{1 / (x * x), 1 / (y * y), 1 / (z * z)},
	}
}

// MaximumRadius returns the largest of the three radii.
func (e *Ellipsoid) MaximumRadius() float64 {
	return gomath.Max(e.Radii[0], gomath.Max(e.Radii[1], e.Radii[2]))
}

// GeodeticSurfaceNormalCartographic returns the surface normal at a cartographic position.
func (e *Ellipsoid) GeodeticSurfaceNormalCartographic(c Cartographic) mgl64.Vec3 {
	cosLat := gomath.Cos(c.Latitude)
	return mgl64.Vec3{
		cosLat * gomath.Cos(c.Longitude),
		cosLat * gomath.Sin(c.Longitude),
		gomath.Sin(c.Latitude),
	}.Normalize()
}

// GeodeticSurfaceNormal returns the surface normal for a point on (or near) the surface.
func (e *Ellipsoid) GeodeticSurfaceNormal(p mgl64.Vec3) mgl64.Vec3 {
	return mulComponents(p, e.OneOverRadiiSquared).Normalize()
}

// CartographicToCartesian converts a geodetic position to Earth-fixed coordinates.
func (e *Ellipsoid) CartographicToCartesian(c Cartographic) mgl64.Vec3 {
	n := e.GeodeticSurfaceNormalCartographic(c)
	k := mulComponents(e.RadiiSquared, n)
	gamma := gomath.Sqrt(n.Dot(k))
	k = k.Mul(1 / gamma)
	return k.Add(n.Mul(c.Height))
}

// CartesianToCartographic converts an Earth-fixed position to geodetic coordinates.
// ok is false when the point is at the center of the ellipsoid.
func (e *Ellipsoid) CartesianToCartographic(p mgl64.Vec3) (Cartographic, bool) {
	surface, ok := e.ScaleToGeodeticSurface(p)
	if !ok {
		return Cartographic{}, false
	}

	n := e.GeodeticSurfaceNormal(surface)
	h := p.Sub(surface)

	return Cartographic{
		Longitude: gomath.Atan2(n[1], n[0]),
		Latitude:  gomath.Asin(Clamp(n[2], -1, 1)),
		Height:    SignNotZero(h.Dot(p)) * h.Len(),
	}, true
}

// ScaleToGeodeticSurface projects a point along the geodetic normal onto the surface.
// ok is false when the point is too close to the center to have a defined projection.
func (e *Ellipsoid) ScaleToGeodeticSurface(p mgl64.Vec3) (mgl64.Vec3, bool) {
	const centerToleranceSquared = Epsilon1

	inv := e.OneOverRadii
	invSq := e.OneOverRadiiSquared

	x2 := p[0] * p[0] * inv[0] * inv[0]
	y2 := p[1] * p[1] * inv[1] * inv[1]
	z2 := p[2] * p[2] * inv[2] * inv[2]

	squaredNorm := x2 + y2 + z2
	ratio := gomath.Sqrt(1.0 / squaredNorm)

	intersection := p.Mul(ratio)

	if squaredNorm < centerToleranceSquared {
		if gomath.IsInf(ratio, 0) || gomath.IsNaN(ratio) {
			return mgl64.Vec3{}, false
		}
		return intersection, true
	}

	gradient := mulComponents(intersection, invSq).Mul(2)

	lambda := (1.0 - ratio) * p.Len() / (0.5 * gradient.Len())
	correction := 0.0

	var xm, ym, zm float64
	for {
		lambda -= correction

		xm = 1.0 / (1.0 + lambda*invSq[0])
		ym = 1.0 / (1.0 + lambda*invSq[1])
		zm = 1.0 / (1.0 + lambda*invSq[2])

		xm2, ym2, zm2 := xm*xm, ym*ym, zm*zm
		xm3, ym3, zm3 := xm2*xm, ym2*ym, zm2*zm

		fn := x2*xm2 + y2*ym2 + z2*zm2 - 1.0
		denominator := x2*xm3*invSq[0] + y2*ym3*invSq[1] + z2*zm3*invSq[2]
		derivative := -2.0 * denominator
		correction = fn / derivative

		if gomath.Abs(fn) <= Epsilon12 {
			break
		}
	}

	return mgl64.Vec3{p[0] * xm, p[1] * ym, p[2] * zm}, true
}

// TransformPositionToScaledSpace scales a position so the ellipsoid becomes a unit sphere.
func (e *Ellipsoid) TransformPositionToScaledSpace(p mgl64.Vec3) mgl64.Vec3 {
	return mulComponents(p, e.OneOverRadii)
}

// TransformPositionFromScaledSpace is the inverse of TransformPositionToScaledSpace.
func (e *Ellipsoid) TransformPositionFromScaledSpace(p mgl64.Vec3) mgl64.Vec3 {
	return mulComponents(p, e.Radii)
}

func mulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
