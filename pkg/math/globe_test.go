package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

func approx(a, b, eps float64) bool {
	return gomath.Abs(a-b) <= eps
}

func TestCartographicRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    Cartographic
	}{
		{"equator", CartographicFromDegrees(0, 0, 0)},
		{"paris", CartographicFromDegrees(2.35, 48.85, 120)},
		{"south", CartographicFromDegrees(-70.5, -33.4, 4500)},
		{"high orbit", CartographicFromDegrees(135, 10, 2.0e7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := WGS84.CartographicToCartesian(tt.c)
			got, ok := WGS84.CartesianToCartographic(p)
			if !ok {
				t.Fatal("expected conversion to succeed")
			}
			if !approx(got.Longitude, tt.c.Longitude, Epsilon10) {
				t.Errorf("longitude: got %v, want %v", got.Longitude, tt.c.Longitude)
			}
			if !approx(got.Latitude, tt.c.Latitude, Epsilon10) {
				t.Errorf("latitude: got %v, want %v", got.Latitude, tt.c.Latitude)
			}
			if !approx(got.Height, tt.c.Height, Epsilon3) {
				t.Errorf("height: got %v, want %v", got.Height, tt.c.Height)
			}
		})
	}
}

func TestCartesianToCartographicAtCenter(t *testing.T) {
	if _, ok := WGS84.CartesianToCartographic(mgl64.Vec3{}); ok {
		t.Error("expected center of ellipsoid to have no cartographic position")
	}
}

func TestEastNorthUpFrame(t *testing.T) {
	origin := WGS84.CartographicToCartesian(CartographicFromDegrees(30, 45, 0))
	m := EastNorthUpToFixedFrame(origin, WGS84)

	east := m.Col(0).Vec3()
	north := m.Col(1).Vec3()
	up := m.Col(2).Vec3()

	if !approx(east.Dot(north), 0, Epsilon12) || !approx(east.Dot(up), 0, Epsilon12) {
		t.Error("expected orthogonal axes")
	}
	if !approx(up.Dot(WGS84.GeodeticSurfaceNormal(origin)), 1, Epsilon12) {
		t.Error("expected up to match geodetic normal")
	}
	if !approx(east[2], 0, Epsilon12) {
		t.Errorf("expected east to be parallel to the equator, got z=%v", east[2])
	}

	back := MultiplyByPoint(InverseTransformation(m), origin)
	if back.Len() > Epsilon6 {
		t.Errorf("expected origin to map to zero, got %v", back)
	}
}

func TestEastNorthUpAtPole(t *testing.T) {
	m := EastNorthUpToFixedFrame(mgl64.Vec3{0, 0, 6356752}, WGS84)
	up := m.Col(2).Vec3()
	if up != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("expected up along +Z at north pole, got %v", up)
	}
}

func TestRectangleContainsIsInclusive(t *testing.T) {
	r := RectangleFromDegrees(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})

	if !r.Contains(r.Southwest()) || !r.Contains(r.Northeast()) {
		t.Error("expected corners to be contained")
	}
	if r.Contains(CartographicFromDegrees(10.001, 5, 0)) {
		t.Error("expected point east of rectangle to be outside")
	}
	if !approx(r.Width(), ToRadians(10), Epsilon12) {
		t.Errorf("width: got %v", r.Width())
	}
}

func TestBoundingSphereFromPoints(t *testing.T) {
	points := []mgl64.Vec3{
		{-1, 0, 0}, {1, 0, 0}, {0, 2, 0}, {0, -2, 0}, {0, 0, 0.5},
	}
	s := BoundingSphereFromPoints(points)
	for _, p := range points {
		if p.Sub(s.Center).Len() > s.Radius+Epsilon10 {
			t.Errorf("point %v outside sphere %+v", p, s)
		}
	}
	if s.Radius > 2.5 {
		t.Errorf("expected a tight sphere, got radius %v", s.Radius)
	}
}

func TestBoundingSphereUnion(t *testing.T) {
	a := BoundingSphere{Center: mgl64.Vec3{-2, 0, 0}, Radius: 1}
	b := BoundingSphere{Center: mgl64.Vec3{2, 0, 0}, Radius: 1}
	u := a.Union(b)

	if !approx(u.Radius, 3, Epsilon12) || u.Center.Len() > Epsilon12 {
		t.Errorf("unexpected union %+v", u)
	}

	inner := BoundingSphere{Center: mgl64.Vec3{0.1, 0, 0}, Radius: 0.1}
	if got := u.Union(inner); got != u {
		t.Errorf("expected enclosing sphere unchanged, got %+v", got)
	}
}

func TestCullingVolumePerspective(t *testing.T) {
	cv := CullingVolumeFromPerspective(
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 0, -1},
		mgl64.Vec3{0, 1, 0},
		ToRadians(60), 1.5, 1, 1000,
	)

	tests := []struct {
		name   string
		sphere BoundingSphere
		want   Intersect
	}{
		{"in front", BoundingSphere{Center: mgl64.Vec3{0, 0, -100}, Radius: 1}, Inside},
		{"behind", BoundingSphere{Center: mgl64.Vec3{0, 0, 100}, Radius: 1}, Outside},
		{"beyond far", BoundingSphere{Center: mgl64.Vec3{0, 0, -2000}, Radius: 1}, Outside},
		{"straddles near", BoundingSphere{Center: mgl64.Vec3{0, 0, -1}, Radius: 0.5}, Intersecting},
		{"far left", BoundingSphere{Center: mgl64.Vec3{-500, 0, -100}, Radius: 1}, Outside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cv.ComputeVisibility(tt.sphere); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEllipsoidalOccluder(t *testing.T) {
	camera := WGS84.CartographicToCartesian(CartographicFromDegrees(0, 0, 1.0e6))
	o := NewEllipsoidalOccluder(WGS84, camera)

	near := WGS84.TransformPositionToScaledSpace(
		WGS84.CartographicToCartesian(CartographicFromDegrees(1, 1, 0)))
	far := WGS84.TransformPositionToScaledSpace(
		WGS84.CartographicToCartesian(CartographicFromDegrees(180, 0, 0)))

	if !o.IsScaledSpacePointVisible(near) {
		t.Error("expected nearby point to be visible")
	}
	if o.IsScaledSpacePointVisible(far) {
		t.Error("expected antipodal point to be occluded")
	}
}

func TestComputeHorizonCullingPoint(t *testing.T) {
	o := NewEllipsoidalOccluder(WGS84, mgl64.Vec3{})
	center := WGS84.CartographicToCartesian(CartographicFromDegrees(10, 10, 0))
	positions := []mgl64.Vec3{
		WGS84.CartographicToCartesian(CartographicFromDegrees(9.5, 9.5, 100)),
		WGS84.CartographicToCartesian(CartographicFromDegrees(10.5, 10.5, 200)),
	}

	p, ok := o.ComputeHorizonCullingPoint(center, positions)
	if !ok {
		t.Fatal("expected a horizon culling point")
	}
	if p.Len() < 1 {
		t.Errorf("expected point above the unit sphere, got magnitude %v", p.Len())
	}
}

func TestWebMercatorRoundTrip(t *testing.T) {
	proj := NewWebMercatorProjection()
	c := CartographicFromDegrees(-122.4, 37.8, 50)

	p := proj.Project(c)
	got := proj.Unproject(p)

	if !approx(got.Longitude, c.Longitude, Epsilon10) || !approx(got.Latitude, c.Latitude, Epsilon10) {
		t.Errorf("got %+v, want %+v", got, c)
	}
	if got.Height != 50 {
		t.Errorf("expected height carried through, got %v", got.Height)
	}

	angle := GeodeticLatitudeToMercatorAngle(c.Latitude)
	if !approx(p[1], angle*WGS84.MaximumRadius(), Epsilon3) {
		t.Errorf("mercator y %v does not match angle %v", p[1], angle)
	}
}

func TestGeographicProjection(t *testing.T) {
	proj := NewGeographicProjection(WGS84)
	c := CartographicFromDegrees(90, 45, 10)
	p := proj.Project(c)

	if !approx(p[0], gomath.Pi/2*6378137.0, Epsilon6) {
		t.Errorf("x: got %v", p[0])
	}
	if got := proj.Unproject(p); !approx(got.Latitude, c.Latitude, Epsilon12) {
		t.Errorf("latitude round trip: got %v", got.Latitude)
	}
}

func TestFog(t *testing.T) {
	if Fog(0, 2e-4) != 0 {
		t.Error("expected no fog at zero distance")
	}
	if Fog(1e9, 2e-4) < 1 {
		t.Error("expected full fog at extreme distance")
	}
	if f := Fog(1000, 2e-4); f <= 0 || f >= 1 {
		t.Errorf("expected partial fog, got %v", f)
	}
}
