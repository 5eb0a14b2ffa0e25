package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Projection maps geodetic positions to 2D map coordinates (x, y) in meters,
// carrying the height through as z.
type Projection interface {
	Project(c Cartographic) mgl64.Vec3
	Unproject(p mgl64.Vec3) Cartographic
	Ellipsoid() *Ellipsoid
}

// GeographicProjection is the equirectangular projection scaled by the
// ellipsoid's semimajor axis.
type GeographicProjection struct {
	ellipsoid *Ellipsoid
	semimajor float64
}

// NewGeographicProjection creates a geographic projection for the ellipsoid.
func NewGeographicProjection(e *Ellipsoid) *GeographicProjection {
	if e == nil {
		e = WGS84
	}
	return &GeographicProjection{ellipsoid: e, semimajor: e.MaximumRadius()}
}

// Project implements Projection.
func (g *GeographicProjection) Project(c Cartographic) mgl64.Vec3 {
	return mgl64.Vec3{c.Longitude * g.semimajor, c.Latitude * g.semimajor, c.Height}
}

// Unproject implements Projection.
func (g *GeographicProjection) Unproject(p mgl64.Vec3) Cartographic {
	return Cartographic{
		Longitude: p[0] / g.semimajor,
		Latitude:  p[1] / g.semimajor,
		Height:    p[2],
	}
}

// Ellipsoid implements Projection.
func (g *GeographicProjection) Ellipsoid() *Ellipsoid {
	return g.ellipsoid
}

// MaximumMercatorLatitude is the latitude where the Web Mercator square ends.
var MaximumMercatorLatitude = MercatorAngleToGeodeticLatitude(gomath.Pi)

// WebMercatorProjection is the spherical pseudo-Mercator used by web maps.
// The sphere radius is the WGS84 semimajor axis.
type WebMercatorProjection struct{}

// NewWebMercatorProjection creates a Web Mercator projection.
func NewWebMercatorProjection() *WebMercatorProjection {
	return &WebMercatorProjection{}
}

// Project implements Projection.
func (WebMercatorProjection) Project(c Cartographic) mgl64.Vec3 {
	lat := Clamp(c.Latitude, -MaximumMercatorLatitude, MaximumMercatorLatitude)
	p := project.WGS84.ToMercator(orb.Point{ToDegrees(c.Longitude), ToDegrees(lat)})
	return mgl64.Vec3{p[0], p[1], c.Height}
}

// Unproject implements Projection.
func (WebMercatorProjection) Unproject(p mgl64.Vec3) Cartographic {
	ll := project.Mercator.ToWGS84(orb.Point{p[0], p[1]})
	return Cartographic{
		Longitude: ToRadians(ll[0]),
		Latitude:  ToRadians(ll[1]),
		Height:    p[2],
	}
}

// Ellipsoid implements Projection.
func (WebMercatorProjection) Ellipsoid() *Ellipsoid {
	return WGS84
}

// GeodeticLatitudeToMercatorAngle converts a latitude in radians to the
// Mercator angle, clamping to the Mercator limits.
func GeodeticLatitudeToMercatorAngle(latitude float64) float64 {
	latitude = Clamp(latitude, -MaximumMercatorLatitude, MaximumMercatorLatitude)
	sinLat := gomath.Sin(latitude)
	return 0.5 * gomath.Log((1.0+sinLat)/(1.0-sinLat))
}

// MercatorAngleToGeodeticLatitude is the inverse of GeodeticLatitudeToMercatorAngle.
func MercatorAngleToGeodeticLatitude(angle float64) float64 {
	return PiOverTwo - 2.0*gomath.Atan(gomath.Exp(-angle))
}
