package math

import (
	"github.com/paulmach/orb"
)

// Rectangle is a geodetic extent in radians. Bound.Min holds (west, south)
// and Bound.Max holds (east, north).
type Rectangle struct {
	Bound orb.Bound
}

// NewRectangle creates a rectangle from radian edges.
func NewRectangle(west, south, east, north float64) Rectangle {
	return Rectangle{Bound: orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}}
}

// RectangleFromDegrees converts a lon/lat bound in degrees.
func RectangleFromDegrees(b orb.Bound) Rectangle {
	return NewRectangle(
		ToRadians(b.Min[0]), ToRadians(b.Min[1]),
		ToRadians(b.Max[0]), ToRadians(b.Max[1]),
	)
}

// West returns the westernmost longitude.
func (r Rectangle) West() float64 { return r.Bound.Min[0] }

// South returns the southernmost latitude.
func (r Rectangle) South() float64 { return r.Bound.Min[1] }

// East returns the easternmost longitude.
func (r Rectangle) East() float64 { return r.Bound.Max[0] }

// North returns the northernmost latitude.
func (r Rectangle) North() float64 { return r.Bound.Max[1] }

// Width returns the longitudinal extent in radians.
func (r Rectangle) Width() float64 { return r.East() - r.West() }

// Height returns the latitudinal extent in radians.
func (r Rectangle) Height() float64 { return r.North() - r.South() }

// Southwest returns the southwest corner at zero height.
func (r Rectangle) Southwest() Cartographic {
	return Cartographic{Longitude: r.West(), Latitude: r.South()}
}

// Northeast returns the northeast corner at zero height.
func (r Rectangle) Northeast() Cartographic {
	return Cartographic{Longitude: r.East(), Latitude: r.North()}
}

// Center returns the center of the rectangle at zero height.
func (r Rectangle) Center() Cartographic {
	c := r.Bound.Center()
	return Cartographic{Longitude: c[0], Latitude: c[1]}
}

// Contains reports whether the cartographic position lies inside the rectangle.
// Edges are inclusive; height is ignored.
func (r Rectangle) Contains(c Cartographic) bool {
	return r.Bound.Contains(orb.Point{c.Longitude, c.Latitude})
}

// Degrees returns the rectangle as a lon/lat bound in degrees.
func (r Rectangle) Degrees() orb.Bound {
	return orb.Bound{
		Min: orb.Point{ToDegrees(r.West()), ToDegrees(r.South())},
		Max: orb.Point{ToDegrees(r.East()), ToDegrees(r.North())},
	}
}
