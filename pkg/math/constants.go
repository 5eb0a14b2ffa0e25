// Package math provides float64 planetary math for globe rendering: ellipsoids,
// cartographic coordinates, bounding volumes, culling and map projections.
package math

import gomath "math"

// Epsilon thresholds used by comparisons and degenerate-input guards.
const (
	Epsilon1  = 0.1
	Epsilon2  = 0.01
	Epsilon3  = 0.001
	Epsilon4  = 0.0001
	Epsilon5  = 0.00001
	Epsilon6  = 0.000001
	Epsilon7  = 0.0000001
	Epsilon8  = 0.00000001
	Epsilon10 = 0.0000000001
	Epsilon12 = 0.000000000001
	Epsilon14 = 0.00000000000001
)

// Angle helpers.
const (
	PiOverTwo = gomath.Pi / 2
	TwoPi     = gomath.Pi * 2
)

// Fog returns the fog attenuation for a distance with the given density.
// 0 means no fog, values at or above 1 mean fully fogged.
func Fog(distance, density float64) float64 {
	scalar := distance * density
	return 1.0 - gomath.Exp(-(scalar * scalar))
}

// SignNotZero returns 1 for values >= 0 and -1 otherwise.
func SignNotZero(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EqualsEpsilon reports whether a and b are equal within an absolute epsilon.
func EqualsEpsilon(a, b, epsilon float64) bool {
	return gomath.Abs(a-b) <= epsilon
}

// ToRadians converts degrees to radians.
func ToRadians(degrees float64) float64 {
	return degrees * gomath.Pi / 180.0
}

// ToDegrees converts radians to degrees.
func ToDegrees(radians float64) float64 {
	return radians * 180.0 / gomath.Pi
}
