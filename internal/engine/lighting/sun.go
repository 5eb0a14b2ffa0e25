// Package lighting provides the sun position for globe lighting.
package lighting

import (
	gomath "math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	unixEpochJulianDate = 2440587.5
	j2000JulianDate     = 2451545.0
	secondsPerDay       = 86400.0
)

// SunDirection returns the unit vector from the Earth's center towards the
// sun in the Earth-fixed frame at time t. The low-precision solar
// coordinates are good to about a hundredth of a degree.
func SunDirection(t time.Time) mgl64.Vec3 {
	n := julianDate(t) - j2000JulianDate

	// Mean longitude and mean anomaly, degrees
	meanLongitude := 280.460 + 0.9856474*n
	meanAnomaly := mgl64.DegToRad(357.528 + 0.9856003*n)

	eclipticLongitude := mgl64.DegToRad(meanLongitude +
		1.915*gomath.Sin(meanAnomaly) + 0.020*gomath.Sin(2*meanAnomaly))
	obliquity := mgl64.DegToRad(23.439 - 0.0000004*n)

	// Inertial equatorial direction
	x := gomath.Cos(eclipticLongitude)
	y := gomath.Cos(obliquity) * gomath.Sin(eclipticLongitude)
	z := gomath.Sin(obliquity) * gomath.Sin(eclipticLongitude)

	// Rotate by Greenwich mean sidereal time into the Earth-fixed frame
	gmst := mgl64.DegToRad(gomath.Mod(280.46061837+360.98564736629*n, 360))
	cosG, sinG := gomath.Cos(gmst), gomath.Sin(gmst)

	return mgl64.Vec3{cosG*x + sinG*y, -sinG*x + cosG*y, z}.Normalize()
}

func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/1e9/secondsPerDay + unixEpochJulianDate
}
