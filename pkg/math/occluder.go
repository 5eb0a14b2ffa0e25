package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// EllipsoidalOccluder tests whether points are hidden behind the horizon of an
// ellipsoid as seen from a camera position.
type EllipsoidalOccluder struct {
	ellipsoid *Ellipsoid

	cameraPosition                     mgl64.Vec3
	cameraPositionInScaledSpace        mgl64.Vec3
	distanceToLimbInScaledSpaceSquared float64
}

// NewEllipsoidalOccluder creates an occluder for the ellipsoid and camera position.
func NewEllipsoidalOccluder(e *Ellipsoid, cameraPosition mgl64.Vec3) *EllipsoidalOccluder {
	if e == nil {
		panic("ellipsoid is required")
	}
	o := &EllipsoidalOccluder{ellipsoid: e}
	o.SetCameraPosition(cameraPosition)
	return o
}

// Ellipsoid returns the occluding ellipsoid.
func (o *EllipsoidalOccluder) Ellipsoid() *Ellipsoid {
	return o.ellipsoid
}

// CameraPosition returns the camera position in the Earth-fixed frame.
func (o *EllipsoidalOccluder) CameraPosition() mgl64.Vec3 {
	return o.cameraPosition
}

// SetCameraPosition updates the viewer position.
func (o *EllipsoidalOccluder) SetCameraPosition(p mgl64.Vec3) {
	cv := o.ellipsoid.TransformPositionToScaledSpace(p)
	o.cameraPosition = p
	o.cameraPositionInScaledSpace = cv
	o.distanceToLimbInScaledSpaceSquared = cv.LenSqr() - 1.0
}

// IsScaledSpacePointVisible reports whether a point given in scaled space is
// above the horizon.
func (o *EllipsoidalOccluder) IsScaledSpacePointVisible(occludee mgl64.Vec3) bool {
	cv := o.cameraPositionInScaledSpace
	vhMagnitudeSquared := o.distanceToLimbInScaledSpaceSquared
	vt := occludee.Sub(cv)
	vtDotVc := -vt.Dot(cv)

	var occluded bool
	if vhMagnitudeSquared < 0 {
		occluded = vtDotVc > 0
	} else {
		occluded = vtDotVc > vhMagnitudeSquared &&
			vtDotVc*vtDotVc/vt.LenSqr() > vhMagnitudeSquared
	}
	return !occluded
}

// ComputeHorizonCullingPoint computes a scaled-space point along directionToPoint
// that is visible exactly when at least one of positions is visible. ok is false
// when no such point exists, for example when a position is below the horizon
// from every viewpoint along the direction.
func (o *EllipsoidalOccluder) ComputeHorizonCullingPoint(directionToPoint mgl64.Vec3, positions []mgl64.Vec3) (mgl64.Vec3, bool) {
	scaledDirection := o.scaledSpaceDirection(directionToPoint)

	resultMagnitude := 0.0
	for _, p := range positions {
		candidate := o.computeMagnitude(p, scaledDirection)
		resultMagnitude = gomath.Max(resultMagnitude, candidate)
	}

	if resultMagnitude <= 0 || gomath.IsInf(resultMagnitude, 0) || gomath.IsNaN(resultMagnitude) {
		return mgl64.Vec3{}, false
	}
	return scaledDirection.Mul(resultMagnitude), true
}

func (o *EllipsoidalOccluder) scaledSpaceDirection(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		return direction
	}
	return o.ellipsoid.TransformPositionToScaledSpace(direction).Normalize()
}

func (o *EllipsoidalOccluder) computeMagnitude(position, scaledDirection mgl64.Vec3) float64 {
	scaled := o.ellipsoid.TransformPositionToScaledSpace(position)
	magnitudeSquared := scaled.LenSqr()
	magnitude := gomath.Sqrt(magnitudeSquared)
	direction := scaled.Mul(1 / magnitude)

	magnitudeSquared = gomath.Max(1.0, magnitudeSquared)
	magnitude = gomath.Max(1.0, magnitude)

	cosAlpha := direction.Dot(scaledDirection)
	sinAlpha := direction.Cross(scaledDirection).Len()
	cosBeta := 1.0 / magnitude
	sinBeta := gomath.Sqrt(magnitudeSquared-1.0) * cosBeta

	return 1.0 / (cosAlpha*cosBeta - sinAlpha*sinBeta)
}
