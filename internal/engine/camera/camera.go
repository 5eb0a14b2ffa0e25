// Package camera provides the globe viewer camera.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Camera is a perspective camera in the Earth-fixed frame.
type Camera struct {
	Position  mgl64.Vec3
	Direction mgl64.Vec3 // Normalized
	Up        mgl64.Vec3 // Normalized, orthogonal to Direction

	FovY   float64 // Radians
	Aspect float64

	// MinimumNear bounds the near plane, which otherwise scales with height.
	MinimumNear float64

	ellipsoid *math.Ellipsoid
}

// New creates a camera looking at the center of e from 20000 km above
// (0, 0).
func New(e *math.Ellipsoid) *Camera {
	if e == nil {
		panic("camera requires an ellipsoid")
	}
	c := &Camera{
		FovY:        gomath.Pi / 3,
		Aspect:      16.0 / 9.0,
		MinimumNear: 1,
		ellipsoid:   e,
	}
	c.LookAtCartographic(math.Cartographic{}, 2e7)
	return c
}

// SetViewport updates the aspect ratio.
func (c *Camera) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float64(width) / float64(height)
	}
}

// PositionCartographic returns the camera position on the ellipsoid.
func (c *Camera) PositionCartographic() math.Cartographic {
	carto, _ := c.ellipsoid.CartesianToCartographic(c.Position)
	return carto
}

// LookAtCartographic places the camera height meters above target, looking
// straight down with north up.
func (c *Camera) LookAtCartographic(target math.Cartographic, height float64) {
	target.Height = 0
	surface := c.ellipsoid.CartographicToCartesian(target)
	normal := c.ellipsoid.GeodeticSurfaceNormalCartographic(target)

	c.Position = surface.Add(normal.Mul(height))
	c.Direction = normal.Mul(-1)

	enu := math.EastNorthUpToFixedFrame(surface, c.ellipsoid)
	c.Up = enu.Col(1).Vec3().Normalize()
}

// NearFar returns clip distances scaled to the camera height so depth
// precision follows the zoom level.
func (c *Camera) NearFar() (near, far float64) {
	height := c.PositionCartographic().Height
	near = max(c.MinimumNear, height*0.1)
	far = 2 * (c.Position.Len() + c.ellipsoid.MaximumRadius())
	return near, far
}

// ViewMatrix returns the Earth-fixed to eye transform.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Position.Add(c.Direction), c.Up)
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	near, far := c.NearFar()
	return mgl64.Perspective(c.FovY, c.Aspect, near, far)
}

// InverseViewProjection is used to unproject screen positions into rays.
func (c *Camera) InverseViewProjection() mgl64.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix()).Inv()
}

// CullingVolume returns the view frustum planes.
func (c *Camera) CullingVolume() math.CullingVolume {
	near, far := c.NearFar()
	return math.CullingVolumeFromPerspective(c.Position, c.Direction, c.Up, c.FovY, c.Aspect, near, far)
}

// MetersPerPixel returns the size of one pixel at distance.
func (c *Camera) MetersPerPixel(distance float64, viewportHeight int) float64 {
	if viewportHeight <= 0 {
		return 0
	}
	return 2 * distance * gomath.Tan(c.FovY/2) / float64(viewportHeight)
}

// State snapshots the camera for a 3D frame.
func (c *Camera) State(viewportHeight int) globe.CameraState {
	return globe.CameraState{
		PositionWC:           c.Position,
		PositionCartographic: c.PositionCartographic(),
		ViewMatrix:           c.ViewMatrix(),
		FovY:                 c.FovY,
		ViewportHeight:       float64(viewportHeight),
	}
}
