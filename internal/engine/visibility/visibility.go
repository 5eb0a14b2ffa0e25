// Package visibility computes camera distance and frustum/horizon visibility
// for globe tiles.
package visibility

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Visibility classifies a tile for the current frame.
type Visibility int

const (
	None Visibility = iota
	Partial
	Full
)

func (v Visibility) String() string {
	switch v {
	case None:
		return "none"
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

var (
	negativeUnitY = mgl64.Vec3{0, -1, 0}
	unitY         = mgl64.Vec3{0, 1, 0}
	negativeUnitZ = mgl64.Vec3{0, 0, -1}
	unitZ         = mgl64.Vec3{0, 0, 1}
)

// ComputeDistance returns an under-approximation of the distance from the
// camera to the tile, suitable for level-of-detail ranking. A camera lying
// exactly on an edge plane contributes nothing for that axis.
func ComputeDistance(tile *globe.Tile, frame *globe.FrameState) float64 {
	cam := frame.Camera
	result := 0.0

	if !tile.Rectangle.Contains(cam.PositionCartographic) {
		sw := tile.SouthwestCornerCartesian
		ne := tile.NortheastCornerCartesian
		westNormal := tile.WestNormal
		southNormal := tile.SouthNormal
		eastNormal := tile.EastNormal
		northNormal := tile.NorthNormal

		if frame.Mode != globe.Scene3D {
			sw = math.Swizzle2D(frame.Projection.Project(tile.Rectangle.Southwest()))
			sw[0] = 0
			ne = math.Swizzle2D(frame.Projection.Project(tile.Rectangle.Northeast()))
			ne[0] = 0
			westNormal = negativeUnitY
			eastNormal = unitY
			southNormal = negativeUnitZ
			northNormal = unitZ
		}

		fromSW := cam.PositionWC.Sub(sw)
		distanceToWest := fromSW.Dot(westNormal)
		distanceToSouth := fromSW.Dot(southNormal)

		fromNE := cam.PositionWC.Sub(ne)
		distanceToEast := fromNE.Dot(eastNormal)
		distanceToNorth := fromNE.Dot(northNormal)

		if distanceToWest > 0 {
			result += distanceToWest * distanceToWest
		} else if distanceToEast > 0 {
			result += distanceToEast * distanceToEast
		}

		if distanceToSouth > 0 {
			result += distanceToSouth * distanceToSouth
		} else if distanceToNorth > 0 {
			result += distanceToNorth * distanceToNorth
		}
	}

	cameraHeight := cam.PositionCartographic.Height
	maximumHeight := tile.MaximumHeight
	if frame.Mode != globe.Scene3D {
		cameraHeight = cam.PositionWC[0]
		maximumHeight = 0
	}

	if fromTop := cameraHeight - maximumHeight; fromTop > 0 {
		result += fromTop * fromTop
	}

	return gomath.Sqrt(result)
}

// BoundingVolume returns the sphere used for culling the tile in the frame's
// scene mode.
func BoundingVolume(tile *globe.Tile, frame *globe.FrameState) math.BoundingSphere {
	if frame.Mode == globe.Scene3D {
		return tile.BoundingSphere3D
	}
	s := math.BoundingSphereFromRectangleWithHeights2D(tile.Rectangle, frame.Projection, tile.MinimumHeight, tile.MaximumHeight)
	s.Center = math.Swizzle2D(s.Center)
	return s
}

// ComputeVisibility classifies the tile and stores its camera distance on it.
// Fog is tested before the frustum, and the horizon test runs only in 3D for
// tiles the frustum does not reject.
func ComputeVisibility(tile *globe.Tile, frame *globe.FrameState) Visibility {
	distance := ComputeDistance(tile, frame)
	tile.Distance = distance

	if frame.Fog.Enabled && math.Fog(distance, frame.Fog.Density) >= 1.0 {
		return None
	}

	intersection := frame.CullingVolume.ComputeVisibility(BoundingVolume(tile, frame))
	if intersection == math.Outside {
		return None
	}

	result := Partial
	if intersection == math.Inside {
		result = Full
	}

	if frame.Mode == globe.Scene3D && frame.Occluder != nil && tile.OccludeePointInScaledSpace != nil {
		if !frame.Occluder.IsScaledSpacePointVisible(*tile.OccludeePointInScaledSpace) {
			return None
		}
	}

	return result
}
