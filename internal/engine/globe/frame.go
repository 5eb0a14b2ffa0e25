// Package globe holds the shared tile, imagery and frame model used by the
// surface renderer, the visibility tests and the quadtree.
package globe

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// SceneMode selects how the globe is projected.
type SceneMode int

const (
	Scene3D SceneMode = iota
	Columbus
	Scene2D
)

func (m SceneMode) String() string {
	switch m {
	case Scene3D:
		return "3d"
	case Columbus:
		return "columbus"
	case Scene2D:
		return "2d"
	default:
		return fmt.Sprintf("SceneMode(%d)", int(m))
	}
}

// ParseSceneMode parses "3d", "2d" or "columbus".
func ParseSceneMode(s string) (SceneMode, error) {
	switch s {
	case "3d", "":
		return Scene3D, nil
	case "2d":
		return Scene2D, nil
	case "columbus":
		return Columbus, nil
	default:
		return Scene3D, fmt.Errorf("unknown scene mode %q", s)
	}
}

// Fog describes distance fog.
type Fog struct {
	Enabled bool
	Density float64
}

// Culler classifies a bounding volume against the view frustum.
type Culler interface {
	ComputeVisibility(s math.BoundingSphere) math.Intersect
}

// HorizonOccluder tests points in ellipsoid-scaled space against the horizon.
type HorizonOccluder interface {
	IsScaledSpacePointVisible(occludee mgl64.Vec3) bool
}

// CameraState is the per-frame camera snapshot. In 2D and Columbus modes
// PositionWC is in the projected frame with x holding the height.
type CameraState struct {
	PositionWC           mgl64.Vec3
	PositionCartographic math.Cartographic
	ViewMatrix           mgl64.Mat4
	FovY                 float64
	ViewportHeight       float64
}

// FrameState carries everything the surface needs for one frame.
type FrameState struct {
	Mode          SceneMode
	Camera        CameraState
	CullingVolume Culler
	// Occluder is nil when horizon culling is disabled.
	Occluder    HorizonOccluder
	Projection  math.Projection
	Fog         Fog
	FrameNumber uint64

	// SunDirectionWC is the unit direction to the sun in the Earth-fixed frame.
	SunDirectionWC mgl64.Vec3
}
