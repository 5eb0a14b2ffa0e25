package viewer

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/config"
	"github.com/Faultbox/midgard-globe/internal/engine/camera"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/renderer"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Fog is only applied close to the ground. The configured density holds at
// fogReferenceHeight and thins out linearly with height above it.
const (
	fogMaximumHeight   = 800000.0
	fogReferenceHeight = 359.393
)

// view is everything derived from the camera for one frame.
type view struct {
	frame                 *globe.FrameState
	uniforms              renderer.FrameUniforms
	inverseViewProjection mgl64.Mat4
}

type viewParams struct {
	mode           globe.SceneMode
	ellipsoid      *math.Ellipsoid
	projection     math.Projection
	fog            config.FogConfig
	viewportHeight int
	frameNumber    uint64
	sun            mgl64.Vec3
}

func buildView(cam *camera.Camera, p viewParams) view {
	carto := cam.PositionCartographic()
	fog := fogFor(p.fog, carto.Height)

	frame := &globe.FrameState{
		Mode:           p.mode,
		Projection:     p.projection,
		Fog:            fog,
		FrameNumber:    p.frameNumber,
		SunDirectionWC: p.sun,
	}

	var viewMatrix, projection mgl64.Mat4
	if p.mode == globe.Scene3D {
		viewMatrix = cam.ViewMatrix()
		projection = cam.ProjectionMatrix()
		frame.Camera = cam.State(p.viewportHeight)
		frame.CullingVolume = cam.CullingVolume()
		frame.Occluder = math.NewEllipsoidalOccluder(p.ellipsoid, cam.Position)
	} else {
		viewMatrix, projection, frame.CullingVolume = projectedCamera(cam, carto, p)
		xy := p.projection.Project(carto)
		frame.Camera = globe.CameraState{
			PositionWC:           mgl64.Vec3{carto.Height, xy[0], xy[1]},
			PositionCartographic: carto,
			ViewMatrix:           viewMatrix,
			FovY:                 cam.FovY,
			ViewportHeight:       float64(p.viewportHeight),
		}
	}

	density := 0.0
	if fog.Enabled {
		density = fog.Density
	}
	return view{
		frame: frame,
		uniforms: renderer.FrameUniforms{
			Projection:     projection,
			View:           viewMatrix,
			SunDirectionWC: p.sun,
			FogDensity:     density,
		},
		inverseViewProjection: projection.Mul4(viewMatrix).Inv(),
	}
}

// projectedCamera looks straight down on the map plane. Projected
// coordinates are swizzled so x holds the height and y, z the map position.
// 2D uses an orthographic projection that covers what the perspective camera
// would see on the ground.
func projectedCamera(cam *camera.Camera, carto math.Cartographic, p viewParams) (viewMatrix, projection mgl64.Mat4, cv math.CullingVolume) {
	xy := p.projection.Project(carto)
	height := gomath.Max(carto.Height, cam.MinimumNear)
	position := mgl64.Vec3{height, xy[0], xy[1]}
	direction := mgl64.Vec3{-1, 0, 0}
	up := mgl64.Vec3{0, 0, 1}
	viewMatrix = mgl64.LookAtV(position, position.Add(direction), up)

	maxRadius := p.projection.Ellipsoid().MaximumRadius()
	if p.mode == globe.Scene2D {
		halfHeight := height * gomath.Tan(cam.FovY/2)
		halfWidth := halfHeight * cam.Aspect
		near, far := 1.0, height+maxRadius
		projection = mgl64.Ortho(-halfWidth, halfWidth, -halfHeight, halfHeight, near, far)
		cv = math.CullingVolumeFromOrthographic(position, direction, up, -halfWidth, halfWidth, -halfHeight, halfHeight, near, far)
		return viewMatrix, projection, cv
	}

	near := gomath.Max(cam.MinimumNear, 0.1*height)
	far := 2 * (height + gomath.Pi*maxRadius)
	projection = mgl64.Perspective(cam.FovY, cam.Aspect, near, far)
	cv = math.CullingVolumeFromPerspective(position, direction, up, cam.FovY, cam.Aspect, near, far)
	return viewMatrix, projection, cv
}

func fogFor(cfg config.FogConfig, height float64) globe.Fog {
	if !cfg.Enabled || height >= fogMaximumHeight {
		return globe.Fog{}
	}
	scale := 1.0
	if height > fogReferenceHeight {
		scale = fogReferenceHeight / height
	}
	return globe.Fog{Enabled: true, Density: cfg.Density * scale}
}

// worldPosition converts a point in the frame's world coordinates back to a
// geodetic position.
func worldPosition(frame *globe.FrameState, e *math.Ellipsoid, p mgl64.Vec3) (math.Cartographic, bool) {
	if frame.Mode == globe.Scene3D {
		return e.CartesianToCartographic(p)
	}
	return frame.Projection.Unproject(mgl64.Vec3{p[1], p[2], p[0]}), true
}
