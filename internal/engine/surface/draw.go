package surface

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/visibility"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// addDrawCommandsForTile emits one command per group of at most maxTextures
// ready imagery textures. The first command is opaque over the base color,
// the rest blend over it.
func (r *Renderer) addDrawCommandsForTile(tile *globe.Tile, frame *globe.FrameState) {
	if tile == r.debugTile {
		r.debugTileVisited = true
	}

	maxTextures := r.cfg.MaxTextureUnits
	showReflectiveOcean := r.cfg.HasWaterMask && tile.WaterMaskTexture != nil
	showOceanWaves := showReflectiveOcean && r.cfg.OceanNormalMap != nil
	if showReflectiveOcean {
		maxTextures--
	}
	if showOceanWaves {
		maxTextures--
	}
	maxTextures = max(maxTextures, 1)

	useWebMercator := r.useWebMercator(frame)
	rtc := tile.Center
	var tileRectangle mgl64.Vec4
	var southAndNorthLatitude, southMercatorYAndOneOverHeight mgl64.Vec2
	if frame.Mode != globe.Scene3D {
		rtc, tileRectangle = projectedRectangle(tile, frame.Projection)
		if useWebMercator {
			southAndNorthLatitude, southMercatorYAndOneOverHeight = mercatorLatitudes(tile.Rectangle)
		}
	}

	view := frame.Camera.ViewMatrix
	centerEye := math.MultiplyByPoint(view, rtc)
	modifiedModelView := math.SetTranslation(view, centerEye)

	applyFog := frame.Fog.Enabled && math.Fog(tile.Distance, frame.Fog.Density) > math.Epsilon3
	dayIntensity := r.dayIntensity(tile, frame)
	boundingVolume := visibility.BoundingVolume(tile, frame)
	encoding := tile.Mesh.Encoding

	renderState := r.renderState
	initialColor := r.firstPassInitialColor

	imagery := tile.Imagery
	imageryIndex := 0

	for {
		cmd, u := r.nextDrawCommand()
		u.ResetDayTextures()

		key := ProgramKey{
			ShowReflectiveOcean:      showReflectiveOcean,
			ShowOceanWaves:           showOceanWaves,
			EnableLighting:           r.cfg.EnableLighting,
			HasVertexNormals:         r.cfg.HasVertexNormals && encoding.HasVertexNormals,
			UseWebMercatorProjection: useWebMercator,
			EnableFog:                applyFog,
			Quantization:             encoding.Mode,
		}

		for len(u.DayTextures) < maxTextures && imageryIndex < len(imagery) {
			ti := imagery[imageryIndex]
			imageryIndex++

			ready := ti.Ready
			if ready == nil || !ready.Ready() || ready.Layer.Alpha == 0 {
				continue
			}
			layer := ready.Layer

			if ti.TextureTranslationAndScale == nil {
				ts := globe.CalculateTextureTranslationAndScale(tile, ti)
				ti.TextureTranslationAndScale = &ts
			}

			u.AddDayTexture(command.DayTexture{
				Texture:             ready.Texture,
				TranslationAndScale: *ti.TextureTranslationAndScale,
				TexCoordsRectangle:  ti.TextureCoordinateRectangle,
				Alpha:               layer.Alpha,
				Brightness:          layer.Brightness,
				Contrast:            layer.Contrast,
				Hue:                 layer.Hue,
				Saturation:          layer.Saturation,
				OneOverGamma:        1.0 / layer.Gamma,
			})

			key.ApplyAlpha = key.ApplyAlpha || layer.Alpha != 1
			key.ApplyBrightness = key.ApplyBrightness || layer.Brightness != globe.DefaultBrightness
			key.ApplyContrast = key.ApplyContrast || layer.Contrast != globe.DefaultContrast
			key.ApplyHue = key.ApplyHue || layer.Hue != globe.DefaultHue
			key.ApplySaturation = key.ApplySaturation || layer.Saturation != globe.DefaultSaturation
			key.ApplyGamma = key.ApplyGamma || 1.0/layer.Gamma != 1.0/globe.DefaultGamma
		}
		key.TextureCount = len(u.DayTextures)

		u.InitialColor = initialColor
		u.ZoomedOutOceanSpecularIntensity = r.cfg.ZoomedOutOceanSpecularIntensity
		u.OceanNormalMap = r.cfg.OceanNormalMap
		u.LightingFadeDistance = mgl64.Vec2{r.cfg.LightingFadeOutDistance, r.cfg.LightingFadeInDistance}
		u.Center3D = tile.Center
		u.TileRectangle = tileRectangle
		u.ModifiedModelView = modifiedModelView
		u.DayIntensity = dayIntensity
		u.SouthAndNorthLatitude = southAndNorthLatitude
		u.SouthMercatorYAndOneOverHeight = southMercatorYAndOneOverHeight
		u.WaterMask = tile.WaterMaskTexture
		u.WaterMaskTranslationAndScale = tile.WaterMaskTranslationAndScale
		u.MinMaxHeight = mgl64.Vec2{encoding.MinimumHeight, encoding.MaximumHeight}
		u.ScaleAndBias = encoding.Matrix

		cmd.Owner = tile
		cmd.Program = r.programs.Program(key)
		cmd.RenderState = renderState
		cmd.PrimitiveType = command.Triangles
		cmd.VertexArray = tile.VertexArray
		cmd.Uniforms = u
		cmd.ModelMatrix = mgl64.Ident4()
		cmd.Color = mgl64.Vec4{}
		cmd.BoundingVolume = boundingVolume
		cmd.Pass = command.PassGlobe
		cmd.Cull = false

		if r.cfg.Wireframe && tile.WireframeVertexArray != nil {
			cmd.VertexArray = tile.WireframeVertexArray
			cmd.PrimitiveType = command.Lines
		}

		r.commands = append(r.commands, cmd)

		renderState = r.blendRenderState
		initialColor = otherPassesInitialColor

		if imageryIndex >= len(imagery) {
			break
		}
	}
}

// projectedRectangle returns the projected tile centroid as a swizzled
// relative-to-center origin and the tile's projected extent relative to it.
func projectedRectangle(tile *globe.Tile, projection math.Projection) (mgl64.Vec3, mgl64.Vec4) {
	sw := projection.Project(tile.Rectangle.Southwest())
	ne := projection.Project(tile.Rectangle.Northeast())

	cx := (sw[0] + ne[0]) * 0.5
	cy := (sw[1] + ne[1]) * 0.5
	rect := mgl64.Vec4{sw[0] - cx, sw[1] - cy, ne[0] - cx, ne[1] - cy}
	return mgl64.Vec3{0, cx, cy}, rect
}

func mercatorLatitudes(r math.Rectangle) (latitudes, mercator mgl64.Vec2) {
	southMercatorY := math.GeodeticLatitudeToMercatorAngle(r.South())
	northMercatorY := math.GeodeticLatitudeToMercatorAngle(r.North())
	latitudes = mgl64.Vec2{r.South(), r.North()}
	mercator = mgl64.Vec2{southMercatorY, 1.0 / (northMercatorY - southMercatorY)}
	return latitudes, mercator
}

// dayIntensity is 1 without lighting, otherwise the cosine between the tile
// center normal and the sun.
func (r *Renderer) dayIntensity(tile *globe.Tile, frame *globe.FrameState) float64 {
	if !r.cfg.EnableLighting || frame.SunDirectionWC.LenSqr() == 0 || tile.Center.LenSqr() == 0 {
		return 1
	}
	return gomath.Max(0, tile.Center.Normalize().Dot(frame.SunDirectionWC.Normalize()))
}

// debugSphereCommand draws the selected tile's bounding sphere when it was
// rendered this frame.
func (r *Renderer) debugSphereCommand() *command.DrawCommand {
	if r.debugTile == nil || r.debugSphere == nil || !r.debugTileVisited {
		return nil
	}

	s := r.debugTile.BoundingSphere3D
	cmd := &r.debugCommand
	cmd.Reset()
	cmd.Owner = r.debugTile
	cmd.Program = r.programs.Program(ProgramKey{Debug: true})
	cmd.RenderState = r.debugRenderState
	cmd.PrimitiveType = command.Lines
	cmd.VertexArray = r.debugSphere
	cmd.ModelMatrix = mgl64.Translate3D(s.Center[0], s.Center[1], s.Center[2]).Mul4(mgl64.Scale3D(s.Radius, s.Radius, s.Radius))
	cmd.Color = debugSphereColor
	cmd.BoundingVolume = s
	cmd.Pass = command.PassDebug
	return cmd
}
