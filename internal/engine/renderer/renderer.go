// Package renderer executes globe draw commands with OpenGL.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/shader"
	"github.com/Faultbox/midgard-globe/internal/logger"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	VSync      bool
	ClearColor gputypes.Color
}

// FrameUniforms are the per-frame values shared by every command.
type FrameUniforms struct {
	Projection     mgl64.Mat4
	View           mgl64.Mat4
	SunDirectionWC mgl64.Vec3
	FogDensity     float64
}

// Stats counts GPU work.
type Stats struct {
	DrawCalls        int
	Skipped          int
	MeshesUploaded   int
	TexturesUploaded int
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	current *command.RenderState
	stats   Stats
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	var textureUnits int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &textureUnits)
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
		zap.Int32("textureUnits", textureUnits),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	c := cfg.ClearColor
	gl.ClearColor(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// MaxTextureUnits returns the fragment texture unit limit of the context.
func (r *Renderer) MaxTextureUnits() int {
	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	return int(units)
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("meshes", r.stats.MeshesUploaded), zap.Int("textures", r.stats.TexturesUploaded))
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	r.current = nil
	r.stats.DrawCalls = 0
	r.stats.Skipped = 0
	gl.DepthMask(true)
	gl.ColorMask(true, true, true, true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Stats returns the GPU counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Execute draws commands in order. Commands without a program or geometry
// are skipped.
func (r *Renderer) Execute(cmds []*command.DrawCommand, frame FrameUniforms) {
	viewProjection := frame.Projection.Mul4(frame.View)

	for _, cmd := range cmds {
		program, ok := cmd.Program.(*shader.Program)
		if !ok || program == nil || cmd.VertexArray == nil || cmd.RenderState == nil {
			r.stats.Skipped++
			continue
		}

		r.applyRenderState(cmd.RenderState)
		gl.UseProgram(program.ID())

		if cmd.Pass == command.PassDebug {
			setMat4(program.MustUniform("u_viewProjection"), viewProjection)
			setMat4(program.MustUniform("u_model"), cmd.ModelMatrix)
			setVec4(program.MustUniform("u_color"), cmd.Color)
		} else {
			setMat4(program.Uniform("u_projection"), frame.Projection)
			r.setTileUniforms(program, cmd.Uniforms, frame)
		}

		gl.BindVertexArray(cmd.VertexArray.ID())
		gl.DrawElements(primitiveMode(cmd.PrimitiveType), int32(cmd.VertexArray.IndexCount()), gl.UNSIGNED_INT, nil)
		r.stats.DrawCalls++
	}

	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (r *Renderer) setTileUniforms(p *shader.Program, u *command.TileUniforms, frame FrameUniforms) {
	if u == nil {
		return
	}

	setMat4(p.Uniform("u_modifiedModelView"), u.ModifiedModelView)
	setMat4(p.Uniform("u_scaleAndBias"), u.ScaleAndBias)
	setVec2(p.Uniform("u_minMaxHeight"), u.MinMaxHeight)
	setVec4(p.Uniform("u_tileRectangle"), u.TileRectangle)
	setVec3(p.Uniform("u_center3D"), u.Center3D)
	setVec2(p.Uniform("u_southAndNorthLatitude"), u.SouthAndNorthLatitude)
	setVec2(p.Uniform("u_southMercatorYAndOneOverHeight"), u.SouthMercatorYAndOneOverHeight)

	setVec4(p.Uniform("u_initialColor"), u.InitialColor)
	gl.Uniform1f(p.Uniform("u_dayIntensity"), float32(u.DayIntensity))
	setVec2(p.Uniform("u_lightingFadeDistance"), u.LightingFadeDistance)
	setVec3(p.Uniform("u_sunDirectionWC"), frame.SunDirectionWC)
	gl.Uniform1f(p.Uniform("u_fogDensity"), float32(frame.FogDensity))

	unit := int32(0)
	for i, t := range u.DayTextures {
		bindTexture(unit, t.Texture)
		gl.Uniform1i(p.Uniform(fmt.Sprintf("u_dayTextures[%d]", i)), unit)
		setVec4(p.Uniform(fmt.Sprintf("u_dayTextureTranslationAndScale[%d]", i)), t.TranslationAndScale)
		setVec4(p.Uniform(fmt.Sprintf("u_dayTextureTexCoordsRectangle[%d]", i)), t.TexCoordsRectangle)
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureAlpha[%d]", i)), float32(t.Alpha))
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureBrightness[%d]", i)), float32(t.Brightness))
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureContrast[%d]", i)), float32(t.Contrast))
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureHue[%d]", i)), float32(t.Hue))
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureSaturation[%d]", i)), float32(t.Saturation))
		gl.Uniform1f(p.Uniform(fmt.Sprintf("u_dayTextureOneOverGamma[%d]", i)), float32(t.OneOverGamma))
		unit++
	}

	if u.WaterMask != nil {
		bindTexture(unit, u.WaterMask)
		gl.Uniform1i(p.Uniform("u_waterMask"), unit)
		setVec4(p.Uniform("u_waterMaskTranslationAndScale"), u.WaterMaskTranslationAndScale)
		gl.Uniform1f(p.Uniform("u_zoomedOutOceanSpecularIntensity"), float32(u.ZoomedOutOceanSpecularIntensity))
		unit++
	}
	if u.OceanNormalMap != nil {
		bindTexture(unit, u.OceanNormalMap)
		gl.Uniform1i(p.Uniform("u_oceanNormalMap"), unit)
	}
}

func bindTexture(unit int32, t command.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.ID())
}

func setMat4(loc int32, m mgl64.Mat4) {
	f := math.Mat4ToFloat32(m)
	gl.UniformMatrix4fv(loc, 1, false, &f[0])
}

func setVec4(loc int32, v mgl64.Vec4) {
	gl.Uniform4f(loc, float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3]))
}

func setVec3(loc int32, v mgl64.Vec3) {
	gl.Uniform3f(loc, float32(v[0]), float32(v[1]), float32(v[2]))
}

func setVec2(loc int32, v mgl64.Vec2) {
	gl.Uniform2f(loc, float32(v[0]), float32(v[1]))
}
