package command

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DayTexture is one imagery texture bound to a tile draw.
type DayTexture struct {
	Texture             Texture
	TranslationAndScale mgl64.Vec4
	TexCoordsRectangle  mgl64.Vec4
	Alpha               float64
	Brightness          float64
	Contrast            float64
	Hue                 float64
	Saturation          float64
	OneOverGamma        float64
}

// TileUniforms holds the uniform values of one tile draw command.
type TileUniforms struct {
	InitialColor                    mgl64.Vec4
	ZoomedOutOceanSpecularIntensity float64
	OceanNormalMap                  Texture
	LightingFadeDistance            mgl64.Vec2

	Center3D          mgl64.Vec3
	TileRectangle     mgl64.Vec4
	ModifiedModelView mgl64.Mat4

	DayTextures  []DayTexture
	DayIntensity float64

	SouthAndNorthLatitude          mgl64.Vec2
	SouthMercatorYAndOneOverHeight mgl64.Vec2

	WaterMask                    Texture
	WaterMaskTranslationAndScale mgl64.Vec4

	MinMaxHeight mgl64.Vec2
	ScaleAndBias mgl64.Mat4
}

// ResetDayTextures empties the texture list, keeping its capacity so stale
// textures from an earlier frame are never bound.
func (u *TileUniforms) ResetDayTextures() {
	clear(u.DayTextures)
	u.DayTextures = u.DayTextures[:0]
}

// AddDayTexture appends a texture binding.
func (u *TileUniforms) AddDayTexture(t DayTexture) {
	u.DayTextures = append(u.DayTextures, t)
}
