// Package surface turns visible globe tiles into ordered draw and pick
// commands each frame.
package surface

import (
	"github.com/gogpu/gputypes"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
)

// Terrain height bounds before exaggeration, in meters.
const (
	maximumTerrainHeight    = 9000.0
	minimumTerrainHeight    = -100000.0
	minimumTerrainHeightOBB = -11500.0
)

// TerrainHeights are the global height bounds used for tiles whose terrain
// has not loaded yet.
type TerrainHeights struct {
	Maximum    float64
	Minimum    float64
	MinimumOBB float64
}

// TerrainHeightsFor scales the default bounds by the terrain exaggeration.
func TerrainHeightsFor(exaggeration float64) TerrainHeights {
	if exaggeration <= 0 {
		exaggeration = 1
	}
	return TerrainHeights{
		Maximum:    maximumTerrainHeight * exaggeration,
		Minimum:    minimumTerrainHeight * exaggeration,
		MinimumOBB: minimumTerrainHeightOBB * exaggeration,
	}
}

// Options are the user-facing surface settings.
type Options struct {
	BaseColor                       gputypes.Color
	EnableLighting                  bool
	LightingFadeOutDistance         float64
	LightingFadeInDistance          float64
	ZoomedOutOceanSpecularIntensity float64
	HasWaterMask                    bool
	OceanNormalMap                  command.Texture
	MaxTextureUnits                 int
	HasVertexNormals                bool
	Wireframe                       bool
	TerrainExaggeration             float64
}

// DefaultOptions returns the stock surface settings.
func DefaultOptions() Options {
	return Options{
		BaseColor:                       gputypes.Color{R: 0, G: 0, B: 0.5, A: 1},
		LightingFadeOutDistance:         6500000.0,
		LightingFadeInDistance:          9000000.0,
		ZoomedOutOceanSpecularIntensity: 0.5,
		MaxTextureUnits:                 16,
		TerrainExaggeration:             1,
	}
}

// Config is the immutable renderer configuration, computed once at startup.
type Config struct {
	BaseColor                       gputypes.Color
	EnableLighting                  bool
	LightingFadeOutDistance         float64
	LightingFadeInDistance          float64
	ZoomedOutOceanSpecularIntensity float64
	HasWaterMask                    bool
	OceanNormalMap                  command.Texture
	MaxTextureUnits                 int
	HasVertexNormals                bool
	Wireframe                       bool
	TerrainHeights                  TerrainHeights
}

// NewConfig validates opts and derives the renderer configuration.
func NewConfig(opts Options) Config {
	if opts.MaxTextureUnits < 1 {
		panic("surface config requires at least one texture unit")
	}
	return Config{
		BaseColor:                       opts.BaseColor,
		EnableLighting:                  opts.EnableLighting,
		LightingFadeOutDistance:         opts.LightingFadeOutDistance,
		LightingFadeInDistance:          opts.LightingFadeInDistance,
		ZoomedOutOceanSpecularIntensity: opts.ZoomedOutOceanSpecularIntensity,
		HasWaterMask:                    opts.HasWaterMask,
		OceanNormalMap:                  opts.OceanNormalMap,
		MaxTextureUnits:                 opts.MaxTextureUnits,
		HasVertexNormals:                opts.HasVertexNormals,
		Wireframe:                       opts.Wireframe,
		TerrainHeights:                  TerrainHeightsFor(opts.TerrainExaggeration),
	}
}
