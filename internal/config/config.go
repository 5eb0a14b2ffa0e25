// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/surface"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Globe    GlobeConfig    `yaml:"globe"`
	Camera   CameraConfig   `yaml:"camera"`
	Fog      FogConfig      `yaml:"fog"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Picking  PickingConfig  `yaml:"picking"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// GlobeConfig holds surface rendering settings.
type GlobeConfig struct {
	BaseColor                       [4]float64 `yaml:"base_color"`
	EnableLighting                  bool       `yaml:"enable_lighting"`
	LightingFadeOutDistance         float64    `yaml:"lighting_fade_out_distance"`
	LightingFadeInDistance          float64    `yaml:"lighting_fade_in_distance"`
	ZoomedOutOceanSpecularIntensity float64    `yaml:"zoomed_out_ocean_specular_intensity"`
	HasWaterMask                    bool       `yaml:"has_water_mask"`
	ShowOceanWaves                  bool       `yaml:"show_ocean_waves"`
	MaxTextureUnits                 int        `yaml:"max_texture_units"`
	MaximumScreenSpaceError         float64    `yaml:"maximum_screen_space_error"`
	Wireframe                       bool       `yaml:"wireframe"`
	SceneMode                       string     `yaml:"scene_mode"` // 3d, 2d or columbus
	Projection                      string     `yaml:"projection"` // geographic or web_mercator
	TerrainExaggeration             float64    `yaml:"terrain_exaggeration"`
}

// CameraConfig is the initial view, straight down over a point.
type CameraConfig struct {
	Longitude float64 `yaml:"longitude"` // Degrees
	Latitude  float64 `yaml:"latitude"`  // Degrees
	Height    float64 `yaml:"height"`    // Meters above the ellipsoid
}

// FogConfig holds distance fog settings.
type FogConfig struct {
	Enabled bool    `yaml:"enabled"`
	Density float64 `yaml:"density"`
}

// TerrainConfig holds heightmap and mesh building settings.
type TerrainConfig struct {
	HeightmapSize int     `yaml:"heightmap_size"`
	Amplitude     float64 `yaml:"amplitude"`
	Workers       int     `yaml:"workers"`
	MaxLevel      int     `yaml:"max_level"`
}

// PickingConfig holds ray picking settings.
type PickingConfig struct {
	CacheMaxCost int64 `yaml:"cache_max_cost"` // Bytes of decoded positions
	Workers      int   `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Projection names accepted in GlobeConfig.Projection.
const (
	ProjectionGeographic  = "geographic"
	ProjectionWebMercator = "web_mercator"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	surf := surface.DefaultOptions()
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Globe: GlobeConfig{
			BaseColor:                       [4]float64{surf.BaseColor.R, surf.BaseColor.G, surf.BaseColor.B, surf.BaseColor.A},
			EnableLighting:                  false,
			LightingFadeOutDistance:         surf.LightingFadeOutDistance,
			LightingFadeInDistance:          surf.LightingFadeInDistance,
			ZoomedOutOceanSpecularIntensity: surf.ZoomedOutOceanSpecularIntensity,
			MaxTextureUnits:                 surf.MaxTextureUnits,
			MaximumScreenSpaceError:         2,
			SceneMode:                       globe.Scene3D.String(),
			Projection:                      ProjectionGeographic,
			TerrainExaggeration:             surf.TerrainExaggeration,
		},
		Camera: CameraConfig{
			Longitude: 0,
			Latitude:  20,
			Height:    2e7,
		},
		Fog: FogConfig{
			Enabled: true,
			Density: 2.0e-4,
		},
		Terrain: TerrainConfig{
			HeightmapSize: 65,
			Amplitude:     4000,
			Workers:       4,
			MaxLevel:      16,
		},
		Picking: PickingConfig{
			CacheMaxCost: 64 << 20,
			Workers:      2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Graphics.Width < 1 || c.Graphics.Height < 1 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if _, err := globe.ParseSceneMode(c.Globe.SceneMode); err != nil {
		return fmt.Errorf("globe: %w", err)
	}
	if _, err := c.ProjectionFor(math.WGS84); err != nil {
		return fmt.Errorf("globe: %w", err)
	}
	if c.Camera.Height <= 0 || c.Camera.Latitude < -90 || c.Camera.Latitude > 90 {
		return fmt.Errorf("camera: invalid view height %g at latitude %g", c.Camera.Height, c.Camera.Latitude)
	}
	if c.Globe.MaxTextureUnits < 1 {
		return fmt.Errorf("globe: max_texture_units must be at least 1, got %d", c.Globe.MaxTextureUnits)
	}
	if c.Terrain.HeightmapSize < 2 {
		return fmt.Errorf("terrain: heightmap_size must be at least 2, got %d", c.Terrain.HeightmapSize)
	}
	if c.Terrain.MaxLevel < 0 || c.Terrain.MaxLevel > 30 {
		return fmt.Errorf("terrain: max_level %d out of range", c.Terrain.MaxLevel)
	}
	return nil
}

// Mode returns the configured scene mode.
func (c *Config) Mode() globe.SceneMode {
	mode, _ := globe.ParseSceneMode(c.Globe.SceneMode)
	return mode
}

// ProjectionFor returns the map projection used in 2D and Columbus view.
func (c *Config) ProjectionFor(e *math.Ellipsoid) (math.Projection, error) {
	switch c.Globe.Projection {
	case "", ProjectionGeographic:
		return math.NewGeographicProjection(e), nil
	case ProjectionWebMercator:
		return math.NewWebMercatorProjection(), nil
	default:
		return nil, fmt.Errorf("unknown projection %q", c.Globe.Projection)
	}
}

// SurfaceOptions converts the globe settings into renderer options.
// maxTextureUnits is the hardware limit; the configured value is clamped to it.
func (c *Config) SurfaceOptions(maxTextureUnits int, hasVertexNormals bool) surface.Options {
	units := c.Globe.MaxTextureUnits
	if maxTextureUnits > 0 {
		units = min(units, maxTextureUnits)
	}
	bc := c.Globe.BaseColor
	return surface.Options{
		BaseColor:                       gputypes.Color{R: bc[0], G: bc[1], B: bc[2], A: bc[3]},
		EnableLighting:                  c.Globe.EnableLighting,
		LightingFadeOutDistance:         c.Globe.LightingFadeOutDistance,
		LightingFadeInDistance:          c.Globe.LightingFadeInDistance,
		ZoomedOutOceanSpecularIntensity: c.Globe.ZoomedOutOceanSpecularIntensity,
		HasWaterMask:                    c.Globe.HasWaterMask,
		MaxTextureUnits:                 max(units, 1),
		HasVertexNormals:                hasVertexNormals,
		Wireframe:                       c.Globe.Wireframe,
		TerrainExaggeration:             c.Globe.TerrainExaggeration,
	}
}

// SurfaceConfig computes the immutable renderer configuration.
func (c *Config) SurfaceConfig(maxTextureUnits int, hasVertexNormals bool) surface.Config {
	return surface.NewConfig(c.SurfaceOptions(maxTextureUnits, hasVertexNormals))
}
