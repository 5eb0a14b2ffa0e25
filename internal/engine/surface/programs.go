package surface

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/quantize"
	"github.com/Faultbox/midgard-globe/internal/logger"
)

// ProgramKey identifies a surface shader variant.
type ProgramKey struct {
	TextureCount int

	ApplyBrightness bool
	ApplyContrast   bool
	ApplyHue        bool
	ApplySaturation bool
	ApplyGamma      bool
	ApplyAlpha      bool

	ShowReflectiveOcean      bool
	ShowOceanWaves           bool
	EnableLighting           bool
	HasVertexNormals         bool
	UseWebMercatorProjection bool
	EnableFog                bool

	Quantization quantize.Mode
	Pick         bool
	Debug        bool
}

// PickKey returns the key of the depth-only pick variant.
func PickKey(mode quantize.Mode, useWebMercator bool) ProgramKey {
	return ProgramKey{Quantization: mode, UseWebMercatorProjection: useWebMercator, Pick: true}
}

// Defines returns the preprocessor defines selecting this variant.
func (k ProgramKey) Defines() []string {
	defs := []string{fmt.Sprintf("TEXTURE_UNITS %d", k.TextureCount)}
	flag := func(on bool, name string) {
		if on {
			defs = append(defs, name)
		}
	}
	flag(k.ApplyBrightness, "APPLY_BRIGHTNESS")
	flag(k.ApplyContrast, "APPLY_CONTRAST")
	flag(k.ApplyHue, "APPLY_HUE")
	flag(k.ApplySaturation, "APPLY_SATURATION")
	flag(k.ApplyGamma, "APPLY_GAMMA")
	flag(k.ApplyAlpha, "APPLY_ALPHA")
	flag(k.ShowReflectiveOcean, "SHOW_REFLECTIVE_OCEAN")
	flag(k.ShowOceanWaves, "SHOW_OCEAN_WAVES")
	flag(k.EnableLighting, "ENABLE_LIGHTING")
	flag(k.HasVertexNormals, "HAS_VERTEX_NORMALS")
	flag(k.UseWebMercatorProjection, "USE_WEB_MERCATOR")
	flag(k.EnableFog, "FOG")
	flag(k.Quantization == quantize.Bits12, "QUANTIZATION_BITS12")
	flag(k.Pick, "PICK")
	flag(k.Debug, "DEBUG_LINES")
	return defs
}

func (k ProgramKey) String() string {
	return fmt.Sprintf("textures=%d pick=%v mode=%v defines=%v", k.TextureCount, k.Pick, k.Quantization, k.Defines())
}

// ProgramCompiler builds shader programs for keys.
type ProgramCompiler interface {
	Compile(key ProgramKey) (command.Program, error)
}

// ProgramCache memoizes compiled programs by key. A failed compile is cached
// as nil so it is not retried every frame.
type ProgramCache struct {
	compiler ProgramCompiler
	programs map[ProgramKey]command.Program
	hits     int
	misses   int
	log      *zap.Logger
}

// NewProgramCache creates a cache backed by compiler.
func NewProgramCache(compiler ProgramCompiler) *ProgramCache {
	if compiler == nil {
		panic("program cache requires a compiler")
	}
	return &ProgramCache{
		compiler: compiler,
		programs: make(map[ProgramKey]command.Program),
		log:      logger.Named("surface"),
	}
}

// Program returns the program for key, compiling it on first use.
func (c *ProgramCache) Program(key ProgramKey) command.Program {
	if p, ok := c.programs[key]; ok {
		c.hits++
		return p
	}
	c.misses++

	p, err := c.compiler.Compile(key)
	if err != nil {
		c.log.Error("compile surface program", zap.Stringer("key", key), zap.Error(err))
		p = nil
	} else {
		c.log.Debug("compiled surface program", zap.Stringer("key", key), zap.Int("cached", len(c.programs)+1))
	}
	c.programs[key] = p
	return p
}

// PickProgram returns the pick variant for a quantization mode.
func (c *ProgramCache) PickProgram(mode quantize.Mode, useWebMercator bool) command.Program {
	return c.Program(PickKey(mode, useWebMercator))
}

// Len returns the number of cached variants.
func (c *ProgramCache) Len() int {
	return len(c.programs)
}

// Counters returns cache hit and miss counts.
func (c *ProgramCache) Counters() (hits, misses int) {
	return c.hits, c.misses
}
