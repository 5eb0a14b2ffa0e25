package terrain

import (
	gomath "math"

	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Provider supplies heightmaps for quadtree tiles.
type Provider interface {
	Heightmap(key maptile.Tile) (*Heightmap, error)
	HasVertexNormals() bool
	LevelMaximumGeometricError(level maptile.Zoom) float64
}

// DefaultHeightmapSize is the number of samples along each heightmap edge.
const DefaultHeightmapSize = 65

// ProceduralProvider generates deterministic analytic relief. Heights depend
// only on longitude and latitude, so shared tile edges match exactly.
type ProceduralProvider struct {
	Ellipsoid *math.Ellipsoid
	Size      int
	Amplitude float64
	Normals   bool
}

// NewProceduralProvider creates a provider with the given sample size and amplitude in meters.
func NewProceduralProvider(e *math.Ellipsoid, size int, amplitude float64, normals bool) *ProceduralProvider {
	if e == nil {
		panic("procedural provider requires an ellipsoid")
	}
	if size < 2 {
		size = DefaultHeightmapSize
	}
	return &ProceduralProvider{Ellipsoid: e, Size: size, Amplitude: amplitude, Normals: normals}
}

// HeightAt returns the analytic height at a position in radians.
func (p *ProceduralProvider) HeightAt(longitude, latitude float64) float64 {
	h := gomath.Sin(3*longitude)*gomath.Cos(2*latitude) +
		0.5*gomath.Sin(17*longitude+latitude)*gomath.Cos(11*latitude) +
		0.25*gomath.Cos(41*longitude)*gomath.Sin(37*latitude)
	return p.Amplitude * h
}

// Heightmap samples the relief over the tile's rectangle.
func (p *ProceduralProvider) Heightmap(key maptile.Tile) (*Heightmap, error) {
	rect := math.RectangleFromDegrees(key.Bound())

	hm := &Heightmap{
		Width:     p.Size,
		Height:    p.Size,
		Heights:   make([]float32, p.Size*p.Size),
		Rectangle: rect,
	}

	step := 1 / float64(p.Size-1)
	for row := range p.Size {
		lat := rect.North() - float64(row)*step*rect.Height()
		for col := range p.Size {
			lon := rect.West() + float64(col)*step*rect.Width()
			hm.Heights[row*p.Size+col] = float32(p.HeightAt(lon, lat))
		}
	}
	return hm, nil
}

// HasVertexNormals reports whether tessellated meshes carry normals.
func (p *ProceduralProvider) HasVertexNormals() bool {
	return p.Normals
}

// LevelMaximumGeometricError returns the geometric error budget at level.
func (p *ProceduralProvider) LevelMaximumGeometricError(level maptile.Zoom) float64 {
	return LevelZeroGeometricError(p.Ellipsoid, p.Size, 1) / float64(uint64(1)<<level)
}

// LevelZeroGeometricError estimates the geometric error of a level-zero
// heightmap tile with the given sample width.
func LevelZeroGeometricError(e *math.Ellipsoid, heightmapWidth, tilesAtLevelZero int) float64 {
	return e.MaximumRadius() * 2 * gomath.Pi * 0.25 / float64(heightmapWidth*tilesAtLevelZero)
}
