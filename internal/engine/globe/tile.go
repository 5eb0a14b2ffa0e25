package globe

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Tile is one quadtree node of the globe surface.
type Tile struct {
	Key       maptile.Tile
	Rectangle math.Rectangle

	MinimumHeight              float64
	MaximumHeight              float64
	BoundingSphere3D           math.BoundingSphere
	OccludeePointInScaledSpace *mgl64.Vec3

	// Corner points and outward plane normals of the tile's edges, used
	// for distance estimation.
	SouthwestCornerCartesian mgl64.Vec3
	NortheastCornerCartesian mgl64.Vec3
	WestNormal               mgl64.Vec3
	SouthNormal              mgl64.Vec3
	EastNormal               mgl64.Vec3
	NorthNormal              mgl64.Vec3

	// Center is the relative-to-center origin used in 3D.
	Center mgl64.Vec3

	Mesh                 *terrain.Mesh
	VertexArray          command.VertexArray
	WireframeVertexArray command.VertexArray

	WaterMaskTexture             command.Texture
	WaterMaskTranslationAndScale mgl64.Vec4

	Imagery []*TileImagery

	// Distance is the camera distance computed by the last visibility test.
	Distance float64
}

// NewTile creates a tile for key and computes its edge planes on e.
func NewTile(key maptile.Tile, e *math.Ellipsoid) *Tile {
	t := &Tile{
		Key:                          key,
		Rectangle:                    math.RectangleFromDegrees(key.Bound()),
		WaterMaskTranslationAndScale: mgl64.Vec4{0, 0, 1, 1},
	}
	t.computeEdgePlanes(e)
	t.BoundingSphere3D = rectangleSphere(t.Rectangle, e, 0, 0)
	t.Center = t.BoundingSphere3D.Center
	return t
}

func (t *Tile) computeEdgePlanes(e *math.Ellipsoid) {
	r := t.Rectangle
	t.SouthwestCornerCartesian = e.CartographicToCartesian(r.Southwest())
	t.NortheastCornerCartesian = e.CartographicToCartesian(r.Northeast())

	midLat := (r.South() + r.North()) * 0.5
	western := e.CartographicToCartesian(math.Cartographic{Longitude: r.West(), Latitude: midLat})
	eastern := e.CartographicToCartesian(math.Cartographic{Longitude: r.East(), Latitude: midLat})

	unitZ := mgl64.Vec3{0, 0, 1}
	t.WestNormal = western.Cross(unitZ).Normalize()
	t.EastNormal = unitZ.Cross(eastern).Normalize()

	westVector := western.Sub(eastern)
	southeastNormal := e.GeodeticSurfaceNormalCartographic(math.Cartographic{Longitude: r.East(), Latitude: r.South()})
	t.SouthNormal = southeastNormal.Cross(westVector).Normalize()
	northwestNormal := e.GeodeticSurfaceNormalCartographic(math.Cartographic{Longitude: r.West(), Latitude: r.North()})
	t.NorthNormal = westVector.Cross(northwestNormal).Normalize()
}

// SetMesh attaches a finished mesh and adopts its bounds.
func (t *Tile) SetMesh(mesh *terrain.Mesh) {
	t.Mesh = mesh
	t.MinimumHeight = mesh.MinimumHeight
	t.MaximumHeight = mesh.MaximumHeight
	t.BoundingSphere3D = mesh.BoundingSphere
	t.OccludeePointInScaledSpace = mesh.OccludeePointInScaledSpace
	t.Center = mesh.Center
}

// SetApproximateHeights bounds a tile that has no mesh yet between the given
// heights so it can be culled and prioritized before its geometry arrives.
func (t *Tile) SetApproximateHeights(e *math.Ellipsoid, minimumHeight, maximumHeight float64) {
	t.MinimumHeight = minimumHeight
	t.MaximumHeight = maximumHeight
	t.BoundingSphere3D = rectangleSphere(t.Rectangle, e, minimumHeight, maximumHeight)
	t.OccludeePointInScaledSpace = nil
}

// ClearMesh detaches the mesh and vertex arrays. The caller releases the GPU
// resources.
func (t *Tile) ClearMesh() {
	t.Mesh = nil
	t.VertexArray = nil
	t.WireframeVertexArray = nil
}

// Renderable reports whether the tile has geometry uploaded to the GPU.
func (t *Tile) Renderable() bool {
	return t.Mesh != nil && t.VertexArray != nil
}

// ReadyImageryCount counts imagery that is loaded and not fully transparent.
func (t *Tile) ReadyImageryCount() int {
	n := 0
	for _, ti := range t.Imagery {
		if ti.Ready != nil && ti.Ready.Layer.Alpha != 0 {
			n++
		}
	}
	return n
}

// FreeResources releases the tile's imagery references.
func (t *Tile) FreeResources() {
	for _, ti := range t.Imagery {
		ti.FreeResources()
	}
	t.Imagery = nil
}

// rectangleSphere bounds a rectangle on the ellipsoid between two heights.
func rectangleSphere(r math.Rectangle, e *math.Ellipsoid, minimumHeight, maximumHeight float64) math.BoundingSphere {
	const samples = 3
	points := make([]mgl64.Vec3, 0, samples*samples*2)
	for i := range samples {
		lat := r.South() + r.Height()*float64(i)/(samples-1)
		for j := range samples {
			lon := r.West() + r.Width()*float64(j)/(samples-1)
			for _, h := range []float64{minimumHeight, maximumHeight} {
				points = append(points, e.CartographicToCartesian(math.Cartographic{Longitude: lon, Latitude: lat, Height: h}))
			}
		}
	}
	return math.BoundingSphereFromPoints(points)
}
