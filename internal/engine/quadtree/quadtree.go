// Package quadtree selects, loads and evicts globe surface tiles.
//
// Each frame the primitive walks the web-mercator tile pyramid from the
// root, refining a tile into its four children while its screen-space error
// exceeds the configured maximum and the children have geometry. Missing
// geometry is requested from the terrain builder and attached on a later
// frame. Selected tiles are handed to a TileRenderer.
package quadtree

import (
	"cmp"
	"errors"
	gomath "math"
	"slices"

	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/surface"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/internal/engine/visibility"
	"github.com/Faultbox/midgard-globe/internal/logger"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaximumScreenSpaceError = 2.0
	DefaultMaxLevel                = maptile.Zoom(18)
	DefaultLoadsPerFrame           = 8
	DefaultTileCacheSize           = 256
)

// MeshUploader creates GPU vertex arrays for tile meshes.
type MeshUploader interface {
	UploadMesh(mesh *terrain.Mesh) (command.VertexArray, error)
	UploadWireframe(mesh *terrain.Mesh) (command.VertexArray, error)
}

// TileRenderer receives the tiles selected for the frame.
type TileRenderer interface {
	ShowTile(tile *globe.Tile, frame *globe.FrameState)
}

type releaser interface {
	Release()
}

// Options configures a Primitive.
type Options struct {
	Ellipsoid *math.Ellipsoid
	Provider  terrain.Provider
	Builder   *terrain.Builder
	Meshes    MeshUploader
	Textures  globe.TextureUploader
	Layers    *globe.LayerCollection

	MaximumScreenSpaceError float64
	MaxLevel                maptile.Zoom
	LoadsPerFrame           int
	TileCacheSize           int
	Wireframe               bool

	// TerrainHeights bounds tiles whose geometry has not arrived.
	TerrainHeights surface.TerrainHeights

	// OnUnload is called after a tile's geometry has been evicted.
	OnUnload func(tile *globe.Tile)
}

// Stats are per-frame traversal counters.
type Stats struct {
	Visited  int
	Culled   int
	Selected int
	Loading  int
	Loaded   int
	Evicted  int
}

type loadState int

const (
	unloaded loadState = iota
	loading
	ready
	failed
)

type node struct {
	tile     *globe.Tile
	state    loadState
	children []*node
	lastUsed uint64
}

// Primitive owns the tile pyramid and implements surface.TileSet.
type Primitive struct {
	opts  Options
	nodes map[maptile.Tile]*node
	root  *node

	selected []*node
	requests []*node

	stats Stats
	log   *zap.Logger
}

var _ surface.TileSet = (*Primitive)(nil)

// New creates a primitive. It panics when a required dependency is missing.
func New(opts Options) *Primitive {
	switch {
	case opts.Ellipsoid == nil:
		panic("quadtree requires an ellipsoid")
	case opts.Provider == nil:
		panic("quadtree requires a terrain provider")
	case opts.Builder == nil:
		panic("quadtree requires a terrain builder")
	case opts.Meshes == nil:
		panic("quadtree requires a mesh uploader")
	case opts.Textures == nil:
		panic("quadtree requires a texture uploader")
	}
	if opts.Layers == nil {
		opts.Layers = globe.NewLayerCollection()
	}
	if opts.MaximumScreenSpaceError <= 0 {
		opts.MaximumScreenSpaceError = DefaultMaximumScreenSpaceError
	}
	if opts.MaxLevel == 0 {
		opts.MaxLevel = DefaultMaxLevel
	}
	if opts.LoadsPerFrame < 1 {
		opts.LoadsPerFrame = DefaultLoadsPerFrame
	}
	if opts.TileCacheSize < 1 {
		opts.TileCacheSize = DefaultTileCacheSize
	}
	if opts.TerrainHeights == (surface.TerrainHeights{}) {
		opts.TerrainHeights = surface.TerrainHeightsFor(1)
	}

	p := &Primitive{
		opts:  opts,
		nodes: make(map[maptile.Tile]*node),
		log:   logger.Named("quadtree"),
	}
	p.root = p.node(maptile.New(0, 0, 0))
	return p
}

// SetMaximumScreenSpaceError changes the refinement threshold in pixels.
func (p *Primitive) SetMaximumScreenSpaceError(sse float64) {
	if sse > 0 {
		p.opts.MaximumScreenSpaceError = sse
	}
}

// Stats returns the counters of the last Update.
func (p *Primitive) Stats() Stats {
	return p.stats
}

// Tile returns the tile for key if the primitive has created it.
func (p *Primitive) Tile(key maptile.Tile) (*globe.Tile, bool) {
	n, ok := p.nodes[key]
	if !ok {
		return nil, false
	}
	return n.tile, true
}

// ForEachLoadedTile calls fn for every tile with attached geometry.
func (p *Primitive) ForEachLoadedTile(fn func(tile *globe.Tile)) {
	for _, n := range p.nodes {
		if n.state == ready {
			fn(n.tile)
		}
	}
}

// Update attaches finished meshes, selects the tiles to draw and shows them
// on out. Tiles that are not renderable are never shown.
func (p *Primitive) Update(frame *globe.FrameState, out TileRenderer) {
	p.stats = Stats{}
	p.selected = p.selected[:0]
	p.requests = p.requests[:0]

	p.attachFinished()

	if p.root.state == unloaded {
		p.requests = append(p.requests, p.root)
	}
	p.visit(p.root, frame)

	for _, n := range p.selected {
		for _, ti := range n.tile.Imagery {
			ti.ProcessStateMachine(p.opts.Textures)
		}
		out.ShowTile(n.tile, frame)
	}
	p.stats.Selected = len(p.selected)

	p.submitRequests()
	p.evict(frame.FrameNumber)

	for _, n := range p.nodes {
		switch n.state {
		case loading:
			p.stats.Loading++
		case ready:
			p.stats.Loaded++
		}
	}
}

func (p *Primitive) node(key maptile.Tile) *node {
	if n, ok := p.nodes[key]; ok {
		return n
	}
	tile := globe.NewTile(key, p.opts.Ellipsoid)
	h := p.opts.TerrainHeights
	tile.SetApproximateHeights(p.opts.Ellipsoid, h.Minimum, h.Maximum)

	n := &node{tile: tile}
	p.nodes[key] = n
	return n
}

func (p *Primitive) visit(n *node, frame *globe.FrameState) {
	p.stats.Visited++
	n.lastUsed = frame.FrameNumber

	if visibility.ComputeVisibility(n.tile, frame) == visibility.None {
		p.stats.Culled++
		return
	}
	if n.state != ready {
		return
	}

	if n.tile.Key.Z >= p.opts.MaxLevel || p.screenSpaceError(n.tile, frame) <= p.opts.MaximumScreenSpaceError {
		p.selectNode(n)
		return
	}

	children := p.childrenOf(n)
	refine := true
	for _, c := range children {
		c.lastUsed = frame.FrameNumber
		if c.state != ready {
			refine = false
		}
		if c.state == unloaded {
			c.tile.Distance = visibility.ComputeDistance(c.tile, frame)
			p.requests = append(p.requests, c)
		}
	}

	if !refine {
		p.selectNode(n)
		return
	}
	for _, c := range children {
		p.visit(c, frame)
	}
}

func (p *Primitive) selectNode(n *node) {
	if n.state == ready && n.tile.Renderable() {
		p.selected = append(p.selected, n)
	}
}

func (p *Primitive) childrenOf(n *node) []*node {
	if n.children == nil {
		for _, key := range n.tile.Key.Children() {
			n.children = append(n.children, p.node(key))
		}
	}
	return n.children
}

// screenSpaceError estimates the tile's geometric error in pixels.
func (p *Primitive) screenSpaceError(tile *globe.Tile, frame *globe.FrameState) float64 {
	cam := frame.Camera
	if tile.Distance <= 0 || cam.FovY <= 0 {
		return gomath.Inf(1)
	}
	maxGeometricError := p.opts.Provider.LevelMaximumGeometricError(tile.Key.Z)
	return maxGeometricError * cam.ViewportHeight / (tile.Distance * 2 * gomath.Tan(cam.FovY/2))
}

// submitRequests hands the nearest pending tiles to the builder.
func (p *Primitive) submitRequests() {
	slices.SortStableFunc(p.requests, func(a, b *node) int {
		return cmp.Compare(a.tile.Distance, b.tile.Distance)
	})

	submitted := 0
	for _, n := range p.requests {
		if submitted == p.opts.LoadsPerFrame {
			break
		}
		if n.state != unloaded {
			continue
		}

		key := n.tile.Key
		hm, err := p.opts.Provider.Heightmap(key)
		if err != nil {
			n.state = failed
			p.log.Warn("heightmap request failed", zap.Stringer("tile", tileName(key)), zap.Error(err))
			continue
		}
		if err := p.opts.Builder.Submit(key, hm); err != nil {
			if errors.Is(err, terrain.ErrBuilderClosed) {
				return
			}
			p.log.Warn("mesh submit failed", zap.Stringer("tile", tileName(key)), zap.Error(err))
			continue
		}
		n.state = loading
		submitted++
	}
}

// attachFinished uploads meshes the builder completed since the last frame.
func (p *Primitive) attachFinished() {
	for _, res := range p.opts.Builder.Drain() {
		n, ok := p.nodes[res.Key]
		if !ok || n.state != loading {
			continue
		}
		if res.Err != nil {
			n.state = failed
			continue
		}

		va, err := p.opts.Meshes.UploadMesh(res.Mesh)
		if err != nil {
			n.state = failed
			p.log.Warn("mesh upload failed", zap.Stringer("tile", tileName(res.Key)), zap.Error(err))
			continue
		}

		tile := n.tile
		tile.SetMesh(res.Mesh)
		tile.VertexArray = va
		if p.opts.Wireframe {
			if wire, err := p.opts.Meshes.UploadWireframe(res.Mesh); err == nil {
				tile.WireframeVertexArray = wire
			}
		}

		for i := range p.opts.Layers.Len() {
			if layer := p.opts.Layers.Get(i); layer.Show {
				layer.CreateTileImagerySkeletons(tile)
			}
		}
		globe.SortTileImagery(tile.Imagery)
		n.state = ready
	}
}

// evict unloads the least recently used tiles beyond the cache size. Tiles
// used this frame and the root are kept.
func (p *Primitive) evict(frameNumber uint64) {
	var candidates []*node
	loaded := 0
	for _, n := range p.nodes {
		if n.state != ready {
			continue
		}
		loaded++
		if n != p.root && n.lastUsed != frameNumber {
			candidates = append(candidates, n)
		}
	}
	excess := loaded - p.opts.TileCacheSize
	if excess <= 0 || len(candidates) == 0 {
		return
	}

	slices.SortFunc(candidates, func(a, b *node) int {
		return cmp.Compare(a.lastUsed, b.lastUsed)
	})
	for _, n := range candidates[:min(excess, len(candidates))] {
		p.unload(n)
	}
}

func (p *Primitive) unload(n *node) {
	tile := n.tile
	for _, va := range []command.VertexArray{tile.VertexArray, tile.WireframeVertexArray} {
		if r, ok := va.(releaser); ok {
			r.Release()
		}
	}
	tile.ClearMesh()
	tile.FreeResources()
	h := p.opts.TerrainHeights
	tile.SetApproximateHeights(p.opts.Ellipsoid, h.Minimum, h.Maximum)
	n.state = unloaded
	p.stats.Evicted++

	p.log.Debug("tile evicted", zap.Stringer("tile", tileName(tile.Key)))
	if p.opts.OnUnload != nil {
		p.opts.OnUnload(tile)
	}
}
