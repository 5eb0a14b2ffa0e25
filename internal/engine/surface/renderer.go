package surface

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/logger"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

var (
	otherPassesInitialColor = mgl64.Vec4{0, 0, 0, 0}
	debugSphereColor        = mgl64.Vec4{1, 0, 0, 1}
)

// TileSet enumerates the tiles that currently have geometry loaded.
type TileSet interface {
	ForEachLoadedTile(fn func(tile *globe.Tile))
}

// Stats are the counters of the last assembled frame.
type Stats struct {
	TilesRendered    int
	TexturesRendered int
	DrawCommands     int
	PickCommands     int
	ProgramHits      int
	ProgramMisses    int
}

// Renderer assembles draw commands for the tiles shown each frame.
//
// A frame is BeginFrame, any number of ShowTile calls, then EndFrame. Tiles
// are drawn ordered by ready texture count. Commands and uniforms are pooled
// and reused across frames, so a returned command is only valid until the
// next EndFrame.
type Renderer struct {
	cfg      Config
	programs *ProgramCache
	tileSet  TileSet

	layerOrderChanged bool

	tilesByTextureCount [][]*globe.Tile

	drawCommands       []*command.DrawCommand
	uniforms           []*command.TileUniforms
	usedDrawCommands   int
	lastFrameDrawCount int

	pickCommands     []*command.DrawCommand
	usedPickCommands int

	commands []*command.DrawCommand

	renderState      *command.RenderState
	blendRenderState *command.RenderState
	pickRenderState  *command.RenderState
	debugRenderState *command.RenderState

	firstPassInitialColor mgl64.Vec4

	debugTile        *globe.Tile
	debugSphere      command.VertexArray
	debugCommand     command.DrawCommand
	debugTileVisited bool

	stats Stats
	log   *zap.Logger
}

// New creates a renderer. programs is required.
func New(cfg Config, programs *ProgramCache) *Renderer {
	if programs == nil {
		panic("surface renderer requires a program cache")
	}
	c := cfg.BaseColor
	return &Renderer{
		cfg:                   cfg,
		programs:              programs,
		firstPassInitialColor: mgl64.Vec4{c.R, c.G, c.B, c.A},
		log:                   logger.Named("surface"),
	}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// SetTileSet registers the source of loaded tiles used by layer events.
func (r *Renderer) SetTileSet(ts TileSet) {
	r.tileSet = ts
}

// SetDebugBoundingSphereTile selects a tile whose bounding sphere is drawn
// as a wireframe. nil disables the overlay.
func (r *Renderer) SetDebugBoundingSphereTile(tile *globe.Tile) {
	r.debugTile = tile
}

// SetDebugSphereVertexArray sets the unit sphere line geometry used by the
// bounding sphere overlay.
func (r *Renderer) SetDebugSphereVertexArray(va command.VertexArray) {
	r.debugSphere = va
}

// BeginFrame resets per-frame state. Imagery is re-sorted here when layer
// order changed since the last frame.
func (r *Renderer) BeginFrame(frame *globe.FrameState) {
	if r.layerOrderChanged {
		r.layerOrderChanged = false
		if r.tileSet != nil {
			r.tileSet.ForEachLoadedTile(func(tile *globe.Tile) {
				globe.SortTileImagery(tile.Imagery)
			})
		}
	}

	for i := range r.tilesByTextureCount {
		clear(r.tilesByTextureCount[i])
		r.tilesByTextureCount[i] = r.tilesByTextureCount[i][:0]
	}

	r.usedDrawCommands = 0
	clear(r.commands)
	r.commands = r.commands[:0]
	r.debugTileVisited = false
	r.stats.TilesRendered = 0
	r.stats.TexturesRendered = 0
}

// ShowTile queues a tile for rendering this frame. The tile must have a mesh.
func (r *Renderer) ShowTile(tile *globe.Tile, frame *globe.FrameState) {
	if tile.Mesh == nil {
		panic("surface: ShowTile called for a tile without a mesh")
	}

	readyTextureCount := tile.ReadyImageryCount()
	for len(r.tilesByTextureCount) <= readyTextureCount {
		r.tilesByTextureCount = append(r.tilesByTextureCount, nil)
	}
	r.tilesByTextureCount[readyTextureCount] = append(r.tilesByTextureCount[readyTextureCount], tile)

	r.stats.TilesRendered++
	r.stats.TexturesRendered += readyTextureCount
}

// EndFrame builds the frame's command list. Tiles are emitted by ascending
// ready texture count and in insertion order within a count. The returned
// slice is owned by the renderer.
func (r *Renderer) EndFrame(frame *globe.FrameState) []*command.DrawCommand {
	r.ensureRenderStates()

	for _, bucket := range r.tilesByTextureCount {
		for _, tile := range bucket {
			r.addDrawCommandsForTile(tile, frame)
		}
	}

	if cmd := r.debugSphereCommand(); cmd != nil {
		r.commands = append(r.commands, cmd)
	}

	r.lastFrameDrawCount = r.usedDrawCommands
	r.stats.DrawCommands = r.usedDrawCommands
	return r.commands
}

// Commands returns the command list of the last EndFrame.
func (r *Renderer) Commands() []*command.DrawCommand {
	return r.commands
}

// UpdateForPick builds depth-only pick commands mirroring the draw commands
// of the last completed frame.
func (r *Renderer) UpdateForPick(frame *globe.FrameState) []*command.DrawCommand {
	r.ensureRenderStates()

	useWebMercator := r.useWebMercator(frame)
	picks := make([]*command.DrawCommand, 0, r.lastFrameDrawCount)
	r.usedPickCommands = 0

	for i := range r.lastFrameDrawCount {
		draw := r.drawCommands[i]
		pick := r.nextPickCommand()

		tile := draw.Owner.(*globe.Tile)
		pick.Owner = draw.Owner
		pick.Program = r.programs.PickProgram(tile.Mesh.Encoding.Mode, useWebMercator)
		pick.RenderState = r.pickRenderState
		pick.PrimitiveType = draw.PrimitiveType
		pick.VertexArray = draw.VertexArray
		pick.Uniforms = draw.Uniforms
		pick.BoundingVolume = draw.BoundingVolume
		pick.Pass = draw.Pass
		picks = append(picks, pick)
	}

	r.stats.PickCommands = r.usedPickCommands
	return picks
}

// Stats returns the counters of the last frame.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.ProgramHits, s.ProgramMisses = r.programs.Counters()
	return s
}

func (r *Renderer) ensureRenderStates() {
	if r.renderState != nil {
		return
	}
	r.renderState = command.OpaqueState()
	r.blendRenderState = command.BlendState()
	r.pickRenderState = command.PickState()
	r.debugRenderState = command.DebugState()
}

func (r *Renderer) useWebMercator(frame *globe.FrameState) bool {
	if frame.Mode == globe.Scene3D {
		return false
	}
	switch frame.Projection.(type) {
	case *math.WebMercatorProjection, math.WebMercatorProjection:
		return true
	}
	return false
}

// nextDrawCommand returns the next pooled command and its uniforms. Slots
// are allocated once and reused by index in later frames.
func (r *Renderer) nextDrawCommand() (*command.DrawCommand, *command.TileUniforms) {
	if r.usedDrawCommands == len(r.drawCommands) {
		r.drawCommands = append(r.drawCommands, &command.DrawCommand{})
		r.uniforms = append(r.uniforms, &command.TileUniforms{})
	}
	i := r.usedDrawCommands
	r.usedDrawCommands++
	return r.drawCommands[i], r.uniforms[i]
}

func (r *Renderer) nextPickCommand() *command.DrawCommand {
	if r.usedPickCommands == len(r.pickCommands) {
		r.pickCommands = append(r.pickCommands, &command.DrawCommand{})
	}
	cmd := r.pickCommands[r.usedPickCommands]
	r.usedPickCommands++
	return cmd
}
