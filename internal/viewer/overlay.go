package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/debug"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

const outlineSegmentsPerEdge = 16

var (
	outlineColor = mgl64.Vec4{1, 1, 0, 1}
	boxColor     = mgl64.Vec4{0, 1, 1, 1}
)

type lineUpload func(positions []float32) (command.VertexArray, error)

type releaser interface {
	Release()
}

func release(va command.VertexArray) {
	if r, ok := va.(releaser); ok {
		r.Release()
	}
}

// pickOverlay outlines the last picked tile at its maximum height and draws
// the box its vertices are quantized in. It only draws in 3D.
type pickOverlay struct {
	upload lineUpload
	state  *command.RenderState

	tile    *globe.Tile
	outline command.VertexArray
	box     command.VertexArray // Unit cube, shared by every tile

	cmds [2]command.DrawCommand
}

func newPickOverlay(upload lineUpload) *pickOverlay {
	return &pickOverlay{upload: upload, state: command.DebugState()}
}

// Set replaces the overlay with one for tile. A tile without geometry clears it.
func (o *pickOverlay) Set(tile *globe.Tile, e *math.Ellipsoid) error {
	o.Clear()
	if tile == nil || tile.Mesh == nil {
		return nil
	}

	if o.box == nil {
		box, err := o.upload(debug.BoxLines(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
		if err != nil {
			return fmt.Errorf("upload encoding box: %w", err)
		}
		o.box = box
	}

	outline, err := o.upload(debug.TileOutline(tile.Rectangle, e, tile.MaximumHeight, outlineSegmentsPerEdge, tile.Center))
	if err != nil {
		return fmt.Errorf("upload tile outline: %w", err)
	}
	o.tile = tile
	o.outline = outline
	return nil
}

// Tile returns the tile currently outlined, or nil.
func (o *pickOverlay) Tile() *globe.Tile {
	return o.tile
}

// Clear drops the outline. The shared box is kept.
func (o *pickOverlay) Clear() {
	release(o.outline)
	o.outline = nil
	o.tile = nil
}

// Release frees all GPU resources.
func (o *pickOverlay) Release() {
	o.Clear()
	release(o.box)
	o.box = nil
}

// Commands appends the overlay draws to cmds.
func (o *pickOverlay) Commands(cmds []*command.DrawCommand, program command.Program, mode globe.SceneMode) []*command.DrawCommand {
	if o.tile == nil || o.tile.Mesh == nil || mode != globe.Scene3D {
		return cmds
	}

	c := o.tile.Center
	outline := &o.cmds[0]
	o.fill(outline, program, o.outline, mgl64.Translate3D(c[0], c[1], c[2]), outlineColor)

	box := &o.cmds[1]
	o.fill(box, program, o.box, o.tile.Mesh.Encoding.FromScaledENU, boxColor)

	return append(cmds, outline, box)
}

func (o *pickOverlay) fill(cmd *command.DrawCommand, program command.Program, va command.VertexArray, model mgl64.Mat4, color mgl64.Vec4) {
	cmd.Reset()
	cmd.Owner = o.tile
	cmd.Program = program
	cmd.RenderState = o.state
	cmd.PrimitiveType = command.Lines
	cmd.VertexArray = va
	cmd.ModelMatrix = model
	cmd.Color = color
	cmd.BoundingVolume = o.tile.BoundingSphere3D
	cmd.Pass = command.PassDebug
}
