// Package command defines the draw commands the globe surface hands to the
// GPU executor.
package command

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Pass identifies the render pass a command belongs to.
type Pass int

const (
	PassGlobe Pass = iota
	PassDebug
	PassPick
)

func (p Pass) String() string {
	switch p {
	case PassGlobe:
		return "globe"
	case PassDebug:
		return "debug"
	case PassPick:
		return "pick"
	default:
		return "unknown"
	}
}

// PrimitiveType is the primitive assembly mode of a draw.
type PrimitiveType int

const (
	Triangles PrimitiveType = iota
	Lines
)

func (p PrimitiveType) String() string {
	if p == Lines {
		return "lines"
	}
	return "triangles"
}

// Texture is a GPU texture handle.
type Texture interface {
	ID() uint32
}

// VertexArray is a GPU vertex array with an index buffer.
type VertexArray interface {
	ID() uint32
	IndexCount() int
}

// Program is a linked shader program.
type Program interface {
	ID() uint32
}

// DrawCommand describes one GPU draw. Commands are pooled by their owner and
// every field is overwritten each time a slot is reused.
type DrawCommand struct {
	Owner         any
	Program       Program
	RenderState   *RenderState
	PrimitiveType PrimitiveType
	VertexArray   VertexArray
	Uniforms      *TileUniforms

	// ModelMatrix and Color are used by debug commands without tile uniforms.
	ModelMatrix mgl64.Mat4
	Color       mgl64.Vec4

	BoundingVolume math.BoundingSphere
	Pass           Pass
	Cull           bool
}

// Reset clears all references held by the command.
func (c *DrawCommand) Reset() {
	*c = DrawCommand{}
}
