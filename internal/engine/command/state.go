package command

import (
	"github.com/gogpu/gputypes"
)

// DepthFormat is the depth attachment format assumed by all render states.
const DepthFormat = gputypes.TextureFormatDepth24Plus

// RenderState is a fixed-function pipeline configuration described with
// gputypes descriptors.
type RenderState struct {
	Name string

	Primitive gputypes.PrimitiveState

	DepthTest    bool
	DepthStencil gputypes.DepthStencilState

	Color gputypes.ColorTargetState
}

// Blending reports whether color blending is enabled.
func (s *RenderState) Blending() bool {
	return s.Color.Blend != nil
}

func depthState(compare gputypes.CompareFunction) gputypes.DepthStencilState {
	return gputypes.DepthStencilState{
		Format:            DepthFormat,
		DepthWriteEnabled: true,
		DepthCompare:      compare,
	}
}

// OpaqueState writes color and depth with back-face culling and a LESS depth test.
func OpaqueState() *RenderState {
	return &RenderState{
		Name:         "opaque",
		Primitive:    gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList, CullMode: gputypes.CullModeBack},
		DepthTest:    true,
		DepthStencil: depthState(gputypes.CompareFunctionLess),
		Color:        gputypes.ColorTargetState{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
	}
}

// BlendState is OpaqueState with alpha blending and a LESS_EQUAL depth test,
// used for the extra imagery passes of a tile.
func BlendState() *RenderState {
	blend := gputypes.BlendStateAlpha()
	return &RenderState{
		Name:         "blend",
		Primitive:    gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList, CullMode: gputypes.CullModeBack},
		DepthTest:    true,
		DepthStencil: depthState(gputypes.CompareFunctionLessEqual),
		Color: gputypes.ColorTargetState{
			Format:    gputypes.TextureFormatRGBA8Unorm,
			Blend:     &blend,
			WriteMask: gputypes.ColorWriteMaskAll,
		},
	}
}

// PickState writes depth only.
func PickState() *RenderState {
	return &RenderState{
		Name:         "pick",
		Primitive:    gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList, CullMode: gputypes.CullModeNone},
		DepthTest:    true,
		DepthStencil: depthState(gputypes.CompareFunctionLess),
		Color:        gputypes.ColorTargetState{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskNone},
	}
}

// DebugState draws unculled lines with a depth test.
func DebugState() *RenderState {
	return &RenderState{
		Name:         "debug",
		Primitive:    gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyLineList, CullMode: gputypes.CullModeNone},
		DepthTest:    true,
		DepthStencil: depthState(gputypes.CompareFunctionLess),
		Color:        gputypes.ColorTargetState{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
	}
}
