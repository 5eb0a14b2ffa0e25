package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
)

func compareFunc(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return gl.NEVER
	case gputypes.CompareFunctionLess:
		return gl.LESS
	case gputypes.CompareFunctionEqual:
		return gl.EQUAL
	case gputypes.CompareFunctionLessEqual:
		return gl.LEQUAL
	case gputypes.CompareFunctionGreater:
		return gl.GREATER
	case gputypes.CompareFunctionNotEqual:
		return gl.NOTEQUAL
	case gputypes.CompareFunctionGreaterEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

func blendFactor(f gputypes.BlendFactor) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return gl.ZERO
	case gputypes.BlendFactorSrc:
		return gl.SRC_COLOR
	case gputypes.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case gputypes.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gputypes.BlendFactorDst:
		return gl.DST_COLOR
	case gputypes.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case gputypes.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case gputypes.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gputypes.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case gputypes.BlendFactorConstant:
		return gl.CONSTANT_COLOR
	case gputypes.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	default:
		return gl.ONE
	}
}

func blendEquation(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case gputypes.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gputypes.BlendOperationMin:
		return gl.MIN
	case gputypes.BlendOperationMax:
		return gl.MAX
	default:
		return gl.FUNC_ADD
	}
}

// cullFace returns whether face culling is enabled and which face is culled.
func cullFace(m gputypes.CullMode) (bool, uint32) {
	switch m {
	case gputypes.CullModeFront:
		return true, gl.FRONT
	case gputypes.CullModeBack:
		return true, gl.BACK
	default:
		return false, gl.BACK
	}
}

func frontFace(f gputypes.FrontFace) uint32 {
	if f == gputypes.FrontFaceCW {
		return gl.CW
	}
	return gl.CCW
}

func colorMask(m gputypes.ColorWriteMask) (r, g, b, a bool) {
	return m&gputypes.ColorWriteMaskRed != 0,
		m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0,
		m&gputypes.ColorWriteMaskAlpha != 0
}

func primitiveMode(p command.PrimitiveType) uint32 {
	if p == command.Lines {
		return gl.LINES
	}
	return gl.TRIANGLES
}

func vertexFormatComponents(f gputypes.VertexFormat) int32 {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	default:
		return 4
	}
}

// applyRenderState sets GL fixed-function state. States are shared pointers,
// so an unchanged pointer skips all GL calls.
func (r *Renderer) applyRenderState(s *command.RenderState) {
	if s == r.current {
		return
	}
	r.current = s

	enabled, face := cullFace(s.Primitive.CullMode)
	if enabled {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(face)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	gl.FrontFace(frontFace(s.Primitive.FrontFace))

	if s.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(compareFunc(s.DepthStencil.DepthCompare))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(s.DepthStencil.DepthWriteEnabled)

	if b := s.Color.Blend; b != nil {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(
			blendFactor(b.Color.SrcFactor), blendFactor(b.Color.DstFactor),
			blendFactor(b.Alpha.SrcFactor), blendFactor(b.Alpha.DstFactor),
		)
		gl.BlendEquationSeparate(blendEquation(b.Color.Operation), blendEquation(b.Alpha.Operation))
	} else {
		gl.Disable(gl.BLEND)
	}

	gl.ColorMask(colorMask(s.Color.WriteMask))
}
