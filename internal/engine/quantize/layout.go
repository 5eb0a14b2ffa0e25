package quantize

import (
	"github.com/gogpu/gputypes"
)

// Attribute names and shader locations used by terrain vertex buffers.
const (
	AttributeCompressed                    = "compressed"
	AttributePosition3DAndHeight           = "position3DAndHeight"
	AttributeTextureCoordAndEncodedNormals = "textureCoordAndEncodedNormals"
)

const floatSize = 4

// Attribute describes one interleaved float attribute in a vertex buffer.
type Attribute struct {
	Name       string
	Location   uint32
	Components int
	Offset     int // bytes
}

// Layout describes how packed vertices are bound to shader inputs.
type Layout struct {
	Attributes []Attribute
	ByteStride int
}

// LayoutFor returns the attribute layout for a mode and normals flag.
func LayoutFor(mode Mode, hasNormals bool) Layout {
	stride := Stride(mode, hasNormals)

	if mode == None {
		texComponents := 2
		if hasNormals {
			texComponents = 3
		}
		return Layout{
			Attributes: []Attribute{
				{Name: AttributePosition3DAndHeight, Location: 0, Components: 4, Offset: 0},
				{Name: AttributeTextureCoordAndEncodedNormals, Location: 1, Components: texComponents, Offset: 4 * floatSize},
			},
			ByteStride: stride * floatSize,
		}
	}

	return Layout{
		Attributes: []Attribute{
			{Name: AttributeCompressed, Location: 0, Components: stride, Offset: 0},
		},
		ByteStride: stride * floatSize,
	}
}

// Locations maps attribute names to shader locations.
func (l Layout) Locations() map[string]uint32 {
	locs := make(map[string]uint32, len(l.Attributes))
	for _, a := range l.Attributes {
		locs[a.Name] = a.Location
	}
	return locs
}

// VertexBufferLayout converts the layout to a GPU vertex buffer descriptor.
func (l Layout) VertexBufferLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         floatFormat(a.Components),
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.ByteStride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func floatFormat(components int) gputypes.VertexFormat {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}
