package terrain

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/internal/engine/quantize"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Encoding describes how a tile's vertices are packed and how the shader
// expands them back into the rendering frame.
type Encoding struct {
	Mode quantize.Mode

	MinimumHeight float64
	MaximumHeight float64

	// Center is the Earth-fixed point None-mode positions are relative to.
	Center mgl64.Vec3

	// ToScaledENU maps Earth-fixed positions into the unit ENU box.
	ToScaledENU mgl64.Mat4
	// FromScaledENU maps the unit ENU box back to Earth-fixed positions.
	FromScaledENU mgl64.Mat4
	// Matrix is FromScaledENU without the ENU origin translation; the
	// renderer applies it relative to the tile center.
	Matrix mgl64.Mat4

	HasVertexNormals bool

	codec quantize.Codec
}

// NewEncoding builds the encoding for a tile. box.Minimum and box.Maximum are
// expressed in the ENU frame described by fromENU; box.Center is the
// Earth-fixed reference point. Zero-extent axes are widened to an epsilon so
// the transforms stay invertible.
func NewEncoding(box math.AxisAlignedBoundingBox, minimumHeight, maximumHeight float64, fromENU mgl64.Mat4, hasVertexNormals bool) *Encoding {
	if math.IsZeroMatrix(fromENU) {
		panic("terrain encoding requires a non-zero reference frame matrix")
	}

	dims := box.Dimensions()
	mode := quantize.SelectMode(dims, minimumHeight, maximumHeight)

	for i := range 3 {
		dims[i] = max(dims[i], math.Epsilon12)
	}

	minimum := box.Minimum

	toENU := math.InverseTransformation(fromENU)
	toENU = mgl64.Translate3D(-minimum[0], -minimum[1], -minimum[2]).Mul4(toENU)
	toENU = mgl64.Scale3D(1/dims[0], 1/dims[1], 1/dims[2]).Mul4(toENU)

	st := mgl64.Translate3D(minimum[0], minimum[1], minimum[2]).Mul4(
		mgl64.Scale3D(dims[0], dims[1], dims[2]))

	matrix := math.SetTranslation(fromENU, mgl64.Vec3{}).Mul4(st)
	fromScaled := fromENU.Mul4(st)

	e := &Encoding{
		Mode:             mode,
		MinimumHeight:    minimumHeight,
		MaximumHeight:    maximumHeight,
		Center:           box.Center,
		ToScaledENU:      toENU,
		FromScaledENU:    fromScaled,
		Matrix:           matrix,
		HasVertexNormals: hasVertexNormals,
	}
	e.codec = quantize.NewCodec(mode, e.frame(), hasVertexNormals)
	return e
}

func (e *Encoding) frame() quantize.Frame {
	return quantize.Frame{
		ToNormalized:   e.ToScaledENU,
		FromNormalized: e.FromScaledENU,
		Center:         e.Center,
		MinimumHeight:  e.MinimumHeight,
		MaximumHeight:  e.MaximumHeight,
	}
}

// Encode writes one vertex at buf[index:] and returns the next write index.
func (e *Encoding) Encode(buf []float32, index int, position mgl64.Vec3, uv mgl64.Vec2, height float64, normal mgl64.Vec3) int {
	return e.codec.Encode(buf, index, position, uv, height, normal)
}

// DecodePosition returns the Earth-fixed position of vertex i in buf.
// It only reads immutable state and is safe for concurrent use.
func (e *Encoding) DecodePosition(buf []float32, i int) mgl64.Vec3 {
	return e.codec.DecodePosition(buf, i)
}

// Stride returns the number of floats per vertex.
func (e *Encoding) Stride() int {
	return e.codec.Stride()
}

// Layout returns the vertex attribute layout for GPU binding.
func (e *Encoding) Layout() quantize.Layout {
	return e.codec.Layout()
}

// Clone returns an independent copy of the encoding.
func (e *Encoding) Clone() *Encoding {
	c := *e
	c.codec = quantize.NewCodec(c.Mode, c.frame(), c.HasVertexNormals)
	return &c
}
