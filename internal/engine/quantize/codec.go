package quantize

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Frame holds the per-tile transforms and ranges a codec works against.
type Frame struct {
	// ToNormalized maps Earth-fixed positions into the tile's [0,1]³ ENU box.
	ToNormalized mgl64.Mat4
	// FromNormalized maps the [0,1]³ box back to Earth-fixed positions.
	FromNormalized mgl64.Mat4
	// Center is subtracted from positions in None mode.
	Center mgl64.Vec3

	MinimumHeight float64
	MaximumHeight float64
}

// Codec encodes and decodes vertices for one tile. Implementations are
// immutable after construction; DecodePosition is safe for concurrent use.
type Codec interface {
	Mode() Mode
	HasNormals() bool
	Stride() int
	Layout() Layout

	// Encode writes one vertex at buf[index:] and returns the index after it.
	// normal is ignored unless the codec has normals.
	Encode(buf []float32, index int, position mgl64.Vec3, uv mgl64.Vec2, height float64, normal mgl64.Vec3) int

	// DecodePosition returns the Earth-fixed position of the vertex at vertexIndex.
	DecodePosition(buf []float32, vertexIndex int) mgl64.Vec3
}

// NewCodec returns the codec for mode.
func NewCodec(mode Mode, frame Frame, hasNormals bool) Codec {
	switch mode {
	case Bits12:
		return &bits12Codec{frame: frame, hasNormals: hasNormals}
	case None:
		return &noneCodec{frame: frame, hasNormals: hasNormals}
	default:
		panic(fmt.Sprintf("unknown quantization mode %d", mode))
	}
}

type bits12Codec struct {
	frame      Frame
	hasNormals bool
}

func (c *bits12Codec) Mode() Mode       { return Bits12 }
func (c *bits12Codec) HasNormals() bool { return c.hasNormals }
func (c *bits12Codec) Stride() int      { return Stride(Bits12, c.hasNormals) }
func (c *bits12Codec) Layout() Layout   { return LayoutFor(Bits12, c.hasNormals) }

func (c *bits12Codec) Encode(buf []float32, index int, position mgl64.Vec3, uv mgl64.Vec2, height float64, normal mgl64.Vec3) int {
	checkCapacity(buf, index, c.Stride())

	p := math.MultiplyByPoint(c.frame.ToNormalized, position)
	x := math.Clamp(p[0], 0, 1)
	y := math.Clamp(p[1], 0, 1)
	z := math.Clamp(p[2], 0, 1)

	hDim := max(c.frame.MaximumHeight-c.frame.MinimumHeight, math.Epsilon12)
	h := math.Clamp((height-c.frame.MinimumHeight)/hDim, 0, 1)

	buf[index] = float32(CompressTextureCoordinates(x, y))
	buf[index+1] = float32(CompressTextureCoordinates(z, h))
	buf[index+2] = float32(CompressTextureCoordinates(uv[0], uv[1]))
	index += 3

	if c.hasNormals {
		buf[index] = float32(OctEncodeFloat(normal))
		index++
	}
	return index
}

func (c *bits12Codec) DecodePosition(buf []float32, vertexIndex int) mgl64.Vec3 {
	i := vertexIndex * c.Stride()

	x, y := DecompressTextureCoordinates(float64(buf[i]))
	z, _ := DecompressTextureCoordinates(float64(buf[i+1]))

	return math.MultiplyByPoint(c.frame.FromNormalized, mgl64.Vec3{x, y, z})
}

type noneCodec struct {
	frame      Frame
	hasNormals bool
}

func (c *noneCodec) Mode() Mode       { return None }
func (c *noneCodec) HasNormals() bool { return c.hasNormals }
func (c *noneCodec) Stride() int      { return Stride(None, c.hasNormals) }
func (c *noneCodec) Layout() Layout   { return LayoutFor(None, c.hasNormals) }

func (c *noneCodec) Encode(buf []float32, index int, position mgl64.Vec3, uv mgl64.Vec2, height float64, normal mgl64.Vec3) int {
	checkCapacity(buf, index, c.Stride())

	p := position.Sub(c.frame.Center)

	buf[index] = float32(p[0])
	buf[index+1] = float32(p[1])
	buf[index+2] = float32(p[2])
	buf[index+3] = float32(height)
	buf[index+4] = float32(uv[0])
	buf[index+5] = float32(uv[1])
	index += 6

	if c.hasNormals {
		buf[index] = float32(OctEncodeFloat(normal))
		index++
	}
	return index
}

func (c *noneCodec) DecodePosition(buf []float32, vertexIndex int) mgl64.Vec3 {
	i := vertexIndex * c.Stride()
	p := mgl64.Vec3{float64(buf[i]), float64(buf[i+1]), float64(buf[i+2])}
	return p.Add(c.frame.Center)
}

func checkCapacity(buf []float32, index, stride int) {
	if index < 0 || index+stride > len(buf) {
		panic(fmt.Sprintf("vertex buffer too small: need %d floats at index %d, have %d", stride, index, len(buf)))
	}
}
