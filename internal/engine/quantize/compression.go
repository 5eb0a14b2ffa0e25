package quantize

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

const (
	shiftLeft12   = 4096.0
	maxTwelveBits = 4095.0
	octRangeMax   = 255.0
)

// CompressTextureCoordinates packs two values in [0, 1] into one float with
// 12 bits each. The result is at most 2^24-1, so it survives float32 storage.
func CompressTextureCoordinates(u, v float64) float64 {
	x := gomath.Round(math.Clamp(u, 0, 1) * maxTwelveBits)
	y := gomath.Round(math.Clamp(v, 0, 1) * maxTwelveBits)
	return shiftLeft12*x + y
}

// DecompressTextureCoordinates unpacks a value produced by CompressTextureCoordinates.
func DecompressTextureCoordinates(compressed float64) (u, v float64) {
	x := gomath.Floor(compressed / shiftLeft12)
	return x / maxTwelveBits, (compressed - x*shiftLeft12) / maxTwelveBits
}

// OctEncode maps a unit vector onto an octahedron and quantizes the two
// resulting coordinates to [0, 255]. A zero vector encodes as +Z.
func OctEncode(n mgl64.Vec3) (x, y float64) {
	ax := gomath.Abs(n[0]) + gomath.Abs(n[1]) + gomath.Abs(n[2])
	if ax == 0 {
		n = mgl64.Vec3{0, 0, 1}
		ax = 1
	}

	rx := n[0] / ax
	ry := n[1] / ax

	if n[2] < 0 {
		rx, ry = (1.0-gomath.Abs(ry))*math.SignNotZero(rx), (1.0-gomath.Abs(rx))*math.SignNotZero(ry)
	}

	return toSNorm(rx), toSNorm(ry)
}

// OctDecode is the inverse of OctEncode.
func OctDecode(x, y float64) mgl64.Vec3 {
	fx := fromSNorm(x)
	fy := fromSNorm(y)
	fz := 1.0 - (gomath.Abs(fx) + gomath.Abs(fy))

	if fz < 0 {
		oldX := fx
		fx = (1.0 - gomath.Abs(fy)) * math.SignNotZero(oldX)
		fy = (1.0 - gomath.Abs(oldX)) * math.SignNotZero(fy)
	}

	return mgl64.Vec3{fx, fy, fz}.Normalize()
}

// OctPackFloat stores an oct-encoded pair in a single float.
func OctPackFloat(x, y float64) float64 {
	return 256.0*x + y
}

// OctEncodeFloat oct-encodes n and packs it into one float.
func OctEncodeFloat(n mgl64.Vec3) float64 {
	return OctPackFloat(OctEncode(n))
}

// OctDecodeFloat unpacks and decodes a value produced by OctEncodeFloat.
func OctDecodeFloat(f float64) mgl64.Vec3 {
	temp := f / 256.0
	x := gomath.Floor(temp)
	y := (temp - x) * 256.0
	return OctDecode(x, y)
}

func toSNorm(v float64) float64 {
	return gomath.Round((math.Clamp(v, -1, 1)*0.5 + 0.5) * octRangeMax)
}

func fromSNorm(v float64) float64 {
	return math.Clamp(v, 0, octRangeMax)/octRangeMax*2.0 - 1.0
}
