package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// EastNorthUpToFixedFrame returns the matrix taking a local east-north-up frame
// centered at origin into the Earth-fixed frame.
func EastNorthUpToFixedFrame(origin mgl64.Vec3, e *Ellipsoid) mgl64.Mat4 {
	var east, north, up mgl64.Vec3

	if EqualsEpsilon(origin[0], 0, Epsilon14) && EqualsEpsilon(origin[1], 0, Epsilon14) {
		// At a pole east is undefined; pick a stable frame.
		sign := SignNotZero(origin[2])
		east = mgl64.Vec3{0, 1, 0}
		north = mgl64.Vec3{-sign, 0, 0}
		up = mgl64.Vec3{0, 0, sign}
	} else {
		up = e.GeodeticSurfaceNormal(origin)
		east = mgl64.Vec3{-origin[1], origin[0], 0}.Normalize()
		north = up.Cross(east)
	}

	return mgl64.Mat4{
		east[0], east[1], east[2], 0,
		north[0], north[1], north[2], 0,
		up[0], up[1], up[2], 0,
		origin[0], origin[1], origin[2], 1,
	}
}

// InverseTransformation inverts a rigid rotation+translation matrix.
func InverseTransformation(m mgl64.Mat4) mgl64.Mat4 {
	rot := m.Mat3().Transpose()
	t := mgl64.Vec3{m[12], m[13], m[14]}
	it := rot.Mul3x1(t).Mul(-1)

	return mgl64.Mat4{
		rot[0], rot[1], rot[2], 0,
		rot[3], rot[4], rot[5], 0,
		rot[6], rot[7], rot[8], 0,
		it[0], it[1], it[2], 1,
	}
}

// MultiplyByPoint transforms p by an affine matrix, ignoring projective terms.
func MultiplyByPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// SetTranslation returns m with its translation column replaced.
func SetTranslation(m mgl64.Mat4, t mgl64.Vec3) mgl64.Mat4 {
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// IsZeroMatrix reports whether every element of m is zero.
func IsZeroMatrix(m mgl64.Mat4) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}

// Mat4ToFloat32 converts a matrix for GPU upload.
func Mat4ToFloat32(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// MaximumComponent returns the largest component of v.
func MaximumComponent(v mgl64.Vec3) float64 {
	return gomath.Max(v[0], gomath.Max(v[1], v[2]))
}
