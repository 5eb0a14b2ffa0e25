package debug

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// TileOutline generates line vertices tracing a tile rectangle on the
// ellipsoid at the given height. Positions are relative to center so they
// keep float32 precision; draw with a translation to center.
func TileOutline(r math.Rectangle, e *math.Ellipsoid, height float64, segmentsPerEdge int, center mgl64.Vec3) []float32 {
	if segmentsPerEdge < 1 {
		segmentsPerEdge = 1
	}

	corners := []math.Cartographic{
		{Longitude: r.West(), Latitude: r.South(), Height: height},
		{Longitude: r.East(), Latitude: r.South(), Height: height},
		{Longitude: r.East(), Latitude: r.North(), Height: height},
		{Longitude: r.West(), Latitude: r.North(), Height: height},
	}

	out := make([]float32, 0, 4*segmentsPerEdge*2*3)
	for edge := range 4 {
		from, to := corners[edge], corners[(edge+1)%4]
		prev := outlinePoint(e, from, to, 0, center)
		for i := 1; i <= segmentsPerEdge; i++ {
			next := outlinePoint(e, from, to, float64(i)/float64(segmentsPerEdge), center)
			out = append(out, prev[0], prev[1], prev[2], next[0], next[1], next[2])
			prev = next
		}
	}
	return out
}

func outlinePoint(e *math.Ellipsoid, from, to math.Cartographic, t float64, center mgl64.Vec3) [3]float32 {
	c := math.Cartographic{
		Longitude: from.Longitude + (to.Longitude-from.Longitude)*t,
		Latitude:  from.Latitude + (to.Latitude-from.Latitude)*t,
		Height:    from.Height,
	}
	p := e.CartographicToCartesian(c).Sub(center)
	return [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
}
