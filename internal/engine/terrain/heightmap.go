package terrain

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// TessellateOptions controls heightmap tessellation.
type TessellateOptions struct {
	Exaggeration float64
	Normals      bool
}

// Validate checks that the sample count matches the grid dimensions.
func (h *Heightmap) Validate() error {
	if h.Width < 2 || h.Height < 2 {
		return fmt.Errorf("%w: grid %dx%d is smaller than 2x2", ErrInvalidHeightmap, h.Width, h.Height)
	}
	if len(h.Heights) != h.Width*h.Height {
		return fmt.Errorf("%w: %d samples for a %dx%d grid", ErrInvalidHeightmap, len(h.Heights), h.Width, h.Height)
	}
	return nil
}

// At returns the sample at column col and row row.
func (h *Heightmap) At(col, row int) float64 {
	return float64(h.Heights[row*h.Width+col])
}

// InterpolatedHeight returns the bilinearly interpolated height at a
// cartographic position in radians. ok is false outside the rectangle.
func (h *Heightmap) InterpolatedHeight(longitude, latitude float64) (height float64, ok bool) {
	if !h.Rectangle.Contains(math.Cartographic{Longitude: longitude, Latitude: latitude}) {
		return 0, false
	}

	fx := (longitude - h.Rectangle.West()) / h.Rectangle.Width() * float64(h.Width-1)
	fy := (h.Rectangle.North() - latitude) / h.Rectangle.Height() * float64(h.Height-1)

	col := min(int(fx), h.Width-2)
	row := min(int(fy), h.Height-2)

	fracX := math.Clamp(fx-float64(col), 0, 1)
	fracY := math.Clamp(fy-float64(row), 0, 1)

	// Corners: northwest, northeast, southwest, southeast.
	nw := h.At(col, row)
	ne := h.At(col+1, row)
	sw := h.At(col, row+1)
	se := h.At(col+1, row+1)

	north := nw*(1-fracX) + ne*fracX
	south := sw*(1-fracX) + se*fracX
	return north*(1-fracY) + south*fracY, true
}

// Tessellate converts the heightmap into a raw mesh on the ellipsoid.
func (h *Heightmap) Tessellate(e *math.Ellipsoid, opts TessellateOptions) (*RawMesh, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	exaggeration := opts.Exaggeration
	if exaggeration == 0 {
		exaggeration = 1
	}

	rect := h.Rectangle
	center := e.CartographicToCartesian(rect.Center())

	raw := &RawMesh{
		Vertices:      make([]Vertex, 0, h.Width*h.Height),
		Indices:       make([]uint32, 0, (h.Width-1)*(h.Height-1)*6),
		Center:        center,
		FromENU:       math.EastNorthUpToFixedFrame(center, e),
		MinimumHeight: gomath.Inf(1),
		MaximumHeight: gomath.Inf(-1),
		HasNormals:    opts.Normals,
	}

	lonStep := rect.Width() / float64(h.Width-1)
	latStep := rect.Height() / float64(h.Height-1)

	for row := range h.Height {
		lat := rect.North() - float64(row)*latStep
		if row == h.Height-1 {
			lat = rect.South()
		}
		for col := range h.Width {
			lon := rect.West() + float64(col)*lonStep
			if col == h.Width-1 {
				lon = rect.East()
			}

			height := h.At(col, row) * exaggeration
			raw.MinimumHeight = min(raw.MinimumHeight, height)
			raw.MaximumHeight = max(raw.MaximumHeight, height)

			raw.Vertices = append(raw.Vertices, Vertex{
				Position: e.CartographicToCartesian(math.Cartographic{Longitude: lon, Latitude: lat, Height: height}),
				TexCoord: mgl64.Vec2{
					float64(col) / float64(h.Width-1),
					1 - float64(row)/float64(h.Height-1),
				},
				Height: height,
			})
		}
	}

	if opts.Normals {
		h.computeNormals(raw.Vertices, e)
	}

	w := uint32(h.Width)
	for row := range uint32(h.Height - 1) {
		for col := range w - 1 {
			ul := row*w + col
			ur := ul + 1
			ll := ul + w
			lr := ll + 1
			raw.Indices = append(raw.Indices, ul, ll, ur, ll, lr, ur)
		}
	}

	return raw, nil
}

// computeNormals estimates vertex normals from neighbouring grid positions.
// Flat neighbourhoods fall back to the ellipsoid normal.
func (h *Heightmap) computeNormals(vertices []Vertex, e *math.Ellipsoid) {
	pos := func(col, row int) mgl64.Vec3 {
		col = min(max(col, 0), h.Width-1)
		row = min(max(row, 0), h.Height-1)
		return vertices[row*h.Width+col].Position
	}

	for row := range h.Height {
		for col := range h.Width {
			east := pos(col+1, row).Sub(pos(col-1, row))
			north := pos(col, row-1).Sub(pos(col, row+1))
			n := east.Cross(north)

			v := &vertices[row*h.Width+col]
			if n.LenSqr() < math.Epsilon12 {
				v.Normal = e.GeodeticSurfaceNormal(v.Position)
				continue
			}
			v.Normal = n.Normalize()
		}
	}
}
