package picking

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

func TestIntersectSphere(t *testing.T) {
	s := math.BoundingSphere{Center: mgl64.Vec3{0, 0, 10}, Radius: 2}

	tests := []struct {
		name string
		ray  Ray
		want float64
		hit  bool
	}{
		{"front", Ray{Origin: mgl64.Vec3{}, Direction: mgl64.Vec3{0, 0, 1}}, 8, true},
		{"inside", Ray{Origin: mgl64.Vec3{0, 0, 10}, Direction: mgl64.Vec3{0, 0, 1}}, 2, true},
		{"behind", Ray{Origin: mgl64.Vec3{0, 0, 20}, Direction: mgl64.Vec3{0, 0, 1}}, 0, false},
		{"miss", Ray{Origin: mgl64.Vec3{5, 0, 0}, Direction: mgl64.Vec3{0, 0, 1}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectSphere(s)
			if hit != tt.hit || gomath.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got (%v, %v), want (%v, %v)", got, hit, tt.want, tt.hit)
			}
		})
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := mgl64.Vec3{-1, -1, 5}
	b := mgl64.Vec3{1, -1, 5}
	c := mgl64.Vec3{0, 1, 5}

	tests := []struct {
		name string
		ray  Ray
		hit  bool
	}{
		{"center", Ray{Direction: mgl64.Vec3{0, 0, 1}}, true},
		{"back side", Ray{Origin: mgl64.Vec3{0, 0, 10}, Direction: mgl64.Vec3{0, 0, -1}}, true},
		{"outside", Ray{Origin: mgl64.Vec3{3, 0, 0}, Direction: mgl64.Vec3{0, 0, 1}}, false},
		{"parallel", Ray{Direction: mgl64.Vec3{1, 0, 0}}, false},
		{"behind origin", Ray{Origin: mgl64.Vec3{0, 0, 6}, Direction: mgl64.Vec3{0, 0, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectTriangle(a, b, c)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && gomath.Abs(tt.ray.At(got)[2]-5) > 1e-9 {
				t.Errorf("hit point %v not on triangle plane", tt.ray.At(got))
			}
		})
	}
}

func TestIntersectEllipsoid(t *testing.T) {
	origin := mgl64.Vec3{math.WGS84.Radii[0] + 1000, 0, 0}
	ray := Ray{Origin: origin, Direction: mgl64.Vec3{-1, 0, 0}}
	got, ok := ray.IntersectEllipsoid(math.WGS84)
	if !ok || gomath.Abs(got-1000) > 1e-6 {
		t.Errorf("got (%v, %v), want 1000", got, ok)
	}

	away := Ray{Origin: origin, Direction: mgl64.Vec3{1, 0, 0}}
	if _, ok := away.IntersectEllipsoid(math.WGS84); ok {
		t.Error("ray pointing away should miss")
	}
}

func TestScreenToRay(t *testing.T) {
	ray := ScreenToRay(50, 50, 100, 100, mgl64.Ident4())
	if !ray.Origin.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("origin = %v", ray.Origin)
	}
	if !ray.Direction.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("direction = %v", ray.Direction)
	}

	corner := ScreenToRay(0, 0, 100, 100, mgl64.Ident4())
	if !corner.Origin.ApproxEqualThreshold(mgl64.Vec3{-1, 1, -1}, 1e-12) {
		t.Errorf("top-left origin = %v", corner.Origin)
	}
}

func flatTile(t *testing.T, x, y uint32) *globe.Tile {
	t.Helper()
	key := maptile.New(x, y, 10)
	provider := terrain.NewProceduralProvider(math.WGS84, 9, 0, false)
	hm, err := provider.Heightmap(key)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := hm.Tessellate(math.WGS84, terrain.TessellateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := terrain.BuildMesh(raw, math.WGS84)
	if err != nil {
		t.Fatal(err)
	}
	tile := globe.NewTile(key, math.WGS84)
	tile.SetMesh(mesh)
	return tile
}

// interiorPoint avoids landing exactly on a shared vertex or edge.
func interiorPoint(r math.Rectangle) math.Cartographic {
	return math.Cartographic{
		Longitude: r.West() + 0.31*r.Width(),
		Latitude:  r.South() + 0.57*r.Height(),
	}
}

func rayDownAt(c math.Cartographic, height float64) Ray {
	c.Height = height
	origin := math.WGS84.CartographicToCartesian(c)
	return Ray{Origin: origin, Direction: math.WGS84.GeodeticSurfaceNormalCartographic(c).Mul(-1)}
}

func TestPickerHitsNearestTile(t *testing.T) {
	p, err := NewPicker(2, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	target := flatTile(t, 600, 300)
	other := flatTile(t, 601, 300)
	center := interiorPoint(target.Rectangle)
	ray := rayDownAt(center, 10000)

	hit, err := p.Pick(ray, []*globe.Tile{other, target})
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if hit.Tile != target {
		t.Errorf("hit tile %v, want %v", hit.Tile.Key, target.Key)
	}
	if gomath.Abs(hit.Distance-10000) > 1 {
		t.Errorf("distance = %v, want about 10000", hit.Distance)
	}
	surface := math.WGS84.CartographicToCartesian(center)
	if d := hit.Position.Sub(surface).Len(); d > 1 {
		t.Errorf("hit position %v is %v m from the surface point", hit.Position, d)
	}

	p.cache.Wait()
	if again, err := p.Pick(ray, []*globe.Tile{target}); err != nil || again.Tile != target {
		t.Errorf("cached pick failed: %v", err)
	}

	p.Evict(target.Key)
	p.cache.Wait()
	if _, ok := p.cache.Get(cacheKey(target.Key)); ok {
		t.Error("evicted positions still cached")
	}
}

func TestPickerMiss(t *testing.T) {
	p, err := NewPicker(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	tile := flatTile(t, 600, 300)
	up := rayDownAt(interiorPoint(tile.Rectangle), 10000)
	up.Direction = up.Direction.Mul(-1)

	if _, err := p.Pick(up, []*globe.Tile{tile, globe.NewTile(maptile.New(0, 0, 1), math.WGS84)}); !errors.Is(err, ErrNoHit) {
		t.Errorf("err = %v, want ErrNoHit", err)
	}
	if _, err := p.Pick(up, nil); !errors.Is(err, ErrNoHit) {
		t.Errorf("empty tile list: err = %v", err)
	}
}

func TestPickCommandsDeduplicatesOwners(t *testing.T) {
	p, err := NewPicker(2, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	tile := flatTile(t, 600, 300)
	cmds := []*command.DrawCommand{
		{Owner: tile, Pass: command.PassGlobe},
		{Owner: tile, Pass: command.PassGlobe},
		{Owner: "debug"},
	}

	hit, err := p.PickCommands(rayDownAt(interiorPoint(tile.Rectangle), 5000), cmds)
	if err != nil || hit.Tile != tile {
		t.Fatalf("PickCommands: %v", err)
	}
}

func TestCacheKeyDistinguishesZoom(t *testing.T) {
	if cacheKey(maptile.New(0, 0, 1)) == cacheKey(maptile.New(0, 0, 2)) {
		t.Error("tiles at different zooms must not share a cache key")
	}
	if cacheKey(maptile.New(1, 0, 3)) == cacheKey(maptile.New(0, 1, 3)) {
		t.Error("distinct tiles at one zoom must not share a cache key")
	}
}

func TestDepthToWorld(t *testing.T) {
	tests := []struct {
		name  string
		depth float64
		want  mgl64.Vec3
		ok    bool
	}{
		{"near", 0, mgl64.Vec3{0, 0, -1}, true},
		{"middle", 0.5, mgl64.Vec3{0, 0, 0}, true},
		{"background", 1, mgl64.Vec3{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DepthToWorld(50, 50, tt.depth, 100, 100, mgl64.Ident4())
			if ok != tt.ok || !got.ApproxEqualThreshold(tt.want, 1e-12) {
				t.Errorf("got (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
