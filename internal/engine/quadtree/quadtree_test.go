package quadtree

import (
	"errors"
	"image"
	gomath "math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

type fakeVertexArray struct {
	released bool
}

func (v *fakeVertexArray) ID() uint32      { return 1 }
func (v *fakeVertexArray) IndexCount() int { return 0 }
func (v *fakeVertexArray) Release()        { v.released = true }

type fakeMeshes struct {
	uploaded []*fakeVertexArray
	err      error
}

func (m *fakeMeshes) UploadMesh(*terrain.Mesh) (command.VertexArray, error) {
	if m.err != nil {
		return nil, m.err
	}
	va := &fakeVertexArray{}
	m.uploaded = append(m.uploaded, va)
	return va, nil
}

func (m *fakeMeshes) UploadWireframe(mesh *terrain.Mesh) (command.VertexArray, error) {
	return m.UploadMesh(mesh)
}

type fakeTexture uint32

func (t fakeTexture) ID() uint32 { return uint32(t) }

type fakeTextures struct{}

func (fakeTextures) UploadImage(*image.RGBA) (command.Texture, error) {
	return fakeTexture(7), nil
}

type worldImagery struct{}

func (worldImagery) Rectangle() math.Rectangle {
	return math.RectangleFromDegrees(orb.Bound{Min: orb.Point{-180, -85.06}, Max: orb.Point{180, 85.06}})
}

func (worldImagery) RequestImage(maptile.Tile) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

type fixedCuller math.Intersect

func (c fixedCuller) ComputeVisibility(math.BoundingSphere) math.Intersect {
	return math.Intersect(c)
}

type recorder struct {
	shown []*globe.Tile
}

func (r *recorder) ShowTile(tile *globe.Tile, _ *globe.FrameState) {
	r.shown = append(r.shown, tile)
}

func (r *recorder) reset() { r.shown = r.shown[:0] }

type fixture struct {
	prim    *Primitive
	builder *terrain.Builder
	meshes  *fakeMeshes
	culler  fixedCuller
	frame   uint64
}

func newFixture(t *testing.T, configure func(*Options)) *fixture {
	t.Helper()
	builder := terrain.NewBuilder(2, math.WGS84, terrain.TessellateOptions{})
	t.Cleanup(builder.Close)

	layers := globe.NewLayerCollection()
	layers.Add(globe.NewImageryLayer("base", worldImagery{}))
	hidden := globe.NewImageryLayer("hidden", worldImagery{})
	hidden.Show = false
	layers.Add(hidden)

	f := &fixture{builder: builder, meshes: &fakeMeshes{}, culler: fixedCuller(math.Inside)}
	opts := Options{
		Ellipsoid: math.WGS84,
		Provider:  terrain.NewProceduralProvider(math.WGS84, 9, 100, false),
		Builder:   builder,
		Meshes:    f.meshes,
		Textures:  fakeTextures{},
		Layers:    layers,
	}
	if configure != nil {
		configure(&opts)
	}
	f.prim = New(opts)
	return f
}

// step runs one frame with the camera 20000 km above (10E, 20N) and waits
// for the builder afterwards so the next frame sees every finished mesh.
func (f *fixture) step(out TileRenderer) {
	f.frame++
	c := math.CartographicFromDegrees(10, 20, 2e7)
	frame := &globe.FrameState{
		Mode: globe.Scene3D,
		Camera: globe.CameraState{
			PositionWC:           math.WGS84.CartographicToCartesian(c),
			PositionCartographic: c,
			FovY:                 gomath.Pi / 3,
			ViewportHeight:       768,
		},
		CullingVolume: f.culler,
		FrameNumber:   f.frame,
	}
	f.prim.Update(frame, out)
	f.builder.Wait()
}

func TestRootLoadsBeforeItIsShown(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MaximumScreenSpaceError = 1000 })
	rec := &recorder{}

	f.step(rec)
	if len(rec.shown) != 0 {
		t.Fatalf("shown %d tiles before any geometry loaded", len(rec.shown))
	}
	if got := f.prim.Stats().Loading; got != 1 {
		t.Errorf("loading = %d, want 1", got)
	}

	f.step(rec)
	if len(rec.shown) != 1 || rec.shown[0].Key != maptile.New(0, 0, 0) {
		t.Fatalf("expected only the root, got %d tiles", len(rec.shown))
	}
	root := rec.shown[0]
	if !root.Renderable() {
		t.Error("shown tile must be renderable")
	}
	if len(root.Imagery) != 1 {
		t.Errorf("imagery entries = %d, want 1 (hidden layers are skipped)", len(root.Imagery))
	}
	if root.ReadyImageryCount() != 1 {
		t.Error("imagery of a shown tile should be processed")
	}
	if s := f.prim.Stats(); s.Loading != 0 || s.Loaded != 1 || s.Selected != 1 {
		t.Errorf("unexpected stats %+v", s)
	}

	loaded := 0
	f.prim.ForEachLoadedTile(func(*globe.Tile) { loaded++ })
	if loaded != 1 {
		t.Errorf("ForEachLoadedTile visited %d tiles, want 1", loaded)
	}
}

func TestRefinesOnceChildrenAreReady(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MaxLevel = 1 })
	rec := &recorder{}

	f.step(rec)
	f.step(rec)
	if len(rec.shown) != 1 {
		t.Fatalf("parent should stand in while children load, got %d tiles", len(rec.shown))
	}
	if got := f.prim.Stats().Loading; got != 4 {
		t.Errorf("loading = %d, want 4 children", got)
	}

	rec.reset()
	f.step(rec)
	if len(rec.shown) != 4 {
		t.Fatalf("shown %d tiles, want the 4 children", len(rec.shown))
	}
	seen := map[maptile.Tile]bool{}
	for _, tile := range rec.shown {
		if tile.Key.Z != 1 {
			t.Errorf("tile %v is not a child of the root", tile.Key)
		}
		seen[tile.Key] = true
	}
	if len(seen) != 4 {
		t.Error("children must be distinct")
	}
}

func TestEvictsUnusedTilesBeyondCache(t *testing.T) {
	var unloaded []maptile.Tile
	f := newFixture(t, func(o *Options) {
		o.MaxLevel = 1
		o.TileCacheSize = 1
		o.OnUnload = func(tile *globe.Tile) { unloaded = append(unloaded, tile.Key) }
	})
	rec := &recorder{}
	for range 3 {
		f.step(rec)
	}
	if f.prim.Stats().Evicted != 0 {
		t.Fatal("tiles used this frame must not be evicted")
	}

	f.prim.SetMaximumScreenSpaceError(1e9)
	rec.reset()
	f.step(rec)

	s := f.prim.Stats()
	if s.Evicted != 4 || s.Loaded != 1 || len(unloaded) != 4 {
		t.Fatalf("stats %+v, unloaded %v", s, unloaded)
	}
	for _, key := range unloaded {
		tile, _ := f.prim.Tile(key)
		if tile.Mesh != nil || tile.VertexArray != nil || tile.Imagery != nil {
			t.Errorf("tile %v still holds resources", key)
		}
	}
	released := 0
	for _, va := range f.meshes.uploaded {
		if va.released {
			released++
		}
	}
	if released != 4 {
		t.Errorf("released %d vertex arrays, want 4", released)
	}
}

func TestCulledTilesAreNotShown(t *testing.T) {
	f := newFixture(t, nil)
	f.culler = fixedCuller(math.Outside)
	rec := &recorder{}

	f.step(rec)
	f.step(rec)
	if len(rec.shown) != 0 {
		t.Errorf("culled root was shown")
	}
	if f.prim.Stats().Culled != 1 {
		t.Errorf("culled = %d, want 1", f.prim.Stats().Culled)
	}
}

func TestUploadFailureNeverShows(t *testing.T) {
	f := newFixture(t, nil)
	f.meshes.err = errors.New("out of memory")
	rec := &recorder{}

	f.step(rec)
	f.step(rec)
	f.step(rec)
	if len(rec.shown) != 0 || f.prim.Stats().Loaded != 0 {
		t.Errorf("failed tile shown or counted as loaded: %+v", f.prim.Stats())
	}
}

func TestScreenSpaceError(t *testing.T) {
	f := newFixture(t, nil)
	tile := globe.NewTile(maptile.New(0, 0, 2), math.WGS84)
	frame := &globe.FrameState{Camera: globe.CameraState{FovY: gomath.Pi / 2, ViewportHeight: 1000}}

	tile.Distance = 0
	if !gomath.IsInf(f.prim.screenSpaceError(tile, frame), 1) {
		t.Error("zero distance must always refine")
	}

	tile.Distance = 1e6
	geometric := f.prim.opts.Provider.LevelMaximumGeometricError(2)
	want := geometric * 1000 / (1e6 * 2)
	if got := f.prim.screenSpaceError(tile, frame); gomath.Abs(got-want) > 1e-9*want {
		t.Errorf("sse = %v, want %v", got, want)
	}
}

func TestNewPanicsWithoutProvider(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(Options{Ellipsoid: math.WGS84})
}
