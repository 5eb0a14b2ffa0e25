package surface

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/quantize"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

type fakeProgram uint32

func (p fakeProgram) ID() uint32 { return uint32(p) }

type fakeCompiler struct {
	keys []ProgramKey
	fail bool
}

func (c *fakeCompiler) Compile(key ProgramKey) (command.Program, error) {
	c.keys = append(c.keys, key)
	if c.fail {
		return nil, errors.New("link failed")
	}
	return fakeProgram(len(c.keys)), nil
}

type fakeVertexArray uint32

func (v fakeVertexArray) ID() uint32      { return uint32(v) }
func (v fakeVertexArray) IndexCount() int { return 6 }

type fakeTexture uint32

func (t fakeTexture) ID() uint32 { return uint32(t) }

type tileList []*globe.Tile

func (l tileList) ForEachLoadedTile(fn func(*globe.Tile)) {
	for _, t := range l {
		fn(t)
	}
}

type worldProvider struct{}

func (worldProvider) Rectangle() math.Rectangle {
	return math.RectangleFromDegrees(orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}})
}

func (worldProvider) RequestImage(maptile.Tile) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func newTestRenderer(opts Options) (*Renderer, *fakeCompiler) {
	compiler := &fakeCompiler{}
	return New(NewConfig(opts), NewProgramCache(compiler)), compiler
}

func newTile(x, y uint32) *globe.Tile {
	tile := globe.NewTile(maptile.New(x, y, 3), math.WGS84)
	tile.Mesh = &terrain.Mesh{Encoding: &terrain.Encoding{
		Mode:          quantize.None,
		MinimumHeight: -10,
		MaximumHeight: 20,
		Matrix:        mgl64.Ident4(),
	}}
	tile.VertexArray = fakeVertexArray(x*10 + y)
	return tile
}

func addReadyImagery(tile *globe.Tile, layer *globe.ImageryLayer) {
	im := &globe.Imagery{
		Layer:     layer,
		Key:       tile.Key,
		Rectangle: tile.Rectangle,
		State:     globe.ImageryReady,
		Texture:   fakeTexture(len(tile.Imagery) + 1),
	}
	ti := globe.NewTileImagery(im, tile.Rectangle)
	ti.Ready = im
	ti.Loading = nil
	tile.Imagery = append(tile.Imagery, ti)
}

func tileWithLayers(x, y uint32, n int) *globe.Tile {
	tile := newTile(x, y)
	for range n {
		addReadyImagery(tile, globe.NewImageryLayer("layer", nil))
	}
	return tile
}

func frame3D() *globe.FrameState {
	return &globe.FrameState{Mode: globe.Scene3D, Camera: globe.CameraState{ViewMatrix: mgl64.Ident4()}}
}

func renderFrame(r *Renderer, frame *globe.FrameState, tiles ...*globe.Tile) []*command.DrawCommand {
	r.BeginFrame(frame)
	for _, t := range tiles {
		r.ShowTile(t, frame)
	}
	return r.EndFrame(frame)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(Options{MaxTextureUnits: 4, TerrainExaggeration: 2})
	want := TerrainHeights{Maximum: 18000, Minimum: -200000, MinimumOBB: -23000}
	if cfg.TerrainHeights != want {
		t.Errorf("terrain heights = %+v, want %+v", cfg.TerrainHeights, want)
	}

	defaults := DefaultOptions()
	if defaults.LightingFadeOutDistance != 6500000 || defaults.LightingFadeInDistance != 9000000 {
		t.Errorf("unexpected lighting fade defaults %v %v", defaults.LightingFadeOutDistance, defaults.LightingFadeInDistance)
	}
	if defaults.BaseColor.B != 0.5 || defaults.BaseColor.A != 1 {
		t.Errorf("unexpected base color %+v", defaults.BaseColor)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero texture units")
		}
	}()
	NewConfig(Options{})
}

func TestTilesOrderedByTextureCount(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())

	counts := []int{0, 2, 1, 2, 0}
	tiles := make([]*globe.Tile, len(counts))
	for i, n := range counts {
		tiles[i] = tileWithLayers(uint32(i), 0, n)
	}

	cmds := renderFrame(r, frame3D(), tiles...)
	want := []*globe.Tile{tiles[0], tiles[4], tiles[2], tiles[1], tiles[3]}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(want))
	}
	for i, cmd := range cmds {
		if cmd.Owner != want[i] {
			t.Errorf("command %d owned by tile %v, want %v", i, cmd.Owner.(*globe.Tile).Key, want[i].Key)
		}
	}

	stats := r.Stats()
	if stats.TilesRendered != 5 || stats.TexturesRendered != 5 || stats.DrawCommands != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestMultiPassTile(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTextureUnits = 2
	r, _ := newTestRenderer(opts)

	tile := tileWithLayers(1, 1, 5)
	cmds := renderFrame(r, frame3D(), tile)
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}

	wantTextures := []int{2, 2, 1}
	for i, cmd := range cmds {
		if got := len(cmd.Uniforms.DayTextures); got != wantTextures[i] {
			t.Errorf("command %d has %d textures, want %d", i, got, wantTextures[i])
		}
		if cmd.Pass != command.PassGlobe || cmd.PrimitiveType != command.Triangles {
			t.Errorf("command %d: pass %v primitive %v", i, cmd.Pass, cmd.PrimitiveType)
		}
	}

	if cmds[0].RenderState.Name != "opaque" || cmds[0].Uniforms.InitialColor != (mgl64.Vec4{0, 0, 0.5, 1}) {
		t.Errorf("first pass: state %q color %v", cmds[0].RenderState.Name, cmds[0].Uniforms.InitialColor)
	}
	for _, cmd := range cmds[1:] {
		if cmd.RenderState.Name != "blend" || !cmd.RenderState.Blending() {
			t.Errorf("later pass uses state %q", cmd.RenderState.Name)
		}
		if cmd.Uniforms.InitialColor != (mgl64.Vec4{}) {
			t.Errorf("later pass initial color %v, want transparent", cmd.Uniforms.InitialColor)
		}
	}

	if cmds[0].Uniforms.DayTextures[0].Texture != tile.Imagery[0].Ready.Texture ||
		cmds[2].Uniforms.DayTextures[0].Texture != tile.Imagery[4].Ready.Texture {
		t.Error("textures must be consumed in imagery order")
	}
}

func TestTileWithoutImageryGetsOneCommand(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())
	cmds := renderFrame(r, frame3D(), newTile(0, 0))
	if len(cmds) != 1 || len(cmds[0].Uniforms.DayTextures) != 0 {
		t.Fatalf("expected one untextured command, got %d", len(cmds))
	}
}

func TestUnreadyAndTransparentImageryIsSkipped(t *testing.T) {
	r, compiler := newTestRenderer(DefaultOptions())

	tile := tileWithLayers(0, 0, 3)
	tile.Imagery[1].Ready.Layer.Alpha = 0
	loading := &globe.Imagery{Layer: globe.NewImageryLayer("loading", nil)}
	tile.Imagery = append(tile.Imagery, globe.NewTileImagery(loading, tile.Rectangle))

	cmds := renderFrame(r, frame3D(), tile)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if n := len(cmds[0].Uniforms.DayTextures); n != 2 {
		t.Errorf("got %d textures, want 2", n)
	}
	if r.Stats().TexturesRendered != 2 {
		t.Errorf("textures rendered = %d, want 2", r.Stats().TexturesRendered)
	}
	if key := compiler.keys[0]; key.TextureCount != 2 || key.ApplyAlpha {
		t.Errorf("unexpected program key %v", key)
	}
}

func TestProgramFlagsFollowLayerAdjustments(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*globe.ImageryLayer)
		check  func(ProgramKey) bool
	}{
		{"defaults", func(*globe.ImageryLayer) {}, func(k ProgramKey) bool {
			return !k.ApplyAlpha && !k.ApplyBrightness && !k.ApplyContrast && !k.ApplyHue && !k.ApplySaturation && !k.ApplyGamma
		}},
		{"alpha", func(l *globe.ImageryLayer) { l.Alpha = 0.5 }, func(k ProgramKey) bool { return k.ApplyAlpha }},
		{"brightness", func(l *globe.ImageryLayer) { l.Brightness = 2 }, func(k ProgramKey) bool { return k.ApplyBrightness }},
		{"contrast", func(l *globe.ImageryLayer) { l.Contrast = 0.5 }, func(k ProgramKey) bool { return k.ApplyContrast }},
		{"hue", func(l *globe.ImageryLayer) { l.Hue = 0.1 }, func(k ProgramKey) bool { return k.ApplyHue }},
		{"saturation", func(l *globe.ImageryLayer) { l.Saturation = 0 }, func(k ProgramKey) bool { return k.ApplySaturation }},
		{"gamma", func(l *globe.ImageryLayer) { l.Gamma = 2.2 }, func(k ProgramKey) bool { return k.ApplyGamma }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, compiler := newTestRenderer(DefaultOptions())
			tile := tileWithLayers(0, 0, 1)
			tt.adjust(tile.Imagery[0].Ready.Layer)

			cmds := renderFrame(r, frame3D(), tile)
			if len(compiler.keys) != 1 || !tt.check(compiler.keys[0]) {
				t.Errorf("unexpected program keys %v", compiler.keys)
			}
			if got := cmds[0].Uniforms.DayTextures[0].OneOverGamma; got != 1/tile.Imagery[0].Ready.Layer.Gamma {
				t.Errorf("one over gamma = %v", got)
			}
		})
	}
}

func TestOceanReducesTextureBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTextureUnits = 4
	opts.HasWaterMask = true
	opts.OceanNormalMap = fakeTexture(99)
	r, compiler := newTestRenderer(opts)

	tile := tileWithLayers(0, 0, 3)
	tile.WaterMaskTexture = fakeTexture(50)

	cmds := renderFrame(r, frame3D(), tile)
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	key := compiler.keys[0]
	if !key.ShowReflectiveOcean || !key.ShowOceanWaves || key.TextureCount != 2 {
		t.Errorf("unexpected key %v", key)
	}
	if cmds[0].Uniforms.WaterMask != tile.WaterMaskTexture || cmds[0].Uniforms.OceanNormalMap != opts.OceanNormalMap {
		t.Error("ocean textures not bound")
	}
}

func TestCommandPoolIsReused(t *testing.T) {
	r, compiler := newTestRenderer(DefaultOptions())
	tiles := []*globe.Tile{tileWithLayers(0, 0, 1), tileWithLayers(1, 0, 1)}

	first := append([]*command.DrawCommand(nil), renderFrame(r, frame3D(), tiles...)...)
	second := renderFrame(r, frame3D(), tiles...)

	for i := range first {
		if first[i] != second[i] || first[i].Uniforms != second[i].Uniforms {
			t.Errorf("command %d was reallocated", i)
		}
	}
	if len(compiler.keys) != 1 {
		t.Errorf("compiled %d programs, want 1", len(compiler.keys))
	}
	if hits, misses := r.programs.Counters(); hits != 3 || misses != 1 {
		t.Errorf("cache hits=%d misses=%d", hits, misses)
	}

	// A smaller frame must not leak textures from the earlier one.
	third := renderFrame(r, frame3D(), newTile(5, 5))
	if len(third) != 1 || len(third[0].Uniforms.DayTextures) != 0 {
		t.Error("stale day textures survived pool reuse")
	}
}

func TestPickMirrorsLastCompletedFrame(t *testing.T) {
	r, compiler := newTestRenderer(DefaultOptions())
	a, b := tileWithLayers(0, 0, 1), tileWithLayers(1, 0, 0)
	frame := frame3D()

	if picks := r.UpdateForPick(frame); len(picks) != 0 {
		t.Errorf("pick before any frame returned %d commands", len(picks))
	}

	renderFrame(r, frame, a, b)

	// Mid-frame picks still see the previous frame.
	r.BeginFrame(frame)
	r.ShowTile(a, frame)
	picks := r.UpdateForPick(frame)
	if len(picks) != 2 {
		t.Fatalf("mid-frame pick returned %d commands, want 2", len(picks))
	}
	r.EndFrame(frame)

	picks = r.UpdateForPick(frame)
	if len(picks) != 1 {
		t.Fatalf("pick after frame returned %d commands, want 1", len(picks))
	}
	pick, draw := picks[0], r.Commands()[0]
	if pick.RenderState.Name != "pick" || pick.Owner != a || pick.VertexArray != draw.VertexArray ||
		pick.Uniforms != draw.Uniforms || pick.BoundingVolume != draw.BoundingVolume || pick.Pass != draw.Pass {
		t.Errorf("pick command does not mirror draw: %+v", pick)
	}
	if pick == draw {
		t.Error("pick commands must be distinct from draw commands")
	}

	var sawPick bool
	for _, k := range compiler.keys {
		sawPick = sawPick || k.Pick
	}
	if !sawPick {
		t.Error("no pick program compiled")
	}
	if r.Stats().PickCommands != 1 {
		t.Errorf("pick commands = %d", r.Stats().PickCommands)
	}
}

func TestLayerEventsUpdateLoadedTiles(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())
	tile := newTile(0, 0)
	r.SetTileSet(tileList{tile})

	layers := globe.NewLayerCollection()
	layers.Subscribe(r)

	a := globe.NewImageryLayer("a", worldProvider{})
	b := globe.NewImageryLayer("b", worldProvider{})
	layers.Add(a)
	layers.Add(b)
	if len(tile.Imagery) != 2 || tile.Imagery[0].Layer() != a {
		t.Fatalf("expected skeletons for a and b, got %d", len(tile.Imagery))
	}

	layers.RaiseToTop(a)
	if tile.Imagery[0].Layer() != a {
		t.Fatal("imagery must not be re-sorted before the next frame")
	}

	frame := frame3D()
	r.BeginFrame(frame)
	if tile.Imagery[0].Layer() != b || tile.Imagery[1].Layer() != a {
		t.Error("imagery not re-sorted at frame start")
	}
	r.EndFrame(frame)

	layers.SetShown(b, false)
	if len(tile.Imagery) != 1 || tile.Imagery[0].Layer() != a {
		t.Errorf("hiding b should remove its imagery, have %d entries", len(tile.Imagery))
	}
	layers.SetShown(b, true)
	if len(tile.Imagery) != 2 {
		t.Errorf("showing b should restore its imagery, have %d entries", len(tile.Imagery))
	}

	layers.Remove(a)
	if len(tile.Imagery) != 1 || tile.Imagery[0].Layer() != b {
		t.Error("removing a should leave only b")
	}
}

func TestHiddenLayerCreatesNoImagery(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())
	tile := newTile(0, 0)
	r.SetTileSet(tileList{tile})

	layer := globe.NewImageryLayer("hidden", worldProvider{})
	layer.Show = false
	r.LayerAdded(layer, 0)
	if len(tile.Imagery) != 0 {
		t.Error("hidden layer must not create skeletons")
	}
}

func TestProjectedModesUseCentroidOrigin(t *testing.T) {
	tests := []struct {
		name        string
		projection  math.Projection
		webMercator bool
	}{
		{"geographic", math.NewGeographicProjection(math.WGS84), false},
		{"web mercator", math.NewWebMercatorProjection(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, compiler := newTestRenderer(DefaultOptions())
			tile := newTile(2, 3)
			frame := &globe.FrameState{
				Mode:       globe.Scene2D,
				Projection: tt.projection,
				Camera:     globe.CameraState{ViewMatrix: mgl64.Ident4()},
			}

			cmds := renderFrame(r, frame, tile)
			u := cmds[0].Uniforms

			sw := tt.projection.Project(tile.Rectangle.Southwest())
			ne := tt.projection.Project(tile.Rectangle.Northeast())
			wantOrigin := mgl64.Vec3{0, (sw[0] + ne[0]) / 2, (sw[1] + ne[1]) / 2}
			if got := u.ModifiedModelView.Col(3).Vec3(); !got.ApproxEqualThreshold(wantOrigin, 1e-6) {
				t.Errorf("model view translation %v, want %v", got, wantOrigin)
			}
			if !mgl64.FloatEqualThreshold(u.TileRectangle[0], -u.TileRectangle[2], 1e-6) {
				t.Errorf("tile rectangle %v not centered", u.TileRectangle)
			}
			if u.Center3D != tile.Center {
				t.Error("center3D must stay the 3D center")
			}

			if compiler.keys[0].UseWebMercatorProjection != tt.webMercator {
				t.Errorf("web mercator flag = %v", compiler.keys[0].UseWebMercatorProjection)
			}
			if tt.webMercator {
				if u.SouthAndNorthLatitude != (mgl64.Vec2{tile.Rectangle.South(), tile.Rectangle.North()}) {
					t.Errorf("latitudes %v", u.SouthAndNorthLatitude)
				}
				if u.SouthMercatorYAndOneOverHeight[1] <= 0 {
					t.Errorf("one over mercator height %v", u.SouthMercatorYAndOneOverHeight[1])
				}
			}

			if cmds[0].BoundingVolume.Center[0] != (tile.MinimumHeight+tile.MaximumHeight)/2 {
				t.Errorf("2D bounding volume not swizzled: %v", cmds[0].BoundingVolume.Center)
			}
		})
	}
}

func TestWireframeUsesLines(t *testing.T) {
	opts := DefaultOptions()
	opts.Wireframe = true
	r, _ := newTestRenderer(opts)

	tile := newTile(0, 0)
	tile.WireframeVertexArray = fakeVertexArray(77)
	cmd := renderFrame(r, frame3D(), tile)[0]
	if cmd.VertexArray != tile.WireframeVertexArray || cmd.PrimitiveType != command.Lines {
		t.Errorf("wireframe not applied: %v %v", cmd.VertexArray, cmd.PrimitiveType)
	}
}

func TestDebugBoundingSphere(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())
	shown, other := newTile(0, 0), newTile(1, 1)
	r.SetDebugSphereVertexArray(fakeVertexArray(1000))

	r.SetDebugBoundingSphereTile(other)
	if cmds := renderFrame(r, frame3D(), shown); len(cmds) != 1 {
		t.Errorf("debug sphere drawn for a tile that was not rendered")
	}

	r.SetDebugBoundingSphereTile(shown)
	cmds := renderFrame(r, frame3D(), shown)
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	debug := cmds[1]
	if debug.Pass != command.PassDebug || debug.PrimitiveType != command.Lines || debug.RenderState.Name != "debug" {
		t.Errorf("unexpected debug command %+v", debug)
	}
	s := shown.BoundingSphere3D
	if got := debug.ModelMatrix.Col(3).Vec3(); !got.ApproxEqualThreshold(s.Center, 1e-6) {
		t.Errorf("debug sphere center %v, want %v", got, s.Center)
	}
	if r.Stats().DrawCommands != 1 {
		t.Error("debug command must not count as a tile draw")
	}
}

func TestDayIntensity(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableLighting = true
	r, _ := newTestRenderer(opts)

	tile := newTile(4, 4)
	frame := frame3D()
	frame.SunDirectionWC = tile.Center.Normalize()
	if got := renderFrame(r, frame, tile)[0].Uniforms.DayIntensity; !mgl64.FloatEqualThreshold(got, 1, 1e-9) {
		t.Errorf("sun overhead intensity = %v, want 1", got)
	}

	frame.SunDirectionWC = tile.Center.Normalize().Mul(-1)
	if got := renderFrame(r, frame, tile)[0].Uniforms.DayIntensity; got != 0 {
		t.Errorf("night side intensity = %v, want 0", got)
	}
}

func TestShowTileWithoutMeshPanics(t *testing.T) {
	r, _ := newTestRenderer(DefaultOptions())
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	r.BeginFrame(frame3D())
	r.ShowTile(globe.NewTile(maptile.New(0, 0, 1), math.WGS84), frame3D())
}

func TestProgramCacheRemembersFailures(t *testing.T) {
	compiler := &fakeCompiler{fail: true}
	cache := NewProgramCache(compiler)

	key := ProgramKey{TextureCount: 1}
	if cache.Program(key) != nil || cache.Program(key) != nil {
		t.Error("failed compile should yield nil program")
	}
	if len(compiler.keys) != 1 {
		t.Errorf("compiled %d times, want 1", len(compiler.keys))
	}
	if cache.Len() != 1 {
		t.Errorf("cache len = %d", cache.Len())
	}
}

func TestProgramKeyDefines(t *testing.T) {
	key := ProgramKey{TextureCount: 3, ApplyGamma: true, Quantization: quantize.Bits12, EnableFog: true}
	want := []string{"TEXTURE_UNITS 3", "APPLY_GAMMA", "FOG", "QUANTIZATION_BITS12"}
	got := key.Defines()
	if len(got) != len(want) {
		t.Fatalf("defines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("define %d = %q, want %q", i, got[i], want[i])
		}
	}
}
