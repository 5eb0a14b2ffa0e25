package globe

import (
	"errors"
	"image"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

type fakeTexture uint32

func (t fakeTexture) ID() uint32 { return uint32(t) }

type fakeProvider struct {
	rect     math.Rectangle
	pending  bool
	err      error
	requests int
}

func (p *fakeProvider) Rectangle() math.Rectangle { return p.rect }

func (p *fakeProvider) RequestImage(maptile.Tile) (*image.RGBA, error) {
	p.requests++
	if p.err != nil {
		return nil, p.err
	}
	if p.pending {
		return nil, nil
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

type fakeUploader struct{ next uint32 }

func (u *fakeUploader) UploadImage(*image.RGBA) (command.Texture, error) {
	u.next++
	return fakeTexture(u.next), nil
}

func worldProvider() *fakeProvider {
	return &fakeProvider{rect: math.RectangleFromDegrees(orb.Bound{Min: orb.Point{-180, -85.06}, Max: orb.Point{180, 85.06}})}
}

func TestParseSceneMode(t *testing.T) {
	tests := []struct {
		in   string
		want SceneMode
		err  bool
	}{
		{"3d", Scene3D, false},
		{"2d", Scene2D, false},
		{"columbus", Columbus, false},
		{"", Scene3D, false},
		{"morph", Scene3D, true},
	}
	for _, tt := range tests {
		got, err := ParseSceneMode(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseSceneMode(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSceneMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.err && got.String() != tt.in && tt.in != "" {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestTileEdgePlanesPointOutward(t *testing.T) {
	tile := NewTile(maptile.New(5, 5, 4), math.WGS84)
	r := tile.Rectangle
	midLat := (r.South() + r.North()) / 2
	midLon := (r.West() + r.East()) / 2

	outside := map[string]struct {
		pos    math.Cartographic
		normal mgl64.Vec3
		corner mgl64.Vec3
	}{
		"west":  {math.Cartographic{Longitude: r.West() - 0.05, Latitude: midLat}, tile.WestNormal, tile.SouthwestCornerCartesian},
		"east":  {math.Cartographic{Longitude: r.East() + 0.05, Latitude: midLat}, tile.EastNormal, tile.NortheastCornerCartesian},
		"south": {math.Cartographic{Longitude: midLon, Latitude: r.South() - 0.05}, tile.SouthNormal, tile.SouthwestCornerCartesian},
		"north": {math.Cartographic{Longitude: midLon, Latitude: r.North() + 0.05}, tile.NorthNormal, tile.NortheastCornerCartesian},
	}

	for name, tt := range outside {
		p := math.WGS84.CartographicToCartesian(tt.pos)
		if d := p.Sub(tt.corner).Dot(tt.normal); d <= 0 {
			t.Errorf("%s: point outside tile has plane distance %v, want > 0", name, d)
		}
		if gomath.Abs(tt.normal.Len()-1) > 1e-12 {
			t.Errorf("%s normal not unit length", name)
		}
	}

	center := math.WGS84.CartographicToCartesian(r.Center())
	if center.Sub(tile.SouthwestCornerCartesian).Dot(tile.WestNormal) >= 0 {
		t.Error("tile center should be inside the west plane")
	}
}

func TestTextureTranslationAndScale(t *testing.T) {
	tile := &Tile{Rectangle: math.NewRectangle(0.25, 0.5, 0.5, 0.75)}
	ti := &TileImagery{Ready: &Imagery{Rectangle: math.NewRectangle(0, 0.5, 1, 1)}}

	got := CalculateTextureTranslationAndScale(tile, ti)
	want := mgl64.Vec4{0.25, 0, 0.25, 0.5}
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("got %v, want %v", got, want)
	}

	same := &TileImagery{Ready: &Imagery{Rectangle: tile.Rectangle}}
	if got := CalculateTextureTranslationAndScale(tile, same); !got.ApproxEqualThreshold(mgl64.Vec4{0, 0, 1, 1}, 1e-12) {
		t.Errorf("identical rectangles: got %v", got)
	}
}

func TestTileImageryStateMachine(t *testing.T) {
	tile := NewTile(maptile.New(1, 1, 2), math.WGS84)
	provider := worldProvider()
	provider.pending = true
	layer := NewImageryLayer("base", provider)

	if !layer.CreateTileImagerySkeletons(tile) {
		t.Fatal("expected skeleton for covering layer")
	}
	ti := tile.Imagery[0]
	if ti.TextureCoordinateRectangle != (mgl64.Vec4{0, 0, 1, 1}) {
		t.Errorf("full coverage rectangle = %v", ti.TextureCoordinateRectangle)
	}

	up := &fakeUploader{}
	if ti.ProcessStateMachine(up) {
		t.Fatal("pending imagery should not finish")
	}
	if tile.ReadyImageryCount() != 0 {
		t.Error("no imagery should be ready yet")
	}

	provider.pending = false
	if !ti.ProcessStateMachine(up) {
		t.Fatal("expected imagery to finish loading")
	}
	if ti.Ready == nil || !ti.Ready.Ready() || ti.Loading != nil {
		t.Fatalf("unexpected binding state %+v", ti)
	}
	if tile.ReadyImageryCount() != 1 {
		t.Errorf("ready count = %d, want 1", tile.ReadyImageryCount())
	}

	layer.Alpha = 0
	if tile.ReadyImageryCount() != 0 {
		t.Error("transparent layers must not count as ready")
	}
}

func TestTileImageryFailure(t *testing.T) {
	tile := NewTile(maptile.New(0, 0, 1), math.WGS84)
	provider := worldProvider()
	provider.err = errors.New("boom")
	layer := NewImageryLayer("broken", provider)
	layer.CreateTileImagerySkeletons(tile)

	ti := tile.Imagery[0]
	im := ti.Loading
	if !ti.ProcessStateMachine(&fakeUploader{}) {
		t.Fatal("failed imagery is done")
	}
	if im.State != ImageryFailed || im.Err == nil {
		t.Errorf("expected failed state with error, got %v %v", im.State, im.Err)
	}
	if ti.Ready != nil || ti.Layer() != layer {
		t.Error("failed binding keeps its layer but has no ready imagery")
	}
}

func TestSkeletonSkipsUncoveredTile(t *testing.T) {
	tile := NewTile(maptile.New(0, 0, 1), math.WGS84)
	provider := &fakeProvider{rect: math.RectangleFromDegrees(orb.Bound{Min: orb.Point{100, -10}, Max: orb.Point{110, 10}})}
	if NewImageryLayer("east", provider).CreateTileImagerySkeletons(tile) {
		t.Error("layer outside the tile should not add imagery")
	}
}

type event struct {
	kind     string
	layer    string
	index    int
	oldIndex int
}

type recorder struct{ events []event }

func (r *recorder) LayerAdded(l *ImageryLayer, index int) {
	r.events = append(r.events, event{"added", l.Name, index, -1})
}

func (r *recorder) LayerRemoved(l *ImageryLayer, index int) {
	r.events = append(r.events, event{"removed", l.Name, index, -1})
}

func (r *recorder) LayerMoved(l *ImageryLayer, newIndex, oldIndex int) {
	r.events = append(r.events, event{"moved", l.Name, newIndex, oldIndex})
}

func (r *recorder) LayerShownOrHidden(l *ImageryLayer, index int, show bool) {
	kind := "hidden"
	if show {
		kind = "shown"
	}
	r.events = append(r.events, event{kind, l.Name, index, -1})
}

func TestLayerCollectionEvents(t *testing.T) {
	c := NewLayerCollection()
	rec := &recorder{}
	c.Subscribe(rec)

	a := NewImageryLayer("a", worldProvider())
	b := NewImageryLayer("b", worldProvider())
	d := NewImageryLayer("d", worldProvider())

	c.Add(a)
	c.Add(b)
	c.AddAt(d, 0)
	if c.Len() != 3 || c.Get(0) != d || a.Index() != 1 || b.Index() != 2 {
		t.Fatalf("unexpected order after adds: d=%d a=%d b=%d", d.Index(), a.Index(), b.Index())
	}

	c.RaiseToTop(d)
	c.Lower(a) // already at the bottom
	c.SetShown(b, false)
	c.SetShown(b, false) // no change
	if !c.Remove(a) || c.Remove(a) {
		t.Error("Remove should succeed exactly once")
	}
	if a.Index() != -1 || b.Index() != 0 || d.Index() != 1 {
		t.Errorf("unexpected indices after remove: a=%d b=%d d=%d", a.Index(), b.Index(), d.Index())
	}

	want := []event{
		{"added", "a", 0, -1},
		{"added", "b", 1, -1},
		{"added", "d", 0, -1},
		{"moved", "d", 2, 0},
		{"hidden", "b", 1, -1},
		{"removed", "a", 0, -1},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("got events %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, rec.events[i], want[i])
		}
	}
}

func TestSortTileImageryIsStable(t *testing.T) {
	c := NewLayerCollection()
	a := NewImageryLayer("a", worldProvider())
	b := NewImageryLayer("b", worldProvider())
	c.Add(a)
	c.Add(b)

	tile := NewTile(maptile.New(0, 0, 1), math.WGS84)
	b.CreateTileImagerySkeletons(tile)
	a.CreateTileImagerySkeletons(tile)
	b.CreateTileImagerySkeletons(tile)
	first, second := tile.Imagery[0], tile.Imagery[2]

	SortTileImagery(tile.Imagery)
	if tile.Imagery[0].Layer() != a {
		t.Fatal("layer a should sort first")
	}
	if tile.Imagery[1] != first || tile.Imagery[2] != second {
		t.Error("entries of the same layer must keep their relative order")
	}
}
