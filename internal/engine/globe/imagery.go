package globe

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Default imagery layer color adjustments. A layer whose values all equal
// the defaults needs no color correction in the shader.
const (
	DefaultBrightness = 1.0
	DefaultContrast   = 1.0
	DefaultHue        = 0.0
	DefaultSaturation = 1.0
	DefaultGamma      = 1.0
)

// ImageryProvider produces imagery tiles in the same web-mercator tiling as
// the terrain.
type ImageryProvider interface {
	// Rectangle is the provider's coverage in radians.
	Rectangle() math.Rectangle
	RequestImage(key maptile.Tile) (*image.RGBA, error)
}

// TextureUploader turns decoded images into GPU textures.
type TextureUploader interface {
	UploadImage(img *image.RGBA) (command.Texture, error)
}

// ImageryLayer is one imagery source with display adjustments.
type ImageryLayer struct {
	Name     string
	Provider ImageryProvider

	Alpha      float64
	Brightness float64
	Contrast   float64
	Hue        float64
	Saturation float64
	Gamma      float64
	Show       bool

	index int
}

// NewImageryLayer creates a visible layer with default adjustments.
func NewImageryLayer(name string, provider ImageryProvider) *ImageryLayer {
	return &ImageryLayer{
		Name:       name,
		Provider:   provider,
		Alpha:      1,
		Brightness: DefaultBrightness,
		Contrast:   DefaultContrast,
		Hue:        DefaultHue,
		Saturation: DefaultSaturation,
		Gamma:      DefaultGamma,
		Show:       true,
		index:      -1,
	}
}

// Index returns the layer's position in its collection, or -1.
func (l *ImageryLayer) Index() int {
	return l.index
}

func (l *ImageryLayer) String() string {
	return fmt.Sprintf("%s[%d]", l.Name, l.index)
}

// CreateTileImagerySkeletons appends an unloaded imagery entry for tile when
// the layer covers it. It reports whether anything was added.
func (l *ImageryLayer) CreateTileImagerySkeletons(tile *Tile) bool {
	if l.Provider == nil || !intersects(l.Provider.Rectangle(), tile.Rectangle) {
		return false
	}

	imagery := &Imagery{
		Layer:     l,
		Key:       tile.Key,
		Rectangle: tile.Rectangle,
	}
	tile.Imagery = append(tile.Imagery, NewTileImagery(imagery, tile.Rectangle))
	return true
}

func intersects(a, b math.Rectangle) bool {
	return a.West() <= b.East() && b.West() <= a.East() &&
		a.South() <= b.North() && b.South() <= a.North()
}

// ImageryState tracks imagery loading.
type ImageryState int

const (
	ImageryUnloaded ImageryState = iota
	ImageryReceived
	ImageryReady
	ImageryFailed
)

func (s ImageryState) String() string {
	switch s {
	case ImageryUnloaded:
		return "unloaded"
	case ImageryReceived:
		return "received"
	case ImageryReady:
		return "ready"
	case ImageryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Imagery is one imagery tile of a layer.
type Imagery struct {
	Layer     *ImageryLayer
	Key       maptile.Tile
	Rectangle math.Rectangle
	State     ImageryState
	Image     *image.RGBA
	Texture   command.Texture
	Err       error
}

// Ready reports whether the texture is available.
func (im *Imagery) Ready() bool {
	return im.State == ImageryReady && im.Texture != nil
}

// Load requests the image from the layer's provider.
func (im *Imagery) Load() {
	img, err := im.Layer.Provider.RequestImage(im.Key)
	if err != nil {
		im.State = ImageryFailed
		im.Err = fmt.Errorf("request imagery %s %d/%d/%d: %w", im.Layer.Name, im.Key.Z, im.Key.X, im.Key.Y, err)
		return
	}
	if img == nil {
		return
	}
	im.Image = img
	im.State = ImageryReceived
}

// CreateTexture uploads the received image.
func (im *Imagery) CreateTexture(up TextureUploader) {
	tex, err := up.UploadImage(im.Image)
	if err != nil {
		im.State = ImageryFailed
		im.Err = fmt.Errorf("upload imagery %s: %w", im.Layer.Name, err)
		return
	}
	im.Texture = tex
	im.Image = nil
	im.State = ImageryReady
}

// Release frees the texture when it supports releasing.
func (im *Imagery) Release() {
	if r, ok := im.Texture.(interface{ Release() }); ok {
		r.Release()
	}
	im.Texture = nil
	im.Image = nil
}

// TileImagery binds one layer's imagery to a tile.
type TileImagery struct {
	Loading *Imagery
	Ready   *Imagery

	// TextureTranslationAndScale is computed lazily by the renderer.
	TextureTranslationAndScale *mgl64.Vec4
	// TextureCoordinateRectangle is the part of the tile the imagery covers,
	// as (west, south, east, north) in tile texture coordinates.
	TextureCoordinateRectangle mgl64.Vec4

	layer *ImageryLayer
}

// NewTileImagery creates a loading binding of imagery to a tile rectangle.
func NewTileImagery(imagery *Imagery, tileRectangle math.Rectangle) *TileImagery {
	return &TileImagery{
		Loading:                    imagery,
		TextureCoordinateRectangle: textureCoordinateRectangle(tileRectangle, imagery.Rectangle),
		layer:                      imagery.Layer,
	}
}

func textureCoordinateRectangle(tile, imagery math.Rectangle) mgl64.Vec4 {
	w := max(tile.Width(), math.Epsilon14)
	h := max(tile.Height(), math.Epsilon14)
	return mgl64.Vec4{
		math.Clamp((imagery.West()-tile.West())/w, 0, 1),
		math.Clamp((imagery.South()-tile.South())/h, 0, 1),
		math.Clamp((imagery.East()-tile.West())/w, 0, 1),
		math.Clamp((imagery.North()-tile.South())/h, 0, 1),
	}
}

// Layer returns the imagery layer this binding belongs to.
func (ti *TileImagery) Layer() *ImageryLayer {
	return ti.layer
}

// ProcessStateMachine advances loading and reports whether the binding is
// done loading, successfully or not.
func (ti *TileImagery) ProcessStateMachine(up TextureUploader) bool {
	im := ti.Loading
	if im == nil {
		return true
	}

	if im.State == ImageryUnloaded {
		im.Load()
	}
	if im.State == ImageryReceived {
		im.CreateTexture(up)
	}

	switch im.State {
	case ImageryReady:
		if ti.Ready != nil {
			ti.Ready.Release()
		}
		ti.Ready = im
		ti.Loading = nil
		ti.TextureTranslationAndScale = nil
		return true
	case ImageryFailed:
		ti.Loading = nil
		return true
	default:
		return false
	}
}

// FreeResources releases both loading and ready imagery.
func (ti *TileImagery) FreeResources() {
	if ti.Loading != nil {
		ti.Loading.Release()
		ti.Loading = nil
	}
	if ti.Ready != nil {
		ti.Ready.Release()
		ti.Ready = nil
	}
}

// CalculateTextureTranslationAndScale maps tile texture coordinates onto the
// ready imagery's texture as (translateX, translateY, scaleX, scaleY).
func CalculateTextureTranslationAndScale(tile *Tile, ti *TileImagery) mgl64.Vec4 {
	imageryRect := ti.Ready.Rectangle
	terrainRect := tile.Rectangle

	terrainWidth := terrainRect.Width()
	terrainHeight := terrainRect.Height()

	scaleX := terrainWidth / imageryRect.Width()
	scaleY := terrainHeight / imageryRect.Height()

	return mgl64.Vec4{
		scaleX * (terrainRect.West() - imageryRect.West()) / terrainWidth,
		scaleY * (terrainRect.South() - imageryRect.South()) / terrainHeight,
		scaleX,
		scaleY,
	}
}
