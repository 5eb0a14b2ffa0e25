package viewer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/paulmach/orb/maptile"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Faultbox/midgard-globe/pkg/math"
)

// DefaultGridTileSize is the edge length of generated grid images.
const DefaultGridTileSize = 256

var gridPalette = []color.RGBA{
	{0x3b, 0x6e, 0x8f, 0xff},
	{0x4f, 0x8a, 0x5b, 0xff},
	{0x9c, 0x7a, 0x3c, 0xff},
	{0x8c, 0x4f, 0x6b, 0xff},
	{0x5a, 0x5f, 0x9e, 0xff},
	{0x3f, 0x8c, 0x88, 0xff},
}

var gridBorder = color.RGBA{0x10, 0x10, 0x10, 0xff}

// GridImagery draws every tile as a flat color picked by zoom level with a
// dark border and its z/x/y name. It covers the whole web-mercator square.
type GridImagery struct {
	size int
	rect math.Rectangle
}

// NewGridImagery creates a grid provider producing size x size images.
func NewGridImagery(size int) *GridImagery {
	if size < 8 {
		size = DefaultGridTileSize
	}
	return &GridImagery{
		size: size,
		rect: math.RectangleFromDegrees(maptile.New(0, 0, 0).Bound()),
	}
}

// Rectangle implements globe.ImageryProvider.
func (g *GridImagery) Rectangle() math.Rectangle {
	return g.rect
}

// RequestImage implements globe.ImageryProvider.
func (g *GridImagery) RequestImage(key maptile.Tile) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, g.size, g.size))
	draw.Draw(img, img.Bounds(), image.NewUniform(gridColor(key)), image.Point{}, draw.Src)

	border := image.NewUniform(gridBorder)
	last := g.size - 1
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, g.size, 1),
		image.Rect(0, last, g.size, g.size),
		image.Rect(0, 0, 1, g.size),
		image.Rect(last, 0, g.size, g.size),
	} {
		draw.Draw(img, r, border, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  img,
		Src:  border,
		Face: face,
		Dot:  fixed.P(4, 2+face.Ascent),
	}
	d.DrawString(tileName(key))
	return img, nil
}

// gridColor alternates the zoom level's palette color between neighbors.
func gridColor(key maptile.Tile) color.RGBA {
	c := gridPalette[int(key.Z)%len(gridPalette)]
	if (key.X+key.Y)%2 == 1 {
		c.R = uint8(min(int(c.R)+24, 0xff))
		c.G = uint8(min(int(c.G)+24, 0xff))
		c.B = uint8(min(int(c.B)+24, 0xff))
	}
	return c
}

func tileName(key maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", key.Z, key.X, key.Y)
}
