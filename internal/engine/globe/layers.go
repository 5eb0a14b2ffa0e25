package globe

import (
	"slices"
)

// LayerListener is notified of imagery layer collection changes.
type LayerListener interface {
	LayerAdded(layer *ImageryLayer, index int)
	LayerRemoved(layer *ImageryLayer, index int)
	LayerMoved(layer *ImageryLayer, newIndex, oldIndex int)
	LayerShownOrHidden(layer *ImageryLayer, index int, show bool)
}

// LayerCollection is the ordered stack of imagery layers. Index 0 is drawn
// first.
type LayerCollection struct {
	layers    []*ImageryLayer
	listeners []LayerListener
}

// NewLayerCollection creates an empty collection.
func NewLayerCollection() *LayerCollection {
	return &LayerCollection{}
}

// Subscribe registers a listener for collection events.
func (c *LayerCollection) Subscribe(l LayerListener) {
	c.listeners = append(c.listeners, l)
}

// Len returns the number of layers.
func (c *LayerCollection) Len() int {
	return len(c.layers)
}

// Get returns the layer at index.
func (c *LayerCollection) Get(index int) *ImageryLayer {
	return c.layers[index]
}

// IndexOf returns the layer's index, or -1.
func (c *LayerCollection) IndexOf(layer *ImageryLayer) int {
	return slices.Index(c.layers, layer)
}

// Add appends a layer on top of the stack.
func (c *LayerCollection) Add(layer *ImageryLayer) {
	c.AddAt(layer, len(c.layers))
}

// AddAt inserts a layer at index.
func (c *LayerCollection) AddAt(layer *ImageryLayer, index int) {
	if layer == nil {
		panic("imagery layer is required")
	}
	if index < 0 || index > len(c.layers) {
		panic("imagery layer index out of range")
	}

	c.layers = slices.Insert(c.layers, index, layer)
	c.reindex()

	for _, l := range c.listeners {
		l.LayerAdded(layer, index)
	}
}

// Remove removes a layer and reports whether it was present.
func (c *LayerCollection) Remove(layer *ImageryLayer) bool {
	index := c.IndexOf(layer)
	if index < 0 {
		return false
	}

	c.layers = slices.Delete(c.layers, index, index+1)
	layer.index = -1
	c.reindex()

	for _, l := range c.listeners {
		l.LayerRemoved(layer, index)
	}
	return true
}

// Raise moves a layer one position up.
func (c *LayerCollection) Raise(layer *ImageryLayer) {
	c.move(layer, c.checkedIndex(layer)+1)
}

// Lower moves a layer one position down.
func (c *LayerCollection) Lower(layer *ImageryLayer) {
	c.move(layer, c.checkedIndex(layer)-1)
}

// RaiseToTop moves a layer to the top of the stack.
func (c *LayerCollection) RaiseToTop(layer *ImageryLayer) {
	c.move(layer, len(c.layers)-1)
}

// LowerToBottom moves a layer to the bottom of the stack.
func (c *LayerCollection) LowerToBottom(layer *ImageryLayer) {
	c.move(layer, 0)
}

// SetShown toggles a layer's visibility and notifies listeners on change.
func (c *LayerCollection) SetShown(layer *ImageryLayer, show bool) {
	index := c.checkedIndex(layer)
	if layer.Show == show {
		return
	}
	layer.Show = show

	for _, l := range c.listeners {
		l.LayerShownOrHidden(layer, index, show)
	}
}

func (c *LayerCollection) checkedIndex(layer *ImageryLayer) int {
	index := c.IndexOf(layer)
	if index < 0 {
		panic("imagery layer is not in this collection")
	}
	return index
}

func (c *LayerCollection) move(layer *ImageryLayer, newIndex int) {
	oldIndex := c.checkedIndex(layer)
	newIndex = min(max(newIndex, 0), len(c.layers)-1)
	if newIndex == oldIndex {
		return
	}

	c.layers = slices.Delete(c.layers, oldIndex, oldIndex+1)
	c.layers = slices.Insert(c.layers, newIndex, layer)
	c.reindex()

	for _, l := range c.listeners {
		l.LayerMoved(layer, newIndex, oldIndex)
	}
}

func (c *LayerCollection) reindex() {
	for i, l := range c.layers {
		l.index = i
	}
}

// SortTileImagery orders a tile's imagery by layer index, keeping the
// relative order of entries from the same layer.
func SortTileImagery(imagery []*TileImagery) {
	slices.SortStableFunc(imagery, func(a, b *TileImagery) int {
		return a.Layer().Index() - b.Layer().Index()
	})
}
