package surface

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/globe"
)

var _ globe.LayerListener = (*Renderer)(nil)

// LayerAdded creates imagery skeletons for the new layer on every loaded
// tile. Sorting is deferred to the next BeginFrame.
func (r *Renderer) LayerAdded(layer *globe.ImageryLayer, index int) {
	if !layer.Show {
		return
	}

	tiles := 0
	if r.tileSet != nil {
		r.tileSet.ForEachLoadedTile(func(tile *globe.Tile) {
			if layer.CreateTileImagerySkeletons(tile) {
				tiles++
			}
		})
	}
	r.layerOrderChanged = true
	r.log.Debug("imagery layer added", zap.Stringer("layer", layer), zap.Int("index", index), zap.Int("tiles", tiles))
}

// LayerRemoved drops the layer's imagery from every loaded tile. A tile's
// entries for one layer are contiguous, so a single splice suffices.
func (r *Renderer) LayerRemoved(layer *globe.ImageryLayer, index int) {
	if r.tileSet == nil {
		return
	}

	r.tileSet.ForEachLoadedTile(func(tile *globe.Tile) {
		start, count := -1, 0
		for i, ti := range tile.Imagery {
			if ti.Layer() != layer {
				if start >= 0 {
					break
				}
				continue
			}
			if start < 0 {
				start = i
			}
			ti.FreeResources()
			count++
		}
		if start >= 0 {
			tile.Imagery = slices.Delete(tile.Imagery, start, start+count)
		}
	})
	r.log.Debug("imagery layer removed", zap.Stringer("layer", layer), zap.Int("index", index))
}

// LayerMoved marks imagery order dirty.
func (r *Renderer) LayerMoved(layer *globe.ImageryLayer, newIndex, oldIndex int) {
	r.layerOrderChanged = true
}

// LayerShownOrHidden treats showing as adding and hiding as removing.
func (r *Renderer) LayerShownOrHidden(layer *globe.ImageryLayer, index int, show bool) {
	if show {
		r.LayerAdded(layer, index)
	} else {
		r.LayerRemoved(layer, index)
	}
}
