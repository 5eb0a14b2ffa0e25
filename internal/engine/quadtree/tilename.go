package quadtree

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

type tileName maptile.Tile

func (t tileName) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}
