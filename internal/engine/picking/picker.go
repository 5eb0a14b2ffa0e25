package picking

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/logger"
)

// ErrNoHit is returned when the ray misses every tile.
var ErrNoHit = errors.New("picking: no hit")

const bytesPerPosition = 24

// Hit is the nearest intersection of a pick ray with the surface.
type Hit struct {
	Tile     *globe.Tile
	Position mgl64.Vec3
	Distance float64
}

// Picker intersects rays with tile meshes. Decoded vertex positions are
// cached per tile and tiles are tested in parallel.
type Picker struct {
	pool  pond.Pool
	cache *ristretto.Cache[uint64, []mgl64.Vec3]
	log   *zap.Logger
}

// NewPicker creates a picker with the given worker count and cache budget in bytes.
func NewPicker(workers int, maxCost int64) (*Picker, error) {
	if workers < 1 {
		workers = 1
	}
	if maxCost < 1 {
		maxCost = 64 << 20
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []mgl64.Vec3]{
		NumCounters: 10000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create position cache: %w", err)
	}

	return &Picker{
		pool:  pond.NewPool(workers),
		cache: cache,
		log:   logger.Named("picking"),
	}, nil
}

// Close stops the workers and releases the cache.
func (p *Picker) Close() {
	p.pool.StopAndWait()
	p.cache.Close()
}

// Evict drops cached positions for a tile whose mesh was freed.
func (p *Picker) Evict(key maptile.Tile) {
	p.cache.Del(cacheKey(key))
}

// PickCommands tests the ray against the distinct tiles owning cmds, such
// as the surface pick command list.
func (p *Picker) PickCommands(ray Ray, cmds []*command.DrawCommand) (Hit, error) {
	seen := make(map[*globe.Tile]struct{}, len(cmds))
	tiles := make([]*globe.Tile, 0, len(cmds))
	for _, cmd := range cmds {
		tile, ok := cmd.Owner.(*globe.Tile)
		if !ok {
			continue
		}
		if _, dup := seen[tile]; dup {
			continue
		}
		seen[tile] = struct{}{}
		tiles = append(tiles, tile)
	}
	return p.Pick(ray, tiles)
}

// Pick returns the nearest surface hit among tiles.
func (p *Picker) Pick(ray Ray, tiles []*globe.Tile) (Hit, error) {
	results := make([]Hit, len(tiles))
	var wg sync.WaitGroup

	for i, tile := range tiles {
		results[i].Distance = gomath.Inf(1)
		if tile.Mesh == nil {
			continue
		}
		if _, ok := ray.IntersectSphere(tile.Mesh.BoundingSphere); !ok {
			continue
		}

		wg.Add(1)
		p.pool.Submit(func() {
			defer wg.Done()
			results[i] = p.pickTile(ray, tile)
		})
	}
	wg.Wait()

	best := Hit{Distance: gomath.Inf(1)}
	for _, h := range results {
		if h.Tile != nil && h.Distance < best.Distance {
			best = h
		}
	}
	if best.Tile == nil {
		return Hit{}, ErrNoHit
	}

	p.log.Debug("pick hit",
		zap.Uint32("z", uint32(best.Tile.Key.Z)),
		zap.Uint32("x", best.Tile.Key.X),
		zap.Uint32("y", best.Tile.Key.Y),
		zap.Float64("distance", best.Distance),
	)
	return best, nil
}

func (p *Picker) pickTile(ray Ray, tile *globe.Tile) Hit {
	positions := p.positions(tile)
	indices := tile.Mesh.Indices

	hit := Hit{Distance: gomath.Inf(1)}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(max(a, b, c)) >= len(positions) {
			continue
		}
		if t, ok := ray.IntersectTriangle(positions[a], positions[b], positions[c]); ok && t < hit.Distance {
			hit = Hit{Tile: tile, Distance: t}
		}
	}
	if hit.Tile != nil {
		hit.Position = ray.At(hit.Distance)
	}
	return hit
}

// positions returns the decoded Earth-fixed vertex positions of a tile.
func (p *Picker) positions(tile *globe.Tile) []mgl64.Vec3 {
	key := cacheKey(tile.Key)
	if cached, ok := p.cache.Get(key); ok && len(cached) == tile.Mesh.VertexCount() {
		return cached
	}

	mesh := tile.Mesh
	positions := make([]mgl64.Vec3, mesh.VertexCount())
	for i := range positions {
		positions[i] = mesh.Encoding.DecodePosition(mesh.Vertices, i)
	}
	p.cache.Set(key, positions, int64(len(positions)*bytesPerPosition))
	return positions
}

// cacheKey packs a tile key into 64 bits: 5 bits of zoom over the quadkey.
func cacheKey(t maptile.Tile) uint64 {
	return uint64(t.Z)<<58 | t.Quadkey()
}
