package terrain

import (
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/logger"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

// Result is a finished mesh build.
type Result struct {
	Key  maptile.Tile
	Mesh *Mesh
	Err  error
}

// Builder tessellates and encodes heightmaps on a worker pool. Finished
// results are handed to the render thread through Drain.
type Builder struct {
	pool      pond.Pool
	ellipsoid *math.Ellipsoid
	opts      TessellateOptions

	scratch sync.Pool
	pending sync.WaitGroup

	mu     sync.Mutex
	done   []Result
	closed bool
}

// NewBuilder creates a builder with the given number of workers.
func NewBuilder(workers int, ellipsoid *math.Ellipsoid, opts TessellateOptions) *Builder {
	if ellipsoid == nil {
		panic("terrain builder requires an ellipsoid")
	}
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		pool:      pond.NewPool(workers),
		ellipsoid: ellipsoid,
		opts:      opts,
		scratch: sync.Pool{
			New: func() any { return &Scratch{} },
		},
	}
}

// Submit queues a heightmap for mesh building.
func (b *Builder) Submit(key maptile.Tile, hm *Heightmap) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBuilderClosed
	}
	b.pending.Add(1)
	b.mu.Unlock()

	b.pool.Submit(func() {
		defer b.pending.Done()

		mesh, err := b.build(hm)
		if err != nil {
			err = fmt.Errorf("build tile %d/%d/%d: %w", key.Z, key.X, key.Y, err)
			logger.Warn("mesh build failed", zap.Error(err))
		}

		b.mu.Lock()
		b.done = append(b.done, Result{Key: key, Mesh: mesh, Err: err})
		b.mu.Unlock()
	})
	return nil
}

func (b *Builder) build(hm *Heightmap) (*Mesh, error) {
	raw, err := hm.Tessellate(b.ellipsoid, b.opts)
	if err != nil {
		return nil, err
	}

	s := b.scratch.Get().(*Scratch)
	defer b.scratch.Put(s)
	return BuildMeshWithScratch(raw, b.ellipsoid, s)
}

// Drain returns the results finished since the last call. Ownership of the
// returned meshes passes to the caller.
func (b *Builder) Drain() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.done
	b.done = nil
	return out
}

// Wait blocks until every submitted build has finished.
func (b *Builder) Wait() {
	b.pending.Wait()
}

// Close rejects further submissions and waits for queued builds.
func (b *Builder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.pool.StopAndWait()
}
