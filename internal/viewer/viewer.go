// Package viewer implements the interactive globe viewer loop.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/paulmach/orb/maptile"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-globe/internal/config"
	"github.com/Faultbox/midgard-globe/internal/engine/camera"
	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/debug"
	"github.com/Faultbox/midgard-globe/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/input"
	"github.com/Faultbox/midgard-globe/internal/engine/lighting"
	"github.com/Faultbox/midgard-globe/internal/engine/picking"
	"github.com/Faultbox/midgard-globe/internal/engine/quadtree"
	"github.com/Faultbox/midgard-globe/internal/engine/renderer"
	"github.com/Faultbox/midgard-globe/internal/engine/shader"
	"github.com/Faultbox/midgard-globe/internal/engine/surface"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/internal/engine/window"
	"github.com/Faultbox/midgard-globe/internal/logger"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

const (
	windowTitle      = "Midgard Globe"
	screenshotDir    = "screenshots"
	screenshotPrefix = "globe"
)

// Viewer is the main viewer instance.
type Viewer struct {
	config  *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	ellipsoid  *math.Ellipsoid
	mode       globe.SceneMode
	projection math.Projection
	camera     *camera.Camera

	compiler *shader.GLCompiler
	programs *surface.ProgramCache
	surface  *surface.Renderer
	layers   *globe.LayerCollection
	builder  *terrain.Builder
	tiles    *quadtree.Primitive

	picker      *picking.Picker
	pickTarget  *framebuffer.Framebuffer
	debugSphere *renderer.VertexArray
	overlay     *pickOverlay
	screenshots *debug.ScreenshotCapture

	width, height     int // Drawable size in pixels
	frameNumber       uint64
	last              view // Last completed frame, used for picking
	commands          []*command.DrawCommand
	captureScreenshot bool

	log *zap.Logger
}

// New creates the window, GL resources and the globe surface.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		config:      cfg,
		ellipsoid:   math.WGS84,
		mode:        cfg.Mode(),
		screenshots: debug.NewScreenshotCapture(screenshotDir, screenshotPrefix),
		log:         logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Stringer("mode", v.mode),
	)

	var err error
	v.projection, err = cfg.ProjectionFor(v.ellipsoid)
	if err != nil {
		return nil, err
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	v.width, v.height = v.window.DrawableSize()

	// Create renderer (AFTER window, since OpenGL context must exist)
	v.renderer, err = renderer.New(renderer.Config{
		Width:      v.width,
		Height:     v.height,
		VSync:      cfg.Graphics.VSync,
		ClearColor: gputypes.Color{A: 1},
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.input = input.New()

	if err := v.initGlobe(); err != nil {
		v.Close()
		return nil, err
	}

	v.camera = camera.New(v.ellipsoid)
	v.camera.SetViewport(v.width, v.height)
	c := cfg.Camera
	v.camera.LookAtCartographic(math.CartographicFromDegrees(c.Longitude, c.Latitude, 0), c.Height)

	v.log.Info("viewer initialized successfully")
	return v, nil
}

func (v *Viewer) initGlobe() error {
	cfg := v.config
	provider := terrain.NewProceduralProvider(v.ellipsoid, cfg.Terrain.HeightmapSize, cfg.Terrain.Amplitude, false)

	v.compiler = shader.NewGLCompiler()
	v.programs = surface.NewProgramCache(v.compiler)
	v.surface = surface.New(cfg.SurfaceConfig(v.renderer.MaxTextureUnits(), provider.HasVertexNormals()), v.programs)

	var err error
	v.picker, err = picking.NewPicker(cfg.Picking.Workers, cfg.Picking.CacheMaxCost)
	if err != nil {
		return fmt.Errorf("failed to create picker: %w", err)
	}
	v.pickTarget, err = framebuffer.New(int32(v.width), int32(v.height))
	if err != nil {
		return fmt.Errorf("failed to create pick target: %w", err)
	}

	v.debugSphere, err = v.renderer.UploadLines(debug.UnitSphereLines(debug.DefaultSphereSegments))
	if err != nil {
		return fmt.Errorf("failed to upload debug sphere: %w", err)
	}
	v.surface.SetDebugSphereVertexArray(v.debugSphere)
	v.overlay = newPickOverlay(v.uploadLines)

	v.builder = terrain.NewBuilder(cfg.Terrain.Workers, v.ellipsoid, terrain.TessellateOptions{})
	v.layers = globe.NewLayerCollection()
	v.tiles = quadtree.New(quadtree.Options{
		Ellipsoid:               v.ellipsoid,
		Provider:                provider,
		Builder:                 v.builder,
		Meshes:                  meshUploader{v.renderer},
		Textures:                v.renderer,
		Layers:                  v.layers,
		MaximumScreenSpaceError: cfg.Globe.MaximumScreenSpaceError,
		MaxLevel:                maptile.Zoom(cfg.Terrain.MaxLevel),
		Wireframe:               cfg.Globe.Wireframe,
		TerrainHeights:          surface.TerrainHeightsFor(cfg.Globe.TerrainExaggeration),
		OnUnload:                v.tileUnloaded,
	})
	v.surface.SetTileSet(v.tiles)

	v.layers.Subscribe(v.surface)
	v.layers.Add(globe.NewImageryLayer("grid", NewGridImagery(DefaultGridTileSize)))
	return nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			switch event.Type {
			case input.EventWindowResize:
				v.resize()
			case input.EventKeyDown:
				v.handleKey(event.Key)
			}
		}

		// 2. Picks see the last completed frame
		for _, click := range v.input.Clicks() {
			v.pick(click[0], click[1])
		}

		// 3. Render
		v.render(now)
		if v.captureScreenshot {
			v.captureScreenshot = false
			v.screenshot()
		}

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.logStats(frameCount, dt)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close releases every resource created by New.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.builder != nil {
		v.builder.Close()
	}
	if v.picker != nil {
		v.picker.Close()
	}
	if v.debugSphere != nil {
		v.debugSphere.Release()
	}
	if v.overlay != nil {
		v.overlay.Release()
	}
	if v.pickTarget != nil {
		v.pickTarget.Destroy()
	}
	if v.compiler != nil {
		v.compiler.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) render(now time.Time) {
	v.frameNumber++
	current := buildView(v.camera, viewParams{
		mode:           v.mode,
		ellipsoid:      v.ellipsoid,
		projection:     v.projection,
		fog:            v.config.Fog,
		viewportHeight: v.height,
		frameNumber:    v.frameNumber,
		sun:            lighting.SunDirection(now),
	})

	v.surface.BeginFrame(current.frame)
	v.tiles.Update(current.frame, v.surface)
	v.commands = append(v.commands[:0], v.surface.EndFrame(current.frame)...)
	v.commands = v.overlay.Commands(v.commands, v.programs.Program(surface.ProgramKey{Debug: true}), v.mode)

	v.renderer.Begin()
	v.renderer.Execute(v.commands, current.uniforms)
	v.last = current
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
		return
	case sdl.SCANCODE_F12:
		v.captureScreenshot = true
		return
	}

	if mode, ok := sceneModeKey(key); ok {
		if mode != v.mode {
			v.log.Info("scene mode changed", zap.Stringer("from", v.mode), zap.Stringer("to", mode))
			v.mode = mode
		}
	}
}

func (v *Viewer) resize() {
	v.width, v.height = v.window.DrawableSize()
	v.renderer.Resize(v.width, v.height)
	v.camera.SetViewport(v.width, v.height)
	v.pickTarget.Resize(int32(v.width), int32(v.height))
}

// pick renders the last frame's tiles into the pick target and reports the
// surface position under a window point.
func (v *Viewer) pick(windowX, windowY int) {
	frame := v.last.frame
	if frame == nil {
		return
	}

	ww, wh := v.window.GetSize()
	if ww <= 0 || wh <= 0 {
		return
	}
	x := float64(windowX) * float64(v.width) / float64(ww)
	y := float64(windowY) * float64(v.height) / float64(wh)
	w, h := float64(v.width), float64(v.height)

	cmds := v.surface.UpdateForPick(frame)
	v.pickTarget.Bind()
	v.pickTarget.Clear(0, 0, 0, 0)
	v.renderer.Execute(cmds, v.last.uniforms)
	depth := v.pickTarget.ReadDepth(int32(x), int32(y))
	v.pickTarget.Unbind()
	v.renderer.Resize(v.width, v.height)

	fields := []zap.Field{zap.Float64("x", x), zap.Float64("y", y), zap.Int("commands", len(cmds))}
	if p, ok := picking.DepthToWorld(x, y, depth, w, h, v.last.inverseViewProjection); ok {
		if c, ok := worldPosition(frame, v.ellipsoid, p); ok {
			fields = append(fields,
				zap.Float64("longitude", math.ToDegrees(c.Longitude)),
				zap.Float64("latitude", math.ToDegrees(c.Latitude)),
				zap.Float64("height", c.Height),
			)
		}
	}

	// Mesh positions are Earth-fixed, so ray tests only apply in 3D.
	if frame.Mode == globe.Scene3D {
		ray := picking.ScreenToRay(x, y, w, h, v.last.inverseViewProjection)
		hit, err := v.picker.PickCommands(ray, cmds)
		switch {
		case err == nil:
			v.surface.SetDebugBoundingSphereTile(hit.Tile)
			if err := v.overlay.Set(hit.Tile, v.ellipsoid); err != nil {
				v.log.Warn("pick overlay failed", zap.Error(err))
			}
			fields = append(fields, zap.String("tile", tileName(hit.Tile.Key)), zap.Float64("distance", hit.Distance))
		case errors.Is(err, picking.ErrNoHit):
			v.surface.SetDebugBoundingSphereTile(nil)
			v.overlay.Clear()
		default:
			v.log.Warn("pick failed", zap.Error(err))
		}
	}
	v.log.Info("pick", fields...)
}

func (v *Viewer) screenshot() {
	pixels := framebuffer.ReadScreen(int32(v.width), int32(v.height))
	path, err := v.screenshots.CaptureFromPixels(pixels, v.width, v.height)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) tileUnloaded(tile *globe.Tile) {
	v.picker.Evict(tile.Key)
	if v.overlay.Tile() == tile {
		v.overlay.Clear()
		v.surface.SetDebugBoundingSphereTile(nil)
	}
}

func (v *Viewer) uploadLines(positions []float32) (command.VertexArray, error) {
	va, err := v.renderer.UploadLines(positions)
	if err != nil {
		return nil, err
	}
	return va, nil
}

func (v *Viewer) logStats(frames int, dt float64) {
	s := v.surface.Stats()
	q := v.tiles.Stats()
	r := v.renderer.Stats()
	hits, misses := v.programs.Counters()
	v.log.Debug("fps",
		zap.Int("count", frames),
		zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
		zap.Int("selected", q.Selected),
		zap.Int("loaded", q.Loaded),
		zap.Int("loading", q.Loading),
		zap.Int("culled", q.Culled),
		zap.Int("tilesRendered", s.TilesRendered),
		zap.Int("commands", s.DrawCommands),
		zap.Int("drawCalls", r.DrawCalls),
		zap.Int("programs", v.programs.Len()),
		zap.Int("programHits", hits),
		zap.Int("programMisses", misses),
	)
}

// meshUploader adapts the GL renderer's concrete vertex arrays to the
// command interface the quadtree stores on tiles.
type meshUploader struct {
	r *renderer.Renderer
}

func (u meshUploader) UploadMesh(mesh *terrain.Mesh) (command.VertexArray, error) {
	va, err := u.r.UploadMesh(mesh)
	if err != nil {
		return nil, err
	}
	return va, nil
}

func (u meshUploader) UploadWireframe(mesh *terrain.Mesh) (command.VertexArray, error) {
	va, err := u.r.UploadWireframe(mesh)
	if err != nil {
		return nil, err
	}
	return va, nil
}
