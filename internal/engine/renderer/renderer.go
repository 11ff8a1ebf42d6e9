// Package renderer coordinates the GPU resources and draw passes of a frame:
// terrain raymarch, physics bodies, imported assets and the editor UI.
package renderer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/assets"
	"github.com/Faultbox/terrastage/internal/engine/camera"
	"github.com/Faultbox/terrastage/internal/engine/debug"
	"github.com/Faultbox/terrastage/internal/engine/framebuffer"
	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/engine/mesh"
	"github.com/Faultbox/terrastage/internal/engine/shader"
	"github.com/Faultbox/terrastage/internal/engine/terrain"
	"github.com/Faultbox/terrastage/internal/engine/texture"
	"github.com/Faultbox/terrastage/internal/logger"
	"github.com/Faultbox/terrastage/shaders"
)

// Mode is the editor state.
type Mode int

const (
	ModeEditing Mode = iota
	ModePlaying
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "Editing"
	case ModePlaying:
		return "Playing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// fpsWindow is how long frames are counted before the FPS is refreshed.
const fpsWindow = 0.5

// Operations the GPU error queue is checked after.
const (
	OpFramebufferSetup = "framebuffer setup"
	OpScreenQuadSetup  = "screen quad setup"
	OpCubeSetup        = "cube setup"
	OpTextureLoad      = "texture load"
	OpAssetUpload      = "asset upload"
	OpTerrainPass      = "terrain pass"
	OpPhysicsPass      = "physics pass"
	OpAssetPass        = "asset pass"
)

// Config holds renderer configuration.
type Config struct {
	Width  int32
	Height int32

	// Shader sources are read from disk unless EmbeddedShaders is set.
	TerrainVertex   string
	TerrainFragment string
	RasterVertex    string
	RasterFragment  string
	EmbeddedShaders bool

	TextureDirs []string
	TextureExts []string

	LockMouseInPlay  bool
	CheckerFallback  bool
	WatchTextures    bool
	ScreenshotDir    string
	MoveSpeed        float32
	MouseSensitivity float32
	OrbitSensitivity float32
	ImportWorkers    int
	PreviewSize      int
}

// DefaultConfig returns the startup configuration.
func DefaultConfig() Config {
	return Config{
		Width:            1280,
		Height:           720,
		TerrainVertex:    "shaders/terrain.vert",
		TerrainFragment:  "shaders/terrain.frag",
		RasterVertex:     "shaders/raster.vert",
		RasterFragment:   "shaders/raster.frag",
		TextureDirs:      []string{"textures/cube_textures", "textures", "textures/skybox"},
		TextureExts:      []string{".jpg", ".jpeg", ".png", ".bmp", ".tga"},
		LockMouseInPlay:  true,
		ScreenshotDir:    "screenshots",
		MoveSpeed:        camera.DefaultSpeed,
		MouseSensitivity: camera.DefaultSensitivity,
		OrbitSensitivity: camera.DefaultOrbitSensitivity,
		ImportWorkers:    2,
		PreviewSize:      128,
	}
}

// Deps are the collaborators the renderer draws and reads input through.
type Deps struct {
	Device  gpu.Device
	Widgets Widgets
	Picker  FilePicker
	Pointer Pointer

	// Optional; file-backed implementations are used when nil.
	Decoder  texture.Decoder
	Importer assets.Importer
	Now      func() time.Time

	// SavePreferences persists the toolbar's Save Settings. The button is
	// hidden when nil.
	SavePreferences func(Preferences) error
}

// Preferences are the editor settings that can change while running.
type Preferences struct {
	LockMouseInPlay  bool
	MoveSpeed        float32
	MouseSensitivity float32
	OrbitSensitivity float32
}

// Renderer owns every GPU resource of the scene and draws the frame.
type Renderer struct {
	cfg     Config
	dev     gpu.Device
	widgets Widgets
	picker  FilePicker
	pointer Pointer
	now     func() time.Time
	save    func(Preferences) error

	fb          *framebuffer.Framebuffer
	terrainProg *shader.Program
	rasterProg  *shader.Program
	quad        *mesh.ScreenQuad
	cube        *mesh.Mesh

	textures *texture.Cache
	diffuse  *texture.Texture
	watcher  *texture.Watcher
	registry *assets.Registry

	camera   *camera.Camera
	orbit    *camera.Orbit
	settings terrain.Settings

	preview         *texture.Texture
	previewSettings terrain.Settings

	screenshots       *debug.ScreenshotCapture
	screenshotPending bool

	mode     Mode
	captured bool
	keys     input.Tracker
	fly      flyStrategy
	orbiting orbitStrategy
	playing  playStrategy
	active   strategy
	leftDown bool

	displayW, displayH int32

	start       time.Time
	fpsStart    time.Time
	frameCount  int
	fps         float64
	frameTimeMs float64
	shaderTime  float32
	deltaTime   float32

	closed bool
}

// New creates the renderer. Only a framebuffer failure is fatal; any other
// resource that fails to load is logged and its pass is skipped.
func New(deps Deps, cfg Config) (*Renderer, error) {
	if deps.Device == nil {
		return nil, fmt.Errorf("renderer: nil device")
	}
	r := &Renderer{
		cfg:      cfg,
		dev:      deps.Device,
		widgets:  deps.Widgets,
		picker:   deps.Picker,
		pointer:  deps.Pointer,
		now:      deps.Now,
		save:     deps.SavePreferences,
		camera:   camera.NewDefault(),
		orbit:    camera.NewOrbit(),
		settings: terrain.DefaultSettings(),
		displayW: cfg.Width,
		displayH: cfg.Height,
	}
	if r.picker == nil {
		r.picker = noPicker{}
	}
	if r.pointer == nil {
		r.pointer = noPointer{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if cfg.MoveSpeed > 0 {
		r.camera.MovementSpeed = cfg.MoveSpeed
	}
	if cfg.MouseSensitivity > 0 {
		r.camera.MouseSensitivity = cfg.MouseSensitivity
	}
	if cfg.OrbitSensitivity > 0 {
		r.orbit.Sensitivity = cfg.OrbitSensitivity
	}
	r.fly.r = r
	r.orbiting.r = r
	r.playing.r = r

	fb, err := framebuffer.New(r.dev, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	r.fb = fb
	r.dev.CheckError(OpFramebufferSetup)

	r.loadPrograms()

	if r.quad, err = mesh.NewScreenQuad(r.dev); err != nil {
		logger.Error("failed to create screen quad", zap.Error(err))
		r.quad = nil
	}
	r.dev.CheckError(OpScreenQuadSetup)
	if r.cube, err = mesh.CubeMesh(r.dev); err != nil {
		logger.Error("failed to create physics cube mesh", zap.Error(err))
		r.cube = nil
	}
	r.dev.CheckError(OpCubeSetup)

	r.textures = texture.NewCache(r.dev, deps.Decoder)
	r.loadDiffuse()

	r.registry = assets.NewRegistry(r.dev, deps.Importer, cfg.ImportWorkers)

	if cfg.WatchTextures {
		r.startWatcher()
	}

	r.screenshots = debug.NewScreenshotCapture(cfg.ScreenshotDir, "terrastage")

	r.start = r.now()
	r.fpsStart = r.start

	logger.Info("renderer initialized",
		zap.Bool("terrain", r.terrainProg.Valid()),
		zap.Bool("raster", r.rasterProg.Valid()),
		zap.Bool("texture", r.diffuse != nil),
	)
	return r, nil
}

func (r *Renderer) loadPrograms() {
	if r.cfg.EmbeddedShaders {
		r.terrainProg = shader.FromSource(r.dev, "terrain", shaders.TerrainVertexShader, shaders.TerrainFragmentShader)
		r.rasterProg = shader.FromSource(r.dev, "raster", shaders.RasterVertexShader, shaders.RasterFragmentShader)
		return
	}
	r.terrainProg = shader.Load(r.dev, r.cfg.TerrainVertex, r.cfg.TerrainFragment)
	r.rasterProg = shader.Load(r.dev, r.cfg.RasterVertex, r.cfg.RasterFragment)
}

// loadDiffuse replaces the diffuse texture with the first image found in the
// texture directories, the checkerboard, or nothing.
func (r *Renderer) loadDiffuse() {
	defer r.dev.CheckError(OpTextureLoad)
	if r.diffuse != nil {
		r.diffuse.Release()
		r.diffuse = nil
	}

	if path, ok := texture.FindInDirectories(r.cfg.TextureDirs, r.cfg.TextureExts); ok {
		tex, err := r.textures.Load(path, true)
		if err == nil {
			r.diffuse = tex
			if r.watcher != nil {
				if err := r.watcher.Watch(path); err != nil {
					logger.Warn("cannot watch texture", zap.String("path", path), zap.Error(err))
				}
			}
			return
		}
		logger.Warn("diffuse texture failed to load", zap.String("path", path), zap.Error(err))
	} else {
		logger.Warn("no texture found", zap.Strings("dirs", r.cfg.TextureDirs))
	}

	if !r.cfg.CheckerFallback {
		return
	}
	tex, err := r.textures.CheckerTexture(64, 8)
	if err != nil {
		logger.Error("failed to create checkerboard texture", zap.Error(err))
		return
	}
	r.diffuse = tex
}

func (r *Renderer) startWatcher() {
	w, err := texture.NewWatcher()
	if err != nil {
		logger.Warn("texture hot reload disabled", zap.Error(err))
		return
	}
	r.watcher = w
	if r.diffuse != nil && r.diffuse.Cached() {
		if err := w.Watch(r.diffuse.Path()); err != nil {
			logger.Warn("cannot watch texture", zap.String("path", r.diffuse.Path()), zap.Error(err))
		}
	}
}

// ReloadTextures drops every cached texture and loads the diffuse texture again.
func (r *Renderer) ReloadTextures() {
	if r.diffuse != nil {
		r.diffuse.Release()
		r.diffuse = nil
	}
	r.textures.ForceReloadAll()
	r.loadDiffuse()
}

// Play switches to Playing. The pointer is captured when mouse lock is on.
func (r *Renderer) Play() {
	if r.mode == ModePlaying {
		return
	}
	r.endStrategy()
	r.mode = ModePlaying
	if r.cfg.LockMouseInPlay {
		r.setCaptured(true)
	}
	r.playing.reset()
	logger.Info("entered play mode")
}

// Stop returns to Editing and releases the pointer.
func (r *Renderer) Stop() {
	if r.mode == ModeEditing {
		return
	}
	r.endStrategy()
	r.mode = ModeEditing
	r.setCaptured(false)
	logger.Info("entered edit mode")
}

// Mode returns the editor mode.
func (r *Renderer) Mode() Mode { return r.mode }

// PointerCaptured reports whether the cursor is hidden and locked.
func (r *Renderer) PointerCaptured() bool { return r.captured }

func (r *Renderer) setCaptured(c bool) {
	if r.captured == c {
		return
	}
	r.captured = c
	r.pointer.SetPointerCaptured(c)
}

// SetLockMouse enables pointer capture in Playing.
func (r *Renderer) SetLockMouse(lock bool) {
	r.cfg.LockMouseInPlay = lock
	if !lock && r.mode == ModePlaying {
		r.setCaptured(false)
	}
}

// Preferences returns the current runtime settings.
func (r *Renderer) Preferences() Preferences {
	return Preferences{
		LockMouseInPlay:  r.cfg.LockMouseInPlay,
		MoveSpeed:        r.camera.MovementSpeed,
		MouseSensitivity: r.camera.MouseSensitivity,
		OrbitSensitivity: r.orbit.Sensitivity,
	}
}

// SavePreferences hands the current preferences to Deps.SavePreferences.
func (r *Renderer) SavePreferences() error {
	if r.save == nil {
		return nil
	}
	p := r.Preferences()
	if err := r.save(p); err != nil {
		logger.Error("failed to save settings", zap.Error(err))
		return err
	}
	logger.Info("settings saved",
		zap.Bool("lock_mouse_in_play", p.LockMouseInPlay),
		zap.Float32("move_speed", p.MoveSpeed),
	)
	return nil
}

// Camera returns the view camera.
func (r *Renderer) Camera() *camera.Camera { return r.camera }

// Registry returns the imported assets.
func (r *Renderer) Registry() *assets.Registry { return r.registry }

// Textures returns the texture cache.
func (r *Renderer) Textures() *texture.Cache { return r.textures }

// DiffuseTexture returns the texture applied to physics bodies, or nil.
func (r *Renderer) DiffuseTexture() *texture.Texture { return r.diffuse }

// Settings returns the live terrain parameters.
func (r *Renderer) Settings() *terrain.Settings { return &r.settings }

// FPS returns the frame rate of the last measurement window.
func (r *Renderer) FPS() float64 { return r.fps }

// FrameTimeMs returns the average frame time of the last measurement window.
func (r *Renderer) FrameTimeMs() float64 { return r.frameTimeMs }

// Time returns the seconds since startup fed to the terrain shader.
func (r *Renderer) Time() float32 { return r.shaderTime }

// Update advances the frame timing.
func (r *Renderer) Update(dt float32) {
	r.deltaTime = dt
	r.frameCount++

	now := r.now()
	if elapsed := now.Sub(r.fpsStart).Seconds(); elapsed >= fpsWindow {
		r.fps = float64(r.frameCount) / elapsed
		if r.fps > 0 {
			r.frameTimeMs = 1000 / r.fps
		}
		r.frameCount = 0
		r.fpsStart = now
	}
	r.shaderTime = float32(now.Sub(r.start).Seconds())
}

// Close releases every resource once. Safe to call more than once.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	logger.Info("closing renderer")

	if r.cube != nil {
		r.cube.Destroy()
	}
	if r.quad != nil {
		r.quad.Destroy()
	}
	r.terrainProg.Destroy()
	r.rasterProg.Destroy()
	r.fb.Destroy()

	r.diffuse.Release()
	r.diffuse = nil
	r.preview.Release()
	r.preview = nil
	r.textures.ClearCache()

	r.registry.Close()
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			logger.Warn("closing texture watcher", zap.Error(err))
		}
	}
}
