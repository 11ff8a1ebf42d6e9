// Package app drives the editor: window, physics scene, render coordinator
// and the per-frame loop.
package app

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/config"
	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/engine/renderer"
	"github.com/Faultbox/terrastage/internal/engine/ui"
	"github.com/Faultbox/terrastage/internal/logger"
	"github.com/Faultbox/terrastage/internal/physics"
)

// Title is the window title.
const Title = "terrastage"

// fallbackDelta replaces a non-positive frame time.
const fallbackDelta = 1.0 / 60.0

// window is the UI backend as the frame loop sees it.
type window interface {
	Run(frame func())
	Poll() input.State
	SetTitle(title string)
	Close()
}

// App is the running editor.
type App struct {
	cfg      *config.Config
	backend  window
	renderer *renderer.Renderer
	world    *physics.World

	now  func() time.Time
	last time.Time
	mode renderer.Mode
}

// New creates the window, the GL device, the physics scene and the renderer.
func New(cfg *config.Config) (*App, error) {
	logger.Info("initializing editor",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Bool("fullscreen", cfg.Graphics.Fullscreen),
	)

	a := &App{cfg: cfg, now: time.Now}

	// Create window (this also creates OpenGL context)
	backend, err := ui.NewBackend(ui.Config{
		Title:      windowTitle(renderer.ModeEditing),
		Width:      int32(cfg.Graphics.Width),
		Height:     int32(cfg.Graphics.Height),
		Fullscreen: cfg.Graphics.Fullscreen,
		TargetFPS:  targetFPS(cfg.Graphics),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	a.backend = backend

	dev, err := gpu.Init()
	if err != nil {
		a.backend.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	a.world = NewScene(cfg.Physics.Gravity)

	// Create renderer (AFTER window, since OpenGL context must exist)
	a.renderer, err = renderer.New(renderer.Deps{
		Device:  dev,
		Widgets: ui.NewWidgets(),
		Picker:  ui.NewFileDialog(cfg.Paths.ModelExts...),
		Pointer: backend,

		SavePreferences: cfg.SavePreferences,
	}, cfg.Renderer())
	if err != nil {
		a.backend.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if cfg.Import != "" {
		if err := a.renderer.Registry().Import(cfg.Import); err != nil {
			logger.Error("startup import failed", zap.String("path", cfg.Import), zap.Error(err))
		}
	}

	logger.Info("editor initialized successfully", zap.Int("bodies", a.world.NumBodies()))
	return a, nil
}

// NewScene builds the persistent physics scene: a ground plane, a box and
// a sphere dropped from above.
func NewScene(gravity float32) *physics.World {
	w := physics.NewWorld(mgl32.Vec3{0, gravity, 0})

	w.AddBody(physics.BodyDef{
		Shape:       physics.Plane(mgl32.Vec3{0, 1, 0}, 0),
		Restitution: 0.3,
		Friction:    physics.DefaultFriction,
	})
	w.AddBody(physics.BodyDef{
		Shape:       physics.Box(mgl32.Vec3{0.5, 0.5, 0.5}),
		Position:    mgl32.Vec3{0, 20, 0},
		Mass:        1,
		Restitution: 0.6,
		Friction:    physics.DefaultFriction,
	})
	w.AddBody(physics.BodyDef{
		Shape:       physics.Sphere(0.6),
		Position:    mgl32.Vec3{2, 15, 0},
		Mass:        1.5,
		Restitution: 0.9,
		Friction:    0.1,
	})
	return w
}

// Run runs the frame loop until the window closes.
func (a *App) Run() error {
	logger.Info("starting editor loop")

	a.last = a.now()
	a.backend.Run(a.step)

	logger.Info("editor loop finished")
	return nil
}

// step runs one frame: input, physics while playing, then rendering.
func (a *App) step() {
	now := a.now()
	dt := frameDelta(now.Sub(a.last), a.cfg.Physics.MaxFrameTime)
	a.last = now

	a.renderer.ProcessInput(a.backend.Poll())

	if a.renderer.Mode() == renderer.ModePlaying {
		a.world.StepSimulation(dt, a.cfg.Physics.MaxSubSteps, a.cfg.Physics.FixedTimeStep)
	}

	a.renderer.Update(dt)
	a.renderer.Render(a.world)

	if m := a.renderer.Mode(); m != a.mode {
		a.mode = m
		a.backend.SetTitle(windowTitle(m))
	}

	if wait := frameWait(a.now().Sub(now), a.cfg.Graphics); wait > 0 {
		time.Sleep(wait)
	}
}

// frameDelta converts elapsed wall time into a simulation step.
// Non-positive deltas fall back to one 60 Hz frame; long stalls are capped.
func frameDelta(elapsed time.Duration, maxFrame float32) float32 {
	dt := float32(elapsed.Seconds())
	if dt <= 0 {
		dt = fallbackDelta
	}
	if maxFrame > 0 && dt > maxFrame {
		dt = maxFrame
	}
	return dt
}

// frameWait returns how long to sleep to honour fps_limit. VSync paces the
// loop on its own.
func frameWait(spent time.Duration, g config.GraphicsConfig) time.Duration {
	if g.VSync || g.FPSLimit <= 0 {
		return 0
	}
	budget := time.Second / time.Duration(g.FPSLimit)
	if spent >= budget {
		return 0
	}
	return budget - spent
}

// targetFPS caps the backend loop when vsync is on; without vsync the
// loop sleeps in step instead.
func targetFPS(g config.GraphicsConfig) uint {
	if !g.VSync || g.FPSLimit <= 0 {
		return 0
	}
	return uint(g.FPSLimit)
}

func windowTitle(m renderer.Mode) string {
	return fmt.Sprintf("%s - %s", Title, m)
}

// World returns the physics scene.
func (a *App) World() *physics.World { return a.world }

// Close releases the renderer and then the window.
func (a *App) Close() {
	logger.Info("closing editor")

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.backend != nil {
		a.backend.Close()
	}
}
