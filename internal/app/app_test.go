package app

import (
	"testing"
	"time"

	"github.com/Faultbox/terrastage/internal/config"
	"github.com/Faultbox/terrastage/internal/engine/gpu/gputest"
	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/engine/renderer"
	"github.com/Faultbox/terrastage/internal/physics"
)

func TestFrameDelta(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		maxFrame float32
		want     float32
	}{
		{"normal frame", 16 * time.Millisecond, 0.1, 0.016},
		{"zero falls back", 0, 0.1, fallbackDelta},
		{"negative falls back", -time.Second, 0.1, fallbackDelta},
		{"stall is capped", 2 * time.Second, 0.1, 0.1},
		{"no cap", 2 * time.Second, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frameDelta(tt.elapsed, tt.maxFrame)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("frameDelta(%v, %v) = %v, want %v", tt.elapsed, tt.maxFrame, got, tt.want)
			}
		})
	}
}

func TestFrameWait(t *testing.T) {
	tests := []struct {
		name  string
		spent time.Duration
		g     config.GraphicsConfig
		want  time.Duration
	}{
		{"vsync paces itself", time.Millisecond, config.GraphicsConfig{VSync: true, FPSLimit: 60}, 0},
		{"no limit", time.Millisecond, config.GraphicsConfig{}, 0},
		{"sleeps the remainder", 5 * time.Millisecond, config.GraphicsConfig{FPSLimit: 100}, 5 * time.Millisecond},
		{"over budget", 20 * time.Millisecond, config.GraphicsConfig{FPSLimit: 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frameWait(tt.spent, tt.g); got != tt.want {
				t.Errorf("frameWait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewScene(t *testing.T) {
	w := NewScene(-9.81)

	if g := w.Gravity(); g.Y() != -9.81 || g.X() != 0 || g.Z() != 0 {
		t.Errorf("gravity = %v", g)
	}
	bodies := w.Bodies()
	if len(bodies) != 3 {
		t.Fatalf("expected 3 bodies, got %d", len(bodies))
	}

	ground, box, sphere := bodies[0], bodies[1], bodies[2]
	if ground.Shape().Kind != physics.ShapePlane || ground.Dynamic() {
		t.Errorf("first body should be a static plane, got %s dynamic=%v", ground.Shape().Kind, ground.Dynamic())
	}
	if ground.Restitution() != 0.3 {
		t.Errorf("ground restitution = %v", ground.Restitution())
	}

	if box.Shape().Kind != physics.ShapeBox || box.Mass() != 1 || box.Restitution() != 0.6 {
		t.Errorf("box = %s mass=%v e=%v", box.Shape().Kind, box.Mass(), box.Restitution())
	}
	if p := box.Position(); p.Y() != 20 {
		t.Errorf("box height = %v, want 20", p.Y())
	}

	if sphere.Shape().Kind != physics.ShapeSphere || sphere.Shape().Radius != 0.6 {
		t.Errorf("sphere = %s r=%v", sphere.Shape().Kind, sphere.Shape().Radius)
	}
	if sphere.Mass() != 1.5 || sphere.Restitution() != 0.9 || sphere.Friction() != 0.1 {
		t.Errorf("sphere mass=%v e=%v mu=%v", sphere.Mass(), sphere.Restitution(), sphere.Friction())
	}
	if p := sphere.Position(); p.X() != 2 || p.Y() != 15 {
		t.Errorf("sphere position = %v", p)
	}
}

func TestSceneFallsOnlyWhenStepped(t *testing.T) {
	cfg := config.Default()
	w := NewScene(cfg.Physics.Gravity)
	box := w.Bodies()[1]

	start := box.Position().Y()
	for range 30 {
		w.StepSimulation(frameDelta(16*time.Millisecond, cfg.Physics.MaxFrameTime),
			cfg.Physics.MaxSubSteps, cfg.Physics.FixedTimeStep)
	}
	if box.Position().Y() >= start {
		t.Errorf("box did not fall: %v -> %v", start, box.Position().Y())
	}
}

func TestTargetFPS(t *testing.T) {
	tests := []struct {
		g    config.GraphicsConfig
		want uint
	}{
		{config.GraphicsConfig{VSync: true, FPSLimit: 144}, 144},
		{config.GraphicsConfig{VSync: true}, 0},
		{config.GraphicsConfig{VSync: false, FPSLimit: 144}, 0},
	}
	for _, tt := range tests {
		if got := targetFPS(tt.g); got != tt.want {
			t.Errorf("targetFPS(%+v) = %d, want %d", tt.g, got, tt.want)
		}
	}
}

func TestWindowTitle(t *testing.T) {
	if got := windowTitle(renderer.ModePlaying); got != "terrastage - Playing" {
		t.Errorf("windowTitle = %q", got)
	}
}

type fakeWindow struct {
	next   input.State
	titles []string
	closed bool
}

func (w *fakeWindow) Run(frame func()) { frame() }

func (w *fakeWindow) Poll() input.State {
	s := w.next
	w.next = input.State{}
	return s
}

func (w *fakeWindow) SetTitle(title string) { w.titles = append(w.titles, title) }
func (w *fakeWindow) Close()                { w.closed = true }

func newTestApp(t *testing.T) (*App, *fakeWindow) {
	t.Helper()
	cfg := config.Default()
	cfg.Graphics.VSync = true
	cfg.Paths.UseEmbeddedShaders = true
	cfg.Paths.TextureDirs = nil
	cfg.Editor.WatchTextures = false
	cfg.Editor.ScreenshotDir = t.TempDir()

	r, err := renderer.New(renderer.Deps{Device: gputest.New()}, cfg.Renderer())
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	win := &fakeWindow{}
	a := &App{
		cfg:      cfg,
		backend:  win,
		renderer: r,
		world:    NewScene(cfg.Physics.Gravity),
		now: func() time.Time {
			clock = clock.Add(8 * time.Millisecond)
			return clock
		},
	}
	a.last = a.now()
	t.Cleanup(a.Close)
	return a, win
}

func TestStepSimulatesOnlyWhilePlaying(t *testing.T) {
	a, win := newTestApp(t)
	box := a.World().Bodies()[1]
	start := box.Position()

	for range 10 {
		a.step()
	}
	if box.Position() != start {
		t.Fatalf("box moved in Editing: %v -> %v", start, box.Position())
	}
	if len(win.titles) != 0 {
		t.Errorf("title changed without a mode change: %v", win.titles)
	}

	a.renderer.Play()
	for range 10 {
		a.step()
	}
	if box.Position().Y() >= start.Y() {
		t.Fatalf("box did not fall in Playing: %v -> %v", start, box.Position())
	}
	if len(win.titles) != 1 || win.titles[0] != windowTitle(renderer.ModePlaying) {
		t.Errorf("expected the Playing title, got %v", win.titles)
	}

	win.next.SetKey(input.KeyEscape, true)
	a.step()
	if a.renderer.Mode() != renderer.ModeEditing {
		t.Fatal("Escape should stop playing")
	}
	paused := box.Position()
	for range 5 {
		a.step()
	}
	if box.Position() != paused {
		t.Errorf("box moved after Stop: %v -> %v", paused, box.Position())
	}
	if got := win.titles[len(win.titles)-1]; got != windowTitle(renderer.ModeEditing) {
		t.Errorf("expected the Editing title, got %q", got)
	}
}

func TestRunAndClose(t *testing.T) {
	a, win := newTestApp(t)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	a.Close()
	if !win.closed {
		t.Error("Close should close the window")
	}
}
