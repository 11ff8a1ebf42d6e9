package renderer

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terrastage/internal/assets"
	"github.com/Faultbox/terrastage/internal/engine/gpu/gputest"
	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/engine/mesh"
	"github.com/Faultbox/terrastage/internal/physics"
	"github.com/Faultbox/terrastage/shaders"
)

type recordingWidgets struct {
	begun  []string
	texts  []string
	labels []string
	images []uint32
	scene  uint32
	clicks map[string]bool
	vec3s  map[string][3]float32
	floats map[string]float32
}

func newRecordingWidgets() *recordingWidgets {
	return &recordingWidgets{
		clicks: make(map[string]bool),
		vec3s:  make(map[string][3]float32),
		floats: make(map[string]float32),
	}
}

func (w *recordingWidgets) click(label string) bool {
	w.labels = append(w.labels, label)
	if w.clicks[label] {
		delete(w.clicks, label)
		return true
	}
	return false
}

func (w *recordingWidgets) SceneImage(texture uint32, width, height float32) { w.scene = texture }
func (w *recordingWidgets) Image(texture uint32, width, height float32)      { w.images = append(w.images, texture) }
func (w *recordingWidgets) Begin(title string) bool {
	w.begun = append(w.begun, title)
	return true
}
func (w *recordingWidgets) End() {}
func (w *recordingWidgets) Text(format string, args ...any) {
	w.texts = append(w.texts, fmt.Sprintf(format, args...))
}
func (w *recordingWidgets) Button(label string) bool { return w.click(label) }
func (w *recordingWidgets) Checkbox(label string, v *bool) bool {
	if w.click(label) {
		*v = !*v
		return true
	}
	return false
}
func (w *recordingWidgets) Selectable(label string, selected bool) bool { return w.click(label) }
func (w *recordingWidgets) CollapsingHeader(label string) bool          { return true }
func (w *recordingWidgets) SliderFloat(label string, v *float32, min, max float32) bool {
	nv, ok := w.floats[label]
	if !ok {
		return false
	}
	delete(w.floats, label)
	*v = nv
	return true
}
func (w *recordingWidgets) SliderInt(label string, v *int32, min, max int32) bool { return false }
func (w *recordingWidgets) SliderFloat3(label string, v *[3]float32, min, max float32) bool {
	nv, ok := w.vec3s[label]
	if !ok {
		return false
	}
	delete(w.vec3s, label)
	*v = nv
	return true
}
func (w *recordingWidgets) ColorEdit3(label string, v *[3]float32) bool { return false }
func (w *recordingWidgets) SameLine()                                  {}
func (w *recordingWidgets) Separator()                                 {}
func (w *recordingWidgets) Indent()                                    {}
func (w *recordingWidgets) Unindent()                                  {}

func (w *recordingWidgets) hasText(prefix string) bool {
	for _, t := range w.texts {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func (w *recordingWidgets) hasLabel(label string) bool {
	for _, l := range w.labels {
		if l == label {
			return true
		}
	}
	return false
}

type recordingPointer struct {
	calls []bool
}

func (p *recordingPointer) SetPointerCaptured(c bool) { p.calls = append(p.calls, c) }

type stubPicker struct {
	requests int
	path     string
}

func (p *stubPicker) Request() { p.requests++ }
func (p *stubPicker) Poll() (string, bool) {
	if p.path == "" {
		return "", false
	}
	path := p.path
	p.path = ""
	return path, true
}

type triangleImporter struct{}

func (triangleImporter) Load(path string) (*assets.Geometry, error) {
	return &assets.Geometry{
		Vertices: []mesh.Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time            { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	r       *Renderer
	dev     *gputest.Device
	ui      *recordingWidgets
	pointer *recordingPointer
	picker  *stubPicker
	clock   *fakeClock
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		dev:     gputest.New(),
		ui:      newRecordingWidgets(),
		pointer: &recordingPointer{},
		picker:  &stubPicker{},
		clock:   &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	cfg.EmbeddedShaders = true
	cfg.TextureDirs = nil
	cfg.CheckerFallback = true
	cfg.ScreenshotDir = t.TempDir()
	cfg.PreviewSize = 8
	if mutate != nil {
		mutate(&cfg)
	}

	r, err := New(Deps{
		Device:   f.dev,
		Widgets:  f.ui,
		Picker:   f.picker,
		Pointer:  f.pointer,
		Importer: triangleImporter{},
		Now:      f.clock.Now,
	}, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(r.Close)
	f.r = r
	return f
}

func sceneWorld() *physics.World {
	w := physics.NewWorld(mgl32.Vec3{0, -9.81, 0})
	w.AddBody(physics.BodyDef{Shape: physics.Plane(mgl32.Vec3{0, 1, 0}, 0), Restitution: 0.3})
	w.AddBody(physics.BodyDef{Shape: physics.Box(mgl32.Vec3{0.5, 0.5, 0.5}), Position: mgl32.Vec3{0, 20, 0}, Mass: 1, Restitution: 0.6})
	w.AddBody(physics.BodyDef{Shape: physics.Sphere(0.6), Position: mgl32.Vec3{2, 15, 0}, Mass: 1.5, Restitution: 0.9, Friction: 0.1})
	return w
}

func keyState(keys ...input.Key) input.State {
	var s input.State
	for _, k := range keys {
		s.SetKey(k, true)
	}
	return s
}

func TestNewCreatesResources(t *testing.T) {
	f := newFixture(t, nil)
	if !f.r.terrainProg.Valid() || !f.r.rasterProg.Valid() {
		t.Fatal("expected both programs to link")
	}
	if f.r.cube == nil || f.r.quad == nil {
		t.Fatal("expected cube and quad")
	}
	if d := f.r.DiffuseTexture(); d == nil || d.Cached() {
		t.Fatalf("expected the uncached checker fallback, got %v", d)
	}
	if f.r.Mode() != ModeEditing || f.r.PointerCaptured() {
		t.Error("expected Editing with a free pointer")
	}
}

func TestNewChecksErrorsPerOperation(t *testing.T) {
	f := newFixture(t, nil)
	want := []string{OpFramebufferSetup, OpScreenQuadSetup, OpCubeSetup, OpTextureLoad}
	if fmt.Sprint(f.dev.ErrorChecks) != fmt.Sprint(want) {
		t.Errorf("expected error checks %v, got %v", want, f.dev.ErrorChecks)
	}

	f.dev.Reset()
	f.r.ReloadTextures()
	if fmt.Sprint(f.dev.ErrorChecks) != fmt.Sprint([]string{OpTextureLoad}) {
		t.Errorf("reload should check after the texture load, got %v", f.dev.ErrorChecks)
	}
}

func TestGPUErrorIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.dev.Reset()
	f.dev.PendingError = fmt.Errorf("GL_INVALID_OPERATION")

	f.r.Render(sceneWorld())
	if f.dev.PendingError != nil {
		t.Fatal("pending error was not drained")
	}
	if len(f.dev.DrawsWith(f.r.rasterProg.Handle())) != 2 {
		t.Error("frame should finish after a GPU error")
	}
}

func TestNoFallbackLeavesTextureUnset(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.CheckerFallback = false })
	if f.r.DiffuseTexture() != nil {
		t.Error("expected no diffuse texture")
	}
}

func TestFramebufferFailureIsFatal(t *testing.T) {
	dev := gputest.New()
	dev.FailAlloc[gputest.Framebuffer] = true
	if _, err := New(Deps{Device: dev}, DefaultConfig()); err == nil {
		t.Fatal("expected error")
	}
	if dev.TotalLive() != 0 {
		t.Errorf("leaked %d objects", dev.TotalLive())
	}
}

func TestModeTransitions(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	r.Play()
	if r.Mode() != ModePlaying || !r.PointerCaptured() {
		t.Fatal("Play should enter Playing with the pointer captured")
	}
	r.Stop()
	if r.Mode() != ModeEditing || r.PointerCaptured() {
		t.Fatal("Stop should return to Editing and release the pointer")
	}

	calls := len(f.pointer.calls)
	r.Stop()
	if r.Mode() != ModeEditing || len(f.pointer.calls) != calls {
		t.Error("Stop while Editing should do nothing")
	}

	r.Play()
	r.ProcessInput(keyState(input.KeyEscape))
	if r.Mode() != ModeEditing || r.PointerCaptured() {
		t.Error("Escape should stop playing")
	}
	want := []bool{true, false, true, false}
	if fmt.Sprint(f.pointer.calls) != fmt.Sprint(want) {
		t.Errorf("pointer calls %v, want %v", f.pointer.calls, want)
	}
}

func TestPlayWithoutMouseLock(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.LockMouseInPlay = false })
	f.r.Play()
	if f.r.PointerCaptured() {
		t.Fatal("pointer should stay free without mouse lock")
	}
	f.r.ProcessInput(keyState(input.KeyTab))
	if f.r.PointerCaptured() {
		t.Error("Tab should not capture without mouse lock")
	}
}

func TestTabTogglesCapture(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	r.Play()

	r.ProcessInput(keyState(input.KeyTab))
	if r.PointerCaptured() {
		t.Fatal("first Tab should release the pointer")
	}
	r.ProcessInput(keyState(input.KeyTab))
	if r.PointerCaptured() {
		t.Fatal("held Tab is not a new press")
	}
	r.ProcessInput(input.State{})
	r.ProcessInput(keyState(input.KeyTab))
	if !r.PointerCaptured() {
		t.Error("second Tab press should capture again")
	}
}

func TestPlayingMovesOnlyWhileCaptured(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	r.Update(0.5)
	r.Play()

	start := r.Camera().Position
	r.ProcessInput(keyState(input.KeyW))
	if r.Camera().Position == start {
		t.Fatal("W should move the captured camera")
	}

	r.ProcessInput(keyState(input.KeyTab))
	moved := r.Camera().Position
	r.ProcessInput(keyState(input.KeyW))
	if r.Camera().Position != moved {
		t.Error("camera moved with a free pointer")
	}
}

func TestPlayingLooksWithRelativeMotion(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	r.Play()

	rel := func(dx float32) input.State {
		return input.State{Relative: true, DeltaX: dx}
	}
	r.ProcessInput(rel(400))
	if yaw := r.Camera().Yaw; yaw != -90 {
		t.Fatalf("first captured frame turned the camera to %f", yaw)
	}

	// The cursor is recentered every frame, so turning never stops at an edge.
	sens := r.Camera().MouseSensitivity
	for i := 1; i <= 50; i++ {
		r.ProcessInput(rel(20))
		want := -90 + float32(i)*20*sens
		if got := r.Camera().Yaw; math.Abs(float64(got-want)) > 1e-3 {
			t.Fatalf("frame %d: yaw %f, want %f", i, got, want)
		}
	}
}

func TestScrollZoomsOnlyWhilePlaying(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	r.ProcessInput(input.State{Wheel: 5})
	if r.Camera().Zoom != 45 {
		t.Fatalf("scroll in Editing changed zoom to %f", r.Camera().Zoom)
	}
	r.Play()
	r.ProcessInput(input.State{Wheel: 5})
	if r.Camera().Zoom != 40 {
		t.Errorf("expected zoom 40, got %f", r.Camera().Zoom)
	}
}

func TestFlyCameraRespectsUI(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	var s input.State
	s.SetButton(input.MouseRight, true)
	s.WantCaptureMouse = true
	r.ProcessInput(s)
	if r.PointerCaptured() {
		t.Fatal("fly camera should not start over the UI")
	}

	s.WantCaptureMouse = false
	r.ProcessInput(s)
	if !r.PointerCaptured() {
		t.Fatal("right mouse should start the fly camera")
	}

	// A drag that started in the scene keeps going over a panel.
	yaw := r.Camera().Yaw
	s.WantCaptureMouse = true
	s.MouseX = 50
	r.ProcessInput(s)
	if !r.PointerCaptured() || r.Camera().Yaw == yaw {
		t.Error("active fly camera should keep the mouse")
	}

	r.ProcessInput(input.State{})
	if r.PointerCaptured() {
		t.Error("releasing the button should free the pointer")
	}
}

func TestFlyFirstSampleDoesNotJump(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	var s input.State
	s.SetButton(input.MouseRight, true)
	s.MouseX, s.MouseY = 500, 300
	r.ProcessInput(s)
	if r.Camera().Yaw != -90 || r.Camera().Pitch != 0 {
		t.Errorf("first sample turned the camera: yaw=%f pitch=%f", r.Camera().Yaw, r.Camera().Pitch)
	}
}

func TestOrbitFacesSelectedAsset(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	if err := r.Registry().Import("tri.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	target := mgl32.Vec3{1, 0, -2}
	r.Registry().SetPosition(0, target)

	var s input.State
	s.SetKey(input.KeyLeftAlt, true)
	s.SetButton(input.MouseLeft, true)
	r.ProcessInput(s)
	if r.PointerCaptured() {
		t.Fatal("orbit needs a selection")
	}

	r.Registry().Select(0)
	s.MouseX, s.MouseY = 10, 10
	r.ProcessInput(s)
	s.MouseX = 60
	r.ProcessInput(s)
	if !r.PointerCaptured() {
		t.Fatal("orbit should capture the pointer")
	}

	cam := r.Camera()
	toTarget := target.Sub(cam.Position).Normalize()
	if d := cam.Front.Dot(toTarget); d < 0.99 {
		t.Errorf("camera does not face the asset: dot=%f", d)
	}
}

func TestClickPicksAsset(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	if err := r.Registry().Import("tri.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	r.Registry().SetPosition(0, mgl32.Vec3{-0.5, 1.5, 0})

	cam := r.Camera()
	cam.Position = mgl32.Vec3{0, 2, 5}
	cam.Yaw, cam.Pitch = -90, 0
	cam.UpdateVectors()

	click := func(x, y float32, uiWants bool) {
		var s input.State
		s.WindowWidth, s.WindowHeight = 64, 48
		s.MouseX, s.MouseY = x, y
		s.WantCaptureMouse = uiWants
		s.SetButton(input.MouseLeft, true)
		r.ProcessInput(s)
		s.SetButton(input.MouseLeft, false)
		r.ProcessInput(s)
	}

	click(32, 24, true)
	if _, ok := r.Registry().Selected(); ok {
		t.Fatal("a click on the UI should not pick")
	}

	click(32, 24, false)
	if i, ok := r.Registry().Selected(); !ok || i != 0 {
		t.Fatalf("expected the asset under the cursor to be selected, got %d %v", i, ok)
	}
	if r.PointerCaptured() {
		t.Error("picking should not capture the pointer")
	}

	click(0, 0, false)
	if _, ok := r.Registry().Selected(); ok {
		t.Error("clicking empty space should clear the selection")
	}
}

func TestFPSWindow(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	for range 30 {
		f.clock.Advance(time.Second / 60)
		r.Update(1.0 / 60)
	}
	if r.FPS() != 0 {
		t.Fatalf("FPS published before the window closed: %f", r.FPS())
	}

	f.clock.Advance(time.Second / 60)
	r.Update(1.0 / 60)
	if math.Abs(r.FPS()-60) > 0.5 {
		t.Errorf("expected ~60 FPS, got %f", r.FPS())
	}
	if math.Abs(r.FrameTimeMs()-1000.0/60) > 0.2 {
		t.Errorf("unexpected frame time %f", r.FrameTimeMs())
	}
	if r.frameCount != 0 {
		t.Errorf("frame counter not reset: %d", r.frameCount)
	}
	if r.Time() <= 0.5 {
		t.Errorf("shader time did not advance: %f", r.Time())
	}
}

func TestRenderPasses(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	f.dev.Reset()

	r.Render(sceneWorld())

	terrain := f.dev.DrawsWith(r.terrainProg.Handle())
	if len(terrain) != 1 || terrain[0].Indexed || terrain[0].Count != 6 {
		t.Fatalf("unexpected terrain draws %+v", terrain)
	}
	if f.dev.ClearColors[0] != [4]float32{0.1, 0.1, 0.1, 1} {
		t.Errorf("unexpected clear color %v", f.dev.ClearColors[0])
	}

	bodies := f.dev.DrawsWith(r.rasterProg.Handle())
	if len(bodies) != 2 {
		t.Fatalf("expected the box and the sphere, got %d draws", len(bodies))
	}
	sphere := mgl32.Mat4(bodies[1].Model)
	if got := sphere.At(0, 0); math.Abs(float64(got-1.2)) > 1e-5 {
		t.Errorf("sphere scale %f, want 1.2", got)
	}
	if got := sphere.Col(3); got != (mgl32.Vec4{2, 15, 0, 1}) {
		t.Errorf("sphere translation %v", got)
	}
	if bodies[0].Texture != r.DiffuseTexture().Handle() {
		t.Errorf("bodies drawn with texture %d", bodies[0].Texture)
	}
	if v, _ := f.dev.Uniform(r.rasterProg.Handle(), "useTexture"); v != int32(1) {
		t.Errorf("useTexture = %v", v)
	}
	if f.dev.BoundTexture(0) != 0 || f.dev.BoundFramebuffer() != 0 || f.dev.BoundVAO() != 0 {
		t.Error("render left state bound")
	}
	if want := []string{OpTerrainPass, OpPhysicsPass, OpAssetPass}; fmt.Sprint(f.dev.ErrorChecks) != fmt.Sprint(want) {
		t.Errorf("expected error checks %v, got %v", want, f.dev.ErrorChecks)
	}

	for _, title := range []string{ToolbarTitle, StatsTitle, SceneControlsTitle, InspectorTitle, HierarchyTitle} {
		found := false
		for _, b := range f.ui.begun {
			found = found || b == title
		}
		if !found {
			t.Errorf("panel %q not drawn", title)
		}
	}
	if f.ui.scene != r.fb.ColorTexture() {
		t.Error("scene image should show the framebuffer")
	}
}

func TestRenderSkipsRasterWithInvalidProgram(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	f := newFixture(t, func(c *Config) {
		c.EmbeddedShaders = false
		c.TerrainVertex = write("t.vert", shaders.TerrainVertexShader)
		c.TerrainFragment = write("t.frag", shaders.TerrainFragmentShader)
		c.RasterVertex = write("r.vert", shaders.RasterVertexShader)
		c.RasterFragment = write("r.frag", "void main() {")
	})
	r := f.r
	if r.rasterProg.Valid() || r.rasterProg.Handle() != 0 {
		t.Fatal("broken raster program should be invalid")
	}
	if err := r.Registry().Import("tri.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	f.dev.Reset()

	r.Render(sceneWorld())

	if len(f.dev.Draws) != 1 || f.dev.Draws[0].Program != r.terrainProg.Handle() {
		t.Errorf("expected only the terrain draw, got %+v", f.dev.Draws)
	}
	if len(f.ui.begun) == 0 {
		t.Error("UI pass should still run")
	}
}

func TestMagentaFallback(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.EmbeddedShaders = false
		c.TerrainVertex = filepath.Join(t.TempDir(), "missing.vert")
		c.TerrainFragment = filepath.Join(t.TempDir(), "missing.frag")
		c.RasterVertex = c.TerrainVertex
		c.RasterFragment = c.TerrainFragment
	})
	f.dev.Reset()
	f.r.Render(nil)

	if len(f.dev.ClearColors) == 0 || f.dev.ClearColors[0] != [4]float32{1, 0, 1, 1} {
		t.Errorf("expected magenta clear, got %v", f.dev.ClearColors)
	}
	if len(f.dev.Draws) != 0 {
		t.Errorf("expected no draws, got %d", len(f.dev.Draws))
	}
	if !f.ui.hasText("Physics world not available.") {
		t.Error("hierarchy should report the missing world")
	}
}

func TestAssetPass(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	if err := r.Registry().Import("tri.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	r.Registry().SetPosition(0, mgl32.Vec3{3, 0, 1})
	f.dev.Reset()

	r.Render(nil)

	vao, _, _ := r.Registry().Assets()[0].Mesh.Handles()
	var draws []gputest.Draw
	for _, d := range f.dev.Draws {
		if d.VAO == vao {
			draws = append(draws, d)
		}
	}
	if len(draws) != 1 || draws[0].Count != 3 {
		t.Fatalf("expected one asset draw, got %+v", draws)
	}
	if got := mgl32.Mat4(draws[0].Model).Col(3); got != (mgl32.Vec4{3, 0, 1, 1}) {
		t.Errorf("asset translation %v", got)
	}
	if v, _ := f.dev.Uniform(r.rasterProg.Handle(), "useTexture"); v != int32(0) {
		t.Errorf("assets should be untextured, useTexture=%v", v)
	}
}

func TestToolbar(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	f.ui.clicks[PlayLabel] = true
	f.ui.clicks[ImportLabel] = true
	f.ui.clicks[LockMouseLabel] = true
	r.Render(nil)

	if r.Mode() != ModePlaying {
		t.Error("Play button should enter Playing")
	}
	if f.picker.requests != 1 {
		t.Errorf("expected one picker request, got %d", f.picker.requests)
	}
	if r.cfg.LockMouseInPlay || r.PointerCaptured() {
		t.Error("unchecking Lock Mouse should free the pointer")
	}

	f.ui.clicks[StopLabel] = true
	r.Render(nil)
	if r.Mode() != ModeEditing {
		t.Error("Stop button should return to Editing")
	}
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	r.Render(nil)
	if f.ui.hasLabel(SaveSettingsLabel) {
		t.Fatal("Save Settings should be hidden without a store")
	}

	var saved []Preferences
	r.save = func(p Preferences) error {
		saved = append(saved, p)
		return nil
	}
	r.Camera().MovementSpeed = 9
	f.ui.clicks[LockMouseLabel] = true
	f.ui.clicks[SaveSettingsLabel] = true
	r.Render(nil)

	if len(saved) != 1 {
		t.Fatalf("expected one save, got %d", len(saved))
	}
	if saved[0].LockMouseInPlay || saved[0].MoveSpeed != 9 {
		t.Errorf("unexpected preferences %+v", saved[0])
	}

	r.save = func(Preferences) error { return fmt.Errorf("read-only") }
	if err := r.SavePreferences(); err == nil {
		t.Error("expected the store error")
	}
}

func TestPickedFileIsImported(t *testing.T) {
	f := newFixture(t, nil)
	f.picker.path = "picked.obj"

	deadline := time.Now().Add(2 * time.Second)
	for f.r.Registry().Len() == 0 && time.Now().Before(deadline) {
		f.r.Render(nil)
		time.Sleep(5 * time.Millisecond)
	}
	if f.r.Registry().Len() != 1 || f.r.Registry().Assets()[0].Name != "picked.obj" {
		t.Fatalf("picked file not imported, len=%d", f.r.Registry().Len())
	}
}

func TestInspectorSelectsMovesAndFocuses(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	if err := r.Registry().Import("a.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	f.ui.clicks["a.obj##asset0"] = true
	r.Render(nil)
	if i, ok := r.Registry().Selected(); !ok || i != 0 {
		t.Fatal("clicking the asset should select it")
	}

	f.ui.vec3s["Position"] = [3]float32{4, 1, 0}
	f.ui.clicks[FocusCameraLabel] = true
	r.Render(nil)

	if got := r.Registry().Assets()[0].Position; got != (mgl32.Vec3{4, 1, 0}) {
		t.Errorf("position not applied: %v", got)
	}
	cam := r.Camera()
	if cam.Position != (mgl32.Vec3{4, 3, 5}) || cam.Yaw != -90 || cam.Pitch != 0 {
		t.Errorf("unexpected focus pose pos=%v yaw=%f pitch=%f", cam.Position, cam.Yaw, cam.Pitch)
	}
}

func TestHierarchyLabels(t *testing.T) {
	f := newFixture(t, nil)
	f.r.Render(sceneWorld())

	want := []string{
		"Object 0 (Static) - Plane",
		"Object 1 (Dynamic) - Box",
		"Object 2 (Dynamic) - Sphere",
	}
	for _, w := range want {
		found := false
		for _, l := range f.ui.labels {
			found = found || l == w
		}
		if !found {
			t.Errorf("missing hierarchy entry %q", w)
		}
	}
}

func TestPreviewRebuiltOnlyOnChange(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	r.Render(nil)
	if r.preview == nil || len(f.ui.images) != 1 {
		t.Fatal("expected a terrain preview")
	}
	handle := r.preview.Handle()

	f.dev.Reset()
	r.Render(nil)
	if len(f.dev.Uploads) != 0 {
		t.Errorf("unchanged settings re-uploaded the preview %d times", len(f.dev.Uploads))
	}

	r.Settings().BaseFrequency = 0.7
	r.Render(nil)
	if len(f.dev.Uploads) != 1 || f.dev.Uploads[0].Texture != handle {
		t.Errorf("expected one in-place preview upload, got %+v", f.dev.Uploads)
	}
}

func TestSunSlidersSetLightDirection(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r

	f.ui.floats["Sun Azimuth"] = 90
	f.ui.floats["Sun Elevation"] = 0
	r.Render(nil)

	got := r.Settings().LightDirection
	if !got.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-4) {
		t.Errorf("light direction = %v, want (1,0,0)", got)
	}
}

func TestReloadTextures(t *testing.T) {
	f := newFixture(t, nil)
	r := f.r
	old := r.DiffuseTexture().Handle()

	r.ReloadTextures()
	if r.DiffuseTexture() == nil || r.DiffuseTexture().Handle() == old {
		t.Error("expected a fresh diffuse texture")
	}
	if f.dev.IsLive(gputest.Texture, old) {
		t.Error("old checker texture leaked")
	}
}

func TestScreenshotOnF12(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, func(c *Config) { c.ScreenshotDir = dir })

	f.r.ProcessInput(keyState(input.KeyF12))
	f.r.Render(nil)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".png") {
		t.Errorf("expected one screenshot, got %v", entries)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	dev := gputest.New()
	cfg := DefaultConfig()
	cfg.EmbeddedShaders = true
	cfg.TextureDirs = nil
	cfg.CheckerFallback = true
	cfg.PreviewSize = 4
	r, err := New(Deps{Device: dev, Widgets: newRecordingWidgets(), Importer: triangleImporter{}}, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.Registry().Import("tri.obj"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	r.Render(sceneWorld())

	r.Close()
	r.Close()
	r.Render(sceneWorld())

	if dev.TotalLive() != 0 {
		t.Errorf("%d GPU objects leaked", dev.TotalLive())
	}
	if len(dev.BadDeletes) != 0 {
		t.Errorf("double deletes: %v", dev.BadDeletes)
	}
}

func TestModeString(t *testing.T) {
	if ModeEditing.String() != "Editing" || ModePlaying.String() != "Playing" || Mode(7).String() != "Mode(7)" {
		t.Error("unexpected mode names")
	}
}
