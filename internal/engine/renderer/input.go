package renderer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/camera"
	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/engine/picking"
	"github.com/Faultbox/terrastage/internal/logger"
)

// strategy handles camera input for one interaction style. Each keeps its
// own mouse sampling so switching styles never produces a jump.
type strategy interface {
	// wants reports whether s should drive the camera this frame.
	wants(s *input.State) bool
	handle(s *input.State, dt float32)
	reset()
	// captures reports whether the pointer is hidden while active.
	captures() bool
}

var moveKeys = [...]struct {
	key input.Key
	dir camera.Direction
}{
	{input.KeyW, camera.Forward},
	{input.KeyS, camera.Backward},
	{input.KeyA, camera.Left},
	{input.KeyD, camera.Right},
}

func move(cam *camera.Camera, s *input.State, dt float32, vertical bool) {
	for _, mk := range moveKeys {
		if s.KeyDown(mk.key) {
			cam.ProcessKeyboard(mk.dir, dt)
		}
	}
	if !vertical {
		return
	}
	if s.KeyDown(input.KeyE) {
		cam.ProcessKeyboard(camera.Up, dt)
	}
	if s.KeyDown(input.KeyQ) {
		cam.ProcessKeyboard(camera.Down, dt)
	}
}

// flyStrategy is the editor free camera: right mouse held.
type flyStrategy struct {
	r     *Renderer
	mouse input.MouseDelta
}

func (f *flyStrategy) wants(s *input.State) bool { return s.ButtonDown(input.MouseRight) }
func (f *flyStrategy) captures() bool            { return true }
func (f *flyStrategy) reset()                    { f.mouse.Reset() }

func (f *flyStrategy) handle(s *input.State, dt float32) {
	move(f.r.camera, s, dt, true)
	dx, dy := f.mouse.Sample(s)
	f.r.camera.ProcessMouse(dx, dy, true)
}

// orbitStrategy circles the selected asset: Alt + left mouse held.
type orbitStrategy struct {
	r     *Renderer
	mouse input.MouseDelta
}

func (o *orbitStrategy) wants(s *input.State) bool {
	return s.KeyDown(input.KeyLeftAlt) && s.ButtonDown(input.MouseLeft) && o.r.registry.SelectedAsset() != nil
}

func (o *orbitStrategy) captures() bool { return true }
func (o *orbitStrategy) reset()         { o.mouse.Reset() }

func (o *orbitStrategy) handle(s *input.State, dt float32) {
	asset := o.r.registry.SelectedAsset()
	if asset == nil {
		return
	}
	if !o.mouse.Primed() {
		o.r.orbit.Begin(o.r.camera.Position, asset.Position)
	}
	dx, dy := o.mouse.Sample(s)
	o.r.orbit.Drag(dx, dy)
	o.r.orbit.Apply(o.r.camera)
}

// playStrategy moves the camera in Playing while the pointer is captured.
type playStrategy struct {
	r     *Renderer
	mouse input.MouseDelta
}

func (p *playStrategy) wants(s *input.State) bool { return p.r.captured }
func (p *playStrategy) captures() bool            { return false }
func (p *playStrategy) reset()                    { p.mouse.Reset() }

func (p *playStrategy) handle(s *input.State, dt float32) {
	move(p.r.camera, s, dt, false)
	dx, dy := p.mouse.Sample(s)
	p.r.camera.ProcessMouse(dx, dy, true)
}

// ProcessInput applies one frame of input to the mode and camera.
func (r *Renderer) ProcessInput(s input.State) {
	r.keys.Update(s)
	if s.DisplayWidth > 0 && s.DisplayHeight > 0 {
		r.displayW, r.displayH = s.DisplayWidth, s.DisplayHeight
	}

	if r.keys.Pressed(input.KeyF12) {
		r.screenshotPending = true
	}
	if r.keys.Pressed(input.KeyEscape) && r.mode == ModePlaying {
		r.Stop()
		return
	}

	switch r.mode {
	case ModeEditing:
		r.processEditing(&s)
	case ModePlaying:
		r.processPlaying(&s)
	}
}

func (r *Renderer) processEditing(s *input.State) {
	var next strategy
	for _, c := range []strategy{&r.fly, &r.orbiting} {
		if !c.wants(s) {
			continue
		}
		// The UI keeps the mouse unless a drag already started in the scene.
		if s.WantCaptureMouse && r.active != c {
			continue
		}
		next = c
		break
	}
	r.switchStrategy(next)
	if r.active != nil {
		r.active.handle(s, r.deltaTime)
	}

	left := s.ButtonDown(input.MouseLeft)
	clicked := left && !r.leftDown
	r.leftDown = left
	if clicked && r.active == nil && !s.WantCaptureMouse && !s.KeyDown(input.KeyLeftAlt) {
		r.pickAt(s)
	}
}

// pickAt selects the asset under the mouse cursor.
func (r *Renderer) pickAt(s *input.State) {
	w, h := s.WindowWidth, s.WindowHeight
	if w <= 0 || h <= 0 {
		w, h = float32(r.displayW), float32(r.displayH)
	}
	if w <= 0 || h <= 0 || r.registry.Len() == 0 {
		return
	}
	viewProj := r.camera.Projection(r.fb.Aspect()).Mul4(r.camera.ViewMatrix())
	ray := picking.ScreenToRay(s.MouseX, s.MouseY, w, h, viewProj.Inv())
	if i, ok := r.registry.Pick(ray); ok {
		logger.Debug("asset picked", zap.Int("index", i), zap.String("name", r.registry.Assets()[i].Name))
	}
}

func (r *Renderer) processPlaying(s *input.State) {
	if r.keys.Pressed(input.KeyTab) {
		switch {
		case r.captured:
			r.setCaptured(false)
		case r.cfg.LockMouseInPlay:
			r.setCaptured(true)
			r.playing.reset()
		}
	}
	if r.keys.Pressed(input.KeyR) {
		logger.Info("reloading texture")
		r.loadDiffuse()
	}

	var next strategy
	if r.playing.wants(s) {
		next = &r.playing
	}
	r.switchStrategy(next)
	if r.active != nil {
		r.active.handle(s, r.deltaTime)
	}

	if s.Wheel != 0 && !s.WantCaptureMouse {
		r.camera.ProcessScroll(s.Wheel)
	}
}

func (r *Renderer) switchStrategy(next strategy) {
	if next == r.active {
		return
	}
	r.endStrategy()
	if next == nil {
		return
	}
	next.reset()
	r.active = next
	if next.captures() {
		r.setCaptured(true)
	}
	logger.Debug("camera input", zap.String("mode", r.mode.String()), zap.Bool("captured", r.captured))
}

func (r *Renderer) endStrategy() {
	if r.active == nil {
		return
	}
	if r.active.captures() {
		r.setCaptured(false)
	}
	r.active.reset()
	r.active = nil
}
