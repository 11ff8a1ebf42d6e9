// Package ui provides the ImGui window backend, widgets and native dialogs.
package ui

import (
	"fmt"
	"runtime"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/input"
	"github.com/Faultbox/terrastage/internal/logger"
)

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int32
	Height     int32
	Fullscreen bool
	// TargetFPS caps the loop; 0 leaves the backend default.
	TargetFPS uint
}

// Backend wraps the ImGui SDL backend that owns the window and GL context.
type Backend struct {
	backend  backend.Backend[sdlbackend.SDLWindowFlags]
	cfg      Config
	captured bool
}

// NewBackend creates the window and its OpenGL context.
func NewBackend(cfg Config) (*Backend, error) {
	b := &Backend{cfg: cfg}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetAfterCreateContextHook(func() {
		imgui.StyleColorsDark()
	})

	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.1, 1.0))
	b.backend.CreateWindow(cfg.Title, int(cfg.Width), int(cfg.Height))

	if cfg.Fullscreen {
		w, h := b.backend.DisplaySize()
		b.backend.SetWindowPos(0, 0)
		b.backend.SetWindowSize(int(w), int(h))
	}
	if cfg.TargetFPS > 0 {
		b.backend.SetTargetFPS(cfg.TargetFPS)
	}

	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int32("width", cfg.Width),
		zap.Int32("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
	)
	return b, nil
}

// Run calls frame once per frame until the window closes. Call it from the
// thread that created the backend; main locks that thread in init.
func (b *Backend) Run(frame func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.backend.Run(func() {
		if b.captured {
			imgui.SetMouseCursor(imgui.MouseCursorNone)
		}
		frame()
	})
}

// SetTitle updates the window title.
func (b *Backend) SetTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// SetPointerCaptured confines and hides the cursor while captured. Poll
// then reports relative motion and keeps the cursor at the window center.
func (b *Backend) SetPointerCaptured(captured bool) {
	if b.captured == captured {
		return
	}
	b.captured = captured
	if captured {
		b.backend.SetInputMode(sdlbackend.SDLInputModeGrab, 1)
		b.recenter(imgui.MainViewport())
		return
	}
	b.backend.SetInputMode(sdlbackend.SDLInputModeGrab, 0)
	imgui.SetMouseCursor(imgui.MouseCursorArrow)
}

// recenter warps the cursor to the middle of the window.
func (b *Backend) recenter(vp *imgui.Viewport) {
	x, y := b.backend.GetWindowPos()
	size := vp.Size()
	b.backend.SetCursorPos(float64(float32(x)+size.X/2), float64(float32(y)+size.Y/2))
}

// Close stops the loop at the end of the current frame.
func (b *Backend) Close() {
	b.backend.SetShouldClose(true)
}

// keyMap maps the keys the editor reads to ImGui keys.
var keyMap = map[input.Key]imgui.Key{
	input.KeyW:         imgui.KeyW,
	input.KeyA:         imgui.KeyA,
	input.KeyS:         imgui.KeyS,
	input.KeyD:         imgui.KeyD,
	input.KeyQ:         imgui.KeyQ,
	input.KeyE:         imgui.KeyE,
	input.KeyR:         imgui.KeyR,
	input.KeyTab:       imgui.KeyTab,
	input.KeyEscape:    imgui.KeyEscape,
	input.KeyLeftAlt:   imgui.KeyLeftAlt,
	input.KeyLeftShift: imgui.KeyLeftShift,
	input.KeyF12:       imgui.KeyF12,
}

var buttonMap = map[input.MouseButton]imgui.MouseButton{
	input.MouseLeft:   imgui.MouseButtonLeft,
	input.MouseRight:  imgui.MouseButtonRight,
	input.MouseMiddle: imgui.MouseButtonMiddle,
}

// Poll snapshots the current ImGui input state.
func (b *Backend) Poll() input.State {
	io := imgui.CurrentIO()
	var s input.State
	for k, ik := range keyMap {
		s.SetKey(k, imgui.IsKeyDown(ik))
	}
	for btn, ib := range buttonMap {
		s.SetButton(btn, imgui.IsMouseDown(ib))
	}

	// With multiple viewports ImGui reports the mouse in desktop coordinates.
	vp := imgui.MainViewport()
	pos := imgui.MousePos().Sub(vp.Pos())
	s.MouseX, s.MouseY = pos.X, pos.Y
	s.Wheel = io.MouseWheel()

	if b.captured {
		center := vp.Size().Mul(0.5)
		s.Relative = true
		s.DeltaX, s.DeltaY = pos.X-center.X, pos.Y-center.Y
		b.recenter(vp)
	}

	// DisplaySize is logical pixels, DisplayFramebufferScale is the multiplier.
	size := io.DisplaySize()
	scale := io.DisplayFramebufferScale()
	s.DisplayWidth = int32(size.X * max(scale.X, 1))
	s.DisplayHeight = int32(size.Y * max(scale.Y, 1))
	s.WindowWidth, s.WindowHeight = size.X, size.Y

	s.WantCaptureMouse = io.WantCaptureMouse()
	return s
}
