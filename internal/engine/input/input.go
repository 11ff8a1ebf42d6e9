// Package input holds per-frame input snapshots and edge detection.
package input

// Key identifies a keyboard key the editor reacts to.
type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyR
	KeyTab
	KeyEscape
	KeyLeftAlt
	KeyLeftShift
	KeyF12

	keyCount
)

var keyNames = [...]string{
	KeyW:         "W",
	KeyA:         "A",
	KeyS:         "S",
	KeyD:         "D",
	KeyQ:         "Q",
	KeyE:         "E",
	KeyR:         "R",
	KeyTab:       "Tab",
	KeyEscape:    "Escape",
	KeyLeftAlt:   "LeftAlt",
	KeyLeftShift: "LeftShift",
	KeyF12:       "F12",
}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "Unknown"
	}
	return keyNames[k]
}

// Keys lists every key a State can report.
func Keys() []Key {
	keys := make([]Key, keyCount)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle

	buttonCount
)

// State is one frame's input snapshot.
type State struct {
	keys    [keyCount]bool
	buttons [buttonCount]bool

	MouseX, MouseY float32
	Wheel          float32

	// Relative is set while the pointer is captured. MouseX and MouseY are
	// then meaningless and DeltaX, DeltaY hold the motion since the last
	// frame, with y growing down the screen.
	Relative       bool
	DeltaX, DeltaY float32

	// DisplayWidth and DisplayHeight are in framebuffer pixels.
	DisplayWidth  int32
	DisplayHeight int32
	// WindowWidth and WindowHeight are in the same units as MouseX and MouseY.
	WindowWidth  float32
	WindowHeight float32

	// WantCaptureMouse is set while the UI is using the mouse.
	WantCaptureMouse bool
	Quit             bool
}

// SetKey records whether k is held.
func (s *State) SetKey(k Key, down bool) {
	if k >= 0 && k < keyCount {
		s.keys[k] = down
	}
}

// KeyDown reports whether k is held.
func (s *State) KeyDown(k Key) bool {
	if k < 0 || k >= keyCount {
		return false
	}
	return s.keys[k]
}

// SetButton records whether b is held.
func (s *State) SetButton(b MouseButton, down bool) {
	if b >= 0 && b < buttonCount {
		s.buttons[b] = down
	}
}

// ButtonDown reports whether b is held.
func (s *State) ButtonDown(b MouseButton) bool {
	if b < 0 || b >= buttonCount {
		return false
	}
	return s.buttons[b]
}

// Tracker detects key presses across frames.
type Tracker struct {
	prev    [keyCount]bool
	pressed [keyCount]bool
}

// Update compares s with the previous frame.
func (t *Tracker) Update(s State) {
	for i := range s.keys {
		t.pressed[i] = s.keys[i] && !t.prev[i]
		t.prev[i] = s.keys[i]
	}
}

// Pressed reports whether k went down this frame.
func (t *Tracker) Pressed(k Key) bool {
	if k < 0 || k >= keyCount {
		return false
	}
	return t.pressed[k]
}

// MouseDelta turns cursor motion into offsets.
// The first sample after a Reset yields no movement.
type MouseDelta struct {
	lastX, lastY float32
	primed       bool
	relative     bool
}

// Sample returns the offset for s, reading relative motion while the
// pointer is captured and absolute positions otherwise. A switch between
// the two counts as a first sample.
func (m *MouseDelta) Sample(s *State) (dx, dy float32) {
	if m.primed && s.Relative != m.relative {
		m.primed = false
	}
	m.relative = s.Relative
	if !s.Relative {
		return m.Next(s.MouseX, s.MouseY)
	}
	if !m.primed {
		m.primed = true
		return 0, 0
	}
	return s.DeltaX, -s.DeltaY
}

// Next returns the offset since the previous sample. dy is positive
// when the cursor moves up the screen.
func (m *MouseDelta) Next(x, y float32) (dx, dy float32) {
	if !m.primed {
		m.lastX, m.lastY = x, y
		m.primed = true
		return 0, 0
	}
	dx = x - m.lastX
	dy = m.lastY - y
	m.lastX, m.lastY = x, y
	return dx, dy
}

// Reset makes the next sample a first sample.
func (m *MouseDelta) Reset() {
	m.primed = false
}

// Primed reports whether a sample has been taken since the last Reset.
func (m *MouseDelta) Primed() bool {
	return m.primed
}
