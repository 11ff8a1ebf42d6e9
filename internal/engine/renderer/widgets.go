package renderer

// Widgets is the immediate-mode UI surface the panels draw with.
// Value-editing widgets report whether the value changed this frame.
type Widgets interface {
	// SceneImage shows texture full-screen behind every panel.
	SceneImage(texture uint32, width, height float32)
	// Image shows texture inline in the current panel.
	Image(texture uint32, width, height float32)

	Begin(title string) bool
	End()

	Text(format string, args ...any)
	Button(label string) bool
	Checkbox(label string, v *bool) bool
	Selectable(label string, selected bool) bool
	CollapsingHeader(label string) bool
	SliderFloat(label string, v *float32, min, max float32) bool
	SliderInt(label string, v *int32, min, max int32) bool
	SliderFloat3(label string, v *[3]float32, min, max float32) bool
	ColorEdit3(label string, v *[3]float32) bool

	SameLine()
	Separator()
	Indent()
	Unindent()
}

// FilePicker chooses a model file without blocking the render thread.
type FilePicker interface {
	// Request opens the picker unless one is already open.
	Request()
	// Poll returns the chosen path once.
	Poll() (string, bool)
}

// Pointer hides and locks the system cursor.
type Pointer interface {
	SetPointerCaptured(captured bool)
}

type noPicker struct{}

func (noPicker) Request()             {}
func (noPicker) Poll() (string, bool) { return "", false }

type noPointer struct{}

func (noPointer) SetPointerCaptured(bool) {}
