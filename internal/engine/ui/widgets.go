package ui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/terrastage/internal/engine/renderer"
)

// panelLayout places each editor panel the first time it appears.
// Negative x is measured from the right edge.
var panelLayout = map[string][4]float32{
	renderer.ToolbarTitle:       {10, 10, 460, 60},
	renderer.StatsTitle:         {10, 80, 300, 170},
	renderer.SceneControlsTitle: {10, 260, 340, 520},
	renderer.InspectorTitle:     {-310, 10, 300, 300},
	renderer.HierarchyTitle:     {-310, 320, 300, 260},
}

// Widgets draws the editor panels with Dear ImGui.
type Widgets struct{}

var _ renderer.Widgets = (*Widgets)(nil)

// NewWidgets returns the ImGui widget set.
func NewWidgets() *Widgets {
	return &Widgets{}
}

// SceneImage draws the scene texture behind every panel.
func (w *Widgets) SceneImage(texture uint32, width, height float32) {
	if texture == 0 {
		return
	}

	viewport := imgui.MainViewport()
	pos := viewport.WorkPos()
	size := viewport.WorkSize()
	if size.X <= 0 || size.Y <= 0 {
		size = imgui.NewVec2(width, height)
	}

	imgui.SetNextWindowPos(pos)
	imgui.SetNextWindowSize(size)

	flags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
		imgui.WindowFlagsNoMove | imgui.WindowFlagsNoScrollbar |
		imgui.WindowFlagsNoScrollWithMouse | imgui.WindowFlagsNoBringToFrontOnFocus |
		imgui.WindowFlagsNoInputs

	imgui.PushStyleVarVec2(imgui.StyleVarWindowPadding, imgui.NewVec2(0, 0))
	if imgui.BeginV("##SceneBackground", nil, flags) {
		w.image(texture, size.X, size.Y)
	}
	imgui.End()
	imgui.PopStyleVar()
}

// Image draws a texture inline. Rows are stored bottom-up, so the V axis is flipped.
func (w *Widgets) Image(texture uint32, width, height float32) {
	if texture == 0 {
		return
	}
	w.image(texture, width, height)
}

func (w *Widgets) image(texture uint32, width, height float32) {
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(texture))
	imgui.ImageV(*texRef,
		imgui.NewVec2(width, height),
		imgui.NewVec2(0, 1),
		imgui.NewVec2(1, 0))
}

func (w *Widgets) Begin(title string) bool {
	if l, ok := panelLayout[title]; ok {
		x := l[0]
		if x < 0 {
			x += imgui.MainViewport().WorkSize().X
		}
		imgui.SetNextWindowPosV(imgui.NewVec2(x, l[1]), imgui.CondFirstUseEver, imgui.NewVec2(0, 0))
		imgui.SetNextWindowSizeV(imgui.NewVec2(l[2], l[3]), imgui.CondFirstUseEver)
	}
	return imgui.Begin(title)
}

func (w *Widgets) End() { imgui.End() }

func (w *Widgets) Text(format string, args ...any) {
	imgui.Text(fmt.Sprintf(format, args...))
}

func (w *Widgets) Button(label string) bool { return imgui.Button(label) }

func (w *Widgets) Checkbox(label string, v *bool) bool { return imgui.Checkbox(label, v) }

func (w *Widgets) Selectable(label string, selected bool) bool {
	return imgui.SelectableBoolV(label, selected, 0, imgui.NewVec2(0, 0))
}

func (w *Widgets) CollapsingHeader(label string) bool {
	return imgui.CollapsingHeaderTreeNodeFlagsV(label, imgui.TreeNodeFlagsDefaultOpen)
}

func (w *Widgets) SliderFloat(label string, v *float32, min, max float32) bool {
	return imgui.SliderFloatV(label, v, min, max, "%.2f", imgui.SliderFlagsNone)
}

func (w *Widgets) SliderInt(label string, v *int32, min, max int32) bool {
	return imgui.SliderIntV(label, v, min, max, "%d", imgui.SliderFlagsNone)
}

func (w *Widgets) SliderFloat3(label string, v *[3]float32, min, max float32) bool {
	return imgui.SliderFloat3V(label, v, min, max, "%.2f", imgui.SliderFlagsNone)
}

func (w *Widgets) ColorEdit3(label string, v *[3]float32) bool {
	return imgui.ColorEdit3(label, v)
}

func (w *Widgets) SameLine()  { imgui.SameLine() }
func (w *Widgets) Separator() { imgui.Separator() }
func (w *Widgets) Indent()    { imgui.Indent() }
func (w *Widgets) Unindent()  { imgui.Unindent() }
