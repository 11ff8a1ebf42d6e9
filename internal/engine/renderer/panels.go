package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/camera"
	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/lighting"
	"github.com/Faultbox/terrastage/internal/engine/terrain"
	"github.com/Faultbox/terrastage/internal/engine/texture"
	"github.com/Faultbox/terrastage/internal/logger"
	"github.com/Faultbox/terrastage/internal/physics"
)

// Panel titles.
const (
	ToolbarTitle       = "Toolbar"
	StatsTitle         = "Stats"
	SceneControlsTitle = "Scene Controls"
	InspectorTitle     = "Inspector"
	HierarchyTitle     = "Hierarchy"
)

// Toolbar labels.
const (
	PlayLabel           = "Play"
	StopLabel           = "Stop"
	ImportLabel         = "Import Asset"
	LockMouseLabel      = "Lock Mouse"
	ReloadTexturesLabel = "Reload Textures"
	FocusCameraLabel    = "Focus Camera"
	SaveSettingsLabel   = "Save Settings"
)

func (r *Renderer) drawUI(world *physics.World) {
	if r.widgets == nil {
		return
	}
	w, h := r.fb.Size()
	r.widgets.SceneImage(r.fb.ColorTexture(), float32(w), float32(h))

	r.drawToolbar()
	r.drawStats(world)
	r.drawSceneControls()
	r.drawInspector()
	r.drawHierarchy(world)
}

func (r *Renderer) drawToolbar() {
	ui := r.widgets
	if ui.Begin(ToolbarTitle) {
		if r.mode == ModeEditing {
			if ui.Button(PlayLabel) {
				r.Play()
			}
		} else if ui.Button(StopLabel) {
			r.Stop()
		}
		ui.SameLine()
		if ui.Button(ImportLabel) {
			r.picker.Request()
		}
		ui.SameLine()
		lock := r.cfg.LockMouseInPlay
		if ui.Checkbox(LockMouseLabel, &lock) {
			r.SetLockMouse(lock)
		}
		ui.SameLine()
		if ui.Button(ReloadTexturesLabel) {
			r.ReloadTextures()
		}
		if r.save != nil {
			ui.SameLine()
			if ui.Button(SaveSettingsLabel) {
				r.SavePreferences()
			}
		}
	}
	ui.End()
}

func (r *Renderer) drawStats(world *physics.World) {
	ui := r.widgets
	if ui.Begin(StatsTitle) {
		ui.Text("FPS: %.1f", r.fps)
		ui.Text("Frame Time: %.2f ms", r.frameTimeMs)
		bodies := 0
		if world != nil {
			bodies = world.NumBodies()
		}
		ui.Text("Bodies: %d", bodies)
		ui.Text("Assets: %d (%d importing)", r.registry.Len(), r.registry.Pending())
		st := r.textures.Stats()
		ui.Text("Textures: %d cached, %d hits, %d misses, %d reloads", st.Entries, st.Hits, st.Misses, st.Reloads)
		ui.Text("Mode: %s", r.mode)
	}
	ui.End()
}

func (r *Renderer) drawSceneControls() {
	ui := r.widgets
	if ui.Begin(SceneControlsTitle) {
		s := &r.settings

		if ui.CollapsingHeader("Lighting") {
			ui.SliderFloat3("Light Direction", (*[3]float32)(&s.LightDirection), -1, 1)
			az, el := lighting.SunAngles(s.LightDirection)
			changed := ui.SliderFloat("Sun Azimuth", &az, 0, 360)
			changed = ui.SliderFloat("Sun Elevation", &el, -90, 90) || changed
			if changed {
				s.LightDirection = lighting.SunDirection(az, el)
			}
			ui.ColorEdit3("Light Color", (*[3]float32)(&s.LightColor))
			ui.SliderFloat("Ambient Strength", &s.Ambient, 0, 1)
		}

		if ui.CollapsingHeader("Camera") {
			cam := r.camera
			ui.Text("Position: (%.2f, %.2f, %.2f)", cam.Position.X(), cam.Position.Y(), cam.Position.Z())
			ui.Text("Yaw: %.1f  Pitch: %.1f", cam.Yaw, cam.Pitch)
			ui.SliderFloat("Move Speed", &cam.MovementSpeed, 0.5, 50)
			ui.SliderFloat("Mouse Sensitivity", &cam.MouseSensitivity, 0.01, 1)
			ui.SliderFloat("Zoom", &cam.Zoom, camera.MinZoom, camera.MaxZoom)
		}

		if ui.CollapsingHeader("Terrain") {
			ui.SliderFloat("Base Frequency", &s.BaseFrequency, 0.05, 1)
			ui.SliderFloat("Base Amplitude", &s.BaseAmplitude, 0.1, 5)
			ui.SliderFloat("Persistence", &s.Persistence, 0.1, 0.9)
			ui.SliderFloat("Flatten Power", &s.FlattenPower, 0.5, 4)
			ui.SliderFloat("Final Scale", &s.FinalScale, 0.5, 8)
			ui.SliderInt("Octaves", &s.Octaves, terrain.MinOctaves, terrain.MaxOctaves)
		}

		if ui.CollapsingHeader("Clouds") {
			ui.SliderFloat("Base Height", &s.CloudBaseHeight, 0, 30)
			ui.SliderFloat("Thickness", &s.CloudThickness, 1, 30)
			ui.SliderFloat("Noise Scale", &s.CloudNoiseScale, 0.05, 2)
			ui.SliderFloat("Coverage Min", &s.CoverageMin, 0, 1)
			ui.SliderFloat("Coverage Max", &s.CoverageMax, s.CoverageMin+0.01, 1)
			ui.SliderFloat("Density", &s.CloudDensity, 0, 3)
		}
		s.Clamp()

		r.updatePreview()
		if r.preview != nil {
			ui.Separator()
			ui.Text("Terrain Preview")
			size := float32(r.cfg.PreviewSize)
			ui.Image(r.preview.Handle(), size, size)
		}
	}
	ui.End()
}

// updatePreview rebuilds the heightmap thumbnail when the settings changed.
func (r *Renderer) updatePreview() {
	if r.cfg.PreviewSize <= 0 {
		return
	}
	if r.preview != nil && r.previewSettings == r.settings {
		return
	}

	img := texture.FromImage(terrain.Preview(r.settings, r.cfg.PreviewSize))
	r.previewSettings = r.settings
	if r.preview != nil {
		if err := r.preview.Update(img); err != nil {
			logger.Warn("terrain preview update failed", zap.Error(err))
		}
		return
	}

	tex, err := r.textures.FromPixels("terrain-preview", img, gpu.Sampling{
		Wrap: gpu.WrapClampToEdge,
		Min:  gpu.FilterLinear,
		Mag:  gpu.FilterLinear,
	}, false)
	if err != nil {
		logger.Error("failed to create terrain preview", zap.Error(err))
		return
	}
	r.preview = tex
}

func (r *Renderer) drawInspector() {
	ui := r.widgets
	if ui.Begin(InspectorTitle) {
		ui.Text("Scene Assets:")
		selected, hasSelection := r.registry.Selected()
		for i, a := range r.registry.Assets() {
			label := fmt.Sprintf("%s##asset%d", a.Name, i)
			if ui.Selectable(label, hasSelection && i == selected) {
				r.registry.Select(i)
				selected, hasSelection = i, true
			}
		}

		if a := r.registry.SelectedAsset(); a != nil {
			ui.Separator()
			ui.Indent()
			pos := a.Position
			if ui.SliderFloat3("Position", (*[3]float32)(&pos), -50, 50) {
				r.registry.SetPosition(selected, pos)
			}
			if ui.Button(FocusCameraLabel) {
				r.FocusCamera(selected)
			}
			ui.Unindent()
		}
	}
	ui.End()
}

func (r *Renderer) drawHierarchy(world *physics.World) {
	ui := r.widgets
	if ui.Begin(HierarchyTitle) {
		if world == nil {
			ui.Text("Physics world not available.")
		} else {
			for i, b := range world.Bodies() {
				if ui.Selectable(BodyLabel(i, b), false) {
					p := b.Position()
					logger.Debug("body selected", zap.Int("index", i), zap.Float32s("position", p[:]))
				}
			}
		}
	}
	ui.End()
}

// BodyLabel names a physics body in the hierarchy.
func BodyLabel(i int, b *physics.Body) string {
	kind := "Static"
	if b.Dynamic() {
		kind = "Dynamic"
	}
	return fmt.Sprintf("Object %d (%s) - %s", i, kind, b.Shape().Kind)
}

// FocusCamera moves the camera in front of the asset at index i.
func (r *Renderer) FocusCamera(i int) bool {
	assets := r.registry.Assets()
	if i < 0 || i >= len(assets) {
		return false
	}
	r.camera.FocusOn(assets[i].Position)
	return true
}
