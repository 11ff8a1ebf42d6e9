package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/terrain"
	"github.com/Faultbox/terrastage/internal/engine/texture"
	"github.com/Faultbox/terrastage/internal/logger"
	"github.com/Faultbox/terrastage/internal/physics"
)

// Render draws one frame into the scene framebuffer and then the UI.
// world may be nil.
func (r *Renderer) Render(world *physics.World) {
	if r.closed {
		return
	}
	r.drainBackground()

	r.fb.Resize(r.displayW, r.displayH)
	r.fb.Bind()

	r.terrainPass()
	r.dev.CheckError(OpTerrainPass)
	r.physicsPass(world)
	r.dev.CheckError(OpPhysicsPass)
	r.assetPass()
	r.dev.CheckError(OpAssetPass)

	r.fb.Unbind()

	if r.screenshotPending {
		r.screenshotPending = false
		r.captureScreenshot()
	}

	r.dev.Viewport(0, 0, r.displayW, r.displayH)
	r.drawUI(world)
}

// drainBackground hands finished imports, picked files and texture changes
// to the render thread.
func (r *Renderer) drainBackground() {
	if path, ok := r.picker.Poll(); ok {
		logger.Info("importing asset", zap.String("path", path))
		r.registry.ImportAsync(path)
	}
	if r.registry.Poll() > 0 {
		r.dev.CheckError(OpAssetUpload)
	}

	if r.watcher == nil {
		return
	}
	paths := r.watcher.Drain()
	if len(paths) > 0 {
		defer r.dev.CheckError(OpTextureLoad)
	}
	for _, path := range paths {
		if r.textures.Contains(path) {
			if _, err := r.textures.Revalidate(path); err != nil {
				logger.Warn("texture hot reload failed", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if !r.diffuse.Cached() && texture.HasExtension(path, r.cfg.TextureExts) {
			r.loadDiffuse()
		}
	}
}

func (r *Renderer) terrainPass() {
	if !r.terrainProg.Valid() || r.quad == nil {
		r.dev.ClearColor(1, 0, 1, 1)
		r.dev.Clear(gpu.ClearColorBit | gpu.ClearDepthBit)
		return
	}

	r.dev.ClearColor(0.1, 0.1, 0.1, 1)
	r.dev.Clear(gpu.ClearColorBit | gpu.ClearDepthBit)
	r.dev.Disable(gpu.DepthTest)

	w, h := r.fb.Size()
	view := r.camera.ViewMatrix()
	proj := r.camera.Projection(r.fb.Aspect())
	s := &r.settings
	p := r.terrainProg

	p.Use()
	p.SetFloat(terrain.UniformTime, r.shaderTime)
	p.SetVec2(terrain.UniformResolution, mgl32.Vec2{float32(w), float32(h)})
	p.SetVec3(terrain.UniformCamPos, r.camera.Position)
	p.SetMat4(terrain.UniformInvView, view.Inv())
	p.SetMat4(terrain.UniformInvProj, proj.Inv())

	p.SetVec3(terrain.UniformLightDir, s.LightDirection)
	p.SetVec3(terrain.UniformLightColor, s.LightColor)
	p.SetFloat(terrain.UniformAmbient, s.Ambient)

	p.SetFloat(terrain.UniformBaseFreq, s.BaseFrequency)
	p.SetFloat(terrain.UniformBaseAmp, s.BaseAmplitude)
	p.SetFloat(terrain.UniformPersistence, s.Persistence)
	p.SetFloat(terrain.UniformFlatten, s.FlattenPower)
	p.SetFloat(terrain.UniformFinalScale, s.FinalScale)
	p.SetInt(terrain.UniformOctaves, s.Octaves)

	p.SetFloat(terrain.UniformCloudBase, s.CloudBaseHeight)
	p.SetFloat(terrain.UniformCloudThick, s.CloudThickness)
	p.SetFloat(terrain.UniformCloudNoise, s.CloudNoiseScale)
	p.SetFloat(terrain.UniformCoverageMin, s.CoverageMin)
	p.SetFloat(terrain.UniformCoverageMax, s.CoverageMax)
	p.SetFloat(terrain.UniformCloudDens, s.CloudDensity)

	r.quad.Draw()
}

func (r *Renderer) beginRaster() {
	r.dev.Enable(gpu.DepthTest)

	p := r.rasterProg
	p.Use()
	p.SetMat4("view", r.camera.ViewMatrix())
	p.SetMat4("projection", r.camera.Projection(r.fb.Aspect()))
}

func (r *Renderer) physicsPass(world *physics.World) {
	if !r.rasterProg.Valid() || r.cube == nil || world == nil {
		return
	}
	r.beginRaster()
	r.dev.Clear(gpu.ClearDepthBit)

	p := r.rasterProg
	textured := r.diffuse != nil && r.diffuse.Handle() != 0
	if textured {
		r.diffuse.Bind(0)
		p.SetInt("texture1", 0)
	}
	p.SetBool("useTexture", textured)

	for _, b := range world.Bodies() {
		if !b.Dynamic() || b.Shape().Kind == physics.ShapePlane {
			continue
		}
		model := b.Transform().Mul4(mgl32.Scale3D(b.Shape().Scale().Elem()))
		p.SetMat4("model", model)
		r.cube.Draw()
	}

	if textured {
		r.diffuse.Unbind()
	}
}

func (r *Renderer) assetPass() {
	if !r.rasterProg.Valid() || r.registry.Len() == 0 {
		return
	}
	r.beginRaster()

	p := r.rasterProg
	p.SetBool("useTexture", false)
	for _, a := range r.registry.Assets() {
		p.SetMat4("model", a.Model())
		a.Mesh.Draw()
	}
}

func (r *Renderer) captureScreenshot() {
	w, h := r.fb.Size()
	path, err := r.screenshots.CaptureFromPixels(r.fb.ReadPixels(), int(w), int(h))
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}
