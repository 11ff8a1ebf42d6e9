// Package framebuffer provides an offscreen render target for the scene passes.
package framebuffer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/logger"
)

// Framebuffer manages an offscreen render target with color and depth attachments.
type Framebuffer struct {
	dev          gpu.Device
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
}

// New creates a new framebuffer with the specified dimensions.
func New(dev gpu.Device, width, height int32) (*Framebuffer, error) {
	fb := &Framebuffer{
		dev:    dev,
		width:  max(width, 1),
		height: max(height, 1),
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	logger.Debug("framebuffer created",
		zap.Uint32("fbo", fb.fbo),
		zap.Int32("width", fb.width),
		zap.Int32("height", fb.height),
	)
	return fb, nil
}

func (fb *Framebuffer) create() error {
	fb.fbo = fb.dev.GenFramebuffer()
	fb.colorTexture = fb.dev.GenTexture()
	fb.depthRBO = fb.dev.GenRenderbuffer()
	if fb.fbo == 0 || fb.colorTexture == 0 || fb.depthRBO == 0 {
		fb.Destroy()
		return fmt.Errorf("allocation failed")
	}

	fb.dev.BindFramebuffer(fb.fbo)

	fb.dev.ActiveTexture(0)
	fb.dev.BindTexture(fb.colorTexture)
	fb.dev.TexImage2D(gpu.FormatRGBA, fb.width, fb.height, nil)
	fb.dev.SetSampling(gpu.Sampling{Wrap: gpu.WrapClampToEdge, Min: gpu.FilterLinear, Mag: gpu.FilterLinear})
	fb.dev.AttachColor(fb.colorTexture)
	fb.dev.BindTexture(0)

	fb.dev.DepthStorage(fb.depthRBO, fb.width, fb.height)
	fb.dev.AttachDepth(fb.depthRBO)

	if err := fb.dev.FramebufferComplete(); err != nil {
		fb.dev.BindFramebuffer(0)
		fb.Destroy()
		return err
	}

	fb.dev.BindFramebuffer(0)
	return nil
}

// Bind makes this framebuffer the current render target and sets the viewport.
func (fb *Framebuffer) Bind() {
	fb.dev.BindFramebuffer(fb.fbo)
	fb.dev.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	fb.dev.BindFramebuffer(0)
}

// ColorTexture returns the color attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Aspect returns width / height.
func (fb *Framebuffer) Aspect() float32 {
	return float32(fb.width) / float32(fb.height)
}

// Resize reallocates the attachments if the dimensions changed.
// It reports whether a resize happened.
func (fb *Framebuffer) Resize(width, height int32) bool {
	width, height = max(width, 1), max(height, 1)
	if width == fb.width && height == fb.height {
		return false
	}

	fb.width = width
	fb.height = height

	fb.dev.ActiveTexture(0)
	fb.dev.BindTexture(fb.colorTexture)
	fb.dev.TexImage2D(gpu.FormatRGBA, fb.width, fb.height, nil)
	fb.dev.BindTexture(0)

	fb.dev.DepthStorage(fb.depthRBO, fb.width, fb.height)

	logger.Debug("framebuffer resized", zap.Int32("width", width), zap.Int32("height", height))
	return true
}

// ReadPixels reads the color attachment as RGBA with the top row first.
func (fb *Framebuffer) ReadPixels() []byte {
	fb.dev.BindFramebuffer(fb.fbo)
	pixels := fb.dev.ReadPixels(0, 0, fb.width, fb.height)
	fb.dev.BindFramebuffer(0)

	// OpenGL returns the bottom row first.
	stride := int(fb.width) * 4
	row := make([]byte, stride)
	for top, bottom := 0, int(fb.height)-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*stride : (top+1)*stride]
		b := pixels[bottom*stride : (bottom+1)*stride]
		copy(row, a)
		copy(a, b)
		copy(b, row)
	}
	return pixels
}

// Destroy releases all GPU resources. Safe to call more than once.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		fb.dev.DeleteFramebuffer(fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		fb.dev.DeleteTexture(fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthRBO != 0 {
		fb.dev.DeleteRenderbuffer(fb.depthRBO)
		fb.depthRBO = 0
	}
}
