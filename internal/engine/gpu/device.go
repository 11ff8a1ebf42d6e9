// Package gpu defines the graphics device used by every GPU-owning component.
//
// Device is the only place the engine talks to OpenGL. Resource owners (meshes,
// programs, textures, framebuffers) hold plain uint32 handles and call back into
// the device to create, bind and destroy them, which keeps their lifecycle logic
// testable without a GL context.
package gpu

// BufferTarget selects the binding point for a buffer object.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// Stage identifies a shader pipeline stage.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

// String returns the stage name used in diagnostics.
func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// PixelFormat is the layout of uploaded texture data.
type PixelFormat int

const (
	FormatRed PixelFormat = iota
	FormatRGB
	FormatRGBA
)

// Channels returns the number of 8-bit channels per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRed:
		return 1
	case FormatRGB:
		return 3
	default:
		return 4
	}
}

// Wrap is a texture coordinate wrapping mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
	FilterLinearMipmapLinear
)

// Sampling describes the parameters applied to the currently bound texture.
type Sampling struct {
	Wrap Wrap
	Min  Filter
	Mag  Filter
}

// Capability is a toggleable pipeline state.
type Capability int

const (
	DepthTest Capability = iota
	CullFace
	Blend
)

// ClearMask selects which buffers Clear resets.
type ClearMask int

const (
	ClearColorBit ClearMask = 1 << iota
	ClearDepthBit
)

// Device is a graphics API bound to the current thread's context.
// All methods must be called from the thread that owns the context.
type Device interface {
	GenVertexArray() uint32
	DeleteVertexArray(id uint32)
	BindVertexArray(id uint32)
	GenBuffer() uint32
	DeleteBuffer(id uint32)
	BindBuffer(target BufferTarget, id uint32)
	BufferData(target BufferTarget, data []byte)
	// VertexAttrib describes and enables a float attribute of the bound VAO.
	VertexAttrib(index uint32, size, stride int32, offset int)
	// DrawElements draws count uint32 indices as a triangle list.
	DrawElements(count int32)
	// DrawArrays draws count vertices as a triangle list.
	DrawArrays(first, count int32)

	CreateShader(stage Stage) uint32
	CompileShader(id uint32, source string) error
	DeleteShader(id uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32) error
	DeleteProgram(id uint32)
	UseProgram(id uint32)
	// ActiveUniforms returns the location of every active uniform in a linked program.
	ActiveUniforms(program uint32) map[string]int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	UniformMatrix4(loc int32, m [16]float32)

	GenTexture() uint32
	DeleteTexture(id uint32)
	ActiveTexture(unit uint32)
	BindTexture(id uint32)
	// TexImage2D uploads pix to the bound texture. A nil pix allocates storage only.
	TexImage2D(format PixelFormat, width, height int32, pix []byte)
	SetSampling(s Sampling)
	GenerateMipmap()

	GenFramebuffer() uint32
	DeleteFramebuffer(id uint32)
	BindFramebuffer(id uint32)
	GenRenderbuffer() uint32
	DeleteRenderbuffer(id uint32)
	DepthStorage(rbo uint32, width, height int32)
	AttachColor(texture uint32)
	AttachDepth(rbo uint32)
	FramebufferComplete() error
	// ReadPixels reads RGBA bytes from the bound framebuffer, bottom row first.
	ReadPixels(x, y, width, height int32) []byte

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	Enable(c Capability)
	Disable(c Capability)
	// CheckError drains the error queue, logging each entry against op.
	// The first error is returned for diagnostics only.
	CheckError(op string) error
}
