package gpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/logger"
)

// GL is the OpenGL 4.1 core implementation of Device.
type GL struct{}

// Init loads the OpenGL function pointers and returns a device.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func Init() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.DepthFunc(gl.LESS)
	return &GL{}, nil
}

func (*GL) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (*GL) DeleteVertexArray(id uint32) { gl.DeleteVertexArrays(1, &id) }
func (*GL) BindVertexArray(id uint32)   { gl.BindVertexArray(id) }

func (*GL) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (*GL) DeleteBuffer(id uint32) { gl.DeleteBuffers(1, &id) }

func (*GL) BindBuffer(target BufferTarget, id uint32) {
	gl.BindBuffer(bufferTarget(target), id)
}

func (*GL) BufferData(target BufferTarget, data []byte) {
	if len(data) == 0 {
		gl.BufferData(bufferTarget(target), 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(bufferTarget(target), len(data), gl.Ptr(data), gl.STATIC_DRAW)
}

func (*GL) VertexAttrib(index uint32, size, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, false, stride, uintptr(offset))
	gl.EnableVertexAttribArray(index)
}

func (*GL) DrawElements(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil)
}

func (*GL) DrawArrays(first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

func (*GL) CreateShader(stage Stage) uint32 {
	if stage == FragmentStage {
		return gl.CreateShader(gl.FRAGMENT_SHADER)
	}
	return gl.CreateShader(gl.VERTEX_SHADER)
}

func (*GL) CompileShader(id uint32, source string) error {
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csource, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLen)
		return fmt.Errorf("%s", infoLog(logLen, func(buf *uint8) {
			gl.GetShaderInfoLog(id, logLen, nil, buf)
		}))
	}
	return nil
}

func (*GL) DeleteShader(id uint32)  { gl.DeleteShader(id) }
func (*GL) CreateProgram() uint32   { return gl.CreateProgram() }
func (*GL) DeleteProgram(id uint32) { gl.DeleteProgram(id) }
func (*GL) UseProgram(id uint32)    { gl.UseProgram(id) }

func (*GL) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (*GL) LinkProgram(program uint32) error {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		return fmt.Errorf("%s", infoLog(logLen, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLen, nil, buf)
		}))
	}
	return nil
}

func (*GL) ActiveUniforms(program uint32) map[string]int32 {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	if maxLen < 1 {
		maxLen = 1
	}

	locations := make(map[string]int32, count)
	name := make([]byte, maxLen)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, uint32(i), maxLen, &length, &size, &xtype, &name[0])
		uniform := strings.TrimSuffix(string(name[:length]), "[0]")
		locations[uniform] = gl.GetUniformLocation(program, gl.Str(uniform+"\x00"))
	}
	return locations
}

func (*GL) Uniform1i(loc int32, v int32)         { gl.Uniform1i(loc, v) }
func (*GL) Uniform1f(loc int32, v float32)       { gl.Uniform1f(loc, v) }
func (*GL) Uniform2f(loc int32, x, y float32)    { gl.Uniform2f(loc, x, y) }
func (*GL) Uniform3f(loc int32, x, y, z float32) { gl.Uniform3f(loc, x, y, z) }

func (*GL) UniformMatrix4(loc int32, m [16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (*GL) GenTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (*GL) DeleteTexture(id uint32)   { gl.DeleteTextures(1, &id) }
func (*GL) ActiveTexture(unit uint32) { gl.ActiveTexture(gl.TEXTURE0 + unit) }
func (*GL) BindTexture(id uint32)     { gl.BindTexture(gl.TEXTURE_2D, id) }
func (*GL) GenerateMipmap()           { gl.GenerateMipmap(gl.TEXTURE_2D) }

func (*GL) TexImage2D(format PixelFormat, width, height int32, pix []byte) {
	internal, external := int32(gl.RGBA8), uint32(gl.RGBA)
	switch format {
	case FormatRed:
		internal, external = gl.R8, gl.RED
	case FormatRGB:
		internal, external = gl.RGB8, gl.RGB
	}

	// Rows of 1 and 3 channel images are not 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if len(pix) == 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, 0, external, gl.UNSIGNED_BYTE, nil)
		return
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, 0, external, gl.UNSIGNED_BYTE, gl.Ptr(pix))
}

func (*GL) SetSampling(s Sampling) {
	wrap := int32(gl.REPEAT)
	if s.Wrap == WrapClampToEdge {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter(s.Min))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter(s.Mag))
}

func (*GL) GenFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (*GL) DeleteFramebuffer(id uint32) { gl.DeleteFramebuffers(1, &id) }
func (*GL) BindFramebuffer(id uint32)   { gl.BindFramebuffer(gl.FRAMEBUFFER, id) }

func (*GL) GenRenderbuffer() uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return id
}

func (*GL) DeleteRenderbuffer(id uint32) { gl.DeleteRenderbuffers(1, &id) }

func (*GL) DepthStorage(rbo uint32, width, height int32) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, width, height)
}

func (*GL) AttachColor(texture uint32) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)
}

func (*GL) AttachDepth(rbo uint32) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rbo)
}

func (*GL) FramebufferComplete() error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (*GL) ReadPixels(x, y, width, height int32) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func (*GL) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (*GL) ClearColor(r, g, b, a float32)      { gl.ClearColor(r, g, b, a) }

func (*GL) Clear(mask ClearMask) {
	var bits uint32
	if mask&ClearColorBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&ClearDepthBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (*GL) Enable(c Capability)  { gl.Enable(capability(c)) }
func (*GL) Disable(c Capability) { gl.Disable(capability(c)) }

func (*GL) CheckError(op string) error {
	var first error
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		logger.Error("OpenGL error",
			zap.String("op", op),
			zap.String("error", errorName(code)),
			zap.Uint32("code", code),
		)
		if first == nil {
			first = fmt.Errorf("%s: %s", op, errorName(code))
		}
	}
	return first
}

func infoLog(length int32, read func(*uint8)) string {
	if length < 1 {
		return "no info log"
	}
	log := make([]byte, length)
	read(&log[0])
	return strings.TrimRight(string(log), "\x00\n")
}

func bufferTarget(t BufferTarget) uint32 {
	if t == ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func filter(f Filter) int32 {
	switch f {
	case FilterNearest:
		return gl.NEAREST
	case FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

func capability(c Capability) uint32 {
	switch c {
	case CullFace:
		return gl.CULL_FACE
	case Blend:
		return gl.BLEND
	default:
		return gl.DEPTH_TEST
	}
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("0x%x", code)
	}
}
