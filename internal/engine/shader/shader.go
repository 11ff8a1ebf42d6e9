// Package shader compiles, links and drives GPU programs.
package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/logger"
)

var (
	// ErrCompile wraps a stage compilation failure.
	ErrCompile = errors.New("shader compile failed")
	// ErrLink wraps a program link failure.
	ErrLink = errors.New("shader link failed")
)

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Intermediate stage objects are always released; on failure no program survives.
func CompileProgram(dev gpu.Device, vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(dev, gpu.VertexStage, vertexSrc)
	if err != nil {
		return 0, err
	}
	defer dev.DeleteShader(vertShader)

	fragShader, err := compileShader(dev, gpu.FragmentStage, fragmentSrc)
	if err != nil {
		return 0, err
	}
	defer dev.DeleteShader(fragShader)

	program := dev.CreateProgram()
	if program == 0 {
		return 0, fmt.Errorf("%w: could not create program", ErrLink)
	}
	dev.AttachShader(program, vertShader)
	dev.AttachShader(program, fragShader)

	if err := dev.LinkProgram(program); err != nil {
		dev.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %v", ErrLink, err)
	}

	return program, nil
}

// compileShader compiles a single stage, deleting it again on failure.
func compileShader(dev gpu.Device, stage gpu.Stage, source string) (uint32, error) {
	id := dev.CreateShader(stage)
	if id == 0 {
		return 0, fmt.Errorf("%w: %s shader: could not create", ErrCompile, stage)
	}
	if err := dev.CompileShader(id, source); err != nil {
		dev.DeleteShader(id)
		return 0, fmt.Errorf("%w: %s shader: %v", ErrCompile, stage, err)
	}
	return id, nil
}

// Program is a linked vertex+fragment program with cached uniform locations.
//
// A Program whose sources could not be read, compiled or linked has handle 0
// and reports Valid() == false; Use and every setter are then no-ops.
type Program struct {
	dev       gpu.Device
	handle    uint32
	valid     bool
	name      string
	locations map[string]int32
}

// Load reads both stage sources from disk and builds a program.
// Failures are logged and produce an invalid Program, never a nil one.
func Load(dev gpu.Device, vertexPath, fragmentPath string) *Program {
	p := &Program{dev: dev, name: vertexPath + "+" + fragmentPath}

	vertexSrc, err := os.ReadFile(vertexPath)
	if err != nil {
		logger.Error("failed to read shader source", zap.String("path", vertexPath), zap.Error(err))
		return p
	}
	fragmentSrc, err := os.ReadFile(fragmentPath)
	if err != nil {
		logger.Error("failed to read shader source", zap.String("path", fragmentPath), zap.Error(err))
		return p
	}

	p.build(string(vertexSrc), string(fragmentSrc))
	return p
}

// FromSource builds a program from in-memory sources.
func FromSource(dev gpu.Device, name, vertexSrc, fragmentSrc string) *Program {
	p := &Program{dev: dev, name: name}
	p.build(vertexSrc, fragmentSrc)
	return p
}

func (p *Program) build(vertexSrc, fragmentSrc string) {
	handle, err := CompileProgram(p.dev, vertexSrc, fragmentSrc)
	if err != nil {
		logger.Error("shader program invalid", zap.String("program", p.name), zap.Error(err))
		return
	}

	p.handle = handle
	p.valid = true
	p.locations = p.dev.ActiveUniforms(handle)
	logger.Debug("shader program created",
		zap.String("program", p.name),
		zap.Uint32("handle", handle),
		zap.Int("uniforms", len(p.locations)),
	)
}

// Valid reports whether the program linked successfully.
func (p *Program) Valid() bool { return p != nil && p.valid }

// Handle returns the GPU program handle, 0 when invalid.
func (p *Program) Handle() uint32 {
	if p == nil {
		return 0
	}
	return p.handle
}

// Name identifies the program in logs.
func (p *Program) Name() string { return p.name }

// Use makes the program current. Invalid programs leave the current program untouched.
func (p *Program) Use() {
	if !p.Valid() {
		return
	}
	p.dev.UseProgram(p.handle)
}

// Location returns the cached location of an active uniform, or -1.
func (p *Program) Location(name string) int32 {
	if !p.Valid() {
		return -1
	}
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

// Has reports whether the program declares an active uniform called name.
func (p *Program) Has(name string) bool {
	return p.Location(name) >= 0
}

// SetBool sets a bool uniform. Unknown names are ignored.
func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetInt(name, i)
}

// SetInt sets an int or sampler uniform.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.Location(name); loc >= 0 {
		p.dev.Uniform1i(loc, v)
	}
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Location(name); loc >= 0 {
		p.dev.Uniform1f(loc, v)
	}
}

// SetVec2 sets a vec2 uniform.
func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.Location(name); loc >= 0 {
		p.dev.Uniform2f(loc, v[0], v[1])
	}
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.Location(name); loc >= 0 {
		p.dev.Uniform3f(loc, v[0], v[1], v[2])
	}
}

// SetMat4 sets a mat4 uniform (column-major).
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.Location(name); loc >= 0 {
		p.dev.UniformMatrix4(loc, m)
	}
}

// Destroy releases the GPU program. Safe to call more than once.
func (p *Program) Destroy() {
	if p == nil {
		return
	}
	if p.handle != 0 {
		p.dev.DeleteProgram(p.handle)
		p.handle = 0
	}
	p.valid = false
	p.locations = nil
}
