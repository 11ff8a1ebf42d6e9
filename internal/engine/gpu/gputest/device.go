// Package gputest provides an in-memory gpu.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
)

// Kind is a category of GPU object tracked by the fake device.
type Kind int

const (
	VertexArray Kind = iota
	Buffer
	Shader
	Program
	Texture
	Framebuffer
	Renderbuffer
)

func (k Kind) String() string {
	return [...]string{"vertex array", "buffer", "shader", "program", "texture", "framebuffer", "renderbuffer"}[k]
}

// Draw records one draw call.
type Draw struct {
	VAO     uint32
	Program uint32
	Texture uint32
	Indexed bool
	Count   int32
	// Model is the last "model" matrix written to Program, if any.
	Model [16]float32
}

// Upload records one texture upload.
type Upload struct {
	Texture uint32
	Format  gpu.PixelFormat
	Width   int32
	Height  int32
	Bytes   int
}

type shaderObject struct {
	stage  gpu.Stage
	source string
}

type programObject struct {
	shaders  []uint32
	linked   bool
	uniforms map[string]int32
	values   map[int32]any
}

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)`)

// Device is a fake gpu.Device. Handles are unique and never reused.
type Device struct {
	next uint32
	live map[Kind]map[uint32]bool

	shaders  map[uint32]*shaderObject
	programs map[uint32]*programObject

	vao      uint32
	program  uint32
	unit     uint32
	textures map[uint32]uint32
	fbo      uint32

	// FailAlloc makes every Gen/Create call for the kind return 0.
	FailAlloc map[Kind]bool
	// FailLink makes LinkProgram fail regardless of the sources.
	FailLink bool

	Draws        []Draw
	Uploads      []Upload
	Clears       []gpu.ClearMask
	ClearColors  [][4]float32
	Viewports    [][4]int32
	Caps         map[gpu.Capability]bool
	BadDeletes   []string
	BufferSizes  map[uint32]int
	Mipmaps      int
	ErrorChecks  []string
	PendingError error
}

// New returns an empty fake device.
func New() *Device {
	return &Device{
		live:        make(map[Kind]map[uint32]bool),
		shaders:     make(map[uint32]*shaderObject),
		programs:    make(map[uint32]*programObject),
		textures:    make(map[uint32]uint32),
		FailAlloc:   make(map[Kind]bool),
		Caps:        make(map[gpu.Capability]bool),
		BufferSizes: make(map[uint32]int),
	}
}

var _ gpu.Device = (*Device)(nil)

// Live returns how many objects of the kind are allocated and not deleted.
func (d *Device) Live(k Kind) int {
	return len(d.live[k])
}

// IsLive reports whether id of the kind is allocated.
func (d *Device) IsLive(k Kind, id uint32) bool {
	return d.live[k][id]
}

// TotalLive returns the number of live objects of every kind.
func (d *Device) TotalLive() int {
	n := 0
	for _, ids := range d.live {
		n += len(ids)
	}
	return n
}

// BoundVAO returns the currently bound vertex array.
func (d *Device) BoundVAO() uint32 { return d.vao }

// BoundTexture returns the texture bound on unit.
func (d *Device) BoundTexture(unit uint32) uint32 { return d.textures[unit] }

// BoundFramebuffer returns the bound framebuffer, 0 for the default one.
func (d *Device) BoundFramebuffer() uint32 { return d.fbo }

// CurrentProgram returns the program last passed to UseProgram.
func (d *Device) CurrentProgram() uint32 { return d.program }

// Uniform returns the last value written to the named uniform of program.
func (d *Device) Uniform(program uint32, name string) (any, bool) {
	p, ok := d.programs[program]
	if !ok {
		return nil, false
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

// DrawsWith returns the draw calls issued while program was in use.
func (d *Device) DrawsWith(program uint32) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.Program == program {
			out = append(out, dr)
		}
	}
	return out
}

// Reset clears recorded calls but keeps the objects.
func (d *Device) Reset() {
	d.Draws = nil
	d.Uploads = nil
	d.Clears = nil
	d.ClearColors = nil
	d.Viewports = nil
	d.ErrorChecks = nil
}

func (d *Device) alloc(k Kind) uint32 {
	if d.FailAlloc[k] {
		return 0
	}
	d.next++
	if d.live[k] == nil {
		d.live[k] = make(map[uint32]bool)
	}
	d.live[k][d.next] = true
	return d.next
}

func (d *Device) free(k Kind, id uint32) {
	if id == 0 {
		return
	}
	if !d.live[k][id] {
		d.BadDeletes = append(d.BadDeletes, fmt.Sprintf("%s %d", k, id))
		return
	}
	delete(d.live[k], id)
}

func (d *Device) GenVertexArray() uint32 { return d.alloc(VertexArray) }

func (d *Device) DeleteVertexArray(id uint32) {
	d.free(VertexArray, id)
	if d.vao == id {
		d.vao = 0
	}
}

func (d *Device) BindVertexArray(id uint32) { d.vao = id }
func (d *Device) GenBuffer() uint32         { return d.alloc(Buffer) }
func (d *Device) DeleteBuffer(id uint32)    { d.free(Buffer, id) }

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) {}

func (d *Device) BufferData(target gpu.BufferTarget, data []byte) {
	d.BufferSizes[uint32(target)] = len(data)
}

func (d *Device) VertexAttrib(index uint32, size, stride int32, offset int) {}

func (d *Device) DrawElements(count int32) { d.record(true, count) }

func (d *Device) DrawArrays(first, count int32) { d.record(false, count) }

func (d *Device) record(indexed bool, count int32) {
	dr := Draw{
		VAO:     d.vao,
		Program: d.program,
		Texture: d.textures[0],
		Indexed: indexed,
		Count:   count,
	}
	if p, ok := d.programs[d.program]; ok {
		if loc, ok := p.uniforms["model"]; ok {
			if m, ok := p.values[loc].([16]float32); ok {
				dr.Model = m
			}
		}
	}
	d.Draws = append(d.Draws, dr)
}

func (d *Device) CreateShader(stage gpu.Stage) uint32 {
	id := d.alloc(Shader)
	if id != 0 {
		d.shaders[id] = &shaderObject{stage: stage}
	}
	return id
}

// CompileShader rejects sources without a main function or with unbalanced
// braces or parentheses.
func (d *Device) CompileShader(id uint32, source string) error {
	s, ok := d.shaders[id]
	if !ok || !d.live[Shader][id] {
		return fmt.Errorf("invalid shader %d", id)
	}
	if !strings.Contains(source, "void main") {
		return errors.New("ERROR: 0:1: missing main function")
	}
	if strings.Count(source, "{") != strings.Count(source, "}") {
		return errors.New("ERROR: 0:1: syntax error, unbalanced braces")
	}
	if strings.Count(source, "(") != strings.Count(source, ")") {
		return errors.New("ERROR: 0:1: syntax error, unbalanced parentheses")
	}
	s.source = source
	return nil
}

func (d *Device) DeleteShader(id uint32) {
	d.free(Shader, id)
	delete(d.shaders, id)
}

func (d *Device) CreateProgram() uint32 {
	id := d.alloc(Program)
	if id != 0 {
		d.programs[id] = &programObject{}
	}
	return id
}

func (d *Device) AttachShader(program, shader uint32) {
	if p, ok := d.programs[program]; ok {
		p.shaders = append(p.shaders, shader)
	}
}

// LinkProgram requires one compiled vertex and one compiled fragment stage.
func (d *Device) LinkProgram(program uint32) error {
	p, ok := d.programs[program]
	if !ok {
		return fmt.Errorf("invalid program %d", program)
	}
	if d.FailLink {
		return errors.New("ERROR: link failed")
	}

	stages := make(map[gpu.Stage]bool)
	var names []string
	for _, id := range p.shaders {
		s, ok := d.shaders[id]
		if !ok || s.source == "" {
			return fmt.Errorf("ERROR: shader %d not compiled", id)
		}
		stages[s.stage] = true
		for _, m := range uniformDecl.FindAllStringSubmatch(s.source, -1) {
			names = append(names, m[1])
		}
	}
	if !stages[gpu.VertexStage] || !stages[gpu.FragmentStage] {
		return errors.New("ERROR: program needs a vertex and a fragment stage")
	}

	sort.Strings(names)
	p.uniforms = make(map[string]int32)
	p.values = make(map[int32]any)
	for _, n := range names {
		if _, dup := p.uniforms[n]; !dup {
			p.uniforms[n] = int32(len(p.uniforms))
		}
	}
	p.linked = true
	return nil
}

func (d *Device) DeleteProgram(id uint32) {
	d.free(Program, id)
	delete(d.programs, id)
	if d.program == id {
		d.program = 0
	}
}

func (d *Device) UseProgram(id uint32) { d.program = id }

func (d *Device) ActiveUniforms(program uint32) map[string]int32 {
	p, ok := d.programs[program]
	if !ok || !p.linked {
		return nil
	}
	out := make(map[string]int32, len(p.uniforms))
	for k, v := range p.uniforms {
		out[k] = v
	}
	return out
}

func (d *Device) setUniform(loc int32, v any) {
	if p, ok := d.programs[d.program]; ok && p.linked && loc >= 0 {
		p.values[loc] = v
	}
}

func (d *Device) Uniform1i(loc int32, v int32)            { d.setUniform(loc, v) }
func (d *Device) Uniform1f(loc int32, v float32)          { d.setUniform(loc, v) }
func (d *Device) Uniform2f(loc int32, x, y float32)       { d.setUniform(loc, [2]float32{x, y}) }
func (d *Device) Uniform3f(loc int32, x, y, z float32)    { d.setUniform(loc, [3]float32{x, y, z}) }
func (d *Device) UniformMatrix4(loc int32, m [16]float32) { d.setUniform(loc, m) }

func (d *Device) GenTexture() uint32 { return d.alloc(Texture) }

func (d *Device) DeleteTexture(id uint32) {
	d.free(Texture, id)
	for unit, bound := range d.textures {
		if bound == id {
			d.textures[unit] = 0
		}
	}
}

func (d *Device) ActiveTexture(unit uint32) { d.unit = unit }
func (d *Device) BindTexture(id uint32)     { d.textures[d.unit] = id }

func (d *Device) TexImage2D(format gpu.PixelFormat, width, height int32, pix []byte) {
	d.Uploads = append(d.Uploads, Upload{
		Texture: d.textures[d.unit],
		Format:  format,
		Width:   width,
		Height:  height,
		Bytes:   len(pix),
	})
}

func (d *Device) SetSampling(s gpu.Sampling) {}
func (d *Device) GenerateMipmap()            { d.Mipmaps++ }

func (d *Device) GenFramebuffer() uint32 { return d.alloc(Framebuffer) }

func (d *Device) DeleteFramebuffer(id uint32) {
	d.free(Framebuffer, id)
	if d.fbo == id {
		d.fbo = 0
	}
}

func (d *Device) BindFramebuffer(id uint32)                    { d.fbo = id }
func (d *Device) GenRenderbuffer() uint32                      { return d.alloc(Renderbuffer) }
func (d *Device) DeleteRenderbuffer(id uint32)                 { d.free(Renderbuffer, id) }
func (d *Device) DepthStorage(rbo uint32, width, height int32) {}
func (d *Device) AttachColor(texture uint32)                   {}
func (d *Device) AttachDepth(rbo uint32)                       {}

func (d *Device) FramebufferComplete() error {
	if d.fbo == 0 || !d.live[Framebuffer][d.fbo] {
		return errors.New("framebuffer incomplete: 0x8cd6")
	}
	return nil
}

// ReadPixels returns an opaque gradient so row order can be checked.
func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	pix := make([]byte, width*height*4)
	for row := int32(0); row < height; row++ {
		for col := int32(0); col < width; col++ {
			i := (row*width + col) * 4
			pix[i] = byte(row)
			pix[i+1] = byte(col)
			pix[i+3] = 255
		}
	}
	return pix
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.Viewports = append(d.Viewports, [4]int32{x, y, width, height})
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.ClearColors = append(d.ClearColors, [4]float32{r, g, b, a})
}

func (d *Device) Clear(mask gpu.ClearMask) { d.Clears = append(d.Clears, mask) }
func (d *Device) Enable(c gpu.Capability)  { d.Caps[c] = true }
func (d *Device) Disable(c gpu.Capability) { d.Caps[c] = false }

// CheckError returns PendingError once, then nil.
func (d *Device) CheckError(op string) error {
	d.ErrorChecks = append(d.ErrorChecks, op)
	err := d.PendingError
	d.PendingError = nil
	return err
}
