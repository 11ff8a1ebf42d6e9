// Package mesh owns vertex array / vertex buffer / index buffer triples.
package mesh

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/logger"
)

var (
	// ErrAllocation is returned when the device hands back a zero handle.
	ErrAllocation = errors.New("mesh: GPU allocation failed")
	// ErrEmptyGeometry is returned by generators that produced no data.
	ErrEmptyGeometry = errors.New("mesh: empty geometry")
)

// Vertex is the interleaved per-vertex layout shared by every raster mesh.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
	TexCoord [2]float32
}

const (
	vertexStride   = int32(unsafe.Sizeof(Vertex{}))
	positionOffset = int(unsafe.Offsetof(Vertex{}.Position))
	colorOffset    = int(unsafe.Offsetof(Vertex{}.Color))
	texCoordOffset = int(unsafe.Offsetof(Vertex{}.TexCoord))
)

// Attribute locations expected by the raster shaders.
const (
	AttribPosition = 0
	AttribColor    = 1
	AttribTexCoord = 2
)

// Mesh is an immutable indexed triangle list uploaded to the GPU.
// To change geometry, build a new Mesh.
type Mesh struct {
	dev      gpu.Device
	vertices []Vertex
	indices  []uint32

	vao uint32
	vbo uint32
	ebo uint32

	valid bool
}

// New copies vertices and indices and uploads them.
// Empty inputs still allocate (empty) buffers. If the device fails to allocate
// any handle the returned mesh is unusable and ErrAllocation is reported; the
// partial allocation is already released.
func New(dev gpu.Device, vertices []Vertex, indices []uint32) (*Mesh, error) {
	m := &Mesh{
		dev:      dev,
		vertices: append([]Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}

	m.vao = dev.GenVertexArray()
	m.vbo = dev.GenBuffer()
	m.ebo = dev.GenBuffer()
	if m.vao == 0 || m.vbo == 0 || m.ebo == 0 {
		logger.Error("mesh allocation failed",
			zap.Uint32("vao", m.vao),
			zap.Uint32("vbo", m.vbo),
			zap.Uint32("ebo", m.ebo),
		)
		m.Destroy()
		return m, ErrAllocation
	}

	dev.BindVertexArray(m.vao)

	dev.BindBuffer(gpu.ArrayBuffer, m.vbo)
	dev.BufferData(gpu.ArrayBuffer, vertexBytes(m.vertices))

	dev.BindBuffer(gpu.ElementArrayBuffer, m.ebo)
	dev.BufferData(gpu.ElementArrayBuffer, indexBytes(m.indices))

	dev.VertexAttrib(AttribPosition, 3, vertexStride, positionOffset)
	dev.VertexAttrib(AttribColor, 3, vertexStride, colorOffset)
	dev.VertexAttrib(AttribTexCoord, 2, vertexStride, texCoordOffset)

	// The element buffer binding is VAO state; unbind the VAO first.
	dev.BindVertexArray(0)
	dev.BindBuffer(gpu.ArrayBuffer, 0)

	m.valid = true
	logger.Debug("mesh created",
		zap.Uint32("vao", m.vao),
		zap.Int("vertices", len(m.vertices)),
		zap.Int("indices", len(m.indices)),
	)
	return m, nil
}

// Draw issues one indexed draw over every index and leaves no VAO bound.
func (m *Mesh) Draw() {
	if !m.valid {
		return
	}
	m.dev.BindVertexArray(m.vao)
	m.dev.DrawElements(int32(len(m.indices)))
	m.dev.BindVertexArray(0)
}

// Destroy releases the GPU buffers. Safe to call more than once.
func (m *Mesh) Destroy() {
	if m.vao != 0 {
		m.dev.DeleteVertexArray(m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		m.dev.DeleteBuffer(m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		m.dev.DeleteBuffer(m.ebo)
		m.ebo = 0
	}
	m.valid = false
}

// Valid reports whether the mesh owns a complete buffer triple.
func (m *Mesh) Valid() bool { return m.valid }

// Handles returns the vertex array, vertex buffer and index buffer handles.
func (m *Mesh) Handles() (vao, vbo, ebo uint32) {
	return m.vao, m.vbo, m.ebo
}

// IndexCount returns the number of indices drawn by Draw.
func (m *Mesh) IndexCount() int { return len(m.indices) }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.vertices) }

// Bounds returns the axis-aligned bounds of the vertex positions.
func (m *Mesh) Bounds() (lo, hi [3]float32) {
	if len(m.vertices) == 0 {
		return lo, hi
	}
	lo, hi = m.vertices[0].Position, m.vertices[0].Position
	for _, v := range m.vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	return lo, hi
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh(vao=%d, %d vertices, %d indices)", m.vao, len(m.vertices), len(m.indices))
}

func vertexBytes(v []Vertex) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(vertexStride))
}

func indexBytes(idx []uint32) []byte {
	if len(idx) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&idx[0])), len(idx)*4)
}
