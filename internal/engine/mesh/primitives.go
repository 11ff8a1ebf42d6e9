package mesh

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/logger"
)

// CreateCube returns an axis-aligned cube of the given edge length centred on
// the origin: 8 shared corners, 12 triangles.
func CreateCube(size float32) ([]Vertex, []uint32) {
	if size <= 0 {
		return nil, nil
	}
	h := size / 2
	white := [3]float32{1, 1, 1}

	vertices := []Vertex{
		{Position: [3]float32{-h, -h, h}, Color: white, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{h, -h, h}, Color: white, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{h, h, h}, Color: white, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-h, h, h}, Color: white, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{-h, -h, -h}, Color: white, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{h, -h, -h}, Color: white, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{h, h, -h}, Color: white, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{-h, h, -h}, Color: white, TexCoord: [2]float32{1, 1}},
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0, // front
		4, 5, 6, 6, 7, 4, // back
		7, 3, 0, 0, 4, 7, // left
		6, 5, 1, 1, 2, 6, // right
		3, 7, 6, 6, 2, 3, // top
		0, 5, 4, 0, 1, 5, // bottom
	}
	return vertices, indices
}

// CubeMesh uploads a unit cube. It fails with ErrEmptyGeometry if the
// generator produced nothing, in which case nothing is allocated.
func CubeMesh(dev gpu.Device) (*Mesh, error) {
	vertices, indices := CreateCube(1)
	if len(vertices) == 0 || len(indices) == 0 {
		logger.Error("cube generator returned empty data")
		return nil, ErrEmptyGeometry
	}
	return New(dev, vertices, indices)
}

// quadVertices covers clip space with two triangles (x, y pairs).
var quadVertices = []float32{
	-1, 1, -1, -1, 1, -1,
	-1, 1, 1, -1, 1, 1,
}

// ScreenQuad is a full-screen pair of triangles with a 2D position attribute.
type ScreenQuad struct {
	dev gpu.Device
	vao uint32
	vbo uint32
}

// NewScreenQuad uploads the full-screen quad.
func NewScreenQuad(dev gpu.Device) (*ScreenQuad, error) {
	q := &ScreenQuad{dev: dev}
	q.vao = dev.GenVertexArray()
	q.vbo = dev.GenBuffer()
	if q.vao == 0 || q.vbo == 0 {
		q.Destroy()
		return nil, ErrAllocation
	}

	dev.BindVertexArray(q.vao)
	dev.BindBuffer(gpu.ArrayBuffer, q.vbo)
	dev.BufferData(gpu.ArrayBuffer, unsafe.Slice((*byte)(unsafe.Pointer(&quadVertices[0])), len(quadVertices)*4))
	dev.VertexAttrib(AttribPosition, 2, 2*4, 0)
	dev.BindBuffer(gpu.ArrayBuffer, 0)
	dev.BindVertexArray(0)

	logger.Debug("screen quad created", zap.Uint32("vao", q.vao), zap.Uint32("vbo", q.vbo))
	return q, nil
}

// Draw draws the six quad vertices and leaves no VAO bound.
func (q *ScreenQuad) Draw() {
	if q.vao == 0 {
		return
	}
	q.dev.BindVertexArray(q.vao)
	q.dev.DrawArrays(0, int32(len(quadVertices)/2))
	q.dev.BindVertexArray(0)
}

// Destroy releases the quad buffers. Safe to call more than once.
func (q *ScreenQuad) Destroy() {
	if q.vao != 0 {
		q.dev.DeleteVertexArray(q.vao)
		q.vao = 0
	}
	if q.vbo != 0 {
		q.dev.DeleteBuffer(q.vbo)
		q.vbo = 0
	}
}
