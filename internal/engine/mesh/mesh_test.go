package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/gpu/gputest"
)

func triangle() ([]Vertex, []uint32) {
	return []Vertex{
		{Position: [3]float32{0, 1, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{-1, -1, 0}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, 0}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
	}, []uint32{0, 1, 2}
}

func TestVertexLayout(t *testing.T) {
	if vertexStride != 32 {
		t.Errorf("expected stride 32, got %d", vertexStride)
	}
	if positionOffset != 0 || colorOffset != 12 || texCoordOffset != 24 {
		t.Errorf("unexpected offsets %d/%d/%d", positionOffset, colorOffset, texCoordOffset)
	}
}

func TestNewAndDestroy(t *testing.T) {
	dev := gputest.New()
	vertices, indices := triangle()

	m, err := New(dev, vertices, indices)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !m.Valid() {
		t.Fatal("expected valid mesh")
	}

	vao, vbo, ebo := m.Handles()
	if vao == 0 || vbo == 0 || ebo == 0 {
		t.Fatalf("expected non-zero handles, got %d/%d/%d", vao, vbo, ebo)
	}
	if dev.BufferSizes[uint32(gpu.ArrayBuffer)] != 3*32 {
		t.Errorf("expected 96 vertex bytes, got %d", dev.BufferSizes[uint32(gpu.ArrayBuffer)])
	}
	if dev.BufferSizes[uint32(gpu.ElementArrayBuffer)] != 3*4 {
		t.Errorf("expected 12 index bytes, got %d", dev.BufferSizes[uint32(gpu.ElementArrayBuffer)])
	}
	if dev.BoundVAO() != 0 {
		t.Error("construction left a VAO bound")
	}

	m.Destroy()
	vao, vbo, ebo = m.Handles()
	if vao != 0 || vbo != 0 || ebo != 0 {
		t.Errorf("expected zero handles after Destroy, got %d/%d/%d", vao, vbo, ebo)
	}
	if m.Valid() {
		t.Error("destroyed mesh still valid")
	}

	// Second destroy must not delete anything again.
	m.Destroy()
	if len(dev.BadDeletes) != 0 {
		t.Errorf("unexpected deletes: %v", dev.BadDeletes)
	}
}

func TestRepeatedCyclesDoNotLeak(t *testing.T) {
	dev := gputest.New()
	vertices, indices := CreateCube(1)

	for i := 0; i < 50; i++ {
		m, err := New(dev, vertices, indices)
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		m.Destroy()
	}

	if n := dev.Live(gputest.VertexArray); n != 0 {
		t.Errorf("leaked %d vertex arrays", n)
	}
	if n := dev.Live(gputest.Buffer); n != 0 {
		t.Errorf("leaked %d buffers", n)
	}
}

func TestInputsAreCopied(t *testing.T) {
	dev := gputest.New()
	vertices, indices := triangle()

	m, err := New(dev, vertices, indices)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Destroy()

	vertices[0].Position[1] = 99
	indices[0] = 7

	_, hi := m.Bounds()
	if hi[1] != 1 {
		t.Errorf("mesh saw caller mutation, max y = %f", hi[1])
	}
}

func TestDrawRestoresBinding(t *testing.T) {
	dev := gputest.New()
	vertices, indices := CreateCube(1)
	m, err := New(dev, vertices, indices)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Destroy()

	m.Draw()

	if len(dev.Draws) != 1 {
		t.Fatalf("expected 1 draw, got %d", len(dev.Draws))
	}
	vao, _, _ := m.Handles()
	d := dev.Draws[0]
	if d.VAO != vao || !d.Indexed || d.Count != 36 {
		t.Errorf("unexpected draw %+v", d)
	}
	if dev.BoundVAO() != 0 {
		t.Errorf("expected VAO 0 after Draw, got %d", dev.BoundVAO())
	}
}

func TestEmptyInputStillAllocates(t *testing.T) {
	dev := gputest.New()

	m, err := New(dev, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !m.Valid() || m.IndexCount() != 0 {
		t.Errorf("expected valid empty mesh, got %v", m)
	}
	m.Destroy()
}

func TestAllocationFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailAlloc[gputest.Buffer] = true
	vertices, indices := triangle()

	m, err := New(dev, vertices, indices)
	if !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if m.Valid() {
		t.Error("mesh should be unusable")
	}
	if dev.TotalLive() != 0 {
		t.Errorf("partial allocation leaked %d objects", dev.TotalLive())
	}

	m.Draw()
	if len(dev.Draws) != 0 {
		t.Error("unusable mesh issued a draw")
	}
}

func TestCreateCube(t *testing.T) {
	vertices, indices := CreateCube(1)
	if len(vertices) != 8 {
		t.Errorf("expected 8 vertices, got %d", len(vertices))
	}
	if len(indices) != 36 {
		t.Errorf("expected 36 indices, got %d", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			t.Fatalf("index %d out of range", i)
		}
	}
	for _, v := range vertices {
		for _, c := range v.Position {
			if c != 0.5 && c != -0.5 {
				t.Fatalf("unexpected corner %v", v.Position)
			}
		}
	}

	if v, i := CreateCube(0); v != nil || i != nil {
		t.Error("expected no geometry for size 0")
	}
}

func TestScreenQuad(t *testing.T) {
	dev := gputest.New()
	q, err := NewScreenQuad(dev)
	if err != nil {
		t.Fatalf("NewScreenQuad failed: %v", err)
	}

	q.Draw()
	if len(dev.Draws) != 1 || dev.Draws[0].Indexed || dev.Draws[0].Count != 6 {
		t.Errorf("unexpected draws %+v", dev.Draws)
	}
	if dev.BoundVAO() != 0 {
		t.Error("quad draw left a VAO bound")
	}

	q.Destroy()
	q.Destroy()
	if dev.TotalLive() != 0 || len(dev.BadDeletes) != 0 {
		t.Errorf("live=%d bad=%v", dev.TotalLive(), dev.BadDeletes)
	}
}
