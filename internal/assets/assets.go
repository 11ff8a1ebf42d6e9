// Package assets imports model files and keeps the list of scene assets.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/terrastage/internal/engine/mesh"
)

var (
	// ErrNoMesh is returned when a model file contains no triangles.
	ErrNoMesh = errors.New("no mesh in file")
	// ErrUnsupportedFormat is returned for unknown model extensions.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrMalformed is returned when a model references data it does not contain.
	ErrMalformed = errors.New("malformed model")
)

// DefaultColor is the vertex color given to imported geometry.
var DefaultColor = [3]float32{1, 1, 1}

// Geometry is a parsed triangle list ready for upload.
type Geometry struct {
	Vertices []mesh.Vertex
	Indices  []uint32
}

// Triangles returns the number of triangles.
func (g *Geometry) Triangles() int {
	return len(g.Indices) / 3
}

// Validate checks that g holds at least one triangle and that every index
// names a vertex.
func (g *Geometry) Validate() error {
	if g == nil || len(g.Vertices) == 0 || len(g.Indices) < 3 {
		return ErrNoMesh
	}
	n := uint32(len(g.Vertices))
	for i, idx := range g.Indices {
		if idx >= n {
			return fmt.Errorf("index %d is %d, only %d vertices: %w", i, idx, n, ErrMalformed)
		}
	}
	return nil
}

// Importer parses a model file. Only the first sub-mesh is returned.
type Importer interface {
	Load(path string) (*Geometry, error)
}

// Extensions lists the model formats FileImporter understands.
var Extensions = []string{".obj", ".gltf", ".glb"}

// FileImporter reads models from disk, dispatching on extension.
type FileImporter struct{}

// Load implements Importer.
func (FileImporter) Load(path string) (*Geometry, error) {
	var (
		geo *Geometry
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		geo, err = loadOBJ(path)
	case ".gltf", ".glb":
		geo, err = loadGLTF(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return geo, nil
}
