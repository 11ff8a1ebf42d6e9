package assets

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/terrastage/internal/engine/mesh"
)

// loadGLTF reads the first primitive of the first mesh in a glTF or GLB file.
func loadGLTF(path string) (geo *Geometry, err error) {
	// modeler slices buffers at accessor offsets without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			geo, err = nil, fmt.Errorf("%s: %v: %w", path, r, ErrMalformed)
		}
	}()

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}

	if len(doc.Meshes) == 0 || doc.Meshes[0] == nil || len(doc.Meshes[0].Primitives) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMesh)
	}

	prim := doc.Meshes[0].Primitives[0]
	if prim == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMesh)
	}
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("%s: primitive mode %v: %w", path, prim.Mode, ErrUnsupportedFormat)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMesh)
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("%s: POSITION: %w", path, err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	var uvs [][2]float32
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := accessor(doc, uvIdx)
		if err != nil {
			return nil, fmt.Errorf("%s: TEXCOORD_0: %w", path, err)
		}
		uvs, err = modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texture coordinates: %w", err)
		}
	}

	geo = &Geometry{Vertices: make([]mesh.Vertex, len(positions))}
	for i, p := range positions {
		geo.Vertices[i] = mesh.Vertex{Position: p, Color: DefaultColor}
		if i < len(uvs) {
			geo.Vertices[i].TexCoord = uvs[i]
		}
	}

	if prim.Indices != nil {
		acr, err := accessor(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("%s: indices: %w", path, err)
		}
		geo.Indices, err = modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		geo.Indices = make([]uint32, len(positions))
		for i := range geo.Indices {
			geo.Indices[i] = uint32(i)
		}
	}
	return geo, nil
}

// accessor returns doc.Accessors[i], which gltf.Open does not validate.
func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) || doc.Accessors[i] == nil {
		return nil, fmt.Errorf("accessor %d of %d: %w", i, len(doc.Accessors), ErrMalformed)
	}
	return doc.Accessors[i], nil
}
