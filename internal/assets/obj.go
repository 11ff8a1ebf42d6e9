package assets

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/terrastage/internal/engine/mesh"
)

type faceVertex struct {
	v, vt int
}

// loadOBJ reads positions, texture coordinates and faces of the first
// object in a Wavefront file. Polygons are fanned into triangles.
func loadOBJ(path string) (*Geometry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer file.Close()

	var (
		positions [][3]float32
		texCoords [][2]float32
		geo       = &Geometry{}
		lookup    = make(map[faceVertex]uint32)
		objects   int
	)

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "o":
			objects++
			if objects > 1 && len(geo.Indices) > 0 {
				return geo, scanner.Err()
			}
		case "v":
			p, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: vertex: %w", path, line, err)
			}
			positions = append(positions, [3]float32{p[0], p[1], p[2]})
		case "vt":
			uv, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: texture coordinate: %w", path, line, err)
			}
			texCoords = append(texCoords, [2]float32{uv[0], uv[1]})
		case "f":
			if len(parts) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", path, line)
			}
			face := make([]uint32, 0, len(parts)-1)
			for _, ref := range parts[1:] {
				fv, err := parseFaceVertex(ref, len(positions), len(texCoords))
				if err != nil {
					return nil, fmt.Errorf("%s:%d: face: %w", path, line, err)
				}
				idx, ok := lookup[fv]
				if !ok {
					vert := mesh.Vertex{Position: positions[fv.v], Color: DefaultColor}
					if fv.vt >= 0 {
						vert.TexCoord = texCoords[fv.vt]
					}
					idx = uint32(len(geo.Vertices))
					geo.Vertices = append(geo.Vertices, vert)
					lookup[fv] = idx
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				geo.Indices = append(geo.Indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return geo, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", fields[i], err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" into zero-based
// indices. Negative references count back from the latest element.
func parseFaceVertex(ref string, numPositions, numTexCoords int) (faceVertex, error) {
	vals := strings.Split(ref, "/")
	v, err := resolveIndex(vals[0], numPositions)
	if err != nil {
		return faceVertex{}, fmt.Errorf("vertex index %q: %w", vals[0], err)
	}
	fv := faceVertex{v: v, vt: -1}
	if len(vals) > 1 && vals[1] != "" {
		vt, err := resolveIndex(vals[1], numTexCoords)
		if err != nil {
			return faceVertex{}, fmt.Errorf("texture index %q: %w", vals[1], err)
		}
		fv.vt = vt
	}
	return fv, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("index 0 is invalid")
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("out of range (have %d)", count)
	}
	return i, nil
}
