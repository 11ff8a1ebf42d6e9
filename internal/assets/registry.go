package assets

import (
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/engine/mesh"
	"github.com/Faultbox/terrastage/internal/engine/picking"
	"github.com/Faultbox/terrastage/internal/logger"
)

// Asset is an imported static mesh placed in the scene.
type Asset struct {
	Name     string
	Position mgl32.Vec3
	Mesh     *mesh.Mesh
}

// Model returns the asset's model matrix.
func (a *Asset) Model() mgl32.Mat4 {
	return mgl32.Translate3D(a.Position.X(), a.Position.Y(), a.Position.Z())
}

// Bounds returns the world-space bounds of the mesh at its position.
func (a *Asset) Bounds() picking.AABB {
	lo, hi := a.Mesh.Bounds()
	return picking.NewAABB(lo, hi).Translate(a.Position)
}

type parsed struct {
	path string
	geo  *Geometry
	err  error
}

// Registry owns the imported assets and their meshes.
// All methods except ImportAsync must be called on the render thread.
type Registry struct {
	dev      gpu.Device
	importer Importer
	assets   []*Asset
	selected int

	pool     pond.Pool
	mu       sync.Mutex
	done     []parsed
	inFlight int
	closed   bool
}

// NewRegistry creates an empty registry. Parsing for ImportAsync runs on
// a pool of goroutines of size workers.
func NewRegistry(dev gpu.Device, importer Importer, workers int) *Registry {
	if importer == nil {
		importer = FileImporter{}
	}
	return &Registry{
		dev:      dev,
		importer: importer,
		selected: -1,
		pool:     pond.NewPool(max(workers, 1)),
	}
}

// Import loads path synchronously and appends it at the origin.
// On failure nothing is added.
func (r *Registry) Import(path string) error {
	geo, err := r.load(path)
	if err != nil {
		logger.Error("model import failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return r.add(path, geo)
}

// load runs the importer, turning a panic into an error.
func (r *Registry) load(path string) (geo *Geometry, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			geo, err = nil, fmt.Errorf("importing %s: %v: %w", path, rec, ErrMalformed)
		}
	}()
	return r.importer.Load(path)
}

func (r *Registry) add(path string, geo *Geometry) error {
	if err := geo.Validate(); err != nil {
		logger.Error("model rejected", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s: %w", path, err)
	}
	m, err := mesh.New(r.dev, geo.Vertices, geo.Indices)
	if err != nil {
		m.Destroy()
		logger.Error("model upload failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	r.assets = append(r.assets, &Asset{Name: path, Mesh: m})
	logger.Info("model imported",
		zap.String("path", path),
		zap.Int("vertices", len(geo.Vertices)),
		zap.Int("triangles", geo.Triangles()),
	)
	return nil
}

// ImportAsync parses path on the worker pool. The mesh is created by a
// later Poll.
func (r *Registry) ImportAsync(path string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		logger.Warn("import after close ignored", zap.String("path", path))
		return
	}
	r.inFlight++
	r.mu.Unlock()

	r.pool.Submit(func() {
		p := parsed{path: path}
		defer func() {
			r.mu.Lock()
			r.done = append(r.done, p)
			r.inFlight--
			r.mu.Unlock()
		}()
		p.geo, p.err = r.load(path)
	})
}

// Pending returns the number of async imports not yet polled.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight + len(r.done)
}

// Poll uploads every finished async import and returns how many were added.
func (r *Registry) Poll() int {
	r.mu.Lock()
	done := r.done
	r.done = nil
	r.mu.Unlock()

	added := 0
	for _, p := range done {
		if p.err != nil {
			logger.Error("model import failed", zap.String("path", p.path), zap.Error(p.err))
			continue
		}
		if r.add(p.path, p.geo) == nil {
			added++
		}
	}
	return added
}

// Assets returns the scene assets in import order.
func (r *Registry) Assets() []*Asset { return r.assets }

// Len returns the number of assets.
func (r *Registry) Len() int { return len(r.assets) }

// Select marks asset i as selected. Out of range clears the selection.
func (r *Registry) Select(i int) {
	if i < 0 || i >= len(r.assets) {
		r.selected = -1
		return
	}
	r.selected = i
}

// Selected returns the selected index.
func (r *Registry) Selected() (int, bool) {
	if r.selected < 0 || r.selected >= len(r.assets) {
		return -1, false
	}
	return r.selected, true
}

// SelectedAsset returns the selected asset or nil.
func (r *Registry) SelectedAsset() *Asset {
	i, ok := r.Selected()
	if !ok {
		return nil
	}
	return r.assets[i]
}

// ClearSelection deselects all assets.
func (r *Registry) ClearSelection() { r.selected = -1 }

// pickPadding keeps flat meshes pickable.
const pickPadding = 0.05

// Pick selects the closest asset hit by ray. A miss clears the selection.
func (r *Registry) Pick(ray picking.Ray) (int, bool) {
	boxes := make([]picking.AABB, len(r.assets))
	for i, a := range r.assets {
		boxes[i] = a.Bounds().Expand(pickPadding)
	}
	i, _, hit := ray.Nearest(boxes)
	if !hit {
		r.selected = -1
		return -1, false
	}
	r.selected = i
	return i, true
}

// SetPosition moves asset i.
func (r *Registry) SetPosition(i int, pos mgl32.Vec3) bool {
	if i < 0 || i >= len(r.assets) {
		return false
	}
	r.assets[i].Position = pos
	return true
}

// Close waits for pending imports and destroys every mesh.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.pool.StopAndWait()
	r.mu.Lock()
	r.done = nil
	r.mu.Unlock()

	for _, a := range r.assets {
		a.Mesh.Destroy()
	}
	r.assets = nil
	r.selected = -1
}
