package texture

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
	"github.com/Faultbox/terrastage/internal/logger"
)

// sampling is applied to every file texture: tiled, trilinear.
var sampling = gpu.Sampling{
	Wrap: gpu.WrapRepeat,
	Min:  gpu.FilterLinearMipmapLinear,
	Mag:  gpu.FilterLinear,
}

// entry is one uploaded image. Cached entries are shared by every Texture
// loaded from the same path and are refreshed in place when the file changes.
type entry struct {
	path     string
	handle   uint32
	modTime  time.Time
	width    int
	height   int
	channels int
	cached   bool
}

// Stats counts cache activity for diagnostics.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
	Reloads int
	Binds   int
	Active  int
}

// Cache maps file paths to GPU textures, keyed by modification time.
//
// The cache exclusively owns the handles of cached entries: Texture.Release
// never deletes them, and GPU memory for cached images is only freed by
// ClearCache, ForceReloadAll or an in-place refresh of a stale entry.
// Uncached textures own their handle.
//
// Cache is not safe for concurrent use; it belongs to the render thread.
type Cache struct {
	dev     gpu.Device
	decoder Decoder
	entries map[string]*entry
	stats   Stats

	// modTime is swapped in tests.
	modTime func(path string) (time.Time, error)
}

// NewCache creates an empty cache uploading through dev.
func NewCache(dev gpu.Device, decoder Decoder) *Cache {
	if decoder == nil {
		decoder = FileDecoder{}
	}
	return &Cache{
		dev:     dev,
		decoder: decoder,
		entries: make(map[string]*entry),
		modTime: fileModTime,
	}
}

func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if info.IsDir() {
		return time.Time{}, fmt.Errorf("%s is a directory", path)
	}
	return info.ModTime(), nil
}

// Load resolves path to a texture. With useCache, an entry whose stored
// modification time matches the file is reused without any upload; a stale
// entry is re-decoded in place. Missing or undecodable files fail with an
// error wrapping ErrTextureLoad.
func (c *Cache) Load(path string, useCache bool) (*Texture, error) {
	e, err := c.resolve(path, useCache)
	if err != nil {
		return nil, err
	}
	return &Texture{cache: c, entry: e}, nil
}

func (c *Cache) resolve(path string, useCache bool) (*entry, error) {
	modTime, err := c.modTime(path)
	if err != nil {
		logger.Error("texture file not found", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrTextureLoad, path, err)
	}

	if !useCache {
		e := &entry{path: path}
		if err := c.upload(e, modTime); err != nil {
			return nil, err
		}
		return e, nil
	}

	if e, ok := c.entries[path]; ok {
		if e.modTime.Equal(modTime) {
			c.stats.Hits++
			logger.Debug("using cached texture", zap.String("path", path), zap.Uint32("texture", e.handle))
			return e, nil
		}
		logger.Info("texture file modified, reloading", zap.String("path", path))
		if err := c.upload(e, modTime); err != nil {
			return nil, err
		}
		c.stats.Reloads++
		return e, nil
	}

	c.stats.Misses++
	e := &entry{path: path, cached: true}
	if err := c.upload(e, modTime); err != nil {
		return nil, err
	}
	c.entries[path] = e
	return e, nil
}

// upload decodes e.path and replaces e's handle. The previous handle is only
// released once the new image is on the GPU.
func (c *Cache) upload(e *entry, modTime time.Time) error {
	img, err := c.decoder.Decode(e.path)
	if err != nil {
		logger.Error("failed to decode texture", zap.String("path", e.path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTextureLoad, err)
	}
	format, err := FormatForChannels(img.Channels)
	if err != nil {
		logger.Error("failed to decode texture", zap.String("path", e.path), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrTextureLoad, e.path, err)
	}

	handle, err := uploadImage(c.dev, img, format, sampling, true)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTextureLoad, e.path, err)
	}

	if e.handle != 0 {
		c.dev.DeleteTexture(e.handle)
	}
	e.handle = handle
	e.modTime = modTime
	e.width, e.height, e.channels = img.Width, img.Height, img.Channels

	logger.Info("loaded texture",
		zap.String("path", e.path),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("channels", img.Channels),
		zap.Uint32("texture", handle),
	)
	return nil
}

func uploadImage(dev gpu.Device, img *Image, format gpu.PixelFormat, s gpu.Sampling, mipmaps bool) (uint32, error) {
	handle := dev.GenTexture()
	if handle == 0 {
		return 0, fmt.Errorf("could not allocate texture")
	}
	dev.ActiveTexture(0)
	dev.BindTexture(handle)
	dev.SetSampling(s)
	dev.TexImage2D(format, int32(img.Width), int32(img.Height), img.Pix)
	if mipmaps {
		dev.GenerateMipmap()
	}
	dev.BindTexture(0)
	return handle, nil
}

// Revalidate re-decodes a cached path if its file changed since it was
// loaded. It reports whether a reload happened.
func (c *Cache) Revalidate(path string) (bool, error) {
	e, ok := c.entries[path]
	if !ok {
		return false, nil
	}
	modTime, err := c.modTime(path)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrTextureLoad, path, err)
	}
	if e.modTime.Equal(modTime) {
		return false, nil
	}
	if err := c.upload(e, modTime); err != nil {
		return false, err
	}
	c.stats.Reloads++
	return true, nil
}

// Contains reports whether path has a cache entry.
func (c *Cache) Contains(path string) bool {
	_, ok := c.entries[path]
	return ok
}

// Paths returns the cached paths in no particular order.
func (c *Cache) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	return paths
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// ClearCache releases every cached handle and empties the cache. Textures
// still referring to a cleared entry report handle 0 until reloaded.
func (c *Cache) ClearCache() {
	for path, e := range c.entries {
		if e.handle != 0 {
			c.dev.DeleteTexture(e.handle)
			e.handle = 0
		}
		delete(c.entries, path)
	}
	logger.Info("texture cache cleared")
}

// ForceReloadAll clears the cache so the next loads decode from disk.
func (c *Cache) ForceReloadAll() {
	n := len(c.entries)
	c.ClearCache()
	logger.Info("forced reload of all textures", zap.Int("released", n))
}

// Texture is a handle to an uploaded image plus advisory bind state.
type Texture struct {
	cache *Cache
	entry *entry
	bound bool
	slot  uint32
}

// Handle returns the GPU texture handle, 0 once released.
func (t *Texture) Handle() uint32 {
	if t == nil || t.entry == nil {
		return 0
	}
	return t.entry.handle
}

// Path returns the file the texture was loaded from.
func (t *Texture) Path() string {
	if t == nil || t.entry == nil {
		return ""
	}
	return t.entry.path
}

// Size returns the image dimensions.
func (t *Texture) Size() (width, height int) {
	if t == nil || t.entry == nil {
		return 0, 0
	}
	return t.entry.width, t.entry.height
}

// Cached reports whether the handle is owned by the cache.
func (t *Texture) Cached() bool {
	return t != nil && t.entry != nil && t.entry.cached
}

// Bind activates texture unit slot and binds this texture to it.
func (t *Texture) Bind(slot uint32) {
	t.cache.dev.ActiveTexture(slot)
	t.cache.dev.BindTexture(t.Handle())
	t.cache.stats.Binds++
	if !t.bound {
		t.cache.stats.Active++
	}
	t.bound = true
	t.slot = slot
}

// Unbind binds texture 0 on unit 0.
func (t *Texture) Unbind() {
	t.cache.dev.ActiveTexture(0)
	t.cache.dev.BindTexture(0)
	if t.bound {
		t.cache.stats.Active--
	}
	t.bound = false
}

// Bound reports whether Bind was called without a matching Unbind.
func (t *Texture) Bound() bool { return t.bound }

// Slot returns the unit of the last Bind.
func (t *Texture) Slot() uint32 { return t.slot }

// Reload resolves path again from scratch. For the current cached path the
// shared entry is re-decoded in place; another path is resolved through the
// cache. An uncached texture releases its own handle first. On failure the
// texture keeps its previous image.
func (t *Texture) Reload(path string) error {
	c := t.cache

	if t.entry != nil && !t.entry.cached {
		e := &entry{path: path}
		modTime, err := c.modTime(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTextureLoad, path, err)
		}
		if err := c.upload(e, modTime); err != nil {
			return err
		}
		t.Release()
		t.entry = e
		return nil
	}

	if cached, ok := c.entries[path]; ok {
		modTime, err := c.modTime(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTextureLoad, path, err)
		}
		if err := c.upload(cached, modTime); err != nil {
			return err
		}
		c.stats.Reloads++
		t.entry = cached
		return nil
	}

	e, err := c.resolve(path, true)
	if err != nil {
		return err
	}
	t.entry = e
	return nil
}

// Release drops this texture's reference. Only an uncached texture deletes
// its GPU handle; cached handles stay with the cache.
func (t *Texture) Release() {
	if t == nil || t.entry == nil {
		return
	}
	if t.bound {
		t.cache.stats.Active--
		t.bound = false
	}
	if !t.entry.cached && t.entry.handle != 0 {
		t.cache.dev.DeleteTexture(t.entry.handle)
		t.entry.handle = 0
	}
	t.entry = nil
}

// FromPixels uploads img without the cache. The caller owns the returned
// texture and must Release it.
func (c *Cache) FromPixels(name string, img *Image, s gpu.Sampling, mipmaps bool) (*Texture, error) {
	format, err := FormatForChannels(img.Channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, name, err)
	}
	handle, err := uploadImage(c.dev, img, format, s, mipmaps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTextureLoad, name, err)
	}
	return &Texture{
		cache: c,
		entry: &entry{
			path:     name,
			handle:   handle,
			width:    img.Width,
			height:   img.Height,
			channels: img.Channels,
		},
	}, nil
}

// Update replaces the pixels of an uncached texture of the same size and format.
func (t *Texture) Update(img *Image) error {
	if t.Cached() {
		return fmt.Errorf("texture %s is cache-owned", t.Path())
	}
	if t.Handle() == 0 {
		return fmt.Errorf("texture %s was released", t.Path())
	}
	format, err := FormatForChannels(img.Channels)
	if err != nil {
		return err
	}
	dev := t.cache.dev
	dev.ActiveTexture(0)
	dev.BindTexture(t.entry.handle)
	dev.TexImage2D(format, int32(img.Width), int32(img.Height), img.Pix)
	dev.BindTexture(0)
	t.entry.width, t.entry.height, t.entry.channels = img.Width, img.Height, img.Channels
	return nil
}
