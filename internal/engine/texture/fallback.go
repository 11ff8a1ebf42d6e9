package texture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/terrastage/internal/engine/gpu"
)

// Checkerboard returns a size×size RGB image of alternating magenta and
// dark grey cells.
func Checkerboard(size, cells int) *Image {
	if size < 1 {
		size = 1
	}
	if cells < 1 {
		cells = 1
	}
	cell := max(size/cells, 1)

	img := &Image{Pix: make([]byte, size*size*3), Width: size, Height: size, Channels: 3}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := [3]byte{40, 40, 40}
			if (x/cell+y/cell)%2 == 0 {
				c = [3]byte{255, 0, 255}
			}
			copy(img.Pix[(y*size+x)*3:], c[:])
		}
	}
	return img
}

// CheckerTexture uploads a checkerboard with nearest filtering so the cells
// stay crisp. The caller owns the returned texture.
func (c *Cache) CheckerTexture(size, cells int) (*Texture, error) {
	return c.FromPixels("checkerboard", Checkerboard(size, cells), gpu.Sampling{
		Wrap: gpu.WrapRepeat,
		Min:  gpu.FilterNearest,
		Mag:  gpu.FilterNearest,
	}, false)
}

// FindInDirectories returns the first file in dirs, searched in order, whose
// extension matches one of exts case-insensitively. Files within a directory
// are considered in name order.
func FindInDirectories(dirs, exts []string) (string, bool) {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			if HasExtension(name, exts) {
				return filepath.Join(dir, name), true
			}
		}
	}
	return "", false
}

// HasExtension reports whether name ends in one of exts, ignoring case.
// Extensions may be given with or without the leading dot.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, want := range exts {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}
