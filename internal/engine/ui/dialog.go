package ui

import (
	"errors"
	"sync"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/logger"
)

// FileDialog opens a native model picker off the render thread. The chosen
// path is handed back through Poll, which the render thread calls each frame.
type FileDialog struct {
	mu      sync.Mutex
	open    bool
	pending string
	ready   bool

	// show blocks until the user picks a file; swapped in tests.
	show func() (string, error)
}

// NewFileDialog returns a picker filtered to the given model extensions
// (without dots).
func NewFileDialog(exts ...string) *FileDialog {
	if len(exts) == 0 {
		exts = []string{"obj", "gltf", "glb"}
	}
	return &FileDialog{
		show: func() (string, error) {
			return dialog.File().
				Filter("3D Models", exts...).
				Filter("All Files", "*").
				Title("Import Asset").
				Load()
		},
	}
}

// Request opens the dialog unless it is already showing.
func (d *FileDialog) Request() {
	d.mu.Lock()
	if d.open {
		d.mu.Unlock()
		return
	}
	d.open = true
	d.mu.Unlock()

	go func() {
		path, err := d.show()

		d.mu.Lock()
		defer d.mu.Unlock()
		d.open = false
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				logger.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		d.pending, d.ready = path, true
	}()
}

// Poll returns the picked path once.
func (d *FileDialog) Poll() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return "", false
	}
	path := d.pending
	d.pending, d.ready = "", false
	return path, true
}

// Open reports whether the dialog is showing.
func (d *FileDialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}
