package framebuffer

import (
	"testing"

	"github.com/Faultbox/terrastage/internal/engine/gpu/gputest"
)

func TestNewAndDestroy(t *testing.T) {
	dev := gputest.New()

	fb, err := New(dev, 320, 200)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if fb.FBO() == 0 || fb.ColorTexture() == 0 {
		t.Fatal("expected non-zero handles")
	}
	if dev.BoundFramebuffer() != 0 {
		t.Error("New left the framebuffer bound")
	}
	if w, h := fb.Size(); w != 320 || h != 200 {
		t.Errorf("expected 320x200, got %dx%d", w, h)
	}

	fb.Destroy()
	fb.Destroy()
	if dev.TotalLive() != 0 || len(dev.BadDeletes) != 0 {
		t.Errorf("live=%d bad=%v", dev.TotalLive(), dev.BadDeletes)
	}
}

func TestNewClampsSize(t *testing.T) {
	fb, err := New(gputest.New(), 0, -5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if w, h := fb.Size(); w != 1 || h != 1 {
		t.Errorf("expected 1x1, got %dx%d", w, h)
	}
}

func TestNewAllocationFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailAlloc[gputest.Renderbuffer] = true

	if _, err := New(dev, 10, 10); err == nil {
		t.Fatal("expected error")
	}
	if dev.TotalLive() != 0 {
		t.Errorf("leaked %d objects", dev.TotalLive())
	}
}

func TestBindSetsViewport(t *testing.T) {
	dev := gputest.New()
	fb, err := New(dev, 64, 32)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer fb.Destroy()

	fb.Bind()
	if dev.BoundFramebuffer() != fb.FBO() {
		t.Error("framebuffer not bound")
	}
	last := dev.Viewports[len(dev.Viewports)-1]
	if last != [4]int32{0, 0, 64, 32} {
		t.Errorf("unexpected viewport %v", last)
	}
	fb.Unbind()
	if dev.BoundFramebuffer() != 0 {
		t.Error("Unbind did not restore the default framebuffer")
	}
}

func TestResize(t *testing.T) {
	dev := gputest.New()
	fb, err := New(dev, 64, 32)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer fb.Destroy()

	if fb.Resize(64, 32) {
		t.Error("same size should not resize")
	}
	if !fb.Resize(128, 64) {
		t.Error("expected resize")
	}
	if fb.Aspect() != 2 {
		t.Errorf("expected aspect 2, got %f", fb.Aspect())
	}
	last := dev.Uploads[len(dev.Uploads)-1]
	if last.Width != 128 || last.Height != 64 || last.Texture != fb.ColorTexture() {
		t.Errorf("unexpected reallocation %+v", last)
	}
}

func TestReadPixelsTopRowFirst(t *testing.T) {
	dev := gputest.New()
	fb, err := New(dev, 2, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer fb.Destroy()

	pix := fb.ReadPixels()
	if len(pix) != 2*3*4 {
		t.Fatalf("expected 24 bytes, got %d", len(pix))
	}
	// The fake stores the GL row index in the red channel.
	if pix[0] != 2 || pix[len(pix)-4] != 0 {
		t.Errorf("rows not flipped: first=%d last=%d", pix[0], pix[len(pix)-4])
	}
	if dev.BoundFramebuffer() != 0 {
		t.Error("ReadPixels left the framebuffer bound")
	}
}
