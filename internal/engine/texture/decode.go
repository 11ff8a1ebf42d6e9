// Package texture loads image files into GPU textures and caches them by path.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	_ "golang.org/x/image/bmp" // register BMP decoder

	"github.com/Faultbox/terrastage/internal/engine/gpu"
)

var (
	// ErrTextureLoad is wrapped by every texture construction failure.
	ErrTextureLoad = errors.New("texture load failed")
	// ErrUnsupportedChannels is returned for channel counts other than 1, 3 or 4.
	ErrUnsupportedChannels = errors.New("unsupported channel count")
)

// Image is decoded 8-bit pixel data with rows stored bottom-up, matching the
// renderer's UV origin.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	Channels int
}

// Decoder turns an image file into pixels.
type Decoder interface {
	Decode(path string) (*Image, error)
}

// FileDecoder decodes PNG, JPEG, BMP and TGA files from disk.
type FileDecoder struct{}

// Decode reads and decodes path, flipping it vertically.
func (FileDecoder) Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	out := FromImage(img)
	if out.Width == 0 || out.Height == 0 {
		return nil, fmt.Errorf("decoding %s: empty %s image", path, format)
	}
	return out, nil
}

// FromImage converts img to bottom-up pixels. Grayscale images keep one
// channel, opaque images three, everything else four.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := img.(*image.Gray); ok {
		out := &Image{Pix: make([]byte, w*h), Width: w, Height: h, Channels: 1}
		for y := 0; y < h; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			copy(out.Pix[(h-1-y)*w:], src)
		}
		return out
	}

	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	channels := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = 3
	}

	out := &Image{Pix: make([]byte, w*h*channels), Width: w, Height: h, Channels: channels}
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		dst := out.Pix[(h-1-y)*w*channels:]
		for x := 0; x < w; x++ {
			copy(dst[x*channels:x*channels+channels], row[x*4:x*4+channels])
		}
	}
	return out
}

// FormatForChannels picks the upload format for a channel count.
func FormatForChannels(channels int) (gpu.PixelFormat, error) {
	switch channels {
	case 1:
		return gpu.FormatRed, nil
	case 3:
		return gpu.FormatRGB, nil
	case 4:
		return gpu.FormatRGBA, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
}
