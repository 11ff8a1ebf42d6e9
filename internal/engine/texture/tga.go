package texture

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

func init() {
	// '?' skips the ID length byte; color map type must be 0.
	image.RegisterFormat("tga", "?\x00\x02", decodeTGAReader, decodeTGAConfig)
	image.RegisterFormat("tga", "?\x00\x0a", decodeTGAReader, decodeTGAConfig)
}

type tgaHeader struct {
	idLength    int
	imageType   byte
	width       int
	height      int
	bpp         int
	topToBottom bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, errors.New("TGA data too short")
	}
	h := tgaHeader{
		idLength:  int(data[0]),
		imageType: data[2],
		width:     int(data[12]) | int(data[13])<<8,
		height:    int(data[14]) | int(data[15])<<8,
		bpp:       int(data[16]),
		// Bit 5 of the descriptor selects top-to-bottom row order.
		topToBottom: data[17]&0x20 != 0,
	}
	if data[1] != 0 {
		return h, errors.New("color-mapped TGA not supported")
	}
	if h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE {
		return h, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", h.imageType)
	}
	if h.bpp != 24 && h.bpp != 32 {
		return h, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", h.bpp)
	}
	return h, nil
}

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color TGA.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, errors.New("TGA data truncated")
	}
	pixelData := data[offset:]
	bytesPerPixel := h.bpp / 8

	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	put := func(pixel int, src []byte) {
		x, y := pixel%h.width, pixel/h.width
		if !h.topToBottom {
			y = h.height - 1 - y
		}
		c := color.NRGBA{R: src[2], G: src[1], B: src[0], A: 255}
		if bytesPerPixel == 4 {
			c.A = src[3]
		}
		img.SetNRGBA(x, y, c)
	}

	pixelCount := h.width * h.height
	if h.imageType == TGATypeUncompressed {
		if len(pixelData) < pixelCount*bytesPerPixel {
			return nil, errors.New("TGA pixel data truncated")
		}
		for i := 0; i < pixelCount; i++ {
			put(i, pixelData[i*bytesPerPixel:])
		}
		return img, nil
	}

	pixel, pos := 0, 0
	for pixel < pixelCount && pos < len(pixelData) {
		packet := pixelData[pos]
		pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run-length packet: one pixel repeated count times.
			if pos+bytesPerPixel > len(pixelData) {
				break
			}
			for i := 0; i < count && pixel < pixelCount; i++ {
				put(pixel, pixelData[pos:])
				pixel++
			}
			pos += bytesPerPixel
			continue
		}

		// Raw packet: count literal pixels.
		for i := 0; i < count && pixel < pixelCount; i++ {
			if pos+bytesPerPixel > len(pixelData) {
				break
			}
			put(pixel, pixelData[pos:])
			pos += bytesPerPixel
			pixel++
		}
	}

	return img, nil
}

func decodeTGAReader(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeTGA(data)
}

func decodeTGAConfig(r io.Reader) (image.Config, error) {
	header := make([]byte, tgaHeaderSize)
	if _, err := io.ReadFull(bufio.NewReader(r), header); err != nil {
		return image.Config{}, err
	}
	h, err := parseTGAHeader(header)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}
