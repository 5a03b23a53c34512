// Package texture loads and caches source textures and writes atlas images.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// Decode decodes image data, dispatching on the file extension. TGA has
// no magic header, so it gets its own path; everything else goes through
// the registered stdlib/x-image decoders (PNG, JPEG, BMP).
func Decode(path string, data []byte) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeSize reports image dimensions without decoding pixel data.
func DecodeSize(path string, data []byte) (w, h int, err error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		if len(data) < 18 {
			return 0, 0, fmt.Errorf("TGA data too short")
		}
		w = int(data[12]) | int(data[13])<<8
		h = int(data[14]) | int(data[15])<<8
		return w, h, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding size of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// ToRGBA converts any image to RGBA, returning the input unchanged when
// it already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

// DecodeTGA decodes a TGA image. Supports uncompressed true-color (type 2)
// and RLE compressed (type 10) files, the variants authoring tools emit.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != 2 && imageType != 10 {
		return nil, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}
	pixelData := data[offset:]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bytesPerPixel := bpp / 8

	// Bit 5 of the descriptor means rows run top-to-bottom.
	topToBottom := (descriptor & 0x20) != 0

	if imageType == 2 {
		expectedSize := width * height * bytesPerPixel
		if len(pixelData) < expectedSize {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}

		for y := 0; y < height; y++ {
			destY := y
			if !topToBottom {
				destY = height - 1 - y
			}
			for x := 0; x < width; x++ {
				i := (y*width + x) * bytesPerPixel
				img.SetRGBA(x, destY, tgaPixel(pixelData[i:], bytesPerPixel))
			}
		}
		return img, nil
	}

	if err := decodeTGARLE(img, pixelData, width, height, bytesPerPixel, topToBottom); err != nil {
		return nil, err
	}
	return img, nil
}

func tgaPixel(p []byte, bytesPerPixel int) color.RGBA {
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if bytesPerPixel == 4 {
		c.A = p[3]
	}
	return c
}

func decodeTGARLE(img *image.RGBA, pixelData []byte, width, height, bytesPerPixel int, topToBottom bool) error {
	setPixel := func(index int, c color.RGBA) {
		y := index / width
		x := index % width
		if !topToBottom {
			y = height - 1 - y
		}
		img.SetRGBA(x, y, c)
	}

	total := width * height
	pos, written := 0, 0
	for written < total {
		if pos >= len(pixelData) {
			return fmt.Errorf("TGA RLE data truncated")
		}
		header := pixelData[pos]
		pos++
		count := int(header&0x7F) + 1

		if header&0x80 != 0 {
			// Run: one pixel repeated count times.
			if pos+bytesPerPixel > len(pixelData) {
				return fmt.Errorf("TGA RLE data truncated")
			}
			c := tgaPixel(pixelData[pos:], bytesPerPixel)
			pos += bytesPerPixel
			for i := 0; i < count && written < total; i++ {
				setPixel(written, c)
				written++
			}
		} else {
			// Raw: count literal pixels.
			if pos+count*bytesPerPixel > len(pixelData) {
				return fmt.Errorf("TGA RLE data truncated")
			}
			for i := 0; i < count && written < total; i++ {
				setPixel(written, tgaPixel(pixelData[pos:], bytesPerPixel))
				pos += bytesPerPixel
				written++
			}
		}
	}
	return nil
}
