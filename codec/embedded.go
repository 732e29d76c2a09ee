package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// DecodeEmbedded decodes a v2 embedded raster payload (formats 10, 11 and
// 12): a 4-byte sub-header followed by a standard PNG stream.
func DecodeEmbedded(src []byte) (image.Image, error) {
	if len(src) <= 4 {
		return nil, fmt.Errorf("embedded: payload is %d bytes, need a 4-byte sub-header plus image data", len(src))
	}
	img, err := png.Decode(bytes.NewReader(src[4:]))
	if err != nil {
		return nil, fmt.Errorf("embedded: %w", err)
	}
	return img, nil
}

// EmbeddedIndexes returns the palette-index plane of a paletted embedded
// raster, row-major without stride padding. ok is false when the image is
// not paletted (format 10 payloads always are).
func EmbeddedIndexes(img image.Image) (pix []byte, w, h int, ok bool) {
	p, isPal := img.(*image.Paletted)
	if !isPal {
		return nil, 0, 0, false
	}
	b := p.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(pix[y*w:(y+1)*w], p.Pix[y*p.Stride:y*p.Stride+w])
	}
	return pix, w, h, true
}

// FlattenRGBA converts any decoded image into a flat RGBA buffer.
func FlattenRGBA(img image.Image) (pix []byte, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix, w, h
}
