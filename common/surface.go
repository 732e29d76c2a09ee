package common

import (
	"fmt"
	"image"
)

// Surface is a decoded RGBA image: width, height and a flat row-major pixel
// buffer with 4 bytes per pixel and no row padding. Alpha is straight, not
// premultiplied; fully transparent pixels are stored as all zeros.
type Surface struct {
	Width  int
	Height int
	Pix    []byte
}

// NewSurface allocates a zeroed surface.
func NewSurface(w, h int) *Surface {
	return &Surface{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

// Image copies the surface into a stdlib RGBA image, for callers that want
// to hand it to an encoder.
func (s *Surface) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	copy(img.Pix, s.Pix)
	return img
}

// CompositeIndexed converts a buffer of palette indices into a surface.
// Index 0 is the format's universal transparency key: it always composites
// to a fully transparent pixel no matter what the palette stores for it.
// Every other index takes the palette RGB at full opacity.
func CompositeIndexed(idx []byte, w, h int, pal Palette) (*Surface, error) {
	if len(idx) != w*h {
		return nil, fmt.Errorf("indexed buffer is %d pixels, want %dx%d", len(idx), w, h)
	}
	s := NewSurface(w, h)
	for i, ix := range idx {
		if ix == 0 {
			continue
		}
		r, g, b, _ := pal.RGBA(int(ix))
		off := i * 4
		s.Pix[off+0] = r
		s.Pix[off+1] = g
		s.Pix[off+2] = b
		s.Pix[off+3] = 0xff
	}
	return s, nil
}

// CompositeIndexedAlpha is CompositeIndexed for re-indexed embedded rasters:
// the palette's stored alpha channel is honored for every entry, including
// index 0.
func CompositeIndexedAlpha(idx []byte, w, h int, pal Palette) (*Surface, error) {
	if len(idx) != w*h {
		return nil, fmt.Errorf("indexed buffer is %d pixels, want %dx%d", len(idx), w, h)
	}
	s := NewSurface(w, h)
	for i, ix := range idx {
		r, g, b, a := pal.RGBA(int(ix))
		off := i * 4
		s.Pix[off+0] = r
		s.Pix[off+1] = g
		s.Pix[off+2] = b
		s.Pix[off+3] = a
	}
	return s, nil
}

// CompositeRGBA wraps an already-truecolor buffer. The buffer length must
// agree exactly with the declared dimensions.
func CompositeRGBA(pix []byte, w, h int) (*Surface, error) {
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("truecolor buffer is %d bytes, want %dx%dx4", len(pix), w, h)
	}
	return &Surface{Width: w, Height: h, Pix: pix}, nil
}
