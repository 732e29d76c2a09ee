package codec

import (
	"fmt"

	"github.com/sourcekris/sffextract/common"
)

const (
	pcxHeaderSize    = 128
	pcxPaletteMarker = 0x0c
)

// PCXImage is a decoded embedded PCX raster: the palette-index plane plus
// the trailing palette when the payload carries one.
type PCXImage struct {
	Width   int
	Height  int
	Pix     []byte // Width*Height palette indices
	Palette []byte // 768 RGB bytes, or nil
}

// PCXSize reads the declared dimensions from a PCX payload header without
// decoding the pixel data.
func PCXSize(src []byte) (w, h int, err error) {
	if len(src) < pcxHeaderSize {
		return 0, 0, fmt.Errorf("pcx: payload is %d bytes, need a %d-byte header", len(src), pcxHeaderSize)
	}
	xmin := int(common.U16(src, 4))
	ymin := int(common.U16(src, 6))
	xmax := int(common.U16(src, 8))
	ymax := int(common.U16(src, 10))
	return xmax - xmin + 1, ymax - ymin + 1, nil
}

// DecodePCX decodes an 8-bit PCX payload as stored in v1 sub-file records.
// A trailing 769-byte block starting with the 0x0C marker is split off as
// the embedded palette; shared-palette sprites ship without one.
func DecodePCX(src []byte) (*PCXImage, error) {
	w, h, err := PCXSize(src)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pcx: declared size %dx%d", w, h)
	}
	if depth := src[3]; depth != 8 {
		return nil, fmt.Errorf("pcx: unsupported color depth %d, want 8", depth)
	}
	encoding := src[2]
	bpl := int(common.U16(src, 66))

	body := src[pcxHeaderSize:]
	pal := TrailingPalette(src)
	if pal != nil {
		body = src[pcxHeaderSize : len(src)-769]
	}

	var pix []byte
	if encoding == 1 {
		pix, err = pcxRLE(body, w, h, bpl)
		if err != nil {
			return nil, err
		}
	} else {
		pix = Raw8(body, w, h)
	}
	return &PCXImage{Width: w, Height: h, Pix: pix, Palette: pal}, nil
}

// TrailingPalette returns the 768 bytes of RGB triplets at the end of a PCX
// payload, or nil when the 0x0C marker is absent (shared-palette sprites
// ship their raster without one).
func TrailingPalette(src []byte) []byte {
	if len(src) >= pcxHeaderSize+769 && src[len(src)-769] == pcxPaletteMarker {
		return src[len(src)-768:]
	}
	return nil
}

// pcxRLE expands PCX run-length data. Runs are marked by bytes >= 0xC0
// (unlike the archive's own RLE8, where only 0x40-0x7F mark runs) and rows
// are padded to bpl bytes; pad pixels are consumed but not emitted.
func pcxRLE(src []byte, w, h, bpl int) ([]byte, error) {
	dst := make([]byte, w*h)
	i, j, k := 0, 0, 0
	for j < len(dst) {
		if i >= len(src) {
			return nil, fmt.Errorf("pcx: rle input exhausted at pixel %d of %d", j, len(dst))
		}
		n, d := 1, src[i]
		i++
		if d >= 0xc0 {
			n = int(d & 0x3f)
			if i >= len(src) {
				return nil, fmt.Errorf("pcx: rle run marker at end of input")
			}
			d = src[i]
			i++
		}
		for ; n > 0; n-- {
			if k < w && j < len(dst) {
				dst[j] = d
				j++
			}
			k++
			if k == bpl {
				k, n = 0, 1
			}
		}
	}
	return dst, nil
}
