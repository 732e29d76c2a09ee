// Package common provides shared helpers for decoding sprite archive data:
// bounds-checked little-endian reads, palette color tables and the RGBA
// surface type returned to callers.
package common

// The byte readers below return zero for any read that would cross the end
// of the buffer. Archive offsets come straight from untrusted files, so
// callers validate the record a zero falls out of instead of trusting the
// read to succeed.

// U32 reads a little-endian uint32 at ofs, or 0 if out of range.
func U32(data []byte, ofs int) uint32 {
	if ofs < 0 || ofs+4 > len(data) {
		return 0
	}
	return uint32(data[ofs]) | uint32(data[ofs+1])<<8 |
		uint32(data[ofs+2])<<16 | uint32(data[ofs+3])<<24
}

// U16 reads a little-endian uint16 at ofs, or 0 if out of range.
func U16(data []byte, ofs int) uint16 {
	if ofs < 0 || ofs+2 > len(data) {
		return 0
	}
	return uint16(data[ofs]) | uint16(data[ofs+1])<<8
}

// I16 reads a little-endian int16 at ofs, or 0 if out of range.
func I16(data []byte, ofs int) int16 {
	return int16(U16(data, ofs))
}

// Byte reads the byte at ofs, or 0 if out of range.
func Byte(data []byte, ofs int) byte {
	if ofs < 0 || ofs >= len(data) {
		return 0
	}
	return data[ofs]
}

// Palette is an indexed color table of up to 256 entries, each packed as
// alpha<<24 | blue<<16 | green<<8 | red.
type Palette []uint32

// NewPalette returns an all-zero 256-entry palette.
func NewPalette() Palette {
	return make(Palette, 256)
}

// PaletteFromRGB builds a palette from 768 bytes of RGB triplets, entry 0
// first. Alpha is stored opaque for every entry; the compositor decides
// transparency.
func PaletteFromRGB(rgb []byte) Palette {
	pal := NewPalette()
	for i := 0; i < 256 && i*3+2 < len(rgb); i++ {
		pal[i] = PackRGBA(rgb[i*3], rgb[i*3+1], rgb[i*3+2], 0xff)
	}
	return pal
}

// PackRGBA packs one palette entry.
func PackRGBA(r, g, b, a byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// RGB flattens the palette into 768 bytes of RGB triplets, entry 0 first,
// the layout .act palette files use.
func (p Palette) RGB() []byte {
	out := make([]byte, 768)
	for i := 0; i < 256 && i < len(p); i++ {
		c := p[i]
		out[i*3+0] = byte(c)
		out[i*3+1] = byte(c >> 8)
		out[i*3+2] = byte(c >> 16)
	}
	return out
}

// RGBA unpacks entry i. Out-of-range indices unpack as zero.
func (p Palette) RGBA(i int) (r, g, b, a byte) {
	if i < 0 || i >= len(p) {
		return 0, 0, 0, 0
	}
	c := p[i]
	return byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)
}
