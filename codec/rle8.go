package codec

import "fmt"

// RLE8 decodes the run-length scheme shared by v1 rasters and v2 format 2.
// Only bytes 0x40-0x7F are run markers (low 6 bits hold the run length, the
// following byte the repeated value); everything else, including 0x80-0xFF,
// is a literal pixel.
func RLE8(src []byte, w, h int) ([]byte, error) {
	dst := make([]byte, w*h)
	i, j := 0, 0
	for j < len(dst) {
		if i >= len(src) {
			return nil, fmt.Errorf("rle8: input exhausted at pixel %d of %d", j, len(dst))
		}
		n, d := 1, src[i]
		i++
		if d&0xc0 == 0x40 {
			n = int(d & 0x3f)
			if i >= len(src) {
				return nil, fmt.Errorf("rle8: run marker at end of input")
			}
			d = src[i]
			i++
		}
		for ; n > 0 && j < len(dst); n-- {
			dst[j] = d
			j++
		}
	}
	return dst, nil
}
