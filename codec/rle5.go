package codec

import "fmt"

// RLE5 decodes v2 format 3. Each packet is a run-length byte followed by a
// descriptor whose low 7 bits count the pixel groups that follow and whose
// top bit announces an explicit color byte (otherwise the run starts with
// color 0). Each subsequent group byte packs a 3-bit run length in its high
// bits and a 5-bit color in its low bits.
func RLE5(src []byte, w, h int) ([]byte, error) {
	dst := make([]byte, w*h)
	i, j := 0, 0
	for j < len(dst) {
		if i+1 >= len(src) {
			return nil, fmt.Errorf("rle5: input exhausted at pixel %d of %d", j, len(dst))
		}
		runLen := int(src[i])
		i++
		dataLen := int(src[i] & 0x7f)
		var c byte
		if src[i]>>7 != 0 {
			i++
			if i >= len(src) {
				return nil, fmt.Errorf("rle5: color byte missing at pixel %d", j)
			}
			c = src[i]
		}
		i++
		for {
			if j < len(dst) {
				dst[j] = c
				j++
			}
			runLen--
			if runLen < 0 {
				dataLen--
				if dataLen < 0 {
					break
				}
				if i >= len(src) {
					return nil, fmt.Errorf("rle5: pixel group missing at pixel %d", j)
				}
				c = src[i] & 0x1f
				runLen = int(src[i] >> 5)
				i++
			}
		}
	}
	return dst, nil
}
