package codec

import "fmt"

// lz5State carries the bit-level decoder state across packets: the current
// control byte, the next control bit to consume, and the recycled offset
// bits that short back-references accumulate two at a time (the carry
// resets after four short-offset reads, when eight bits have been
// collected).
type lz5State struct {
	ctrl   byte
	bit    uint
	carry  byte
	nCarry uint
}

// LZ5 decodes v2 format 4, a bit-flagged LZ stream. Each control-byte bit,
// consumed from bit 0 upward, selects a back-reference (set) or a literal
// run (clear). Back-references use a 10-bit long-offset form when the
// packet's low 6 bits are zero, otherwise a short-offset form that donates
// its top 2 bits to the carry. Literal runs encode their count in the
// packet's top 3 bits, or in a following byte (plus 8) when those are zero.
func LZ5(src []byte, w, h int) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("lz5: empty input")
	}
	dst := make([]byte, w*h)
	st := lz5State{ctrl: src[0]}
	i, j := 1, 0
	for j < len(dst) {
		if i >= len(src) {
			return nil, fmt.Errorf("lz5: input exhausted at pixel %d of %d", j, len(dst))
		}
		d := int(src[i])
		i++
		if st.ctrl&(1<<st.bit) != 0 {
			var off, n int
			if d&0x3f == 0 {
				if i+1 >= len(src) {
					return nil, fmt.Errorf("lz5: long back reference truncated at pixel %d", j)
				}
				off = (d<<2 | int(src[i])) + 1
				i++
				n = int(src[i]) + 2
				i++
			} else {
				st.carry |= byte(d&0xc0) >> st.nCarry
				st.nCarry += 2
				n = d & 0x3f
				if st.nCarry < 8 {
					if i >= len(src) {
						return nil, fmt.Errorf("lz5: short back reference truncated at pixel %d", j)
					}
					off = int(src[i]) + 1
					i++
				} else {
					off = int(st.carry) + 1
					st.carry, st.nCarry = 0, 0
				}
			}
			for {
				if j < len(dst) {
					if off > j {
						return nil, fmt.Errorf("lz5: back reference %d beyond start of output at pixel %d", off, j)
					}
					dst[j] = dst[j-off]
					j++
				}
				n--
				if n < 0 {
					break
				}
			}
		} else {
			var n int
			if d&0xe0 == 0 {
				if i >= len(src) {
					return nil, fmt.Errorf("lz5: literal run length missing at pixel %d", j)
				}
				n = int(src[i]) + 8
				i++
			} else {
				n = d >> 5
				d &= 0x1f
			}
			for ; n > 0; n-- {
				if j < len(dst) {
					dst[j] = byte(d)
					j++
				}
			}
		}
		st.bit++
		if st.bit == 8 {
			st.bit = 0
			if j < len(dst) {
				if i >= len(src) {
					return nil, fmt.Errorf("lz5: control byte missing at pixel %d of %d", j, len(dst))
				}
				st.ctrl = src[i]
				i++
			}
		}
	}
	return dst, nil
}
