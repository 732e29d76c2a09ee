// Package codec implements the pixel decompressors used by sprite archives:
// raw indexed and truecolor copies, the RLE8 and RLE5 run-length schemes,
// the LZ5 dictionary scheme and the embedded PCX / PNG raster containers.
//
// Every decoder takes the compressed payload plus the declared width and
// height and returns a flat pixel buffer of exactly the declared size, or
// an error. No decoder reads or writes outside the declared output length.
package codec

// Raw8 copies an uncompressed 8-bit indexed payload. Short sources are
// zero-padded to the declared size.
func Raw8(src []byte, w, h int) []byte {
	dst := make([]byte, w*h)
	copy(dst, src)
	return dst
}

// Raw32 copies an uncompressed RGBA payload. Short sources are zero-padded
// to the declared size.
func Raw32(src []byte, w, h int) []byte {
	dst := make([]byte, w*h*4)
	copy(dst, src)
	return dst
}

// Raw24 expands an uncompressed RGB payload to RGBA with opaque alpha.
// Short sources leave the remaining pixels transparent.
func Raw24(src []byte, w, h int) []byte {
	dst := make([]byte, w*h*4)
	for i := 0; i < w*h && i*3+2 < len(src); i++ {
		dst[i*4+0] = src[i*3+0]
		dst[i*4+1] = src[i*3+1]
		dst[i*4+2] = src[i*3+2]
		dst[i*4+3] = 0xff
	}
	return dst
}
