package sff

import (
	"fmt"

	"github.com/sourcekris/sffextract/codec"
	"github.com/sourcekris/sffextract/common"
)

const (
	v2SpriteNodeStride  = 28
	v2PaletteNodeStride = 16
	// v2ScanCap bounds the flat index scan regardless of the declared
	// sprite count.
	v2ScanCap = 5000
	// v2PaletteLinkDepth caps palette link-chain recursion; one level of
	// indirection covers every archive observed in the wild.
	v2PaletteLinkDepth = 4
	// v2LinkNone marks a sprite node that owns its data, as does 0.
	v2LinkNone = 0xffff
)

// v2 storage-format codes. The code says which codec decompresses the
// payload; which data region the payload lives in is decided by the node's
// flags bit instead, and the two must not be conflated.
const (
	fmtRaw  = 0
	fmtRLE8 = 2
	fmtRLE5 = 3
	fmtLZ5  = 4
	fmtPNG8 = 10
	fmtPNG  = 11
	fmtPNGA = 12
)

// spriteNode is one 28-byte entry of the v2 sprite index.
type spriteNode struct {
	group   int16
	image   int16
	width   uint16
	height  uint16
	link    uint16
	format  byte
	depth   byte
	dataOfs uint32
	dataLen uint32
	palIdx  uint16
	flags   uint16
}

// ownsData reports whether the node carries pixel data of its own. Any
// link value other than 0 and 0xFFFF marks a linked sprite that reuses
// another node's pixels; those are skipped, not decoded.
func (n *spriteNode) ownsData() bool {
	return n.dataLen > 0 && (n.link == 0 || n.link == v2LinkNone)
}

type v2Walker struct {
	a *archive
}

func (w *v2Walker) node(i int) spriteNode {
	data := w.a.data
	base := int(w.a.spriteOfs) + i*v2SpriteNodeStride
	return spriteNode{
		group:   common.I16(data, base),
		image:   common.I16(data, base+2),
		width:   common.U16(data, base+4),
		height:  common.U16(data, base+6),
		link:    common.U16(data, base+12),
		format:  common.Byte(data, base+14),
		depth:   common.Byte(data, base+15),
		dataOfs: common.U32(data, base+16),
		dataLen: common.U32(data, base+20),
		palIdx:  common.U16(data, base+24),
		flags:   common.U16(data, base+26),
	}
}

// scanCount clamps the declared sprite count to the scan cap and to the
// nodes that physically fit in the buffer.
func (w *v2Walker) scanCount() int {
	n := int(w.a.spriteCount)
	if n < 0 || n > v2ScanCap {
		n = v2ScanCap
	}
	avail := 0
	if int(w.a.spriteOfs) < len(w.a.data) {
		avail = (len(w.a.data) - int(w.a.spriteOfs)) / v2SpriteNodeStride
	}
	if n > avail {
		n = avail
	}
	return n
}

func (w *v2Walker) locateCandidates(use useCase) []record {
	if use == usePortrait {
		return w.portraitCandidates()
	}
	return w.stageCandidates()
}

func toRecord(n spriteNode) record {
	cp := n
	return record{group: n.group, image: n.image, width: int(n.width), height: int(n.height), v2: &cp}
}

// portraitCandidates prefers the first group-9000 node at or above 50x50;
// a smaller group-9000 node (usually the select icon) and a group-0/
// image-0 node above 30x30 stand by as fallbacks, in that order.
func (w *v2Walker) portraitCandidates() []record {
	var preferred, small, standIn *spriteNode
	count := w.scanCount()
	for i := 0; i < count; i++ {
		n := w.node(i)
		if !n.ownsData() {
			continue
		}
		switch {
		case n.group == 9000:
			if n.width >= 50 && n.height >= 50 {
				if preferred == nil {
					cp := n
					preferred = &cp
				}
			} else if small == nil {
				cp := n
				small = &cp
			}
		case n.group == 0 && n.image == 0:
			if n.width > 30 && n.height > 30 && standIn == nil {
				cp := n
				standIn = &cp
			}
		}
		if preferred != nil && small != nil && standIn != nil {
			break
		}
	}
	var recs []record
	for _, n := range []*spriteNode{preferred, small, standIn} {
		if n != nil {
			recs = append(recs, toRecord(*n))
		}
	}
	return recs
}

// stageCandidates takes the first positive-area group-9000 node, falling
// back to the first positive-area group-0/image-0 node.
func (w *v2Walker) stageCandidates() []record {
	var first9000, first00 *spriteNode
	count := w.scanCount()
	for i := 0; i < count; i++ {
		n := w.node(i)
		if !n.ownsData() || n.width == 0 || n.height == 0 {
			continue
		}
		if n.group == 9000 && first9000 == nil {
			cp := n
			first9000 = &cp
		}
		if n.group == 0 && n.image == 0 && first00 == nil {
			cp := n
			first00 = &cp
		}
		if first9000 != nil && first00 != nil {
			break
		}
	}
	var recs []record
	for _, n := range []*spriteNode{first9000, first00} {
		if n != nil {
			recs = append(recs, toRecord(*n))
		}
	}
	return recs
}

// resolvePalette reads palette node idx and follows link chains for nodes
// that carry no color data of their own. Out-of-bounds nodes or color data
// fail closed: the palette is simply absent.
func (w *v2Walker) resolvePalette(idx, depth int) common.Palette {
	if depth > v2PaletteLinkDepth {
		return nil
	}
	if idx < 0 || uint32(idx) >= w.a.palCount {
		return nil
	}
	data := w.a.data
	base := int(w.a.palOfs) + idx*v2PaletteNodeStride
	if base < 0 || base+v2PaletteNodeStride > len(data) {
		return nil
	}
	link := int(common.U16(data, base+6))
	ofs := common.U32(data, base+8)
	siz := common.U32(data, base+12)
	if siz == 0 {
		if link == idx {
			return nil
		}
		return w.resolvePalette(link, depth+1)
	}
	start := int64(w.a.ldataOfs) + int64(ofs)
	end := start + int64(siz)
	if start < 0 || end > int64(len(data)) {
		return nil
	}
	pal := common.NewPalette()
	n := int(siz / 4)
	if n > 256 {
		n = 256
	}
	for i := 0; i < n; i++ {
		o := int(start) + i*4
		pal[i] = common.PackRGBA(data[o], data[o+1], data[o+2], data[o+3])
	}
	return pal
}

// palette resolves the node's palette, backfilling from the external
// palette only when the palette table yields nothing.
func (w *v2Walker) palette(n *spriteNode, extPal []byte) common.Palette {
	if pal := w.resolvePalette(int(n.palIdx), 0); pal != nil {
		return pal
	}
	if extPal != nil {
		return common.PaletteFromRGB(extPal)
	}
	return common.NewPalette()
}

func (w *v2Walker) decode(rec record, extPal []byte) (*common.Surface, common.Palette, error) {
	n := rec.v2
	wd, ht := int(n.width), int(n.height)
	if err := checkDims(wd, ht); err != nil {
		return nil, nil, fmt.Errorf("V2 sprite %d,%d: %w", n.group, n.image, err)
	}

	base := w.a.ldataOfs
	if n.flags&1 != 0 {
		base = w.a.tdataOfs
	}
	start := int64(base) + int64(n.dataOfs)
	end := start + int64(n.dataLen)
	if start < 0 || end < start || end > int64(len(w.a.data)) {
		return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d data [%d,%d) outside %d-byte file",
			ErrCorruptedData, n.group, n.image, start, end, len(w.a.data))
	}
	raw := w.a.data[start:end]

	switch n.format {
	case fmtRaw:
		switch n.depth {
		case 8:
			return w.composite(codec.Raw8(raw, wd, ht), wd, ht, n, extPal)
		case 24:
			return w.truecolor(codec.Raw24(raw, wd, ht), wd, ht, n)
		case 32:
			return w.truecolor(codec.Raw32(raw, wd, ht), wd, ht, n)
		default:
			return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: unknown color depth %d",
				ErrDecodingFailed, n.group, n.image, n.depth)
		}
	case fmtRLE8, fmtRLE5, fmtLZ5:
		if len(raw) < 4 {
			return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: payload misses its 4-byte sub-header",
				ErrDecodingFailed, n.group, n.image)
		}
		body := raw[4:]
		var pix []byte
		var err error
		switch n.format {
		case fmtRLE8:
			pix, err = codec.RLE8(body, wd, ht)
		case fmtRLE5:
			pix, err = codec.RLE5(body, wd, ht)
		default:
			pix, err = codec.LZ5(body, wd, ht)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: %v", ErrDecodingFailed, n.group, n.image, err)
		}
		return w.composite(pix, wd, ht, n, extPal)
	case fmtPNG8, fmtPNG, fmtPNGA:
		img, err := codec.DecodeEmbedded(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: %v", ErrDecodingFailed, n.group, n.image, err)
		}
		if n.format == fmtPNG8 {
			// Re-index through the archive palette, keeping that
			// palette's stored alpha, instead of the colors baked
			// into the container.
			if pix, iw, ih, ok := codec.EmbeddedIndexes(img); ok {
				if iw != wd || ih != ht {
					return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: embedded raster is %dx%d, declared %dx%d",
						ErrDecodingFailed, n.group, n.image, iw, ih, wd, ht)
				}
				pal := w.palette(n, extPal)
				s, err := common.CompositeIndexedAlpha(pix, iw, ih, pal)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: %v", ErrDecodingFailed, n.group, n.image, err)
				}
				return s, pal, nil
			}
		}
		pix, iw, ih := codec.FlattenRGBA(img)
		if iw != wd || ih != ht {
			return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: embedded raster is %dx%d, declared %dx%d",
				ErrDecodingFailed, n.group, n.image, iw, ih, wd, ht)
		}
		return w.truecolor(pix, iw, ih, n)
	default:
		return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: unknown storage format %d",
			ErrDecodingFailed, n.group, n.image, n.format)
	}
}

func (w *v2Walker) composite(pix []byte, wd, ht int, n *spriteNode, extPal []byte) (*common.Surface, common.Palette, error) {
	pal := w.palette(n, extPal)
	s, err := common.CompositeIndexed(pix, wd, ht, pal)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: %v", ErrDecodingFailed, n.group, n.image, err)
	}
	return s, pal, nil
}

func (w *v2Walker) truecolor(pix []byte, wd, ht int, n *spriteNode) (*common.Surface, common.Palette, error) {
	s, err := common.CompositeRGBA(pix, wd, ht)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: V2 sprite %d,%d: %v", ErrDecodingFailed, n.group, n.image, err)
	}
	return s, nil, nil
}
