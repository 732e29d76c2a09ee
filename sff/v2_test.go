package sff

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestV2StagePreviewRaw8(t *testing.T) {
	// A 64x32 uncompressed 8-bit stage sprite with its palette in the
	// archive's palette table.
	data := buildV2(
		[]v2Sprite{{
			group: 0, image: 0, w: 64, h: 32, format: 0, depth: 8,
			data: bytes.Repeat([]byte{3}, 64*32),
		}},
		[]v2Pal{{data: rgbaPalette(map[int][4]byte{3: {40, 50, 60, 0xff}})}},
	)
	s, err := ExtractStagePreview(data)
	if err != nil {
		t.Fatalf("ExtractStagePreview: %v", err)
	}
	if s.Width != 64 || s.Height != 32 {
		t.Fatalf("got %dx%d, want 64x32", s.Width, s.Height)
	}
	if !bytes.Equal(s.Pix[:4], []byte{40, 50, 60, 0xff}) {
		t.Fatalf("first pixel = %v, want palette color 3", s.Pix[:4])
	}
}

func TestV2PortraitPrefersLargeGroup9000(t *testing.T) {
	pal := []v2Pal{{data: rgbaPalette(map[int][4]byte{1: {50, 50, 50, 0xff}})}}
	data := buildV2(
		[]v2Sprite{
			{group: 9000, image: 0, w: 32, h: 32, depth: 8, data: bytes.Repeat([]byte{1}, 32*32)},
			{group: 9000, image: 1, w: 120, h: 120, depth: 8, data: bytes.Repeat([]byte{1}, 120*120)},
		},
		pal,
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if s.Width != 120 || s.Height != 120 {
		t.Fatalf("got %dx%d, want the 120x120 sprite", s.Width, s.Height)
	}
}

func TestV2PortraitSmallFallback(t *testing.T) {
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 0, w: 32, h: 32, depth: 8, data: bytes.Repeat([]byte{1}, 32*32)}},
		[]v2Pal{{data: rgbaPalette(nil)}},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if s.Width != 32 || s.Height != 32 {
		t.Fatalf("got %dx%d, want the small group-9000 sprite", s.Width, s.Height)
	}
}

func TestV2PortraitStandIn(t *testing.T) {
	data := buildV2(
		[]v2Sprite{{group: 0, image: 0, w: 64, h: 64, depth: 8, data: bytes.Repeat([]byte{1}, 64*64)}},
		[]v2Pal{{data: rgbaPalette(nil)}},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if s.Width != 64 || s.Height != 64 {
		t.Fatalf("got %dx%d, want the group-0/image-0 sprite", s.Width, s.Height)
	}
}

func TestV2LinkedSpriteSkipped(t *testing.T) {
	data := buildV2(
		[]v2Sprite{
			{group: 9000, image: 1, w: 120, h: 120, link: 5, depth: 8, data: []byte{0xde, 0xad}},
			{group: 9000, image: 2, w: 100, h: 100, depth: 8, data: bytes.Repeat([]byte{1}, 100*100)},
		},
		[]v2Pal{{data: rgbaPalette(nil)}},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if s.Width != 100 || s.Height != 100 {
		t.Fatalf("got %dx%d, want the unlinked sprite", s.Width, s.Height)
	}
}

func TestV2RLE8Sprite(t *testing.T) {
	// Sub-header plus RLE8 body: literal 0, run of four 2s, run of two
	// 3s, literal 9.
	payload := []byte{0, 0, 0, 0, 0x00, 0x44, 0x02, 0x42, 0x03, 0x09}
	data := buildV2(
		[]v2Sprite{{group: 0, image: 0, w: 8, h: 1, format: 2, depth: 8, data: payload}},
		[]v2Pal{{data: rgbaPalette(map[int][4]byte{
			2: {10, 0, 0, 0xff},
			3: {0, 10, 0, 0xff},
			9: {0, 0, 10, 0xff},
		})}},
	)
	s, err := ExtractStagePreview(data)
	if err != nil {
		t.Fatalf("ExtractStagePreview: %v", err)
	}
	want := []byte{
		0, 0, 0, 0, // index 0: transparent
		10, 0, 0, 0xff, 10, 0, 0, 0xff, 10, 0, 0, 0xff, 10, 0, 0, 0xff,
		0, 10, 0, 0xff, 0, 10, 0, 0xff,
		0, 0, 10, 0xff,
	}
	if !bytes.Equal(s.Pix, want) {
		t.Fatalf("pixels = %v, want %v", s.Pix, want)
	}
}

func TestV2LZ5Truncated(t *testing.T) {
	// An LZ5 stream that runs dry must fail the candidate cleanly; with
	// no fallback the extraction reports ErrSpriteNotFound.
	payload := []byte{0, 0, 0, 0, 0x00, 0x62}
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 100, h: 100, format: 4, depth: 8, data: payload}},
		[]v2Pal{{data: rgbaPalette(nil)}},
	)
	_, err := ExtractPortrait(data, nil)
	if !errors.Is(err, ErrSpriteNotFound) {
		t.Fatalf("err = %v, want ErrSpriteNotFound", err)
	}
}

func TestV2PaletteLinkChain(t *testing.T) {
	// Palette node 0 carries no data and links to node 1.
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 60, h: 60, depth: 8, palIdx: 0,
			data: bytes.Repeat([]byte{1}, 60*60)}},
		[]v2Pal{
			{link: 1},
			{data: rgbaPalette(map[int][4]byte{1: {200, 30, 30, 0xff}})},
		},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if !bytes.Equal(s.Pix[:4], []byte{200, 30, 30, 0xff}) {
		t.Fatalf("first pixel = %v, want the linked palette color", s.Pix[:4])
	}
}

func TestV2SelfLinkedPaletteFallsBack(t *testing.T) {
	// A palette node linking to itself resolves to nothing; the external
	// palette backfills.
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 60, h: 60, depth: 8,
			data: bytes.Repeat([]byte{5}, 60*60)}},
		[]v2Pal{{link: 0}},
	)
	ext := rgbPalette(map[int][3]byte{5: {0, 0, 200}})
	s, err := ExtractPortrait(data, ext)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if !bytes.Equal(s.Pix[:4], []byte{0, 0, 200, 0xff}) {
		t.Fatalf("first pixel = %v, want external palette color", s.Pix[:4])
	}
}

func TestV2TDataRegion(t *testing.T) {
	// Flags bit 0 set: the payload lives in t-data, not l-data.
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 60, h: 60, depth: 8, flags: 1,
			data: bytes.Repeat([]byte{1}, 60*60)}},
		[]v2Pal{{data: rgbaPalette(map[int][4]byte{1: {7, 8, 9, 0xff}})}},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if !bytes.Equal(s.Pix[:4], []byte{7, 8, 9, 0xff}) {
		t.Fatalf("first pixel = %v", s.Pix[:4])
	}
}

func TestV2Raw32Truecolor(t *testing.T) {
	pix := bytes.Repeat([]byte{1, 2, 3, 0x80}, 60*60)
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 60, h: 60, format: 0, depth: 32, data: pix}},
		nil,
	)
	s, pal, err := ExtractPortraitWithPalette(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortraitWithPalette: %v", err)
	}
	if pal != nil {
		t.Fatal("truecolor sprite should return a nil palette")
	}
	if !bytes.Equal(s.Pix[:4], []byte{1, 2, 3, 0x80}) {
		t.Fatalf("first pixel = %v", s.Pix[:4])
	}
}

func TestV2EmbeddedPNGReindexed(t *testing.T) {
	// Format 10: the PNG's own colors are ignored; indices go through
	// the archive palette, whose stored alpha survives, index 0
	// included.
	src := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{
		color.RGBA{A: 0xff},
		color.RGBA{R: 0xff, A: 0xff},
	})
	for i := range src.Pix {
		src.Pix[i] = 1
	}
	src.Pix[0] = 0
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 8, h: 8, format: 10, depth: 8, data: buf.Bytes()}},
		[]v2Pal{{data: rgbaPalette(map[int][4]byte{
			0: {1, 2, 3, 77},
			1: {100, 110, 120, 90},
		})}},
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if !bytes.Equal(s.Pix[:4], []byte{1, 2, 3, 77}) {
		t.Fatalf("index 0 pixel = %v, want stored-alpha entry 0", s.Pix[:4])
	}
	if !bytes.Equal(s.Pix[4:8], []byte{100, 110, 120, 90}) {
		t.Fatalf("index 1 pixel = %v, want stored-alpha entry 1", s.Pix[4:8])
	}
}

func TestV2EmbeddedPNGTruecolor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 5, 6, 7, 0xff
	}
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 6, h: 4, format: 12, depth: 32, data: buf.Bytes()}},
		nil,
	)
	s, err := ExtractPortrait(data, nil)
	if err != nil {
		t.Fatalf("ExtractPortrait: %v", err)
	}
	if s.Width != 6 || s.Height != 4 {
		t.Fatalf("got %dx%d, want 6x4", s.Width, s.Height)
	}
	if !bytes.Equal(s.Pix[:4], []byte{5, 6, 7, 0xff}) {
		t.Fatalf("first pixel = %v", s.Pix[:4])
	}
}

func TestV2DataOutsideFile(t *testing.T) {
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 60, h: 60, depth: 8,
			data: bytes.Repeat([]byte{1}, 60*60)}},
		nil,
	)
	// Push the payload offset past the end of the file.
	nodeBase := 64
	data[nodeBase+16] = 0xff
	data[nodeBase+17] = 0xff
	data[nodeBase+18] = 0xff
	_, err := ExtractPortrait(data, nil)
	if !errors.Is(err, ErrSpriteNotFound) {
		t.Fatalf("err = %v, want ErrSpriteNotFound", err)
	}
}

func TestV2OversizedDimensionsRejected(t *testing.T) {
	data := buildV2(
		[]v2Sprite{{group: 9000, image: 1, w: 5000, h: 60, depth: 8, data: []byte{1}}},
		nil,
	)
	_, err := ExtractPortrait(data, nil)
	if !errors.Is(err, ErrSpriteNotFound) {
		t.Fatalf("err = %v, want ErrSpriteNotFound", err)
	}
}
