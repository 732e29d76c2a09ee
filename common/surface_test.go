package common

import (
	"bytes"
	"testing"
)

func TestCompositeIndexedTransparencyKey(t *testing.T) {
	pal := NewPalette()
	pal[0] = PackRGBA(9, 9, 9, 0xff) // must be ignored for index 0
	pal[3] = PackRGBA(10, 20, 30, 0xff)
	s, err := CompositeIndexed([]byte{0, 3, 3, 0}, 2, 2, pal)
	if err != nil {
		t.Fatalf("CompositeIndexed: %v", err)
	}
	if !bytes.Equal(s.Pix[0:4], []byte{0, 0, 0, 0}) {
		t.Fatalf("index 0 pixel = %v, want fully transparent", s.Pix[0:4])
	}
	if !bytes.Equal(s.Pix[4:8], []byte{10, 20, 30, 0xff}) {
		t.Fatalf("index 3 pixel = %v, want 10,20,30,255", s.Pix[4:8])
	}
}

func TestCompositeIndexedAlphaKeepsStoredAlpha(t *testing.T) {
	pal := NewPalette()
	pal[0] = PackRGBA(1, 2, 3, 77)
	pal[1] = PackRGBA(4, 5, 6, 128)
	s, err := CompositeIndexedAlpha([]byte{0, 1}, 2, 1, pal)
	if err != nil {
		t.Fatalf("CompositeIndexedAlpha: %v", err)
	}
	if !bytes.Equal(s.Pix, []byte{1, 2, 3, 77, 4, 5, 6, 128}) {
		t.Fatalf("pixels = %v", s.Pix)
	}
}

func TestCompositeLengthMismatch(t *testing.T) {
	if _, err := CompositeIndexed([]byte{1, 2, 3}, 2, 2, NewPalette()); err == nil {
		t.Fatal("short index buffer should fail")
	}
	if _, err := CompositeRGBA(make([]byte, 15), 2, 2); err == nil {
		t.Fatal("short truecolor buffer should fail")
	}
}

func TestSurfaceImage(t *testing.T) {
	s, err := CompositeRGBA([]byte{10, 20, 30, 0xff, 0, 0, 0, 0}, 2, 1)
	if err != nil {
		t.Fatalf("CompositeRGBA: %v", err)
	}
	img := s.Image()
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if !bytes.Equal(img.Pix, s.Pix) {
		t.Fatal("image pixels do not match the surface")
	}
}
