package codec

import (
	"bytes"
	"testing"
)

func TestRLE5ExplicitColor(t *testing.T) {
	// Run length 2, descriptor with the explicit-color bit and no packed
	// groups, color byte 5: three pixels of 5.
	got, err := RLE5([]byte{0x02, 0x80, 0x05}, 3, 1)
	if err != nil {
		t.Fatalf("RLE5: %v", err)
	}
	want := []byte{5, 5, 5}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRLE5PackedGroups(t *testing.T) {
	// Explicit color 7 once, then two packed groups: (run 1, color 5) and
	// (run 3, color 1).
	src := []byte{0x00, 0x82, 0x07, 0x25, 0x61}
	got, err := RLE5(src, 7, 1)
	if err != nil {
		t.Fatalf("RLE5: %v", err)
	}
	want := []byte{7, 5, 5, 1, 1, 1, 1}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRLE5ImplicitColorZero(t *testing.T) {
	// Descriptor without the explicit-color bit starts the packet with
	// color 0.
	got, err := RLE5([]byte{0x01, 0x00}, 2, 1)
	if err != nil {
		t.Fatalf("RLE5: %v", err)
	}
	want := []byte{0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRLE5Truncated(t *testing.T) {
	if _, err := RLE5([]byte{0x02}, 3, 1); err == nil {
		t.Fatal("missing descriptor byte should fail")
	}
	if _, err := RLE5([]byte{0x02, 0x80}, 3, 1); err == nil {
		t.Fatal("missing color byte should fail")
	}
	if _, err := RLE5([]byte{0x00, 0x82, 0x07}, 7, 1); err == nil {
		t.Fatal("missing group bytes should fail")
	}
}
