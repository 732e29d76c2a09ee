// Package sff extracts still images from Elecbyte sprite archives, the
// container format used by fighting-game content packages. Both container
// generations are supported: the v1 linked-list layout and the v2 flat
// index. The package is decode-only and exposes two operations, portrait
// extraction and stage-preview extraction, each with a byte-buffer and a
// file-path form.
//
// Extraction is a pure function of (archive bytes, optional external
// palette); there is no shared state between calls, so callers may run
// independent extractions concurrently.
package sff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcekris/sffextract/common"
)

// Failure taxonomy. Returned errors wrap one of these sentinels; match with
// errors.Is.
var (
	ErrFileNotFound       = errors.New("sff: file not found")
	ErrFileTooSmall       = errors.New("sff: file too small")
	ErrInvalidSignature   = errors.New("sff: invalid signature")
	ErrUnsupportedVersion = errors.New("sff: unsupported version")
	ErrSpriteNotFound     = errors.New("sff: no decodable sprite found")
	ErrCorruptedData      = errors.New("sff: corrupted data")
	ErrDecodingFailed     = errors.New("sff: decoding failed")
	ErrInvalidDimensions  = errors.New("sff: invalid dimensions")
)

// maxDim is a defensive ceiling on declared sprite dimensions, rejected
// before any pixel buffer is allocated.
const maxDim = 4096

type useCase int

const (
	usePortrait useCase = iota
	useStagePreview
)

// record is a located-but-undecoded sprite: version-neutral identity and
// declared size, plus the version-specific descriptor the walker needs to
// decode it. Records are transient; the facade hands each one straight
// back to the walker that produced it.
type record struct {
	group  int16
	image  int16
	width  int
	height int

	v1 *subfile
	v2 *spriteNode
}

// tableWalker is implemented once per container generation so that the
// candidate fallback loop is written only once.
type tableWalker interface {
	// locateCandidates returns candidate sprites for a use case, in
	// decreasing order of preference.
	locateCandidates(use useCase) []record
	// decode decompresses one candidate, resolves its palette and
	// composites the final surface. The resolved palette accompanies
	// indexed sprites; truecolor sprites return a nil palette.
	decode(rec record, extPal []byte) (*common.Surface, common.Palette, error)
}

// ExtractPortrait decodes a character select-screen portrait from an
// archive held in memory. externalPal optionally supplies 768 or more
// bytes of RGB palette data used to backfill sprites that carry no palette
// of their own; the archive's embedded palettes always take priority.
func ExtractPortrait(archive, externalPal []byte) (*common.Surface, error) {
	s, _, err := extract(archive, externalPal, usePortrait)
	return s, err
}

// ExtractPortraitWithPalette is ExtractPortrait for callers that also want
// the color table the decode resolved, e.g. to export it as an .act file.
// The palette is nil for truecolor portraits.
func ExtractPortraitWithPalette(archive, externalPal []byte) (*common.Surface, common.Palette, error) {
	return extract(archive, externalPal, usePortrait)
}

// ExtractStagePreview decodes a stage background preview from an archive
// held in memory.
func ExtractStagePreview(archive []byte) (*common.Surface, error) {
	s, _, err := extract(archive, nil, useStagePreview)
	return s, err
}

// ExtractPortraitFile reads path and decodes its portrait. A sibling file
// with the same base name and an .act extension, when present and at least
// 768 bytes long, is used as the external palette.
func ExtractPortraitFile(path string) (*common.Surface, error) {
	data, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	var pal []byte
	if b, err := os.ReadFile(siblingPalettePath(path)); err == nil && len(b) >= 768 {
		pal = b
	}
	return ExtractPortrait(data, pal)
}

// ExtractStagePreviewFile reads path and decodes its stage preview.
func ExtractStagePreviewFile(path string) (*common.Surface, error) {
	data, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	return ExtractStagePreview(data)
}

func extract(data, extPal []byte, use useCase) (*common.Surface, common.Palette, error) {
	a, err := open(data)
	if err != nil {
		return nil, nil, err
	}
	if len(extPal) >= 768 {
		extPal = extPal[:768]
	} else {
		extPal = nil
	}

	var w tableWalker
	switch a.ver {
	case V1:
		w = newV1Walker(a)
	default:
		w = &v2Walker{a: a}
	}

	// Failures are local to one candidate; the next fallback gets its
	// chance. Only a fully exhausted candidate list surfaces an error.
	var lastErr error
	for _, rec := range w.locateCandidates(use) {
		s, pal, err := w.decode(rec, extPal)
		if err == nil {
			return s, pal, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("%w (last candidate: %v)", ErrSpriteNotFound, lastErr)
	}
	return nil, nil, ErrSpriteNotFound
}

func readArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

func siblingPalettePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".act"
}

func checkDims(w, h int) error {
	if w < 1 || h < 1 || w > maxDim || h > maxDim {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return nil
}
