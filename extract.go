// Command sffextract pulls character portraits and stage previews out of
// SFF sprite archives and writes them as PNG files next to the archive.
// Archives are independent of each other, so a batch is decoded
// concurrently on a bounded worker group.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"github.com/sourcekris/sffextract/common"
	"github.com/sourcekris/sffextract/sff"
)

var savePalette = flag.Bool("pal", false, "also write the resolved portrait palette as an .act file")

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: sffextract [-pal] <file.sff> [file2.sff ...]")
		os.Exit(1)
	}

	var extracted atomic.Int64
	wg := sizedwaitgroup.New(runtime.NumCPU())
	for _, path := range flag.Args() {
		wg.Add()
		go func(path string) {
			defer wg.Done()
			if extractOne(path) {
				extracted.Add(1)
			}
		}(path)
	}
	wg.Wait()

	if extracted.Load() == 0 {
		os.Exit(1)
	}
}

// extractOne writes whatever the archive yields: a portrait, a stage
// preview, or both. It reports true when at least one image was written.
func extractOne(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))

	var extPal []byte
	if b, err := os.ReadFile(base + ".act"); err == nil && len(b) >= 768 {
		extPal = b
	}

	wrote := 0
	portrait, pal, err := sff.ExtractPortraitWithPalette(data, extPal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: portrait: %v\n", path, err)
	} else if err := writePNG(base+"_portrait.png", portrait); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
	} else {
		fmt.Printf("%s: wrote %dx%d portrait (%s archive)\n",
			path, portrait.Width, portrait.Height, humanize.Bytes(uint64(len(data))))
		wrote++
		if *savePalette && pal != nil {
			actPath := base + "_portrait.act"
			if err := os.WriteFile(actPath, pal.RGB(), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			} else {
				fmt.Printf("%s: wrote palette %s\n", path, actPath)
			}
		}
	}

	preview, err := sff.ExtractStagePreview(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: stage preview: %v\n", path, err)
	} else if err := writePNG(base+"_preview.png", preview); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
	} else {
		fmt.Printf("%s: wrote %dx%d stage preview (%s archive)\n",
			path, preview.Width, preview.Height, humanize.Bytes(uint64(len(data))))
		wrote++
	}
	return wrote > 0
}

func writePNG(path string, s *common.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, s.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
