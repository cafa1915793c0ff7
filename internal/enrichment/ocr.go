package enrichment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// OCR performs best-effort text recognition over an image blob. Failure is
// never fatal; callers treat a returned error as "leave the fields empty".
type OCR interface {
	Recognize(ctx context.Context, imagePath string) (text string, err error)
}

// noOCR is the default: this module ships no bundled OCR engine, so image
// enrichment always falls back to the deterministic caption below unless a
// real OCR implementation is wired in at Pipeline construction (e.g. a
// local tesseract binary wrapper).
type noOCR struct{}

func (noOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	return "", fmt.Errorf("no ocr engine configured")
}

// deterministicCaption derives a short, stable caption from the filename
// alone when OCR is unavailable, so images still get some searchable text
// instead of none.
func deterministicCaption(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "image"
	}
	return "image: " + name
}
