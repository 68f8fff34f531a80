// Package encoder turns a canonical résumé document into downloadable
// artifacts. Each encoder is constructed per request and keeps no state
// between calls.
package encoder

import (
	"context"
	"math"

	"resume-builder/internal/domain"
	"resume-builder/pkg/surface"
)

// Source is the input shared by every encoder: the canonical Markdown, the
// surface converted from it, and the artifact file name.
type Source struct {
	Markdown string
	Surface  *surface.Surface
	FileName string
}

// Encoder produces one artifact format.
type Encoder interface {
	Format() domain.Format
	Encode(ctx context.Context, src Source) (*domain.Artifact, error)
}

// Viewport is the off-screen rendering area in CSS pixels. Height is the
// initial viewport height; full-page captures grow past it but never below.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Rasterizer renders an HTML page into a single PNG image.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string, vp Viewport) ([]byte, error)
}

// PageLayout describes the physical page in millimetres.
type PageLayout struct {
	WidthMM  float64
	HeightMM float64
}

// HeightPx is the tallest viewport height, in whole pixels, whose capture at
// the given width still fits on one page.
func (l PageLayout) HeightPx(width int) int {
	if l.WidthMM <= 0 {
		return 0
	}
	return int(math.Floor(float64(width) * l.HeightMM / l.WidthMM))
}

// A4 is the page used by every paginated artifact.
var A4 = PageLayout{WidthMM: 210, HeightMM: 297}

// Assembler places one image on successive pages, shifted by offsets.
type Assembler interface {
	Assemble(png []byte, offsets []float64, layout PageLayout) ([]byte, error)
}

func conversionError(f domain.Format, err error) error {
	return domain.NewConversionError(f, err)
}
