package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"

	"resume-builder/internal/domain"
)

const (
	DefaultDPI   = 96
	DefaultScale = 2
	mmPerInch    = 25.4
)

// RasterEncoder renders the surface off-screen into one tall image and
// slices it over A4 pages. The text of the result is not selectable.
type RasterEncoder struct {
	rasterizer Rasterizer
	assembler  Assembler
	layout     PageLayout
	dpi        int
	scale      float64
}

type RasterOption func(*RasterEncoder)

// WithResolution sets the CSS pixel density and device scale factor.
func WithResolution(dpi int, scale float64) RasterOption {
	return func(e *RasterEncoder) {
		if dpi > 0 {
			e.dpi = dpi
		}
		if scale > 0 {
			e.scale = scale
		}
	}
}

func NewRasterEncoder(r Rasterizer, a Assembler, opts ...RasterOption) *RasterEncoder {
	e := &RasterEncoder{
		rasterizer: r,
		assembler:  a,
		layout:     A4,
		dpi:        DefaultDPI,
		scale:      DefaultScale,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *RasterEncoder) Format() domain.Format { return domain.FormatPDF }

// Viewport is the page width in CSS pixels. Its height is one page rounded
// down, so content shorter than a page is captured as a single page.
func (e *RasterEncoder) Viewport() Viewport {
	w := int(math.Round(e.layout.WidthMM / mmPerInch * float64(e.dpi)))
	return Viewport{Width: w, Height: e.layout.HeightPx(w), Scale: e.scale}
}

// Encode fails as a whole: any rasterizer or assembler error yields no
// artifact.
func (e *RasterEncoder) Encode(ctx context.Context, src Source) (*domain.Artifact, error) {
	if src.Surface == nil {
		return nil, conversionError(domain.FormatPDF, domain.ErrEmptyContent)
	}
	html, err := src.Surface.HTML(src.FileName)
	if err != nil {
		return nil, conversionError(domain.FormatPDF, err)
	}

	raster, err := e.rasterizer.Rasterize(ctx, html, e.Viewport())
	if err != nil {
		return nil, conversionError(domain.FormatPDF, fmt.Errorf("rasterizing: %w", err))
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raster))
	if err != nil {
		return nil, conversionError(domain.FormatPDF, fmt.Errorf("decoding raster: %w", err))
	}

	// The last raster row may be capture rounding; it never opens a page.
	imgHeight := ScaledHeight(cfg.Width, cfg.Height-1, e.layout.WidthMM)
	offsets := Paginate(imgHeight, e.layout.HeightMM)

	data, err := e.assembler.Assemble(raster, offsets, e.layout)
	if err != nil {
		return nil, conversionError(domain.FormatPDF, err)
	}
	return &domain.Artifact{
		FileName:  src.FileName,
		MediaType: domain.FormatPDF.MediaType(),
		Format:    domain.FormatPDF,
		Pages:     len(offsets),
		Data:      data,
	}, nil
}
