package infrastructure

import (
	"fmt"

	"resume-builder/pkg/encoder"
)

const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

var (
	_ encoder.Rasterizer = (*ChromedpRasterizer)(nil)
	_ encoder.Rasterizer = (*RodRasterizer)(nil)
)

// NewRasterizer picks the off-screen engine by name; empty means chromedp.
func NewRasterizer(engine string, opts RasterOptions) (encoder.Rasterizer, error) {
	switch engine {
	case "", EngineChromedp:
		return NewChromedpRasterizer(opts), nil
	case EngineRod:
		return NewRodRasterizer(opts), nil
	}
	return nil, fmt.Errorf("unknown render engine %q", engine)
}
