package encoder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const rasterImageName = "raster"

// PDFAssembler builds the paginated document with gofpdf.
type PDFAssembler struct{}

func NewPDFAssembler() *PDFAssembler { return &PDFAssembler{} }

// Assemble adds one page per offset and draws the full-width image at
// (0, offset) so consecutive pages show consecutive slices.
func (a *PDFAssembler) Assemble(png []byte, offsets []float64, layout PageLayout) ([]byte, error) {
	if len(offsets) == 0 {
		return nil, errors.New("assembling pdf: no pages")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: layout.WidthMM, Ht: layout.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("resume-builder", true)

	opts := gofpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	info := pdf.RegisterImageOptionsReader(rasterImageName, opts, bytes.NewReader(png))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("registering raster: %w", err)
	}
	imgHeight := info.Height() * layout.WidthMM / info.Width()

	for _, y := range offsets {
		pdf.AddPage()
		pdf.ImageOptions(rasterImageName, 0, y, layout.WidthMM, imgHeight, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
