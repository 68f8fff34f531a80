package encoder

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"resume-builder/pkg/surface"
)

const janeDoe = `# Jane Doe

jane@x.com | 555-0100 | NYC | [LinkedIn](https://www.linkedin.com/in/janedoe)

## Work Experience

### Engineer at Acme
2020 - 2023

Built *things* with ` + "`Go`" + `.

**Projects:**

- **Ledger**: Double-entry store
  - Achievements: Cut latency 40%

## Skills

- Go
- SQL
`

func source(md, fileName string) Source {
	return Source{Markdown: md, Surface: surface.Convert(md), FileName: fileName}
}

// grayPNG returns an encoded w x h image.
func grayPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		img.SetGray(w/2, y, color.Gray{Y: uint8(y % 256)})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func zipPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func pdfPages(doc []byte) int {
	return bytes.Count(doc, []byte("/Type /Page")) - bytes.Count(doc, []byte("/Type /Pages"))
}
