package encoder

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	wml "github.com/gomutex/godocx/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"resume-builder/internal/domain"
)

func TestDOCXEncoder_Stable(t *testing.T) {
	src := source(janeDoe, "Jane_Doe_Resume.docx")

	first, err := NewDOCXEncoder().Encode(context.Background(), src)
	require.NoError(t, err)
	second, err := NewDOCXEncoder().Encode(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaTypeDOCX, first.MediaType)

	// godocx writes the document root namespaces from a map, so only the
	// body of document.xml is compared byte for byte.
	for _, name := range []string{"word/styles.xml", "word/numbering.xml", headerPart, corePart, "word/_rels/document.xml.rels", "[Content_Types].xml"} {
		assert.Equal(t, zipPart(t, first.Data, name), zipPart(t, second.Data, name), name)
	}
	assert.Equal(t, docBody(t, first.Data), docBody(t, second.Data))

	doc := docBody(t, first.Data)
	headings := strings.Count(doc, `<w:pStyle w:val="Heading`)
	assert.Equal(t, len(src.Surface.Headings()), headings)
	assert.Equal(t, 1, strings.Count(doc, `w:val="Heading1"`))
	assert.Equal(t, 2, strings.Count(doc, `w:val="Heading2"`))
	assert.Equal(t, 1, strings.Count(doc, `w:val="Heading3"`))
}

func TestDOCXEncoder_Content(t *testing.T) {
	a, err := NewDOCXEncoder().Encode(context.Background(), source(janeDoe, "Jane_Doe_Resume.docx"))
	require.NoError(t, err)

	doc := docBody(t, a.Data)
	assert.Contains(t, doc, `<w:pgSz w:w="11906" w:h="16838"`)
	pgMar := regexp.MustCompile(`<w:pgMar [^>]*>`).FindString(doc)
	for _, side := range []string{"top", "right", "bottom", "left"} {
		assert.Contains(t, pgMar, `w:`+side+`="1440"`)
	}
	assert.Regexp(t, `<w:rPr><w:b w:val="true"></w:b></w:rPr><w:t>Ledger</w:t>`, doc)
	assert.Regexp(t, `<w:rPr><w:i w:val="true"></w:i></w:rPr><w:t>things</w:t>`, doc)
	assert.Regexp(t, `<w:rStyle w:val="MacroTextChar"></w:rStyle></w:rPr><w:t>Go</w:t>`, doc)
	assert.Contains(t, doc, `<w:pStyle w:val="ListBullet"></w:pStyle>`)
	assert.Contains(t, doc, `<w:pStyle w:val="ListBullet2"></w:pStyle>`, "nested achievements list")

	assert.Contains(t, doc, `w:val="0563C1"`)
	assert.Contains(t, doc, "LinkedIn</w:t>")
	assert.Contains(t, doc, " (https://www.linkedin.com/in/janedoe)</w:t>")

	ref := regexp.MustCompile(`<w:headerReference w:type="default" r:id="(rId\d+)"`).FindStringSubmatch(doc)
	require.Len(t, ref, 2)
	rels := zipPart(t, a.Data, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Id="`+ref[1]+`" Type="`+headerRelType+`" Target="header1.xml"`)
	assert.Contains(t, zipPart(t, a.Data, "[Content_Types].xml"), `PartName="/word/header1.xml"`)

	core, err := wml.LoadDocProps([]byte(zipPart(t, a.Data, corePart)))
	require.NoError(t, err)
	assert.Equal(t, "Jane_Doe_Resume.docx", core.Title)

	header := zipPart(t, a.Data, headerPart)
	assert.Contains(t, header, "Jane Doe")
	assert.NotContains(t, header, "{title}")
}

func TestDOCXEncoder_EscapesText(t *testing.T) {
	a, err := NewDOCXEncoder().Encode(context.Background(), source("# A & B <C>\n", "x.docx"))
	require.NoError(t, err)

	assert.Contains(t, docBody(t, a.Data), "A &amp; B &lt;C&gt;")
	assert.Contains(t, zipPart(t, a.Data, headerPart), "A B C")
}

func TestDOCXEncoder_BodyPlaceholderIsLiteral(t *testing.T) {
	a, err := NewDOCXEncoder().Encode(context.Background(), source("# Jane\n\nUse {title} here\n", "x.docx"))
	require.NoError(t, err)

	assert.Contains(t, docBody(t, a.Data), "Use {title} here")
	assert.Contains(t, zipPart(t, a.Data, headerPart), ">Jane<")
}

func TestDOCXEncoder_Concurrent(t *testing.T) {
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := NewDOCXEncoder().Encode(context.Background(), source(janeDoe, "Jane_Doe_Resume.docx"))
			return err
		})
	}
	require.NoError(t, g.Wait())
}

func TestDOCXEncoder_NoSurface(t *testing.T) {
	_, err := NewDOCXEncoder().Encode(context.Background(), Source{FileName: "x.docx"})
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindConversion, de.Kind)
	assert.Equal(t, "Failed to convert to DOCX", de.Message)
}

func TestHeaderTitle(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "Jane Doe"},
		{"  José   Ñúñez ", "José Ñúñez"},
		{"{title} <b>", "title b"},
		{"O'Brien, Jr.", "O'Brien, Jr."},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, headerTitle(tc.in))
	}
}

func docBody(t *testing.T, pkg []byte) string {
	t.Helper()
	doc := zipPart(t, pkg, "word/document.xml")
	i := strings.Index(doc, "<w:body>")
	require.GreaterOrEqual(t, i, 0)
	return doc[i:]
}
