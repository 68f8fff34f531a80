package encoder

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/gomutex/godocx"
	wml "github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
	docxtpl "github.com/lukasjarosch/go-docx"

	"resume-builder/internal/domain"
	"resume-builder/pkg/surface"
)

// Page geometry in twentieths of a point: A4 with one inch on every side.
const (
	a4WidthTwips  = 11906
	a4HeightTwips = 16838
	marginTwips   = 1440
	headerTwips   = 720
)

const (
	headerPart = "word/header1.xml"
	corePart   = "docProps/core.xml"

	headerRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	headerContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"

	// codeRunStyle is the monospace character style shipped in the godocx
	// default template.
	codeRunStyle = "MacroTextChar"
	linkColor    = "0563C1"
)

var (
	bulletStyles  = []string{"ListBullet", "ListBullet2", "ListBullet3"}
	orderedStyles = []string{"ListNumber", "ListNumber2", "ListNumber3"}
)

// go-docx resets package-level run and fragment counters on every open.
var placeholderMu sync.Mutex

// DOCXEncoder writes the surface as a WordprocessingML package.
type DOCXEncoder struct{}

func NewDOCXEncoder() *DOCXEncoder { return &DOCXEncoder{} }

func (e *DOCXEncoder) Format() domain.Format { return domain.FormatDOCX }

func (e *DOCXEncoder) Encode(ctx context.Context, src Source) (*domain.Artifact, error) {
	if src.Surface == nil {
		return nil, conversionError(domain.FormatDOCX, domain.ErrEmptyContent)
	}
	if err := ctx.Err(); err != nil {
		return nil, conversionError(domain.FormatDOCX, err)
	}

	rd, err := godocx.NewDocument()
	if err != nil {
		return nil, conversionError(domain.FormatDOCX, fmt.Errorf("opening base document: %w", err))
	}
	layoutSection(rd)

	title := src.Surface.Title()
	if title == "" {
		title = strings.TrimSuffix(src.FileName, domain.FormatDOCX.Extension())
	}
	if err := attachHeader(rd, headerTitle(title)); err != nil {
		return nil, conversionError(domain.FormatDOCX, err)
	}
	rd.FileMap.Store(corePart, []byte(fmt.Sprintf(corePropsXML, escape(src.FileName))))

	b := &bodyBuilder{rd: rd}
	for _, blk := range src.Surface.Blocks {
		b.block(blk, 0)
	}

	var buf bytes.Buffer
	if err := rd.Write(&buf); err != nil {
		return nil, conversionError(domain.FormatDOCX, fmt.Errorf("writing package: %w", err))
	}
	return &domain.Artifact{
		FileName:  src.FileName,
		MediaType: domain.FormatDOCX.MediaType(),
		Format:    domain.FormatDOCX,
		Data:      buf.Bytes(),
	}, nil
}

func layoutSection(rd *wml.RootDoc) {
	body := rd.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	w, h := uint64(a4WidthTwips), uint64(a4HeightTwips)
	margin, edge, gutter := marginTwips, headerTwips, 0
	body.SectPr.PageSize = &ctypes.PageSize{Width: &w, Height: &h}
	body.SectPr.PageMargin = &ctypes.PageMargin{
		Top:    &margin,
		Right:  &margin,
		Bottom: &margin,
		Left:   &margin,
		Header: &edge,
		Footer: &edge,
		Gutter: &gutter,
	}
}

// attachHeader registers the header part on the default section and fills
// its title placeholder. It runs before any body text is added, so the
// placeholder pass never sees user content.
func attachHeader(rd *wml.RootDoc, title string) error {
	if err := rd.ContentType.AddOverride("/"+headerPart, headerContentType); err != nil {
		return err
	}
	id := fmt.Sprintf("rId%d", rd.Document.IncRelationID())
	rd.Document.DocRels.Relationships = append(rd.Document.DocRels.Relationships, &wml.Relationship{
		ID:     id,
		Type:   headerRelType,
		Target: strings.TrimPrefix(headerPart, "word/"),
	})
	rd.Document.Body.SectPr.HeaderReference = &ctypes.HeaderReference{Type: stypes.HdrFtrDefault, ID: id}
	rd.FileMap.Store(headerPart, []byte(headerXML))

	filled, err := fillHeader(rd, title)
	if err != nil {
		return err
	}
	rd.FileMap.Store(headerPart, filled)
	return nil
}

func fillHeader(rd *wml.RootDoc, title string) ([]byte, error) {
	var pkg bytes.Buffer
	if err := rd.Write(&pkg); err != nil {
		return nil, fmt.Errorf("writing header template: %w", err)
	}

	placeholderMu.Lock()
	defer placeholderMu.Unlock()

	doc, err := docxtpl.OpenBytes(pkg.Bytes())
	if err != nil {
		return nil, fmt.Errorf("opening header template: %w", err)
	}
	defer doc.Close()

	if err := doc.ReplaceAll(docxtpl.PlaceholderMap{"title": title}); err != nil {
		return nil, fmt.Errorf("filling header title: %w", err)
	}
	out := doc.GetFile(headerPart)
	if out == nil {
		return nil, fmt.Errorf("package has no %s", headerPart)
	}
	return out, nil
}

// headerTitle keeps letters, digits and plain punctuation; the header is
// filled as raw XML text.
func headerTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		case strings.ContainsRune(".,-_()'", r):
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

type bodyBuilder struct {
	rd *wml.RootDoc
}

func (b *bodyBuilder) block(blk surface.Block, depth int) {
	switch blk.Kind {
	case surface.KindHeading:
		p := b.rd.AddEmptyParagraph()
		p.Style(fmt.Sprintf("Heading%d", min(max(blk.Level, 1), 6)))
		b.spans(p, blk.Spans)
	case surface.KindList:
		styles := bulletStyles
		if blk.Ordered {
			styles = orderedStyles
		}
		style := styles[min(depth, len(styles)-1)]
		for _, it := range blk.Items {
			p := b.rd.AddEmptyParagraph()
			p.Style(style)
			b.spans(p, it.Spans)
			for _, c := range it.Children {
				b.block(c, depth+1)
			}
		}
	default:
		b.spans(b.rd.AddEmptyParagraph(), blk.Spans)
	}
}

// spans writes one run per line of each span. A link keeps its label in
// link colouring and, when the label is not the address, prints the address
// after it.
func (b *bodyBuilder) spans(p *wml.Paragraph, spans []surface.Span) {
	for _, sp := range spans {
		var r *wml.Run
		for i, line := range strings.Split(sp.Text, "\n") {
			if i > 0 {
				r.AddBreak(nil)
			}
			r = p.AddText(line)
			styleRun(r, sp)
		}
		if sp.Href != "" && sp.Href != sp.Text {
			p.AddText(" (" + sp.Href + ")")
		}
	}
}

func styleRun(r *wml.Run, sp surface.Span) {
	if sp.Bold {
		r.Bold(true)
	}
	if sp.Italic {
		r.Italic(true)
	}
	if sp.Code {
		r.Style(codeRunStyle)
	}
	if sp.Href != "" {
		r.Color(linkColor).Underline(stypes.UnderlineSingle)
	}
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
