package surface

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// markdown is CommonMark without extensions; the canonical renderer emits
// nothing beyond headings, paragraphs, lists, emphasis and links.
var markdown = goldmark.New()

// Convert parses a canonical document into a Surface. It never fails.
func Convert(doc string) *Surface {
	src := []byte(doc)
	root := markdown.Parser().Parse(text.NewReader(src))

	s := &Surface{Blocks: []Block{}}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		s.Blocks = append(s.Blocks, convertBlock(n, src)...)
	}
	return s
}

func convertBlock(n ast.Node, src []byte) []Block {
	switch v := n.(type) {
	case *ast.Heading:
		return []Block{{Kind: KindHeading, Level: v.Level, Spans: inlineSpans(v, src)}}
	case *ast.Paragraph, *ast.TextBlock:
		return paragraph(inlineSpans(v, src))
	case *ast.List:
		list := Block{Kind: KindList, Ordered: v.IsOrdered()}
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			list.Items = append(list.Items, convertItem(c, src))
		}
		return []Block{list}
	case *ast.ThematicBreak:
		return nil
	case *ast.Blockquote:
		var out []Block
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, convertBlock(c, src)...)
		}
		return out
	}
	// Code blocks, raw HTML and anything unforeseen keep their text.
	return paragraph([]Span{{Text: rawText(n, src)}})
}

func convertItem(n ast.Node, src []byte) Item {
	var it Item
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if it.Spans == nil && len(it.Children) == 0 {
				it.Spans = inlineSpans(c, src)
				continue
			}
		}
		it.Children = append(it.Children, convertBlock(c, src)...)
	}
	return it
}

func paragraph(spans []Span) []Block {
	if strings.TrimSpace(PlainText(spans)) == "" {
		return nil
	}
	return []Block{{Kind: KindParagraph, Spans: spans}}
}

type style struct {
	bold, italic, code bool
	href               string
}

func inlineSpans(n ast.Node, src []byte) []Span {
	var out []Span
	collectInline(n, src, style{}, &out)
	if k := len(out) - 1; k >= 0 {
		out[k].Text = strings.TrimRight(out[k].Text, "\n")
		if out[k].Text == "" {
			out = out[:k]
		}
	}
	return out
}

func collectInline(n ast.Node, src []byte, st style, out *[]Span) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			t := string(util.UnescapePunctuations(v.Segment.Value(src)))
			if v.SoftLineBreak() || v.HardLineBreak() {
				t += "\n"
			}
			appendSpan(out, st, t)
		case *ast.String:
			appendSpan(out, st, string(v.Value))
		case *ast.Emphasis:
			inner := st
			if v.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			collectInline(v, src, inner, out)
		case *ast.CodeSpan:
			inner := st
			inner.code = true
			collectInline(v, src, inner, out)
		case *ast.Link:
			inner := st
			inner.href = string(v.Destination)
			collectInline(v, src, inner, out)
		case *ast.AutoLink:
			inner := st
			inner.href = string(v.URL(src))
			appendSpan(out, inner, string(v.Label(src)))
		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				appendSpan(out, st, string(seg.Value(src)))
			}
		default:
			collectInline(c, src, st, out)
		}
	}
}

// appendSpan merges t into the previous span when the style matches.
func appendSpan(out *[]Span, st style, t string) {
	if t == "" {
		return
	}
	sp := Span{Text: t, Bold: st.bold, Italic: st.italic, Code: st.code, Href: st.href}
	if k := len(*out) - 1; k >= 0 && (*out)[k].sameStyle(sp) {
		(*out)[k].Text += t
		return
	}
	*out = append(*out, sp)
}

// rawText recovers the source text of a block node from its lines, falling
// back to its inline children.
func rawText(n ast.Node, src []byte) string {
	var b strings.Builder
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
	}
	if b.Len() == 0 {
		b.WriteString(PlainText(inlineSpans(n, src)))
	}
	return strings.TrimRight(b.String(), "\n")
}
