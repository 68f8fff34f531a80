package surface

import "strings"

// Kind identifies a block type.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindList      Kind = "list"
)

// Span is a run of inline text sharing one style.
type Span struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Code   bool   `json:"code,omitempty"`
	Href   string `json:"href,omitempty"`
}

func (s Span) sameStyle(o Span) bool {
	return s.Bold == o.Bold && s.Italic == o.Italic && s.Code == o.Code && s.Href == o.Href
}

// Block is a heading, paragraph or list.
type Block struct {
	Kind    Kind   `json:"kind"`
	Level   int    `json:"level,omitempty"`
	Spans   []Span `json:"spans,omitempty"`
	Ordered bool   `json:"ordered,omitempty"`
	Items   []Item `json:"items,omitempty"`
}

// Item is one list entry.
type Item struct {
	Spans    []Span  `json:"spans,omitempty"`
	Children []Block `json:"children,omitempty"`
}

// Surface is the converted document.
type Surface struct {
	Blocks []Block `json:"blocks"`
}

// Headings returns every heading block, nested ones included, in order.
func (s *Surface) Headings() []Block {
	var out []Block
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for _, b := range blocks {
			if b.Kind == KindHeading {
				out = append(out, b)
			}
			for _, it := range b.Items {
				walk(it.Children)
			}
		}
	}
	walk(s.Blocks)
	return out
}

// Title is the text of the first level-1 heading, or "".
func (s *Surface) Title() string {
	for _, h := range s.Headings() {
		if h.Level == 1 {
			return PlainText(h.Spans)
		}
	}
	return ""
}

// PlainText concatenates span text without styling.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}
