// Package surface turns a canonical Markdown document into a styled block
// tree that the binary encoders share.
//
// A Surface is a flat sequence of blocks (headings, paragraphs, lists);
// list items carry their own inline spans and nested blocks. Inline spans
// record emphasis, code and link targets. Conversion is total: constructs
// the tree has no node for degrade to plain paragraphs holding their text,
// and block order always matches source order.
//
// Surface.HTML renders the tree through an embedded template and stylesheet
// for off-screen rasterization.
package surface
