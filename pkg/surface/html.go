package surface

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/surface.html templates/style.css
var templateFS embed.FS

var (
	pageTemplate = template.Must(template.ParseFS(templateFS, "templates/surface.html"))
	stylesheet   = mustRead("templates/style.css")
)

func mustRead(name string) string {
	b, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

type pageData struct {
	Title  string
	CSS    template.CSS
	Blocks []Block
}

// HTML renders the surface as a standalone styled page. Text and link
// targets are escaped by html/template.
func (s *Surface) HTML(title string) (string, error) {
	var buf bytes.Buffer
	data := pageData{Title: title, CSS: template.CSS(stylesheet), Blocks: s.Blocks}
	if err := pageTemplate.ExecuteTemplate(&buf, "surface.html", data); err != nil {
		return "", fmt.Errorf("rendering surface html: %w", err)
	}
	return buf.String(), nil
}
