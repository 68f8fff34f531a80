package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"

	"golang.org/x/net/publicsuffix"
)

// contactSeparator joins the header contact fields.
const contactSeparator = " | "

// RenderMarkdown produces the canonical document for doc. It has no side
// effects and never mutates doc; the same input always yields the same
// bytes. Missing mandatory fields yield a validation error and no output.
func RenderMarkdown(doc *model.ResumeDocument) (out string, err error) {
	if doc == nil {
		return "", domain.NewValidationError([]string{"resume"})
	}
	if err := doc.Required(); err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = "", domain.NewRenderError(fmt.Errorf("%v", r))
		}
	}()

	var b strings.Builder
	writeHeader(&b, doc.PersonalInfo)
	if s := strings.TrimSpace(doc.Summary); s != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(escapeBlock(s))
		b.WriteString("\n\n")
	}
	writeWork(&b, doc.WorkExperience)
	writeEducation(&b, doc.Education)
	writeList(&b, "Skills", doc.FilledSkills())
	writeList(&b, "Certifications", doc.FilledCertifications())

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func writeHeader(b *strings.Builder, p model.PersonalInfo) {
	fmt.Fprintf(b, "# %s\n\n", escapeInline(p.Name))
	contact := []string{
		escapeInline(p.Email),
		escapeInline(p.Phone),
		escapeInline(p.Address),
	}
	if link := strings.TrimSpace(p.Linkedin); link != "" {
		contact = append(contact, fmt.Sprintf("[%s](%s)", escapeInline(linkLabel(link)), linkDestination.Replace(link)))
	}
	b.WriteString(strings.Join(contact, contactSeparator))
	b.WriteString("\n\n")
}

func writeWork(b *strings.Builder, entries []model.WorkEntry) {
	var filled []model.WorkEntry
	for _, w := range entries {
		if !w.IsBlank() {
			filled = append(filled, w)
		}
	}
	if len(filled) == 0 {
		return
	}
	b.WriteString("## Work Experience\n\n")
	for _, w := range filled {
		writeSubsection(b, joinNonEmpty(" at ", w.JobTitle, w.Company), dateRange(w.StartDate, w.EndDate))
		writeParagraph(b, w.Responsibilities)

		projects := w.FilledProjects()
		if len(projects) == 0 {
			continue
		}
		b.WriteString("**Projects:**\n\n")
		for _, p := range projects {
			writeProject(b, p)
		}
		b.WriteString("\n")
	}
}

func writeProject(b *strings.Builder, p model.ProjectEntry) {
	var line strings.Builder
	name := escapeInline(p.Name)
	desc := escapeInline(p.Description)
	switch {
	case name != "" && desc != "":
		fmt.Fprintf(&line, "**%s**: %s", name, desc)
	case name != "":
		fmt.Fprintf(&line, "**%s**", name)
	default:
		line.WriteString(desc)
	}
	if tech := escapeInline(p.Technologies); tech != "" {
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		fmt.Fprintf(&line, "(Technologies: %s)", tech)
	}
	ach := escapeInline(p.Achievements)
	if line.Len() == 0 {
		// Only achievements were given; the nested bullet needs a parent.
		fmt.Fprintf(b, "- Achievements: %s\n", ach)
		return
	}
	fmt.Fprintf(b, "- %s\n", line.String())
	if ach != "" {
		fmt.Fprintf(b, "  - Achievements: %s\n", ach)
	}
}

func writeEducation(b *strings.Builder, entries []model.EducationEntry) {
	var filled []model.EducationEntry
	for _, e := range entries {
		if !e.IsBlank() {
			filled = append(filled, e)
		}
	}
	if len(filled) == 0 {
		return
	}
	b.WriteString("## Education\n\n")
	for _, e := range filled {
		title := joinNonEmpty(", ", joinNonEmpty(" in ", e.Degree, e.FieldOfStudy), e.School)
		writeSubsection(b, title, dateRange(e.StartDate, e.EndDate))
		writeParagraph(b, e.Description)
	}
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", escapeInline(it))
	}
	b.WriteString("\n")
}

func writeSubsection(b *strings.Builder, title, dates string) {
	if title != "" {
		fmt.Fprintf(b, "### %s\n", escapeInline(title))
	}
	if dates != "" {
		b.WriteString(escapeInline(dates))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeParagraph(b *strings.Builder, text string) {
	if t := strings.TrimSpace(text); t != "" {
		b.WriteString(escapeBlock(t))
		b.WriteString("\n\n")
	}
}

func dateRange(start, end string) string {
	return joinNonEmpty(" - ", start, end)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, sep)
}

// linkLabel names a profile link by its registrable domain.
func linkLabel(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "Profile"
	}
	host := strings.ToLower(u.Hostname())
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		host = etld
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "linkedin.com" {
		return "LinkedIn"
	}
	return host
}

// inlineMarkup holds the characters that open emphasis, code, links or raw
// HTML anywhere in a line.
var inlineMarkup = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

// linkDestination percent-encodes what would end a link destination early.
var linkDestination = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20", "<", "%3C", ">", "%3E", `\`, "%5C")

// orderedMarker matches a line that would open an ordered list item.
var orderedMarker = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)

// spacedHash matches a '#' that could open a heading or close one.
var spacedHash = regexp.MustCompile(`(^|\s)#`)

// escapeInline folds a field onto one line and escapes it so goldmark reads
// it as plain text in any position.
func escapeInline(s string) string {
	return escapeLine(strings.Join(strings.Fields(s), " "))
}

// escapeBlock escapes a multi-line field line by line. Blank lines still
// separate paragraphs; nothing else in the text can open a block.
func escapeBlock(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = escapeLine(strings.TrimSpace(l))
	}
	return strings.Join(lines, "\n")
}

func escapeLine(l string) string {
	if l == "" {
		return l
	}
	l = inlineMarkup.Replace(l)
	l = spacedHash.ReplaceAllString(l, `$1\#`)
	if m := orderedMarker.FindStringSubmatchIndex(l); m != nil {
		return l[:m[3]] + `\` + l[m[4]:]
	}
	switch l[0] {
	case '-', '+', '=', '>', '~':
		return `\` + l
	}
	return l
}
