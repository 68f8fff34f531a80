package model

import (
	_ "embed"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"resume-builder/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/resume.schema.json
var resumeSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(resumeSchema)

// emailPattern is the form's address check, kept case-insensitive.
var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// ValidateJSON checks a raw request body against the resume schema before it
// is decoded. Shape errors are returned as a validation error listing every
// offending field.
func ValidateJSON(raw []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.NewValidationError([]string{fmt.Sprintf("body (%v)", err)})
	}
	if res.Valid() {
		return nil
	}
	missing := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		missing = append(missing, schemaField(e))
	}
	return domain.NewValidationError(missing)
}

// schemaField names a schema error the way Validate does: an absent key is
// its bare path, anything else carries the schema's description.
func schemaField(e gojsonschema.ResultError) string {
	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok {
			if e.Field() == "(root)" {
				return prop
			}
			return e.Field() + "." + prop
		}
	}
	return fmt.Sprintf("%s (%s)", e.Field(), e.Description())
}

// Required checks the mandatory personal fields only. The renderer relies on
// it to refuse partial output.
func (r *ResumeDocument) Required() error {
	if missing := r.missingRequired(); len(missing) > 0 {
		return domain.NewValidationError(missing)
	}
	return nil
}

// Validate enforces every model invariant: mandatory fields, email shape and
// an absolute http(s) profile link when one is given.
func (r *ResumeDocument) Validate() error {
	missing := r.missingRequired()
	if r.Email != "" && !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		missing = append(missing, "email (invalid format)")
	}
	if link := strings.TrimSpace(r.Linkedin); link != "" && !validLink(link) {
		missing = append(missing, "linkedin (invalid url)")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing)
	}
	return nil
}

func (r *ResumeDocument) missingRequired() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"name", r.Name},
		{"email", r.Email},
		{"phone", r.Phone},
		{"address", r.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func validLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
