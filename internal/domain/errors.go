package domain

import (
	"errors"
	"net/http"
	"strings"
)

// Sentinel errors shared by the export pipeline.
var (
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrEmptyContent    = errors.New("canonical document is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrJobNotFound     = errors.New("export job not found")
	ErrNotDelivered    = errors.New("export job has not been delivered")
)

// Kind classifies pipeline errors.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindRender
	KindConversion
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRender:
		return "render"
	case KindConversion:
		return "conversion"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is the error type surfaced to callers. Message is safe to show to
// users; Err holds the cause and is only logged.
type Error struct {
	Kind    Kind
	Format  Format
	Message string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Missing) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP-style status class.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// NewValidationError reports missing or malformed input fields.
func NewValidationError(missing []string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid resume data", Missing: missing}
}

// NewRenderError wraps an internal failure of the canonical renderer.
func NewRenderError(err error) *Error {
	return &Error{Kind: KindRender, Message: "Failed to generate resume", Err: err}
}

// NewConversionError wraps an encoder failure for format f.
func NewConversionError(f Format, err error) *Error {
	return &Error{Kind: KindConversion, Format: f, Message: "Failed to convert to " + f.Label(), Err: err}
}

// AsError extracts a *Error from err, classifying unknown errors. Sentinels
// map to their natural kinds; anything else is an internal render error.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, ErrUnknownFormat), errors.Is(err, ErrEmptyContent):
		return &Error{Kind: KindValidation, Message: err.Error()}
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrJobNotFound):
		return &Error{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, ErrNotDelivered):
		return &Error{Kind: KindConflict, Message: err.Error()}
	}
	return &Error{Kind: KindRender, Message: "internal error", Err: err}
}
