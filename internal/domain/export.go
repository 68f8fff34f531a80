package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Format is an export format token as sent by clients.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// Media types per format.
const (
	MediaTypeMarkdown = "text/markdown"
	MediaTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypePDF      = "application/pdf"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatMarkdown, FormatDOCX, FormatPDF}

// ParseFormat normalizes a client token ("PDF", " md ") to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// MediaType returns the artifact media type for f.
func (f Format) MediaType() string {
	switch f {
	case FormatMarkdown:
		return MediaTypeMarkdown
	case FormatDOCX:
		return MediaTypeDOCX
	case FormatPDF:
		return MediaTypePDF
	}
	return "application/octet-stream"
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// Label is the human name used in failure notices.
func (f Format) Label() string {
	if f == FormatMarkdown {
		return "Markdown"
	}
	return strings.ToUpper(string(f))
}

// Artifact is a named, typed export result.
type Artifact struct {
	FileName  string `json:"file_name"`
	MediaType string `json:"media_type"`
	Format    Format `json:"format"`
	Pages     int    `json:"pages,omitempty"`
	Data      []byte `json:"-"`
}

// Status is an export job state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRendering Status = "rendering"
	StatusEncoding  Status = "encoding"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool { return s == StatusDelivered || s == StatusFailed }

var transitions = map[Status][]Status{
	StatusIdle:      {StatusRendering},
	StatusRendering: {StatusEncoding, StatusFailed},
	StatusEncoding:  {StatusDelivered, StatusFailed},
}

// ExportJob tracks one export request through its states.
type ExportJob struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Format    Format    `json:"format"`
	FileName  string    `json:"file_name"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewExportJob returns an idle job for format f.
func NewExportJob(f Format, fileName string) *ExportJob {
	now := time.Now()
	return &ExportJob{
		ID:        uuid.New(),
		Format:    f,
		FileName:  fileName,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the job to next, rejecting transitions the state machine
// does not allow.
func (j *ExportJob) Advance(next Status) error {
	for _, s := range transitions[j.Status] {
		if s == next {
			j.Status = next
			j.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("export job %s: illegal transition %s -> %s", j.ID, j.Status, next)
}

// Fail moves the job to failed and records a user-visible message.
func (j *ExportJob) Fail(msg string) error {
	if err := j.Advance(StatusFailed); err != nil {
		return err
	}
	j.Error = msg
	return nil
}

// Deliver attaches the artifact and completes the job.
func (j *ExportJob) Deliver(a *Artifact) error {
	if err := j.Advance(StatusDelivered); err != nil {
		return err
	}
	j.Artifact = a
	return nil
}
