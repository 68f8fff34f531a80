package encoder

import (
	"context"

	"resume-builder/internal/domain"
)

// PlainEncoder returns the canonical document unchanged.
type PlainEncoder struct{}

func NewPlainEncoder() *PlainEncoder { return &PlainEncoder{} }

func (e *PlainEncoder) Format() domain.Format { return domain.FormatMarkdown }

func (e *PlainEncoder) Encode(_ context.Context, src Source) (*domain.Artifact, error) {
	return &domain.Artifact{
		FileName:  src.FileName,
		MediaType: domain.FormatMarkdown.MediaType(),
		Format:    domain.FormatMarkdown,
		Data:      []byte(src.Markdown),
	}, nil
}
