// Package bootstrap builds the runtime pieces shared by the server and the
// CLI from a loaded configuration.
package bootstrap

import (
	"io"
	"log/slog"
	"strings"

	"resume-builder/internal/config"
	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
	"resume-builder/pkg/encoder"
	infra "resume-builder/pkg/infrastructure"
)

// NewLogger returns a JSON or text slog logger at the configured level.
func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Encoders returns one factory per format. Every call to a factory yields
// a new encoder.
func Encoders(cfg config.Render) (map[domain.Format]usecase.EncoderFactory, error) {
	rasterizer, err := infra.NewRasterizer(cfg.Engine, infra.RasterOptions{
		ChromePath: cfg.ChromePath,
		WSURL:      cfg.WSURL,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return map[domain.Format]usecase.EncoderFactory{
		domain.FormatMarkdown: func() encoder.Encoder { return encoder.NewPlainEncoder() },
		domain.FormatDOCX:     func() encoder.Encoder { return encoder.NewDOCXEncoder() },
		domain.FormatPDF: func() encoder.Encoder {
			return encoder.NewRasterEncoder(rasterizer, encoder.NewPDFAssembler(),
				encoder.WithResolution(cfg.DPI, cfg.Scale))
		},
	}, nil
}
