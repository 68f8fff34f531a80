package http

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
)

// Generator renders form submissions into canonical documents.
type Generator interface {
	Generate(ctx context.Context, raw []byte) (*usecase.Generated, error)
}

// Exporter turns canonical documents into artifacts.
type Exporter interface {
	Export(ctx context.Context, req usecase.ExportRequest) (*domain.Artifact, error)
	Start(ctx context.Context, req usecase.ExportRequest) (*domain.ExportJob, error)
	Job(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error)
	Download(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
}

type Handler struct {
	generator Generator
	exporter  Exporter
	log       *slog.Logger
}

func NewHandler(g Generator, e Exporter, log *slog.Logger) *Handler {
	return &Handler{generator: g, exporter: e, log: log}
}

type exportReq struct {
	Format    string `json:"format"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId"`
	FileName  string `json:"fileName"`
	Name      string `json:"name"`
}

func (r exportReq) toRequest() (usecase.ExportRequest, error) {
	f, err := domain.ParseFormat(r.Format)
	if err != nil {
		return usecase.ExportRequest{}, err
	}
	return usecase.ExportRequest{
		Format:      f,
		Content:     r.Content,
		SessionID:   r.SessionID,
		FileName:    r.FileName,
		DisplayName: r.Name,
	}, nil
}

func (h *Handler) GenerateResume(c *fiber.Ctx) error {
	out, err := h.generator.Generate(c.UserContext(), c.Body())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"resumeContent": out.Content, "sessionId": out.SessionID})
}

func (h *Handler) Export(c *fiber.Ctx) error {
	req, err := h.parseExport(c)
	if err != nil {
		return h.fail(c, err)
	}
	a, err := h.exporter.Export(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return sendArtifact(c, a)
}

func (h *Handler) StartExport(c *fiber.Ctx) error {
	req, err := h.parseExport(c)
	if err != nil {
		return h.fail(c, err)
	}
	job, err := h.exporter.Start(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID.String(), "status": job.Status})
}

func (h *Handler) JobStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid job id"})
	}
	job, err := h.exporter.Job(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	body := fiber.Map{
		"jobId":    job.ID.String(),
		"status":   job.Status,
		"format":   job.Format,
		"fileName": job.FileName,
		"done":     job.Status.Terminal(),
	}
	if job.Error != "" {
		body["error"] = job.Error
	}
	return c.JSON(body)
}

func (h *Handler) DownloadExport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid job id"})
	}
	a, err := h.exporter.Download(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return sendArtifact(c, a)
}

func (h *Handler) parseExport(c *fiber.Ctx) (usecase.ExportRequest, error) {
	var body exportReq
	if err := c.BodyParser(&body); err != nil {
		return usecase.ExportRequest{}, &domain.Error{Kind: domain.KindValidation, Message: "invalid payload", Err: err}
	}
	return body.toRequest()
}

func sendArtifact(c *fiber.Ctx, a *domain.Artifact) error {
	c.Set(fiber.HeaderContentType, a.MediaType)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(a.FileName))
	return c.Send(a.Data)
}

// contentDisposition follows RFC 6266: a quoted ASCII filename, plus an
// RFC 5987 filename* when the name has non-ASCII characters.
func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r >= utf8.RuneSelf || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	v := `attachment; filename="` + fallback + `"`
	if fallback != name {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}

// fail writes the user-visible part of err. Causes of server errors are
// logged, never returned.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	de := domain.AsError(err)
	status := de.StatusCode()
	if status >= fiber.StatusInternalServerError && de.Kind != domain.KindConversion {
		h.log.Error("request failed", "path", c.Path(), "error", err)
	}

	body := fiber.Map{"message": de.Message}
	if len(de.Missing) > 0 {
		body["missing"] = de.Missing
	}
	return c.Status(status).JSON(body)
}
