package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"resume-builder/internal/domain"
	"resume-builder/pkg/encoder"
	"resume-builder/pkg/surface"
)

type JobsRepo interface {
	Save(ctx context.Context, j *domain.ExportJob) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error)
}

type SessionsRepo interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
}

// EncoderFactory builds a fresh encoder for one request.
type EncoderFactory func() encoder.Encoder

// ExportRequest names the document either by content or by session.
type ExportRequest struct {
	Format      domain.Format
	Content     string
	SessionID   string
	FileName    string
	DisplayName string
}

// ExportResult is one format's outcome in ExportAll.
type ExportResult struct {
	Format   domain.Format
	Artifact *domain.Artifact
	Err      error
}

type Exporter struct {
	encoders map[domain.Format]EncoderFactory
	jobs     JobsRepo
	sessions SessionsRepo
	metrics  *Metrics
	log      *slog.Logger

	background sync.WaitGroup
}

type ExporterOption func(*Exporter)

func WithMetrics(m *Metrics) ExporterOption {
	return func(e *Exporter) { e.metrics = m }
}

func WithSessions(s SessionsRepo) ExporterOption {
	return func(e *Exporter) { e.sessions = s }
}

func NewExporter(encoders map[domain.Format]EncoderFactory, jobs JobsRepo, log *slog.Logger, opts ...ExporterOption) *Exporter {
	e := &Exporter{encoders: encoders, jobs: jobs, log: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

type preparedExport struct {
	format   domain.Format
	content  string
	fileName string
	factory  EncoderFactory
}

func (e *Exporter) prepare(ctx context.Context, req ExportRequest) (*preparedExport, error) {
	factory, ok := e.encoders[req.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, req.Format)
	}

	content, name := req.Content, req.DisplayName
	if content == "" && req.SessionID != "" {
		if e.sessions == nil {
			return nil, domain.ErrSessionNotFound
		}
		s, err := e.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		content = s.Content
		if name == "" {
			name = s.Name
		}
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyContent
	}

	return &preparedExport{
		format:   req.Format,
		content:  content,
		fileName: FileName(req.Format, req.FileName, name, content),
		factory:  factory,
	}, nil
}

// Export runs one export to completion. Conversion failures come back as
// *domain.Error naming the format; the cause is logged here.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*domain.Artifact, error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	job := domain.NewExportJob(p.format, p.fileName)
	job.SessionID = req.SessionID
	e.save(ctx, job)
	return e.run(ctx, job, p)
}

// Start validates the request, then exports in the background. The
// returned job is a snapshot taken before any work starts.
func (e *Exporter) Start(ctx context.Context, req ExportRequest) (*domain.ExportJob, error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	job := domain.NewExportJob(p.format, p.fileName)
	job.SessionID = req.SessionID
	e.save(ctx, job)
	snapshot := *job

	bg := context.WithoutCancel(ctx)
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if _, err := e.run(bg, job, p); err != nil {
			e.log.Warn("background export failed", "job_id", job.ID.String(), "format", string(job.Format))
		}
	}()
	return &snapshot, nil
}

// Wait blocks until every background export has finished.
func (e *Exporter) Wait() { e.background.Wait() }

func (e *Exporter) Job(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	return e.jobs.Get(ctx, id)
}

// Download returns the artifact of a delivered job.
func (e *Exporter) Download(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	j, err := e.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status != domain.StatusDelivered || j.Artifact == nil {
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrNotDelivered, id, j.Status)
	}
	return j.Artifact, nil
}

// ExportAll exports content in every format concurrently. Results keep the
// order of formats and one failure never stops the others.
func (e *Exporter) ExportAll(ctx context.Context, content, name string, formats []domain.Format) []ExportResult {
	results := make([]ExportResult, len(formats))
	var g errgroup.Group
	for i, f := range formats {
		g.Go(func() error {
			a, err := e.Export(ctx, ExportRequest{Format: f, Content: content, DisplayName: name})
			results[i] = ExportResult{Format: f, Artifact: a, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Exporter) run(ctx context.Context, job *domain.ExportJob, p *preparedExport) (art *domain.Artifact, err error) {
	start := time.Now()
	defer func() { e.metrics.observe(job.Format, start, err) }()

	if err := e.advance(ctx, job, domain.StatusRendering); err != nil {
		return nil, err
	}
	surf, err := convertSurface(p.content)
	if err != nil {
		return nil, e.fail(ctx, job, err)
	}

	if err := e.advance(ctx, job, domain.StatusEncoding); err != nil {
		return nil, err
	}
	enc := p.factory()
	art, err = enc.Encode(ctx, encoder.Source{Markdown: p.content, Surface: surf, FileName: p.fileName})
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewConversionError(job.Format, err)
		}
		return nil, e.fail(ctx, job, err)
	}

	if err := job.Deliver(art); err != nil {
		return nil, err
	}
	e.save(ctx, job)
	e.log.Info("export delivered", "job_id", job.ID.String(), "format", string(job.Format), "bytes", len(art.Data), "pages", art.Pages)
	return art, nil
}

func (e *Exporter) advance(ctx context.Context, job *domain.ExportJob, next domain.Status) error {
	if err := job.Advance(next); err != nil {
		return err
	}
	e.save(ctx, job)
	return nil
}

func (e *Exporter) fail(ctx context.Context, job *domain.ExportJob, err error) error {
	de := domain.AsError(err)
	e.log.Error("export failed", "job_id", job.ID.String(), "format", string(job.Format), "error", err)
	if ferr := job.Fail(de.Message); ferr != nil {
		return ferr
	}
	e.save(ctx, job)
	return err
}

// save persists job state best effort.
func (e *Exporter) save(ctx context.Context, job *domain.ExportJob) {
	if e.jobs == nil {
		return
	}
	if err := e.jobs.Save(ctx, job); err != nil {
		e.log.Warn("failed to save export job", "job_id", job.ID.String(), "error", err)
	}
}

func convertSurface(content string) (s *surface.Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewRenderError(fmt.Errorf("converting document: %v", r))
		}
	}()
	return surface.Convert(content), nil
}

// FileName picks the artifact name: the explicit name with its extension
// forced to f, else "{Display_Name}_Resume.{ext}" where the display name
// falls back to the document's H1 and then to "Resume".
func FileName(f domain.Format, explicit, display, content string) string {
	if explicit = cleanFileName(explicit); explicit != "" {
		return strings.TrimSuffix(explicit, filepath.Ext(explicit)) + f.Extension()
	}
	name := cleanFileName(display)
	if name == "" {
		name = cleanFileName(documentTitle(content))
	}
	if name == "" {
		return "Resume" + f.Extension()
	}
	return strings.Join(strings.Fields(name), "_") + "_Resume" + f.Extension()
}

func cleanFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`"\/:*?<>|`, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func documentTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if t, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}
