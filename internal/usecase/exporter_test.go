package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/adapter/repository"
	"resume-builder/internal/domain"
	"resume-builder/pkg/encoder"
)

const canonical = "# Jane Doe\n\njane@x.com | 555-0100 | NYC\n\n## Skills\n\n- Go\n"

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEncoder records what it was given and fails when err is set.
type stubEncoder struct {
	format domain.Format
	err    error
	got    *encoder.Source
}

func (s *stubEncoder) Format() domain.Format { return s.format }

func (s *stubEncoder) Encode(_ context.Context, src encoder.Source) (*domain.Artifact, error) {
	s.got = &src
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Artifact{FileName: src.FileName, MediaType: s.format.MediaType(), Format: s.format, Data: []byte(s.format)}, nil
}

type fixture struct {
	exporter *Exporter
	jobs     *repository.MemoryJobs
	sessions *repository.MemorySessions
	metrics  *Metrics
	built    atomic.Int32
	docxErr  error
}

func newFixture() *fixture {
	f := &fixture{
		jobs:     repository.NewMemoryJobs(),
		sessions: repository.NewMemorySessions(0),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	factories := map[domain.Format]EncoderFactory{
		domain.FormatMarkdown: func() encoder.Encoder {
			f.built.Add(1)
			return encoder.NewPlainEncoder()
		},
		domain.FormatDOCX: func() encoder.Encoder {
			f.built.Add(1)
			return &stubEncoder{format: domain.FormatDOCX, err: f.docxErr}
		},
		domain.FormatPDF: func() encoder.Encoder {
			f.built.Add(1)
			return &stubEncoder{format: domain.FormatPDF}
		},
	}
	f.exporter = NewExporter(factories, f.jobs, discardLogger(), WithMetrics(f.metrics), WithSessions(f.sessions))
	return f
}

func TestExporter_Export(t *testing.T) {
	f := newFixture()

	a, err := f.exporter.Export(context.Background(), ExportRequest{Format: domain.FormatMarkdown, Content: canonical})
	require.NoError(t, err)
	assert.Equal(t, []byte(canonical), a.Data)
	assert.Equal(t, "Jane_Doe_Resume.md", a.FileName)
	assert.Equal(t, domain.MediaTypeMarkdown, a.MediaType)
	assert.EqualValues(t, 1, f.built.Load())
	assert.Equal(t, 1.0, counterValue(t, f.metrics.exports.WithLabelValues("md", "success")))
}

func TestExporter_EncoderPerRequest(t *testing.T) {
	f := newFixture()
	for range 3 {
		_, err := f.exporter.Export(context.Background(), ExportRequest{Format: domain.FormatPDF, Content: canonical})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, f.built.Load())
}

func TestExporter_EncoderSeesRenderedSurface(t *testing.T) {
	var stub *stubEncoder
	factories := map[domain.Format]EncoderFactory{
		domain.FormatPDF: func() encoder.Encoder {
			stub = &stubEncoder{format: domain.FormatPDF}
			return stub
		},
	}
	e := NewExporter(factories, repository.NewMemoryJobs(), discardLogger())

	_, err := e.Export(context.Background(), ExportRequest{Format: domain.FormatPDF, Content: canonical, FileName: "cv"})
	require.NoError(t, err)
	require.NotNil(t, stub.got)
	require.NotNil(t, stub.got.Surface)
	assert.Equal(t, "Jane Doe", stub.got.Surface.Title())
	assert.Equal(t, "cv.pdf", stub.got.FileName)
	assert.Equal(t, canonical, stub.got.Markdown)
}

func TestExporter_ConversionFailure(t *testing.T) {
	f := newFixture()
	f.docxErr = errors.New("zip: short write")

	a, err := f.exporter.Export(context.Background(), ExportRequest{Format: domain.FormatDOCX, Content: canonical})
	assert.Nil(t, a)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindConversion, de.Kind)
	assert.Equal(t, "Failed to convert to DOCX", de.Message)
	assert.ErrorIs(t, err, f.docxErr)
	assert.Equal(t, 1.0, counterValue(t, f.metrics.exports.WithLabelValues("docx", "failure")))
}

func TestExporter_RequestErrors(t *testing.T) {
	f := newFixture()
	testCases := []struct {
		name string
		req  ExportRequest
		want error
	}{
		{name: "unknown format", req: ExportRequest{Format: "odt", Content: canonical}, want: domain.ErrUnknownFormat},
		{name: "empty content", req: ExportRequest{Format: domain.FormatPDF, Content: " \n"}, want: domain.ErrEmptyContent},
		{name: "unknown session", req: ExportRequest{Format: domain.FormatPDF, SessionID: "nope"}, want: domain.ErrSessionNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.exporter.Export(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, f.built.Load(), "no encoder is built for a rejected request")
}

func TestExporter_FromSession(t *testing.T) {
	f := newFixture()
	s := domain.NewSession(canonical, "Janet Q Doe")
	require.NoError(t, f.sessions.Save(context.Background(), s))

	a, err := f.exporter.Export(context.Background(), ExportRequest{Format: domain.FormatMarkdown, SessionID: s.ID})
	require.NoError(t, err)
	assert.Equal(t, "Janet_Q_Doe_Resume.md", a.FileName)
	assert.Equal(t, []byte(canonical), a.Data)
}

func TestExporter_StartJobLifecycle(t *testing.T) {
	f := newFixture()

	job, err := f.exporter.Start(context.Background(), ExportRequest{Format: domain.FormatPDF, Content: canonical})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, job.Status)

	f.exporter.Wait()

	got, err := f.exporter.Job(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	a, err := f.exporter.Download(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane_Doe_Resume.pdf", a.FileName)

	_, err = f.exporter.Download(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestExporter_DownloadFailedJob(t *testing.T) {
	f := newFixture()
	f.docxErr = errors.New("boom")

	job, err := f.exporter.Start(context.Background(), ExportRequest{Format: domain.FormatDOCX, Content: canonical})
	require.NoError(t, err)
	f.exporter.Wait()

	got, err := f.exporter.Job(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "Failed to convert to DOCX", got.Error)

	_, err = f.exporter.Download(context.Background(), job.ID)
	assert.ErrorIs(t, err, domain.ErrNotDelivered)
}

func TestExporter_ExportAllIsolatesFailures(t *testing.T) {
	f := newFixture()
	f.docxErr = errors.New("boom")

	results := f.exporter.ExportAll(context.Background(), canonical, "", domain.Formats)
	require.Len(t, results, 3)

	assert.Equal(t, domain.FormatMarkdown, results[0].Format)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, domain.FormatDOCX, results[1].Format)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Artifact)
	assert.Equal(t, domain.FormatPDF, results[2].Format)
	require.NoError(t, results[2].Err)
	assert.Equal(t, "Jane_Doe_Resume.pdf", results[2].Artifact.FileName)
}

func TestFileName(t *testing.T) {
	testCases := []struct {
		name     string
		format   domain.Format
		explicit string
		display  string
		content  string
		want     string
	}{
		{name: "explicit keeps base", format: domain.FormatPDF, explicit: "my-cv", want: "my-cv.pdf"},
		{name: "explicit extension forced", format: domain.FormatDOCX, explicit: "cv.pdf", want: "cv.docx"},
		{name: "explicit strips path and quotes", format: domain.FormatMarkdown, explicit: `../"cv".md`, want: "..cv.md"},
		{name: "display name", format: domain.FormatPDF, display: "Jane  Doe", want: "Jane_Doe_Resume.pdf"},
		{name: "heading fallback", format: domain.FormatDOCX, content: canonical, want: "Jane_Doe_Resume.docx"},
		{name: "default", format: domain.FormatMarkdown, want: "Resume.md"},
		{name: "unusable display", format: domain.FormatMarkdown, display: `"/"`, want: "Resume.md"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FileName(tc.format, tc.explicit, tc.display, tc.content))
		})
	}
}
