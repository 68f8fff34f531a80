package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/adapter/repository"
	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
	"resume-builder/pkg/encoder"
)

const janeJSON = `{"name":"Jane Doe","email":"jane@x.com","phone":"555-0100","address":"NYC","summary":"Engineer.","skills":["Go","SQL"],"certifications":[""]}`

const canonical = "# Jane Doe\n\njane@x.com | 555-0100 | NYC\n\n## Skills\n\n- Go\n"

type brokenEncoder struct{}

func (brokenEncoder) Format() domain.Format { return domain.FormatPDF }

func (brokenEncoder) Encode(context.Context, encoder.Source) (*domain.Artifact, error) {
	return nil, errors.New("chrome: target crashed")
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := repository.NewMemorySessions(time.Hour)
	exporter := usecase.NewExporter(map[domain.Format]usecase.EncoderFactory{
		domain.FormatMarkdown: func() encoder.Encoder { return encoder.NewPlainEncoder() },
		domain.FormatDOCX:     func() encoder.Encoder { return encoder.NewDOCXEncoder() },
		domain.FormatPDF:      func() encoder.Encoder { return brokenEncoder{} },
	}, repository.NewMemoryJobs(), log, usecase.WithSessions(sessions))
	t.Cleanup(exporter.Wait)

	app := fiber.New()
	NewHandler(usecase.NewGenerator(sessions, log), exporter, log).Register(app, prometheus.NewRegistry())
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]string, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	headers := map[string]string{
		"Content-Type":        resp.Header.Get("Content-Type"),
		"Content-Disposition": resp.Header.Get("Content-Disposition"),
	}
	return resp.StatusCode, headers, b
}

func decode(t *testing.T, b []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestGenerateResume(t *testing.T) {
	app := newTestApp(t)

	status, _, body := do(t, app, "POST", "/api/resume", janeJSON)
	require.Equal(t, fiber.StatusOK, status)
	m := decode(t, body)
	assert.Equal(t, "# Jane Doe\n\njane@x.com | 555-0100 | NYC\n\n## Summary\n\nEngineer.\n\n## Skills\n\n- Go\n- SQL\n", m["resumeContent"])
	assert.NotEmpty(t, m["sessionId"])
}

func TestGenerateResume_Invalid(t *testing.T) {
	app := newTestApp(t)

	status, _, body := do(t, app, "POST", "/api/resume", `{"name":"","email":"x","phone":"1","address":"a"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	m := decode(t, body)
	assert.Equal(t, "invalid resume data", m["message"])
	assert.Equal(t, []interface{}{"name", "email (invalid format)"}, m["missing"])
}

func TestExport_Markdown(t *testing.T) {
	app := newTestApp(t)

	status, headers, body := do(t, app, "POST", "/api/export", `{"format":"md","content":`+quote(canonical)+`}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, canonical, string(body))
	assert.Equal(t, domain.MediaTypeMarkdown, headers["Content-Type"])
	assert.Equal(t, `attachment; filename="Jane_Doe_Resume.md"`, headers["Content-Disposition"])
}

func TestExport_FromSession(t *testing.T) {
	app := newTestApp(t)

	_, _, body := do(t, app, "POST", "/api/resume", janeJSON)
	sessionID := decode(t, body)["sessionId"].(string)

	status, headers, body := do(t, app, "POST", "/api/export", `{"format":"docx","sessionId":"`+sessionID+`","fileName":"cv"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.MediaTypeDOCX, headers["Content-Type"])
	assert.Equal(t, `attachment; filename="cv.docx"`, headers["Content-Disposition"])
	assert.True(t, strings.HasPrefix(string(body), "PK"))
}

func TestExport_Errors(t *testing.T) {
	app := newTestApp(t)
	testCases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "unknown format", body: `{"format":"odt","content":"# A"}`, status: fiber.StatusBadRequest, message: `unknown export format: "odt"`},
		{name: "missing content", body: `{"format":"md"}`, status: fiber.StatusBadRequest, message: "canonical document is empty"},
		{name: "unknown session", body: `{"format":"md","sessionId":"gone"}`, status: fiber.StatusNotFound, message: "session not found"},
		{name: "encoder failure", body: `{"format":"pdf","content":"# A"}`, status: fiber.StatusInternalServerError, message: "Failed to convert to PDF"},
		{name: "malformed body", body: `{"format":`, status: fiber.StatusBadRequest, message: "invalid payload"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := do(t, app, "POST", "/api/export", tc.body)
			assert.Equal(t, tc.status, status)
			m := decode(t, body)
			assert.Equal(t, tc.message, m["message"])
			assert.NotContains(t, string(body), "chrome", "cause is never exposed")
		})
	}
}

func TestExportJobs(t *testing.T) {
	app := newTestApp(t)

	status, _, body := do(t, app, "POST", "/api/export/jobs", `{"format":"md","content":`+quote(canonical)+`}`)
	require.Equal(t, fiber.StatusAccepted, status)
	m := decode(t, body)
	assert.Equal(t, "idle", m["status"])
	jobID := m["jobId"].(string)

	require.Eventually(t, func() bool {
		_, _, body := do(t, app, "GET", "/api/export/jobs/"+jobID, "")
		m := decode(t, body)
		return m["status"] == "delivered" && m["done"] == true
	}, 2*time.Second, 10*time.Millisecond)

	status, headers, body := do(t, app, "GET", "/api/export/jobs/"+jobID+"/download", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, canonical, string(body))
	assert.Equal(t, domain.MediaTypeMarkdown, headers["Content-Type"])
}

func TestExport_NonASCIIFileName(t *testing.T) {
	app := newTestApp(t)

	status, headers, _ := do(t, app, "POST", "/api/export", `{"format":"md","content":"# José Núñez","name":"José Núñez"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, `attachment; filename="Jos__N__ez_Resume.md"; filename*=UTF-8''Jos%C3%A9_N%C3%BA%C3%B1ez_Resume.md`, headers["Content-Disposition"])
}

func TestContentDisposition(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii", in: "Jane_Doe_Resume.pdf", want: `attachment; filename="Jane_Doe_Resume.pdf"`},
		{name: "spaces stay quoted", in: "my cv.docx", want: `attachment; filename="my cv.docx"`},
		{name: "non-ascii", in: "Zoë.md", want: `attachment; filename="Zo_.md"; filename*=UTF-8''Zo%C3%AB.md`},
		{name: "quote", in: `a"b.md`, want: `attachment; filename="a_b.md"; filename*=UTF-8''a%22b.md`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, contentDisposition(tc.in))
		})
	}
}

func TestExportJobs_FailedDownloadConflicts(t *testing.T) {
	app := newTestApp(t)

	_, _, body := do(t, app, "POST", "/api/export/jobs", `{"format":"pdf","content":"# A"}`)
	jobID := decode(t, body)["jobId"].(string)

	require.Eventually(t, func() bool {
		_, _, body := do(t, app, "GET", "/api/export/jobs/"+jobID, "")
		m := decode(t, body)
		return m["status"] == "failed" && m["error"] == "Failed to convert to PDF"
	}, 2*time.Second, 10*time.Millisecond)

	status, _, _ := do(t, app, "GET", "/api/export/jobs/"+jobID+"/download", "")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestExportJobs_Lookup(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := do(t, app, "GET", "/api/export/jobs/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _, _ = do(t, app, "GET", "/api/export/jobs/6f1c2b9e-1f5e-4d89-9a57-0d8a3c2e4b11", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, _, body := do(t, app, "GET", "/healthz", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", decode(t, body)["status"])

	status, _, body = do(t, app, "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "http_requests_total")
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
