package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pitch-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/pitch-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/application/history"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/report"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/webui"
	"github.com/bryanwahyu/pitch-analyzer/internal/middleware"
)

type fakeRunner struct{ calls int }

func (f *fakeRunner) Run(context.Context, crew.Crew) (crew.Output, error) {
	f.calls++
	return crew.Output{Raw: "Recommendation: invest"}, nil
}

type stubDocs struct{}

func (stubDocs) Process(_ context.Context, path string) string { return "deck at " + path }

type fixture struct {
	handler http.Handler
	runner  *fakeRunner
	reports *report.Writer
	dir     string
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := &fakeRunner{}
	reports := report.NewWriter(filepath.Join(dir, "reports"), log)
	svc := &appanalysis.Service{
		Definitions: crew.Definitions{Agents: crew.DefaultAgents(), Tasks: crew.DefaultTasks()},
		Tools:       map[string]crew.Tool{},
		Runner:      runner,
		Documents:   stubDocs{},
		Reports:     reports,
		History:     history.NewMemory(10),
		Clock:       application.SystemClock{},
		Log:         log,
		APIKey:      "sk-test",
	}
	pages, err := webui.New()
	require.NoError(t, err)

	opts.Analysis = svc
	opts.Uploads = storage.NewUploads(filepath.Join(dir, "uploads"))
	opts.Reports = reports
	opts.Pages = pages
	opts.Log = log
	return fixture{handler: NewRouter(opts), runner: runner, reports: reports, dir: dir}
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileName string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 deck"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) analysis.Result {
	t.Helper()
	var res analysis.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestAnalyzeSuccess(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{
		"company_name":  "Acme Corp",
		"website_url":   "https://acme.io",
		"analysis_type": "quick",
	}, "deck.pdf"))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult(t, rec)
	require.Equal(t, analysis.StatusSuccess, res.Status, res.Message)
	require.Equal(t, "Recommendation: invest", res.Content)
	require.Equal(t, analysis.TypeQuick, res.AnalysisType)
	require.Equal(t, filepath.Join(fx.dir, "uploads", "deck.pdf"), res.FileAnalyzed)
	require.FileExists(t, res.FileAnalyzed)
	require.FileExists(t, res.ReportPath)
	require.Equal(t, 1, fx.runner.calls)

	// the saved report is downloadable by name
	name := filepath.Base(res.ReportPath)
	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/reports/"+name, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "## Company: Acme Corp")
	require.Contains(t, rec.Header().Get("Content-Disposition"), name)

	// and listed in the history without its content
	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/analyses?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []analysis.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	require.Equal(t, res.ID, list[0].ID)
	require.Empty(t, list[0].Content)

	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/analyses/"+res.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got analysis.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Equal(t, "Recommendation: invest", got.Content)
}

func TestAnalyzeStripsUploadDirectories(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "../../escape.pdf"))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	require.Equal(t, filepath.Join(fx.dir, "uploads", "escape.pdf"), res.FileAnalyzed)
}

func TestAnalyzeValidationErrorsAreResults(t *testing.T) {
	cases := []struct {
		name      string
		fields    map[string]string
		file      string
		errorType string
		contains  string
	}{
		{name: "empty company", fields: map[string]string{}, file: "deck.pdf", errorType: "InvalidInput", contains: "company name"},
		{name: "unsupported extension", fields: map[string]string{"company_name": "Acme"}, file: "notes.txt", errorType: "UnsupportedFormat", contains: ".txt"},
		{name: "bad analysis type", fields: map[string]string{"company_name": "Acme", "analysis_type": "deep"}, file: "deck.pdf", errorType: "InvalidInput", contains: "deep"},
		{name: "internal website", fields: map[string]string{"company_name": "Acme", "website_url": "http://127.0.0.1:9000"}, file: "deck.pdf", errorType: "InvalidInput", contains: "website_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t, Options{})
			rec := serve(fx.handler, multipartRequest(t, "/analyze", tc.fields, tc.file))
			require.Equal(t, http.StatusOK, rec.Code)

			res := decodeResult(t, rec)
			require.Equal(t, analysis.StatusError, res.Status)
			require.Equal(t, tc.errorType, res.ErrorType)
			require.Contains(t, res.Message, tc.contains)
			require.Zero(t, fx.runner.calls)
		})
	}
}

func TestAnalyzeAcceptsWebsiteWithoutScheme(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{
		"company_name": "Acme",
		"website_url":  "acme.com",
	}, "deck.pdf"))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult(t, rec)
	require.Equal(t, analysis.StatusSuccess, res.Status, res.Message)
	require.Equal(t, "https://acme.com", res.WebsiteURL)
	require.Equal(t, 1, fx.runner.calls)
}

func TestAnalyzeMissingFile(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, ""))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"detail":"file is required"}`, rec.Body.String())
}

func TestAnalyzeUploadFailureIs500(t *testing.T) {
	fx := newFixture(t, Options{})
	// a regular file where the upload directory should be
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "uploads"), []byte("x"), 0o644))

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Contains(t, body["detail"], "upload")
}

func TestHealth(t *testing.T) {
	fx := newFixture(t, Options{APIKeys: map[string]string{"ci": "secret"}})

	rec := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "healthy", body["status"])
	require.NotEmpty(t, body["timestamp"])
}

func TestAPIKeyProtectsAnalyze(t *testing.T) {
	fx := newFixture(t, Options{APIKeys: map[string]string{"ci": "secret"}})

	rec := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, fx.runner.calls)

	req := multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf")
	req.Header.Set("Authorization", "Bearer secret")
	rec = serve(fx.handler, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, fx.runner.calls)
}

func TestAPIKeyProtectsWebUI(t *testing.T) {
	fx := newFixture(t, Options{APIKeys: map[string]string{"ci": "secret"}})

	rec := serve(fx.handler, multipartRequest(t, "/ui/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	require.Zero(t, fx.runner.calls)

	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/ui/history", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/ui", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := multipartRequest(t, "/ui/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf")
	req.SetBasicAuth("browser", "secret")
	rec = serve(fx.handler, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Analysis completed!")
	require.Equal(t, 1, fx.runner.calls)

	req = httptest.NewRequest(http.MethodGet, "/ui/history", nil)
	req.SetBasicAuth("browser", "secret")
	rec = serve(fx.handler, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Acme")
}

func TestWebUIOmitsLinkForFallbackReport(t *testing.T) {
	fx := newFixture(t, Options{})
	require.NoError(t, os.WriteFile(fx.reports.Dir, []byte("not a dir"), 0o644))
	fx.reports.FallbackDir = fx.dir

	rec := serve(fx.handler, multipartRequest(t, "/ui/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Analysis completed!")
	require.NotContains(t, rec.Body.String(), "Download Report")
}

func TestRateLimitOnAnalyze(t *testing.T) {
	fx := newFixture(t, Options{RateLimitRPS: 0.01, RateLimitBurst: 1})

	first := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusOK, first.Code)
	second := serve(fx.handler, multipartRequest(t, "/analyze", map[string]string{"company_name": "Acme"}, "deck.pdf"))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, 1, fx.runner.calls)
}

func TestReportLookupErrors(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/reports/missing.txt", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/reports/.hidden", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/analyses/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := middleware.NewMetrics()
	fx := newFixture(t, Options{Metrics: metrics})
	fx.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `pitch_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestWebUI(t *testing.T) {
	fx := newFixture(t, Options{})

	rec := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/ui", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Start Analysis")

	rec = serve(fx.handler, multipartRequest(t, "/ui/analyze", map[string]string{"company_name": "Acme"}, "deck.pptx"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Analysis completed!")
	require.Contains(t, rec.Body.String(), "/reports/Acme_analysis_")

	rec = serve(fx.handler, multipartRequest(t, "/ui/analyze", map[string]string{"company_name": "Acme"}, ""))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "file is required")

	rec = serve(fx.handler, httptest.NewRequest(http.MethodGet, "/ui/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "Analysis ") && strings.Contains(rec.Body.String(), "Acme"))
}
