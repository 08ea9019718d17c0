package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/pitch-analyzer/internal/application/analysis"
	domai "github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/report"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/webui"
	"github.com/bryanwahyu/pitch-analyzer/internal/middleware"
)

const historyPageSize = 50

type Options struct {
	Analysis *appanalysis.Service
	Uploads  *storage.Uploads
	Reports  *report.Writer
	Pages    *webui.Pages
	Metrics  *middleware.Metrics // optional
	Health   map[string]middleware.HealthChecker
	Log      *slog.Logger

	APIKeys        map[string]string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64
}

type Router struct {
	svc       *appanalysis.Service
	uploads   *storage.Uploads
	reports   *report.Writer
	pages     *webui.Pages
	log       *slog.Logger
	maxUpload int64
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		svc:       opts.Analysis,
		uploads:   opts.Uploads,
		reports:   opts.Reports,
		pages:     opts.Pages,
		log:       log,
		maxUpload: opts.MaxUploadBytes,
	}
	limit := middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.Logging(log))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	mux.Get("/health", middleware.HealthHandler(opts.Health, nil))
	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/ui", http.StatusFound)
	})

	mux.Group(func(api chi.Router) {
		api.Use(middleware.APIKeyAuth(opts.APIKeys))
		api.With(limit).Post("/analyze", r.wrap(r.handleAnalyze))
		api.Get("/analyses", r.wrap(r.handleList))
		api.Get("/analyses/{id}", r.wrap(r.handleGet))
		api.Get("/reports/{name}", r.wrap(r.handleReport))

		if r.pages != nil {
			api.Route("/ui", func(ui chi.Router) {
				ui.Get("/", r.wrap(r.handleForm))
				ui.With(limit).Post("/analyze", r.wrap(r.handleUIAnalyze))
				ui.Get("/history", r.wrap(r.handleHistory))
			})
		}
	})

	return mux
}

// httpError carries a status for errors the client caused.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(status int, format string, args ...any) error {
	return &httpError{status: status, msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var he *httpError
		switch {
		case errors.As(err, &he):
			writeDetail(w, he.status, he.msg)
		case errors.Is(err, analysis.ErrRecordNotFound), errors.Is(err, os.ErrNotExist):
			writeDetail(w, http.StatusNotFound, "not found")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeDetail(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, domai.ErrUnavailable):
			writeDetail(w, http.StatusServiceUnavailable, "ai provider unavailable")
		default:
			r.log.Error("request failed", "path", req.URL.Path, "error", err)
			writeDetail(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"detail": msg})
}

// submission is a parsed analysis form. Invalid holds a field error that is
// reported as an error Result rather than an HTTP failure.
type submission struct {
	Request analysis.Request
	Invalid error
}

// readSubmission parses the multipart form and saves the uploaded deck.
func (r *Router) readSubmission(w http.ResponseWriter, req *http.Request) (submission, error) {
	if r.maxUpload > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return submission{}, badRequest(http.StatusRequestEntityTooLarge, "file exceeds %d bytes", tooLarge.Limit)
		}
		return submission{}, badRequest(http.StatusBadRequest, "invalid multipart form: %v", err)
	}

	var sub submission
	sub.Request.CompanyName = middleware.SanitizeString(req.FormValue("company_name"))
	sub.Request.WebsiteURL = middleware.NormalizeWebsiteURL(req.FormValue("website_url"))
	if err := middleware.ValidateWebsiteURL(sub.Request.WebsiteURL); err != nil {
		sub.Invalid = fmt.Errorf("%w: website_url: %w", analysis.ErrInvalidInput, err)
	}
	kind, err := analysis.ParseType(req.FormValue("analysis_type"))
	if err != nil && sub.Invalid == nil {
		sub.Invalid = err
	}
	sub.Request.AnalysisType = kind

	file, header, err := req.FormFile("file")
	if err != nil {
		return submission{}, badRequest(http.StatusUnprocessableEntity, "file is required")
	}
	defer file.Close()

	name, err := middleware.UploadFileName(header.Filename)
	if err != nil {
		return submission{}, badRequest(http.StatusBadRequest, "%v", err)
	}
	path, err := r.uploads.Save(name, file)
	if err != nil {
		return submission{}, err
	}
	sub.Request.FilePath = path
	r.log.Info("pitch deck uploaded", "path", path, "bytes", header.Size)
	return sub, nil
}

func (r *Router) analyze(req *http.Request, sub submission) analysis.Result {
	if sub.Invalid != nil {
		return r.svc.Reject(req.Context(), sub.Request, sub.Invalid)
	}
	return r.svc.Analyze(req.Context(), sub.Request)
}

// POST /analyze
// Multipart: file, company_name, website_url?, analysis_type?
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	sub, err := r.readSubmission(w, req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.analyze(req, sub))
}

// GET /analyses?limit=20
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	records, err := r.svc.Recent(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	list := make([]analysis.Record, 0, len(records))
	for _, rec := range records {
		item := *rec
		item.Content = ""
		list = append(list, item)
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.svc.Find(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /reports/{name}
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	name := chi.URLParam(req, "name")
	path, err := r.reports.Resolve(name)
	if err != nil {
		return badRequest(http.StatusBadRequest, "%v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.ErrNotExist
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, req, path)
	return nil
}

// GET /ui
func (r *Router) handleForm(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return r.pages.Form(w, webui.FormPage{})
}

// POST /ui/analyze
func (r *Router) handleUIAnalyze(w http.ResponseWriter, req *http.Request) error {
	sub, err := r.readSubmission(w, req)
	var he *httpError
	if errors.As(err, &he) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(he.status)
		return r.pages.Form(w, webui.FormPage{
			Error:        he.msg,
			CompanyName:  req.FormValue("company_name"),
			WebsiteURL:   req.FormValue("website_url"),
			AnalysisType: analysis.Type(req.FormValue("analysis_type")),
		})
	}
	if err != nil {
		return err
	}

	res := r.analyze(req, sub)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return r.pages.Result(w, res, r.downloadLink(res))
}

func (r *Router) downloadLink(res analysis.Result) string {
	name, ok := r.reports.Served(res.ReportPath)
	if !ok {
		return ""
	}
	return "/reports/" + url.PathEscape(name)
}

// GET /ui/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	records, err := r.svc.Recent(req.Context(), historyPageSize)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return r.pages.History(w, records)
}
