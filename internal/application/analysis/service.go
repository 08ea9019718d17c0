package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/pitch-analyzer/internal/application"
	domain "github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

// Service is the analysis facade: it validates a request, runs the crew and
// turns every outcome into a single Result. Safe for concurrent use.
type Service struct {
	Definitions crew.Definitions
	Tools       map[string]crew.Tool
	Runner      crew.Runner
	Documents   domain.DocumentProcessor
	Reports     domain.ReportWriter
	Mirror      domain.ReportMirror // optional
	History     domain.Repository
	Observer    domain.Observer // optional
	Clock       application.Clock
	Log         *slog.Logger

	// APIKey of the selected LLM provider and the variable it is read from.
	APIKey    string
	APIKeyEnv string
}

// CheckAPIKey fails when the provider key is not configured.
func (s *Service) CheckAPIKey() error {
	if strings.TrimSpace(s.APIKey) == "" {
		env := s.APIKeyEnv
		if env == "" {
			env = "OPENAI_API_KEY"
		}
		return fmt.Errorf("%w: %s environment variable is required", domain.ErrMissingAPIKey, env)
	}
	return nil
}

//
// ==== USE CASES ====
//

// Analyze never returns an error: failures are folded into the Result.
func (s *Service) Analyze(ctx context.Context, req domain.Request) domain.Result {
	start := s.Clock.Now()
	res, log := s.begin(req, start)

	content, err := s.run(ctx, req, res.Timestamp, log)
	if err != nil {
		fail(&res, err, log)
	} else {
		res.Status = domain.StatusSuccess
		res.Content = content
		res.ReportPath = s.Reports.Write(content, res.Timestamp, req.CompanyName)
		res.ReportURL = s.mirror(ctx, res.ReportPath, log)
	}
	return s.finish(ctx, res, start, log)
}

// Reject records a request refused before it reached Analyze, e.g. an
// invalid form field, and returns the matching error Result.
func (s *Service) Reject(ctx context.Context, req domain.Request, cause error) domain.Result {
	start := s.Clock.Now()
	res, log := s.begin(req, start)
	fail(&res, cause, log)
	return s.finish(ctx, res, start, log)
}

func (s *Service) begin(req domain.Request, start time.Time) (domain.Result, *slog.Logger) {
	if req.AnalysisType == "" {
		req.AnalysisType = domain.TypeComprehensive
	}
	res := domain.Result{
		ID:           uuid.NewString(),
		Timestamp:    start.Format(domain.TimestampLayout),
		CompanyName:  req.CompanyName,
		AnalysisType: req.AnalysisType,
		FileAnalyzed: req.FilePath,
		WebsiteURL:   req.WebsiteURL,
	}
	return res, s.logger().With("analysis_id", res.ID, "company", req.CompanyName)
}

func fail(res *domain.Result, err error, log *slog.Logger) {
	res.Status = domain.StatusError
	res.Message = "Analysis failed: " + err.Error()
	res.ErrorType = domain.ErrorType(err)
	log.Error("analysis failed", "error_type", res.ErrorType, "error", err)
}

func (s *Service) finish(ctx context.Context, res domain.Result, start time.Time, log *slog.Logger) domain.Result {
	res.DurationSeconds = application.Elapsed(s.Clock, start)
	if res.Succeeded() {
		log.Info("analysis completed", "duration_seconds", res.DurationSeconds, "report_path", res.ReportPath)
	}

	if s.History != nil {
		if err := s.History.Save(context.WithoutCancel(ctx), domain.NewRecord(res, s.Clock.Now())); err != nil {
			log.Warn("history save failed", "error", err)
		}
	}
	if s.Observer != nil {
		s.Observer.ObserveAnalysis(res.Status, res.ErrorType, res.DurationSeconds)
	}
	return res
}

func (s *Service) run(ctx context.Context, req domain.Request, timestamp string, log *slog.Logger) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, err = "", fmt.Errorf("%w: panic: %v", domain.ErrRunnerFailed, r)
		}
	}()

	if err := validate(req); err != nil {
		return "", err
	}
	if err := s.CheckAPIKey(); err != nil {
		return "", err
	}
	log.Info("starting analysis", "analysis_type", req.AnalysisType, "file", req.FilePath)

	document := s.Documents.Process(ctx, req.FilePath)
	vars := []crew.ContextVar{
		{Key: "company_name", Value: req.CompanyName},
		{Key: "analysis_type", Value: string(req.AnalysisType)},
		{Key: "timestamp", Value: timestamp},
		{Key: "file_path", Value: req.FilePath},
		{Key: "document_content", Value: document},
		{Key: "website_url", Value: req.WebsiteURL},
	}

	c := Build(s.Definitions, s.Tools, vars, log)
	if len(c.Tasks) == 0 {
		return "", fmt.Errorf("%w. Check your configuration", domain.ErrNoTasks)
	}

	out, err := s.Runner.Run(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRunnerFailed, err)
	}
	log.Info("crew execution completed", "tasks", len(out.Tasks))
	return extractContent(out), nil
}

// validate checks, in order: file existence, company name, extension.
func validate(req domain.Request) error {
	if _, err := os.Stat(req.FilePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrFileNotFound, req.FilePath)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrFileNotFound, req.FilePath, err)
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return domain.ErrCompanyRequired
	}
	ext := strings.ToLower(filepath.Ext(req.FilePath))
	if !slices.Contains(domain.SupportedFormats, ext) {
		return fmt.Errorf("%w: %s. Supported formats: %s",
			domain.ErrUnsupportedFormat, displayExt(ext), strings.Join(domain.SupportedFormats, ", "))
	}
	return nil
}

func displayExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}

// extractContent prefers the crew's raw output, then the last task output.
func extractContent(out crew.Output) string {
	if strings.TrimSpace(out.Raw) != "" {
		return out.Raw
	}
	if n := len(out.Tasks); n > 0 {
		return out.Tasks[n-1].Raw
	}
	return ""
}

func (s *Service) mirror(ctx context.Context, path string, log *slog.Logger) string {
	if s.Mirror == nil {
		return ""
	}
	url, err := s.Mirror.Upload(ctx, path, "reports/"+filepath.Base(path))
	if err != nil {
		log.Warn("report mirror upload failed", "path", path, "error", err)
		return ""
	}
	return url
}

// Recent lists the latest analyses, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*domain.Record, error) {
	if s.History == nil {
		return nil, nil
	}
	return s.History.Latest(ctx, limit)
}

// Find returns one analysis from the history.
func (s *Service) Find(ctx context.Context, id string) (*domain.Record, error) {
	if s.History == nil {
		return nil, domain.ErrRecordNotFound
	}
	return s.History.Get(ctx, id)
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
