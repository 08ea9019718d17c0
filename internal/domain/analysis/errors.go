package analysis

import (
	"context"
	"errors"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
)

var (
	ErrFileNotFound      = errors.New("pitch deck file not found")
	ErrCompanyRequired   = errors.New("company name is required")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingAPIKey     = errors.New("missing api key")
	ErrNoTasks           = errors.New("no tasks were created")
	ErrRunnerFailed      = errors.New("crew execution failed")
	ErrRecordNotFound    = errors.New("analysis record not found")
)

// ErrorType names the failure class of err for AnalysisResult.error_type.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "FileNotFound"
	case errors.Is(err, ErrCompanyRequired), errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrMissingAPIKey):
		return "MissingAPIKey"
	case errors.Is(err, ErrNoTasks):
		return "NoTasks"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "QuotaExceeded"
	case errors.Is(err, ai.ErrUnavailable):
		return "ProviderUnavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	case errors.Is(err, ErrRunnerFailed):
		return "RunnerFailure"
	default:
		return "Internal"
	}
}
