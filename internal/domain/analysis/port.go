package analysis

import "context"

// Repository keeps the analysis history.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Latest(ctx context.Context, limit int) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
}

// DocumentProcessor turns an uploaded file into text for the crew context.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) string
}

// ReportWriter persists the report text and returns where it landed.
// It never fails; on total failure it returns a sentinel path.
type ReportWriter interface {
	Write(content, timestamp, companyName string) string
}

// ReportMirror copies a saved report elsewhere (object storage).
type ReportMirror interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Observer receives analysis outcomes (metrics).
type Observer interface {
	ObserveAnalysis(status Status, errorType string, durationSeconds float64)
}
