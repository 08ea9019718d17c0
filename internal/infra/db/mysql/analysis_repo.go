package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

const defaultLatest = 200

const schema = `
CREATE TABLE IF NOT EXISTS pitch_analyses (
  id               CHAR(36)     NOT NULL PRIMARY KEY,
  company_name     VARCHAR(255) NOT NULL,
  analysis_type    VARCHAR(32)  NOT NULL,
  status           VARCHAR(16)  NOT NULL,
  file_analyzed    VARCHAR(1024) NOT NULL,
  website_url      VARCHAR(1024) NULL,
  report_path      VARCHAR(1024) NULL,
  message          TEXT         NULL,
  error_type       VARCHAR(64)  NULL,
  analysis_ts      VARCHAR(15)  NOT NULL,
  duration_seconds DOUBLE       NOT NULL,
  content          MEDIUMTEXT   NULL,
  created_at       DATETIME(6)  NOT NULL,
  KEY idx_pitch_analyses_created (created_at)
)`

const selectColumns = `
SELECT id, company_name, analysis_type, status, file_analyzed, website_url, report_path,
       message, error_type, analysis_ts, duration_seconds, content, created_at
FROM pitch_analyses`

// AnalysisRepository keeps the analysis history in MySQL.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("mysql: ensure schema: %w", err)
	}
	return nil
}

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO pitch_analyses
  (id, company_name, analysis_type, status, file_analyzed, website_url, report_path,
   message, error_type, analysis_ts, duration_seconds, content, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), report_path=VALUES(report_path), message=VALUES(message),
  error_type=VALUES(error_type), duration_seconds=VALUES(duration_seconds), content=VALUES(content);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.CompanyName, string(a.AnalysisType), string(a.Status), a.FileAnalyzed,
		nullString(a.WebsiteURL), nullString(a.ReportPath), nullString(a.Message), nullString(a.ErrorType),
		a.Timestamp, a.DurationSeconds, nullString(a.Content), createdAt,
	)
	if err != nil {
		return fmt.Errorf("mysql: save analysis %s: %w", a.ID, err)
	}
	return nil
}

// Latest returns the newest records first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = defaultLatest
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("mysql: latest analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	a, err := scanRecord(r.db.QueryRowContext(ctx, selectColumns+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var (
		a                                          domain.Record
		kind, status                               string
		website, reportPath, message, errType, txt sql.NullString
	)
	if err := s.Scan(&a.ID, &a.CompanyName, &kind, &status, &a.FileAnalyzed, &website, &reportPath,
		&message, &errType, &a.Timestamp, &a.DurationSeconds, &txt, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.AnalysisType = domain.Type(kind)
	a.Status = domain.Status(status)
	a.WebsiteURL = website.String
	a.ReportPath = reportPath.String
	a.Message = message.String
	a.ErrorType = errType.String
	a.Content = txt.String
	return &a, nil
}
