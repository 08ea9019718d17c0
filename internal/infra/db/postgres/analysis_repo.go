package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

const defaultLatest = 200

const schema = `
CREATE TABLE IF NOT EXISTS pitch_analyses (
  id               UUID PRIMARY KEY,
  company_name     TEXT NOT NULL,
  analysis_type    TEXT NOT NULL,
  status           TEXT NOT NULL,
  file_analyzed    TEXT NOT NULL,
  website_url      TEXT,
  report_path      TEXT,
  message          TEXT,
  error_type       TEXT,
  analysis_ts      TEXT NOT NULL,
  duration_seconds DOUBLE PRECISION NOT NULL,
  content          TEXT,
  created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pitch_analyses_created ON pitch_analyses (created_at DESC)`

const selectColumns = `
SELECT id, company_name, analysis_type, status, file_analyzed, website_url, report_path,
       message, error_type, analysis_ts, duration_seconds, content, created_at
FROM pitch_analyses`

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO pitch_analyses
  (id, company_name, analysis_type, status, file_analyzed, website_url, report_path,
   message, error_type, analysis_ts, duration_seconds, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  report_path=EXCLUDED.report_path,
  message=EXCLUDED.message,
  error_type=EXCLUDED.error_type,
  duration_seconds=EXCLUDED.duration_seconds,
  content=EXCLUDED.content;
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
		return fmt.Errorf("postgres: save analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = defaultLatest
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest analyses: %w", err)
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
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	a, err := scanRecord(r.db.QueryRowContext(ctx, selectColumns+` WHERE id=$1`, id))
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
