package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

var columns = []string{
	"id", "company_name", "analysis_type", "status", "file_analyzed", "website_url", "report_path",
	"message", "error_type", "analysis_ts", "duration_seconds", "content", "created_at",
}

func newRepo(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pitch_analyses").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStoresBlankFieldsAsNull(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	rec := &domain.Record{
		ID:              "3f1c",
		CompanyName:     "Acme",
		AnalysisType:    domain.TypeQuick,
		Status:          domain.StatusError,
		FileAnalyzed:    "uploads/deck.pdf",
		Message:         "Analysis failed: boom",
		ErrorType:       "RunnerFailure",
		Timestamp:       "20240506_070809",
		DurationSeconds: 1.25,
		CreatedAt:       created,
	}
	mock.ExpectExec("INSERT INTO pitch_analyses").
		WithArgs("3f1c", "Acme", "quick", "error", "uploads/deck.pdf",
			nil, nil, "Analysis failed: boom", "RunnerFailure",
			"20240506_070809", 1.25, nil, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("b", "Beta", "comprehensive", "success", "uploads/b.pdf", "https://beta.io", "reports/Beta.txt",
			nil, nil, "20240506_070809", 2.5, "verdict", created).
		AddRow("a", "Alpha", "quick", "error", "uploads/a.pdf", nil, nil,
			"Analysis failed: x", "Internal", "20240506_060809", 0.1, nil, created.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM pitch_analyses ORDER BY created_at DESC").WithArgs(defaultLatest).WillReturnRows(rows)

	list, err := repo.Latest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, domain.StatusSuccess, list[0].Status)
	require.Equal(t, "https://beta.io", list[0].WebsiteURL)
	require.Equal(t, "verdict", list[0].Content)
	require.Equal(t, domain.TypeQuick, list[1].AnalysisType)
	require.Empty(t, list[1].ReportPath)
	require.Equal(t, "Internal", list[1].ErrorType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM pitch_analyses WHERE id=").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
