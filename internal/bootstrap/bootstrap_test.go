package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pitch-analyzer/internal/application/history"
	"github.com/bryanwahyu/pitch-analyzer/internal/config"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/tools"
	"github.com/bryanwahyu/pitch-analyzer/internal/middleware"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Crew.ConfigDir = filepath.Join(dir, "configs")
	cfg.Storage.ReportDir = filepath.Join(dir, "reports")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	cfg.LLM.APIKey = "sk-test"
	return &cfg
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBuildDefaults(t *testing.T) {
	cfg := testConfig(t)

	app, err := Build(context.Background(), cfg, quiet(), middleware.NewMetrics())
	require.NoError(t, err)
	defer app.Close()

	svc := app.Service
	require.True(t, svc.Definitions.Defaulted)
	require.Contains(t, svc.Tools, tools.WebsiteAuditName)
	require.Contains(t, svc.Tools, tools.DocumentProcessorName)
	require.NotContains(t, svc.Tools, tools.SearchName)
	require.IsType(t, &history.Memory{}, svc.History)
	require.Nil(t, svc.Mirror)
	require.NotNil(t, svc.Observer)
	require.Empty(t, app.Health)
	require.NoError(t, svc.CheckAPIKey())
	require.Equal(t, cfg.Storage.UploadDir, app.Uploads.Dir)
}

func TestBuildWithSerperKeyAddsSearch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tools.SerperAPIKey = "serper"

	app, err := Build(context.Background(), cfg, quiet(), nil)
	require.NoError(t, err)
	require.Contains(t, app.Service.Tools, tools.SearchName)
	require.Contains(t, app.Service.Tools, tools.WebSearchName)
	require.Nil(t, app.Service.Observer)
}

func TestBuildGeminiWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = ""

	app, err := Build(context.Background(), cfg, quiet(), nil)
	require.NoError(t, err)
	err = app.Service.CheckAPIKey()
	require.Error(t, err)
	require.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestBuildRejectsUnknownSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "groq"
	_, err := Build(context.Background(), cfg, quiet(), nil)
	require.ErrorContains(t, err, "unknown llm provider")

	cfg = testConfig(t)
	cfg.Database.Driver = "sqlite"
	_, err = Build(context.Background(), cfg, quiet(), nil)
	require.ErrorContains(t, err, "unknown database driver")
}
