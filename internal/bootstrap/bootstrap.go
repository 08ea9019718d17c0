// Package bootstrap wires the analysis service from configuration for the
// API server and the terminal UI.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/pitch-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/pitch-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/application/history"
	"github.com/bryanwahyu/pitch-analyzer/internal/config"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/ai/gemini"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/ai/openai"
	crewinfra "github.com/bryanwahyu/pitch-analyzer/internal/infra/crew"
	mysqlp "github.com/bryanwahyu/pitch-analyzer/internal/infra/db/mysql"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/report"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/resilience"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/tools"
	"github.com/bryanwahyu/pitch-analyzer/internal/middleware"
)

const memoryHistory = 200

// App holds the wired service and what its owner must release.
type App struct {
	Service *appanalysis.Service
	Reports *report.Writer
	Uploads *storage.Uploads
	Health  map[string]middleware.HealthChecker

	db *sql.DB
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Build assembles the service. metrics may be nil.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger, metrics *middleware.Metrics) (*App, error) {
	defs, err := crewinfra.LoadDefinitions(cfg.Crew.ConfigDir, cfg.Crew.AgentsFile, cfg.Crew.TasksFile, log)
	if err != nil {
		return nil, err
	}

	exec := resilience.NewExecutor(resilience.Policy{
		Attempts:     cfg.LLM.Breaker.RetryMaxAttempts,
		Breaker:      cfg.LLM.Breaker.Enabled,
		MinRequests:  cfg.LLM.Breaker.MinRequests,
		FailureRatio: cfg.LLM.Breaker.FailureRatio,
		OpenTimeout:  cfg.LLM.Breaker.OpenTimeout,
	}, log)
	client, err := newLLM(ctx, cfg, exec)
	if err != nil {
		return nil, err
	}
	if client != nil {
		log.Info("llm provider ready", "client", client.Name())
	}

	doc := tools.NewFileProcessor(cfg.Tools.Document.ExtractText, cfg.Tools.Document.MaxChars, log)
	registry := tools.Registry(tools.Options{
		SerperAPIKey: cfg.Tools.SerperAPIKey,
		SerperURL:    cfg.Tools.SerperURL,
		AuditTimeout: cfg.Tools.AuditTimeout,
		Document:     doc,
	}, log)

	runner := crewinfra.NewSequentialRunner(client, cfg.Crew.MaxIterations, log)
	reports := report.NewWriter(cfg.Storage.ReportDir, log)
	svc := &appanalysis.Service{
		Definitions: defs,
		Tools:       registry,
		Runner:      runner,
		Documents:   doc,
		Reports:     reports,
		Clock:       application.SystemClock{},
		Log:         log,
		APIKey:      cfg.LLM.APIKey,
		APIKeyEnv:   cfg.APIKeyEnv(),
	}
	if metrics != nil {
		runner.Observer = metrics
		svc.Observer = metrics
	}

	app := &App{
		Service: svc,
		Reports: reports,
		Uploads: storage.NewUploads(cfg.Storage.UploadDir),
		Health:  map[string]middleware.HealthChecker{},
	}

	repo, db, err := newHistory(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	svc.History = repo
	if db != nil {
		app.db = db
		app.Health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		log.Info("analysis history persisted", "driver", cfg.Database.Driver)
	}

	if cfg.Minio.Enabled {
		mirror, err := storage.NewMirror(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Mirror = mirror
		log.Info("report mirror enabled", "bucket", cfg.Minio.BucketName)
	}

	if err := svc.CheckAPIKey(); err != nil {
		log.Warn("llm api key missing, analyses will fail until it is set", "error", err)
	}
	return app, nil
}

// newLLM returns nil without a key; the service rejects every analysis
// before the runner is reached in that case.
func newLLM(ctx context.Context, cfg *config.Config, exec *resilience.Executor) (ai.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Options{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, exec), nil
	case "gemini":
		if cfg.LLM.APIKey == "" {
			return nil, nil
		}
		return gemini.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, exec)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (allowed: openai, gemini)", cfg.LLM.Provider)
	}
}

func newHistory(ctx context.Context, cfg config.DatabaseConfig) (domain.Repository, *sql.DB, error) {
	type schemaRepo interface {
		domain.Repository
		EnsureSchema(ctx context.Context) error
	}

	var (
		db   *sql.DB
		repo schemaRepo
		err  error
	)
	switch cfg.Driver {
	case "":
		return history.NewMemory(memoryHistory), nil, nil
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.DSN); err == nil {
			repo = mysqlp.NewAnalysisRepository(db)
		}
	case "postgres":
		if db, err = postgres.Connect(ctx, cfg.DSN); err == nil {
			repo = postgres.NewAnalysisRepository(db)
		}
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q (allowed: mysql, postgres)", cfg.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}
	return repo, db, nil
}
