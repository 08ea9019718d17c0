package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/pitch-analyzer/internal/bootstrap"
	"github.com/bryanwahyu/pitch-analyzer/internal/config"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/webui"
	"github.com/bryanwahyu/pitch-analyzer/internal/middleware"
	"github.com/bryanwahyu/pitch-analyzer/internal/observability/logging"
)

func main() {
	// path config.yaml
	path := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, closer, err := logging.New("pitch-analyzer-api", cfg.Log.Level, cfg.Log.File)
	if err != nil {
		os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx := context.Background()
	metrics := middleware.NewMetrics()

	app, err := bootstrap.Build(ctx, cfg, log, metrics)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	pages, err := webui.New()
	if err != nil {
		log.Error("web ui init failed", "error", err)
		os.Exit(1)
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:       app.Service,
		Uploads:        app.Uploads,
		Reports:        app.Reports,
		Pages:          pages,
		Metrics:        metrics,
		Health:         app.Health,
		Log:            log,
		APIKeys:        cfg.Auth.APIKeys,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info("server listening", "addr", srv.Addr, "provider", cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
