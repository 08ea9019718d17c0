package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/pitch-analyzer/internal/bootstrap"
	"github.com/bryanwahyu/pitch-analyzer/internal/config"
	"github.com/bryanwahyu/pitch-analyzer/internal/observability/logging"
	"github.com/bryanwahyu/pitch-analyzer/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	path := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// the terminal belongs to the UI; logs go to the log file only
	var w io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	log := logging.NewJSONLogger(w, "pitch-analyzer-tui", cfg.Log.Level)

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Service.CheckAPIKey(); err != nil {
		return fmt.Errorf("%w\nPlease add the missing API key to your .env file", err)
	}

	_, err = tea.NewProgram(tui.NewApp(ctx, app.Service), tea.WithAltScreen()).Run()
	return err
}
