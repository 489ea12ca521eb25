package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vimeoalbum/backend/internal/config"
	"github.com/vimeoalbum/backend/internal/db"
	"github.com/vimeoalbum/backend/internal/export"
	"github.com/vimeoalbum/backend/internal/storage"
)

func runExport(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	c, err := buildComponents(pool, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := export.Exporter{Pages: c.Store, Renderer: c.Pages, Store: store}.Run(ctx)
	if err != nil {
		return err
	}

	for _, location := range report.Locations {
		fmt.Println(location)
	}
	if len(report.Failed) > 0 {
		logger.Warn("some pages were not exported", "pages", report.Failed)
		return fmt.Errorf("%d pages failed to render", len(report.Failed))
	}
	return nil
}
