package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vimeoalbum/backend/internal/config"
	"github.com/vimeoalbum/backend/internal/db"
	"github.com/vimeoalbum/backend/internal/handlers"
	"github.com/vimeoalbum/backend/internal/httpserver"
	"github.com/vimeoalbum/backend/internal/middleware"
)

// Run bootstraps the vimeoalbum service.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, seed, adduser, or export")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	case "adduser":
		return runAddUser(ctx, args[1:])
	case "export":
		return runExport(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if strings.TrimSpace(cfg.VimeoAccessToken) == "" {
		logger.Warn("no vimeo access token configured, albums will render as errors")
	}

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("VIMEOALBUM_TRUSTED_PROXIES: %w", err)
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

	go pruneSessions(ctx, c.Auth, sessionPruneInterval)

	router := chi.NewRouter()
	router.Use(middleware.TrustProxies(trusted))
	router.Use(middleware.RequestLogger(logger))
	handlers.RegisterRoutes(router, c.HTTP)

	srv := httpserver.New(cfg.AppPort, router, cfg.WriteTimeout)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	logger.Info("starting http server", "addr", ln.Addr().String())
	err = srv.Run(ctx, ln)
	logger.Info("http server stopped", "reason", context.Cause(ctx))
	return err
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: lvl}))
}

const sessionPruneInterval = time.Hour

type sessionPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// pruneSessions drops expired refresh sessions every interval until ctx is done.
func pruneSessions(ctx context.Context, p sessionPruner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PruneExpired(ctx)
			if err != nil {
				slog.Warn("prune expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned expired sessions", "count", n)
			}
		}
	}
}
