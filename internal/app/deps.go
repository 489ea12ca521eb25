package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/vimeoalbum/backend/internal/album"
	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/config"
	"github.com/vimeoalbum/backend/internal/db"
	"github.com/vimeoalbum/backend/internal/handlers"
	"github.com/vimeoalbum/backend/internal/middleware"
	"github.com/vimeoalbum/backend/internal/pages"
	"github.com/vimeoalbum/backend/internal/repositories"
	"github.com/vimeoalbum/backend/internal/vimeo"
)

// components holds the wired services shared by the subcommands.
type components struct {
	HTTP  handlers.Dependencies
	Pages *pages.Service
	Store repositories.PageRepository
	Users repositories.UserRepository
	Auth  *auth.Manager

	redis *redis.Client
}

// Close releases clients opened by buildComponents.
func (c *components) Close() error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// buildComponents wires together concrete implementations used by the subcommands.
func buildComponents(pool db.Pool, cfg config.Config) (*components, error) {
	loc := time.UTC
	if tz := strings.TrimSpace(cfg.DisplayTimezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load display timezone %q: %w", tz, err)
		}
		loc = l
	}

	var rdb *redis.Client
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	var cacheBackend redis.UniversalClient
	if rdb != nil {
		cacheBackend = rdb
	}

	users := repositories.NewPostgresUserRepository(pool)
	store := repositories.NewPostgresPageRepository(pool)

	client := vimeo.NewClient(cfg.VimeoAccessToken, cfg.VimeoBaseURL, cfg.VimeoTimeout)
	renderer := album.NewRenderer(cfg.ThumbnailWidthPercent, loc)
	cache := pages.NewCache(cfg.RenderCacheTTL, cfg.RenderCacheMaxEntries, cacheBackend)
	service := pages.NewService(store, client, renderer, cache)

	sessions := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, repositories.NewPostgresSessionStore(pool), users)

	return &components{
		HTTP: handlers.Dependencies{
			Users:        users,
			Sessions:     sessions,
			Pages:        store,
			Renderer:     service,
			Database:     pool,
			LoginLimiter: middleware.NewIPRateLimiter(cfg.LoginRateLimit, time.Minute, cfg.LoginRateBurst, 10*time.Minute),
			PurgeLimiter: middleware.NewIPRateLimiter(6, time.Minute, 3, 10*time.Minute),
		},
		Pages: service,
		Store: store,
		Users: users,
		Auth:  sessions,
		redis: rdb,
	}, nil
}
