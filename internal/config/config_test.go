package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080 got %d", cfg.AppPort)
	}
	if cfg.VimeoBaseURL != "https://api.vimeo.com" {
		t.Fatalf("unexpected vimeo base url %q", cfg.VimeoBaseURL)
	}
	if cfg.ThumbnailWidthPercent != 30 {
		t.Fatalf("unexpected thumbnail width %v", cfg.ThumbnailWidthPercent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VIMEOALBUM_PORT", "9090")
	t.Setenv("VIMEOALBUM_VIMEO_ACCESS_TOKEN", "secret")
	t.Setenv("VIMEOALBUM_VIMEO_TIMEOUT", "3s")
	t.Setenv("VIMEOALBUM_THUMBNAIL_WIDTH_PERCENT", "45.5")
	t.Setenv("VIMEOALBUM_S3_BUCKET", "exports")
	t.Setenv("VIMEOALBUM_TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 9090 {
		t.Fatalf("expected port override got %d", cfg.AppPort)
	}
	if cfg.VimeoAccessToken != "secret" {
		t.Fatalf("expected access token override got %q", cfg.VimeoAccessToken)
	}
	if cfg.VimeoTimeout != 3*time.Second {
		t.Fatalf("expected timeout override got %v", cfg.VimeoTimeout)
	}
	if cfg.ThumbnailWidthPercent != 45.5 {
		t.Fatalf("expected width override got %v", cfg.ThumbnailWidthPercent)
	}
	if cfg.TrustedProxies != "10.0.0.0/8" {
		t.Fatalf("expected trusted proxies override got %q", cfg.TrustedProxies)
	}
	if cfg.ObjectStore.Bucket != "exports" {
		t.Fatalf("expected bucket override got %q", cfg.ObjectStore.Bucket)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("VIMEOALBUM_PORT", "not-a-number")
	t.Setenv("VIMEOALBUM_VIMEO_TIMEOUT", "soon")
	t.Setenv("VIMEOALBUM_THUMBNAIL_WIDTH_PERCENT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 || cfg.VimeoTimeout != 10*time.Second || cfg.ThumbnailWidthPercent != 30 {
		t.Fatalf("expected defaults for invalid values got %+v", cfg)
	}
}
