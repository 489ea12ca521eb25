package storage

import (
	"context"
	"testing"

	"github.com/vimeoalbum/backend/internal/config"
)

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"pages/start.html":      "pages/start.html",
		"/pages/start.html":     "pages/start.html",
		"pages/../../etc/x":     "etc/x",
		" static/vimeoalbum.js": "static/vimeoalbum.js",
	}
	for in, want := range cases {
		got, err := ObjectKey(in)
		if err != nil {
			t.Fatalf("ObjectKey(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ObjectKey(%q) = %q want %q", in, got, want)
		}
	}

	for _, bad := range []string{"", "/", "  "} {
		if _, err := ObjectKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPublicURL(t *testing.T) {
	if got := PublicURL("", "pages/a.html"); got != "pages/a.html" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := PublicURL("https://cdn.example.com", "pages/a.html"); got != "https://cdn.example.com/pages/a.html" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestNewS3StorageWithEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:        "exports",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.bucket != "exports" || store.baseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected storage %+v", store)
	}
}
