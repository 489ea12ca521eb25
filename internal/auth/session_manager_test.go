package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vimeoalbum/backend/internal/models"
)

type userLookupStub map[string]models.User

func (s userLookupStub) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := s[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

func TestManagerIssueAndRefresh(t *testing.T) {
	store := NewMemoryStore()
	users := userLookupStub{"user-1": {ID: "user-1", Role: models.RoleManager}}
	manager := NewManager("secret", time.Minute, time.Hour, store, users)

	tokens, err := manager.Issue(context.Background(), models.User{ID: "user-1", Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	viewer, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if viewer.UserID != "user-1" || viewer.Privileged() {
		t.Fatalf("unexpected viewer: %+v", viewer)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}

	viewer, err = manager.Verify(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if !viewer.Privileged() {
		t.Fatalf("expected role from user lookup after refresh: %+v", viewer)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Hour, NewMemoryStore(), nil)
	if _, err := manager.Issue(context.Background(), models.User{}); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerVerifyRejectsBadTokens(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Hour, NewMemoryStore(), nil)
	other := NewManager("other-secret", time.Minute, time.Hour, NewMemoryStore(), nil)

	tokens, err := other.Issue(context.Background(), models.User{ID: "user-1", Role: models.RoleManager})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token for foreign signature got %v", err)
	}
	if _, err := manager.Verify("garbage"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token for garbage got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected expired token to be rejected got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Millisecond, NewMemoryStore(), nil)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestViewerContext(t *testing.T) {
	if v := ViewerFromContext(context.Background()); !v.Anonymous() || v.Privileged() {
		t.Fatalf("expected anonymous viewer got %+v", v)
	}
	ctx := WithViewer(context.Background(), Viewer{UserID: "u", Role: models.RoleManager})
	if v := ViewerFromContext(ctx); v.Anonymous() || !v.Privileged() {
		t.Fatalf("expected privileged viewer got %+v", v)
	}
}

func TestManagerPruneExpired(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManager("secret", time.Minute, time.Hour, store, nil)

	stale, err := manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	fresh, err := manager.Issue(context.Background(), models.User{ID: "user-2"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	n, err := manager.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 || store.Has(stale.RefreshToken) || !store.Has(fresh.RefreshToken) {
		t.Fatalf("expected only the stale session pruned, removed %d", n)
	}
}

type findOnlyStore struct{ SessionStore }

func TestManagerPruneExpiredUnsupportedStore(t *testing.T) {
	manager := NewManager("secret", time.Minute, time.Hour, findOnlyStore{NewMemoryStore()}, nil)
	if n, err := manager.PruneExpired(context.Background()); n != 0 || err != nil {
		t.Fatalf("expected no-op prune got %d %v", n, err)
	}
}
