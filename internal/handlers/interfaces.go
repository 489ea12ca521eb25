package handlers

import (
	"context"

	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/pages"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
	Verify(accessToken string) (auth.Viewer, error)
}

// PageStore captures persistence for page sources.
type PageStore interface {
	Get(ctx context.Context, id string) (models.Page, error)
	Upsert(ctx context.Context, page models.Page) error
	List(ctx context.Context) ([]models.Page, error)
}

// PageRenderer turns stored pages into HTML bodies.
type PageRenderer interface {
	Render(ctx context.Context, req pages.Request) (pages.Rendered, error)
	Invalidate(ctx context.Context, pageID string)
}
