package repositories

import (
	"context"

	"github.com/vimeoalbum/backend/internal/models"
)

// PageRepository exposes data access for wiki page sources.
type PageRepository interface {
	Get(ctx context.Context, id string) (models.Page, error)
	Upsert(ctx context.Context, page models.Page) error
	List(ctx context.Context) ([]models.Page, error)
}
