package repositories

import (
	"context"

	"github.com/vimeoalbum/backend/internal/models"
)

// UserRepository exposes data access for wiki accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}
