package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vimeoalbum/backend/internal/config"
	"github.com/vimeoalbum/backend/internal/db"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/repositories"
)

const minPasswordLength = 8

// userCreator is the part of the user repository adduser needs.
type userCreator interface {
	Create(ctx context.Context, user models.User) error
}

func runAddUser(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: adduser EMAIL PASSWORD [manager]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	user, err := addUser(ctx, repositories.NewPostgresUserRepository(pool), args, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func addUser(ctx context.Context, users userCreator, args []string, now time.Time) (models.User, error) {
	email := strings.TrimSpace(strings.ToLower(args[0]))
	password := args[1]

	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, fmt.Errorf("invalid email address %q", email)
	}
	if len(password) < minPasswordLength {
		return models.User{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	role := models.RoleViewer
	if len(args) > 2 {
		switch args[2] {
		case models.RoleManager, models.RoleViewer:
			role = args[2]
		default:
			return models.User{}, fmt.Errorf("unknown role %q", args[2])
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, fmt.Errorf("account %s already exists", email)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
