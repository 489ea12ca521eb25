package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vimeoalbum/backend/internal/db"
	"github.com/vimeoalbum/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleViewer
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Email, user.Password, role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, email, password_hash, role, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return user, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, email, password_hash, role, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// PostgresPageRepository provides PostgreSQL-backed persistence for page sources.
type PostgresPageRepository struct {
	pool db.Pool
}

// NewPostgresPageRepository constructs a page repository backed by PostgreSQL.
func NewPostgresPageRepository(pool db.Pool) *PostgresPageRepository {
	return &PostgresPageRepository{pool: pool}
}

// Get loads a single page by identifier.
func (r *PostgresPageRepository) Get(ctx context.Context, id string) (models.Page, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, title, source, updated_at
        FROM pages
        WHERE id = $1
    `, id)

	var page models.Page
	if err := row.Scan(&page.ID, &page.Title, &page.Source, &page.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Page{}, ErrNotFound
		}
		return models.Page{}, fmt.Errorf("select page: %w", err)
	}

	page.UpdatedAt = page.UpdatedAt.UTC()
	return page, nil
}

// Upsert creates the page or replaces its title and source.
func (r *PostgresPageRepository) Upsert(ctx context.Context, page models.Page) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO pages (id, title, source, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id)
        DO UPDATE SET title = EXCLUDED.title, source = EXCLUDED.source, updated_at = EXCLUDED.updated_at
    `, page.ID, page.Title, page.Source, page.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

// List returns every page ordered by identifier.
func (r *PostgresPageRepository) List(ctx context.Context) ([]models.Page, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, title, source, updated_at
        FROM pages
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.Title, &page.Source, &page.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		page.UpdatedAt = page.UpdatedAt.UTC()
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ PageRepository = (*PostgresPageRepository)(nil)
