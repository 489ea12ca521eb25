package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/db"
)

const (
	upsertSessionSQL = `INSERT INTO sessions (refresh_token, user_id, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (refresh_token) DO UPDATE
SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`

	selectSessionSQL = `SELECT user_id, expires_at FROM sessions WHERE refresh_token = $1`

	deleteSessionSQL = `DELETE FROM sessions WHERE refresh_token = $1`

	deleteExpiredSessionsSQL = `DELETE FROM sessions WHERE expires_at <= $1`
)

// PostgresSessionStore keeps refresh sessions in the sessions table so logins
// survive restarts and are shared between replicas.
type PostgresSessionStore struct {
	pool db.Pool
}

func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	if _, err := s.pool.Exec(ctx, upsertSessionSQL, session.RefreshToken, session.UserID, session.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	session := auth.Session{RefreshToken: refreshToken}
	err := s.pool.QueryRow(ctx, selectSessionSQL, refreshToken).Scan(&session.UserID, &session.ExpiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return auth.Session{}, auth.ErrSessionNotFound
	case err != nil:
		return auth.Session{}, fmt.Errorf("find session: %w", err)
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	tag, err := s.pool.Exec(ctx, deleteSessionSQL, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions that expired at or before now and reports how many went.
func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, deleteExpiredSessionsSQL, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ auth.SessionStore         = (*PostgresSessionStore)(nil)
	_ auth.ExpiredSessionPruner = (*PostgresSessionStore)(nil)
)
