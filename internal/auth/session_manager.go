package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vimeoalbum/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates an access token failed signature or expiry checks.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// SessionStore persists issued refresh tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, refreshToken string) (Session, error)
	Delete(ctx context.Context, refreshToken string) error
}

// UserLookup resolves the account behind a refresh token so role changes apply on refresh.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Session represents a refresh token issued to a user.
type Session struct {
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

// Claims are the access token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager manages the lifecycle of issued session tokens backed by a persistent store.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	store SessionStore
	users UserLookup
	now   func() time.Time
}

// NewManager constructs a Manager that issues signed access tokens and opaque
// refresh tokens with the provided TTLs.
func NewManager(secret string, accessTTL, refreshTTL time.Duration, store SessionStore, users UserLookup) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if secret == "" {
		panic("auth: signing secret must not be empty")
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		users:      users,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs an access token for user and records a fresh refresh session.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	access, err := m.sign(user, now)
	if err != nil {
		return models.SessionTokens{}, err
	}
	session, err := m.newSession(user.ID, now)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := m.store.Save(ctx, session); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save session: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     session.RefreshToken,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token. The old token is consumed even when the
// replacement cannot be issued, and the role is re-read from the user record.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := m.store.Delete(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return models.SessionTokens{}, err
	}
	if m.now().After(session.ExpiresAt) {
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	user := models.User{ID: session.UserID}
	if m.users != nil {
		if user, err = m.users.FindByID(ctx, session.UserID); err != nil {
			return models.SessionTokens{}, fmt.Errorf("load session user: %w", err)
		}
	}
	return m.Issue(ctx, user)
}

// Revoke forgets refreshToken. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken != "" {
		_ = m.store.Delete(ctx, refreshToken)
	}
}

// ExpiredSessionPruner is implemented by stores that can drop stale sessions in bulk.
type ExpiredSessionPruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PruneExpired removes expired refresh sessions when the store supports it.
func (m *Manager) PruneExpired(ctx context.Context) (int64, error) {
	pruner, ok := m.store.(ExpiredSessionPruner)
	if !ok {
		return 0, nil
	}
	return pruner.DeleteExpired(ctx, m.now())
}

func (m *Manager) sign(user models.User, now time.Time) (string, error) {
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (m *Manager) newSession(userID string, now time.Time) (Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Session{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return Session{
		RefreshToken: base64.RawURLEncoding.EncodeToString(buf),
		UserID:       userID,
		ExpiresAt:    now.Add(m.refreshTTL),
	}, nil
}

// Verify checks an access token and returns the viewer it identifies.
func (m *Manager) Verify(accessToken string) (Viewer, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Viewer{}, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	if claims.Subject == "" {
		return Viewer{}, fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	}
	return Viewer{UserID: claims.Subject, Role: claims.Role}, nil
}
