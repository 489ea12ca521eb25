package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/logging"
	"github.com/vimeoalbum/backend/internal/middleware"
	"github.com/vimeoalbum/backend/internal/models"
)

const maxAuthBody = 16 << 10

// AuthHandler serves the login, refresh and logout endpoints for wiki editors.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	Role   string               `json:"role,omitempty"`
}

// Login checks email and password and starts a session. Unknown accounts and
// wrong passwords get the same 401 so emails cannot be probed.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Users == nil || h.Sessions == nil {
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	logger := logging.FromContext(ctx).With("email", email)
	user, err := h.Users.FindByEmail(ctx, email)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	}
	if err != nil {
		logger.Info("login rejected", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("issue session", "error", err, "user_id", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, tokenCookie(tokens.AccessToken, tokens.AccessExpiresAt))
	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens, Role: user.Role})
}

// Refresh rotates a refresh token and reissues the access cookie.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Sessions == nil {
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	token, ok := refreshTokenFrom(w, r)
	if !ok {
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	switch {
	case errors.Is(err, auth.ErrRefreshTokenExpired), errors.Is(err, auth.ErrSessionNotFound):
		respondError(ctx, w, http.StatusUnauthorized, "unable to refresh session")
		return
	case err != nil:
		logging.FromContext(ctx).Error("refresh session", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	http.SetCookie(w, tokenCookie(tokens.AccessToken, tokens.AccessExpiresAt))
	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes the refresh token, if any, and expires the access cookie.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	if h.Sessions != nil {
		h.Sessions.Revoke(r.Context(), strings.TrimSpace(req.RefreshToken))
	}

	expired := tokenCookie("", time.Time{})
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	w.WriteHeader(http.StatusNoContent)
}

func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req refreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, err.Error())
		return "", false
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "refresh token is required")
		return "", false
	}
	return token, true
}

func tokenCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// decodeBody reads a bounded JSON object from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody))
	if err := dec.Decode(dst); err != nil {
		logging.FromContext(r.Context()).Warn("decode request body", "path", r.URL.Path, "error", err)
		return errors.New("invalid request body")
	}
	return nil
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encode response body", "status", status, "error", err)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "response", payload)
	}
}
