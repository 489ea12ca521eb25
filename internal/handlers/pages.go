package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/i18n"
	"github.com/vimeoalbum/backend/internal/logging"
	"github.com/vimeoalbum/backend/internal/middleware"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/pages"
)

// RenderCacheHeader reports whether a page came from the render cache.
const RenderCacheHeader = "X-Render-Cache"

// PageHandler serves rendered pages and the page source API.
type PageHandler struct {
	Pages        PageStore
	Renderer     PageRenderer
	PurgeLimiter middleware.RateLimiter
	NowFunc      func() time.Time
}

// Show handles GET /pages/{id}. A privileged viewer may add ?purge=true to
// refetch every album on the page.
func (h PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Renderer == nil {
		logger.Error("page renderer unavailable")
		http.Error(w, "page rendering unavailable", http.StatusInternalServerError)
		return
	}

	viewer := auth.ViewerFromContext(ctx)
	req := pages.Request{
		PageID: chi.URLParam(r, "id"),
		Viewer: viewer,
		Lang:   i18n.Negotiate(r.Header.Get("Accept-Language")),
		Purge:  r.URL.Query().Get("purge") == "true",
	}

	if req.Purge && viewer.Privileged() && !middleware.AllowRequest(h.PurgeLimiter, r, "purge") {
		middleware.RejectRateLimited(w, r, h.PurgeLimiter, "purge")
		return
	}

	rendered, err := h.Renderer.Render(ctx, req)
	if err != nil {
		if errors.Is(err, pages.ErrPageNotFound) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		logger.Error("render page failed", "page_id", req.PageID, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := pages.WriteDocument(&buf, pages.NewDocument(rendered, req.Lang, viewer.Privileged())); err != nil {
		logger.Error("write page document failed", "page_id", req.PageID, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	cacheState := "miss"
	if rendered.Cached {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", string(req.Lang))
	w.Header().Set("Cache-Control", "private, no-cache")
	w.Header().Set("Vary", "Accept-Language, Authorization, Cookie")
	w.Header().Set(RenderCacheHeader, cacheState)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// List handles GET /api/v1/pages.
func (h PageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Pages == nil {
		logging.FromContext(ctx).Error("page store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "page store unavailable")
		return
	}

	list, err := h.Pages.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list pages failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if list == nil {
		list = []models.Page{}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"pages": list})
}

// Put handles PUT /api/v1/pages/{id}. The page's cached renders are dropped.
func (h PageHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Pages == nil {
		logger.Error("page store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "page store unavailable")
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(ctx, w, http.StatusBadRequest, "page id is required")
		return
	}

	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid page payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	page := models.Page{ID: id, Title: req.Title, Source: req.Source, UpdatedAt: h.now()}
	if err := h.Pages.Upsert(ctx, page); err != nil {
		logger.Error("save page failed", "page_id", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save page")
		return
	}

	if h.Renderer != nil {
		h.Renderer.Invalidate(ctx, id)
	}
	logger.Info("page saved", "page_id", id, "user_id", auth.ViewerFromContext(ctx).UserID)

	respondJSON(ctx, w, http.StatusOK, page)
}

type pageRequest struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

func (h PageHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
