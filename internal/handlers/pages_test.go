package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimeoalbum/backend/internal/album"
	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/middleware"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/pages"
	"github.com/vimeoalbum/backend/internal/repositories"
	"github.com/vimeoalbum/backend/internal/vimeo"
)

type inMemoryPageStore struct {
	mu    sync.Mutex
	pages map[string]models.Page
}

func newInMemoryPageStore(pages ...models.Page) *inMemoryPageStore {
	s := &inMemoryPageStore{pages: make(map[string]models.Page)}
	for _, p := range pages {
		s.pages[p.ID] = p
	}
	return s
}

func (s *inMemoryPageStore) Get(_ context.Context, id string) (models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[id]
	if !ok {
		return models.Page{}, repositories.ErrNotFound
	}
	return page, nil
}

func (s *inMemoryPageStore) Upsert(_ context.Context, page models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.ID] = page
	return nil
}

func (s *inMemoryPageStore) List(_ context.Context) ([]models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Page, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	return out, nil
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) FetchAlbumVideos(_ context.Context, albumID string) (vimeo.AlbumResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return vimeo.AlbumResult{
		Videos: []vimeo.Video{{
			Name:      "Clip " + albumID,
			EmbedHTML: `<iframe src="https://player.vimeo.com/video/1"></iframe>`,
			Pictures:  []vimeo.Picture{{URL: "https://i.vimeocdn.com/x.jpg", Width: 100}},
		}},
		Warnings: []string{"Vimeo API rate limit nearly exhausted: 3 requests remaining"},
	}, nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type pageFixture struct {
	router  http.Handler
	store   *inMemoryPageStore
	fetcher *countingFetcher
	tokens  map[string]string
}

func newPageFixture(t *testing.T, purgeLimiter middleware.RateLimiter) pageFixture {
	t.Helper()

	store := newInMemoryPageStore(models.Page{ID: "start", Title: "Start", Source: "Welcome\n{{vimeoAlbum>42}}"})
	fetcher := &countingFetcher{}
	service := pages.NewService(store, fetcher, album.NewRenderer(30, time.UTC), pages.NewCache(time.Minute, 100, nil))

	users := newInMemoryUserStore()
	manager := auth.NewManager("test-secret", time.Minute, time.Hour, auth.NewMemoryStore(), users)

	tokens := make(map[string]string)
	for role, user := range map[string]models.User{
		models.RoleManager: {ID: "m1", Role: models.RoleManager},
		models.RoleViewer:  {ID: "v1", Role: models.RoleViewer},
	} {
		issued, err := manager.Issue(context.Background(), user)
		require.NoError(t, err)
		tokens[role] = issued.AccessToken
	}

	r := chi.NewRouter()
	RegisterRoutes(r, Dependencies{
		Users:        users,
		Sessions:     manager,
		Pages:        store,
		Renderer:     service,
		PurgeLimiter: purgeLimiter,
	})

	return pageFixture{router: r, store: store, fetcher: fetcher, tokens: tokens}
}

func (f pageFixture) do(t *testing.T, method, path, token, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPageShowAnonymous(t *testing.T) {
	f := newPageFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/pages/start", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get(RenderCacheHeader))
	assert.Contains(t, body, `class="plugin-vimeo-album"`)
	assert.Contains(t, body, "Clip 42")
	assert.Contains(t, body, "rate limit nearly exhausted")
	assert.NotContains(t, body, "plugin-vimeo-purge")
	assert.NotContains(t, body, "purge=true")

	rec = f.do(t, http.MethodGet, "/pages/start", "", "", nil)
	assert.Equal(t, "hit", rec.Header().Get(RenderCacheHeader))
	assert.Equal(t, 1, f.fetcher.count())
}

func TestPageShowNegotiatesLanguage(t *testing.T) {
	f := newPageFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/pages/start", f.tokens[models.RoleManager], "", map[string]string{"Accept-Language": "de-CH, en;q=0.5"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "de", rec.Header().Get("Content-Language"))
	assert.Contains(t, rec.Body.String(), `<html lang="de">`)
	assert.Contains(t, rec.Body.String(), "Album neu von Vimeo laden")
}

func TestPageShowPrivilegedPurge(t *testing.T) {
	f := newPageFixture(t, nil)
	manager := f.tokens[models.RoleManager]

	rec := f.do(t, http.MethodGet, "/pages/start", manager, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="plugin-vimeo-purge"`)
	assert.Equal(t, 1, f.fetcher.count())

	rec = f.do(t, http.MethodGet, "/pages/start?purge=true", manager, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get(RenderCacheHeader))
	assert.Equal(t, 2, f.fetcher.count())
}

func TestPageShowPurgeIgnoredForUnprivileged(t *testing.T) {
	f := newPageFixture(t, nil)

	f.do(t, http.MethodGet, "/pages/start", "", "", nil)
	rec := f.do(t, http.MethodGet, "/pages/start?purge=true", f.tokens[models.RoleViewer], "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get(RenderCacheHeader))
	assert.Equal(t, 1, f.fetcher.count())
}

func TestPageShowPurgeIsRateLimited(t *testing.T) {
	f := newPageFixture(t, middleware.NewIPRateLimiter(1, time.Hour, 1, time.Hour))
	manager := f.tokens[models.RoleManager]

	rec := f.do(t, http.MethodGet, "/pages/start?purge=true", manager, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/pages/start?purge=true", manager, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPageShowNotFound(t *testing.T) {
	f := newPageFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/pages/missing", "", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageList(t *testing.T) {
	f := newPageFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/pages", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Pages []models.Page `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "start", resp.Pages[0].ID)
}

func TestPagePut(t *testing.T) {
	f := newPageFixture(t, nil)
	manager := f.tokens[models.RoleManager]

	f.do(t, http.MethodGet, "/pages/start", "", "", nil)
	require.Equal(t, 1, f.fetcher.count())

	rec := f.do(t, http.MethodPut, "/api/v1/pages/start", manager, `{"title":"Start","source":"{{vimeoAlbum>7}}"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := f.store.Get(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "{{vimeoAlbum>7}}", saved.Source)

	rec = f.do(t, http.MethodGet, "/pages/start", "", "", nil)
	assert.Equal(t, "miss", rec.Header().Get(RenderCacheHeader), "saving a page drops its cached renders")
	assert.Contains(t, rec.Body.String(), "Clip 7")
}

func TestPagePutAuthorization(t *testing.T) {
	f := newPageFixture(t, nil)
	body := `{"title":"Hacked","source":""}`

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPut, "/api/v1/pages/start", "", body, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, "/api/v1/pages/start", f.tokens[models.RoleViewer], body, nil).Code)

	page, err := f.store.Get(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "Start", page.Title)
}

func TestPagePutValidation(t *testing.T) {
	f := newPageFixture(t, nil)
	manager := f.tokens[models.RoleManager]

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/v1/pages/start", manager, `{"title":"  "}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/v1/pages/start", manager, `not json`, nil).Code)
}

func TestStaticAssets(t *testing.T) {
	f := newPageFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/static/vimeoalbum.js", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "plugin-vimeo-video")
}

func TestLoginIsRateLimited(t *testing.T) {
	store := newInMemoryUserStore()
	manager := auth.NewManager("test-secret", time.Minute, time.Hour, auth.NewMemoryStore(), store)

	r := chi.NewRouter()
	RegisterRoutes(r, Dependencies{
		Users:        store,
		Sessions:     manager,
		LoginLimiter: middleware.NewIPRateLimiter(1, time.Hour, 1, time.Hour),
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
