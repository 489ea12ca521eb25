// Package pages renders stored wiki pages, expanding album directives into galleries.
package pages

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/vimeoalbum/backend/internal/album"
	"github.com/vimeoalbum/backend/internal/auth"
	"github.com/vimeoalbum/backend/internal/i18n"
	"github.com/vimeoalbum/backend/internal/logging"
	"github.com/vimeoalbum/backend/internal/markup"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/repositories"
	"github.com/vimeoalbum/backend/internal/vimeo"
)

// ErrPageNotFound is returned when the requested page does not exist.
var ErrPageNotFound = errors.New("page not found")

// Store provides read access to page sources.
type Store interface {
	Get(ctx context.Context, id string) (models.Page, error)
}

// AlbumFetcher loads the videos of one album.
type AlbumFetcher interface {
	FetchAlbumVideos(ctx context.Context, albumID string) (vimeo.AlbumResult, error)
}

// Request describes who asked for a page and how.
type Request struct {
	PageID string
	Viewer auth.Viewer
	Lang   i18n.Lang
	Purge  bool
}

// Rendered is a page ready to be wrapped in the document layout.
type Rendered struct {
	PageID  string
	Title   string
	Body    template.HTML
	Notices []album.Notice
	Cached  bool
	Purged  bool
}

// Service renders pages and caches the results per language and audience.
type Service struct {
	store    Store
	fetcher  AlbumFetcher
	renderer *album.Renderer
	cache    *Cache
}

// NewService wires a page Service. cache may be nil to disable caching.
func NewService(store Store, fetcher AlbumFetcher, renderer *album.Renderer, cache *Cache) *Service {
	if renderer == nil {
		renderer = album.NewRenderer(0, nil)
	}
	return &Service{store: store, fetcher: fetcher, renderer: renderer, cache: cache}
}

// PurgeURL is the link a privileged viewer follows to refresh a page's albums.
func PurgeURL(pageID string) string {
	return "/pages/" + url.PathEscape(pageID) + "?purge=true"
}

// Render produces the page body for req. A purge request from a privileged viewer
// drops every cached variant of the page first; purge requests from anyone else
// are served like ordinary requests.
func (s *Service) Render(ctx context.Context, req Request) (Rendered, error) {
	ctx, span := logging.StartSpan(ctx, "pages.render")
	defer span.End()
	logger := logging.FromContext(ctx).With("page_id", req.PageID)

	if s == nil || s.store == nil {
		return Rendered{}, errors.New("page service not configured")
	}

	privileged := req.Viewer.Privileged()
	purged := false
	if req.Purge && privileged {
		s.cache.DeletePage(ctx, req.PageID)
		purged = true
		logger.Info("page cache purged", "user_id", req.Viewer.UserID)
	}

	key := Key(req.PageID, req.Lang, privileged)
	if entry, ok := s.cache.Get(ctx, key); ok {
		return Rendered{PageID: req.PageID, Title: entry.Title, Body: entry.Body, Cached: true}, nil
	}

	page, err := s.store.Get(ctx, req.PageID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Rendered{}, fmt.Errorf("%w: %s", ErrPageNotFound, req.PageID)
		}
		return Rendered{}, fmt.Errorf("load page: %w", err)
	}

	body, notices, cacheable := s.renderSource(ctx, page, req.Lang, privileged)
	if cacheable {
		s.cache.Set(ctx, key, Entry{Title: page.Title, Body: body})
	} else {
		logger.Warn("page rendered with fetch errors, not caching", "notices", len(notices))
	}

	return Rendered{
		PageID:  page.ID,
		Title:   page.Title,
		Body:    body,
		Notices: notices,
		Purged:  purged,
	}, nil
}

// Invalidate drops cached renders after the page source changed.
func (s *Service) Invalidate(ctx context.Context, pageID string) {
	if s == nil {
		return
	}
	s.cache.DeletePage(ctx, pageID)
}

func (s *Service) renderSource(ctx context.Context, page models.Page, lang i18n.Lang, privileged bool) (template.HTML, []album.Notice, bool) {
	rc := album.RenderContext{PageID: page.ID, IsPrivileged: privileged, Lang: lang}
	if privileged {
		rc.PurgeURL = PurgeURL(page.ID)
	}

	var (
		b         strings.Builder
		notices   []album.Notice
		cacheable = true
	)
	for _, seg := range markup.Split(page.Source) {
		if !seg.IsDirective() {
			b.WriteString(template.HTMLEscapeString(seg.Text))
			continue
		}

		result, err := s.fetch(ctx, seg.AlbumID)
		if err != nil {
			cacheable = false
		}
		frag := s.renderer.Render(rc, result, err)
		// One purge link per page, ahead of the first gallery.
		rc.PurgeURL = ""
		b.WriteString(string(frag.HTML))
		notices = append(notices, frag.Notices...)
	}

	return template.HTML(b.String()), notices, cacheable
}

func (s *Service) fetch(ctx context.Context, albumID string) (vimeo.AlbumResult, error) {
	if s.fetcher == nil {
		return vimeo.AlbumResult{}, &vimeo.ConfigError{Err: vimeo.ErrMissingAccessToken}
	}
	return s.fetcher.FetchAlbumVideos(ctx, albumID)
}
