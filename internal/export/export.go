// Package export publishes anonymous renders of every page, plus the gallery
// assets, to object storage as a static site.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/vimeoalbum/backend/internal/assets"
	"github.com/vimeoalbum/backend/internal/i18n"
	"github.com/vimeoalbum/backend/internal/logging"
	"github.com/vimeoalbum/backend/internal/models"
	"github.com/vimeoalbum/backend/internal/pages"
)

const htmlContentType = "text/html; charset=utf-8"

// PageLister enumerates stored pages.
type PageLister interface {
	List(ctx context.Context) ([]models.Page, error)
}

// Renderer renders one page.
type Renderer interface {
	Render(ctx context.Context, req pages.Request) (pages.Rendered, error)
}

// ObjectStore receives exported files.
type ObjectStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Exporter writes pages/{id}.html for each page and static/{asset} for each asset.
type Exporter struct {
	Pages    PageLister
	Renderer Renderer
	Store    ObjectStore
	Lang     i18n.Lang
}

// Report summarises an export run.
type Report struct {
	Locations []string
	Notices   int
	Failed    []string
}

// Run exports every page. A page that fails to render is recorded in the report
// and the remaining pages are still exported; upload failures abort the run.
func (e Exporter) Run(ctx context.Context) (Report, error) {
	ctx, span := logging.StartSpan(ctx, "export.run")
	defer span.End()
	logger := logging.FromContext(ctx)

	if e.Pages == nil || e.Renderer == nil || e.Store == nil {
		return Report{}, errors.New("exporter not configured")
	}

	lang := e.Lang
	if lang == "" {
		lang = i18n.English
	}

	var report Report
	for _, name := range assets.Names() {
		data, err := fs.ReadFile(assets.FS(), name)
		if err != nil {
			return report, fmt.Errorf("read asset %s: %w", name, err)
		}
		location, err := e.Store.Save(ctx, "static/"+name, assets.ContentType(name), bytes.NewReader(data))
		if err != nil {
			return report, err
		}
		report.Locations = append(report.Locations, location)
	}

	list, err := e.Pages.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list pages: %w", err)
	}

	for _, page := range list {
		rendered, err := e.Renderer.Render(ctx, pages.Request{PageID: page.ID, Lang: lang})
		if err != nil {
			logger.Warn("skipping page that failed to render", "page_id", page.ID, "error", err)
			report.Failed = append(report.Failed, page.ID)
			continue
		}
		report.Notices += len(rendered.Notices)

		var buf bytes.Buffer
		if err := pages.WriteDocument(&buf, pages.NewDocument(rendered, lang, false)); err != nil {
			return report, fmt.Errorf("write page %s: %w", page.ID, err)
		}

		location, err := e.Store.Save(ctx, "pages/"+page.ID+".html", htmlContentType, &buf)
		if err != nil {
			return report, err
		}
		report.Locations = append(report.Locations, location)
	}

	logger.Info("export finished", "objects", len(report.Locations), "failed", len(report.Failed), "notices", report.Notices)
	return report, nil
}
