// Package album renders fetched Vimeo albums into gallery HTML fragments.
package album

import (
	"bytes"
	"html"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/vimeoalbum/backend/internal/i18n"
	"github.com/vimeoalbum/backend/internal/vimeo"
)

// Severity classifies a notice shown next to the gallery.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Notice is a transient, non-blocking message for the viewer.
type Notice struct {
	Severity Severity
	Message  string
}

// Fragment is the rendered gallery together with the notices produced while rendering it.
type Fragment struct {
	HTML    template.HTML
	Notices []Notice
}

// RenderContext carries the per-request facts the renderer depends on.
type RenderContext struct {
	PageID       string
	IsPrivileged bool
	PurgeURL     string
	Lang         i18n.Lang
}

// Renderer turns album results into gallery markup.
type Renderer struct {
	ThumbnailWidthPercent float64
	Location              *time.Location
}

// NewRenderer returns a Renderer; non-positive widths default to 30 percent.
func NewRenderer(thumbnailWidthPercent float64, loc *time.Location) *Renderer {
	if thumbnailWidthPercent <= 0 {
		thumbnailWidthPercent = 30
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{ThumbnailWidthPercent: thumbnailWidthPercent, Location: loc}
}

const releaseLayout = "2006-01-02 15:04"

var galleryTemplate = template.Must(template.New("album").Parse(
	`{{if .PurgeURL}}<a class="plugin-vimeo-purge" rel="noreferrer" href="{{.PurgeURL}}">{{.PurgeLabel}}</a>{{end}}` +
		`<div class="plugin-vimeo-album">` +
		`{{range .Items}}<div class="plugin-vimeo-video" style="{{.Style}}" data-videoiframe="{{.EncodedEmbed}}">` +
		`<figure><img src="{{.Src}}" srcset="{{.Srcset}}" alt="{{.Title}}">` +
		`<figcaption><span class="plugin-vimeo-title">{{.Title}}</span>` +
		`{{if .Released}}<time datetime="{{.Datetime}}">{{.Released}}</time>{{end}}` +
		`{{if .Description}}<span class="plugin-vimeo-description">{{.Description}}</span>{{end}}` +
		`</figcaption></figure></div>{{end}}` +
		`</div>`))

type galleryData struct {
	PurgeURL   string
	PurgeLabel string
	Items      []galleryItem
}

type galleryItem struct {
	Style        template.CSS
	EncodedEmbed string
	Src          string
	Srcset       string
	Title        string
	Datetime     string
	Released     string
	Description  string
}

// Render builds the gallery for result. A non-nil fetchErr is surfaced as an
// error notice and yields an empty gallery. Individual videos that cannot be
// shown are skipped with a notice; rendering itself never fails.
func (r *Renderer) Render(rc RenderContext, result vimeo.AlbumResult, fetchErr error) Fragment {
	if r == nil {
		r = NewRenderer(0, nil)
	}

	var frag Fragment
	for _, w := range result.Warnings {
		frag.Notices = append(frag.Notices, Notice{Severity: SeverityError, Message: w})
	}

	data := galleryData{}
	if rc.IsPrivileged && rc.PurgeURL != "" {
		data.PurgeURL = rc.PurgeURL
		data.PurgeLabel = i18n.T(rc.Lang, i18n.PurgeLink)
	}

	if fetchErr != nil {
		frag.Notices = append(frag.Notices, Notice{
			Severity: SeverityError,
			Message:  i18n.T(rc.Lang, i18n.FetchFailed, fetchErr.Error()),
		})
	} else {
		for _, video := range result.Videos {
			if video.Private() {
				frag.Notices = append(frag.Notices, Notice{
					Severity: SeverityWarning,
					Message:  i18n.T(rc.Lang, i18n.EmbedDisabled, video.Name),
				})
				continue
			}
			item, ok := r.item(video)
			if !ok {
				frag.Notices = append(frag.Notices, Notice{
					Severity: SeverityWarning,
					Message:  i18n.T(rc.Lang, i18n.MalformedVideo, video.Name),
				})
				continue
			}
			data.Items = append(data.Items, item)
		}
	}

	var buf bytes.Buffer
	if err := galleryTemplate.Execute(&buf, data); err != nil {
		frag.Notices = append(frag.Notices, Notice{
			Severity: SeverityError,
			Message:  i18n.T(rc.Lang, i18n.FetchFailed, err.Error()),
		})
		return frag
	}
	frag.HTML = template.HTML(buf.String())
	return frag
}

func (r *Renderer) item(video vimeo.Video) (galleryItem, bool) {
	if len(video.Pictures) == 0 || !hasIframe(video.EmbedHTML) {
		return galleryItem{}, false
	}

	srcIdx := 2
	if srcIdx >= len(video.Pictures) {
		srcIdx = len(video.Pictures) - 1
	}

	srcset := make([]string, 0, len(video.Pictures))
	for _, p := range video.Pictures {
		srcset = append(srcset, p.URL+" "+strconv.Itoa(p.Width)+"w")
	}

	item := galleryItem{
		Style:        template.CSS("width: " + strconv.FormatFloat(r.ThumbnailWidthPercent, 'f', -1, 64) + "%"),
		EncodedEmbed: html.EscapeString(video.EmbedHTML),
		Src:          video.Pictures[srcIdx].URL,
		Srcset:       strings.Join(srcset, ","),
		Title:        video.Name,
		Description:  video.Description,
	}
	if !video.ReleaseTime.IsZero() {
		released := video.ReleaseTime.In(r.Location)
		item.Datetime = released.Format(time.RFC3339)
		item.Released = released.Format(releaseLayout)
	}
	return item, true
}
