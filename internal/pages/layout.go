package pages

import (
	"html/template"
	"io"

	"github.com/vimeoalbum/backend/internal/album"
	"github.com/vimeoalbum/backend/internal/i18n"
)

// AssetPath is where the activator script and stylesheet are served from.
const AssetPath = "/static/"

// ClientGlobals is published to the activator as window.VIMEOALBUM.
type ClientGlobals struct {
	PurgeLink string            `json:"purgeLink,omitempty"`
	Lang      map[string]string `json:"lang"`
}

// Document is everything the page layout needs.
type Document struct {
	Lang     i18n.Lang
	Title    string
	Body     template.HTML
	Notices  []album.Notice
	Globals  ClientGlobals
	Heading  string
	AssetURL string
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.AssetURL}}vimeoalbum.css">
<script>window.VIMEOALBUM = {{.Globals}};</script>
</head>
<body>
<main class="page">
<h1>{{.Title}}</h1>
{{- if .Notices}}
<section class="plugin-vimeo-notices" aria-label="{{.Heading}}">
<ul>{{range .Notices}}<li class="notice notice-{{.Severity}}">{{.Message}}</li>{{end}}</ul>
</section>
{{- end}}
<div class="page-body">{{.Body}}</div>
</main>
<script src="{{.AssetURL}}vimeoalbum.js" defer></script>
</body>
</html>
`))

// NewDocument builds the layout data for a rendered page.
func NewDocument(r Rendered, lang i18n.Lang, privileged bool) Document {
	globals := ClientGlobals{
		Lang: map[string]string{"purgeLink": i18n.T(lang, i18n.PurgeLink)},
	}
	if privileged {
		globals.PurgeLink = PurgeURL(r.PageID)
	}
	return Document{
		Lang:     lang,
		Title:    r.Title,
		Body:     r.Body,
		Notices:  r.Notices,
		Globals:  globals,
		Heading:  i18n.T(lang, i18n.NoticeHeading),
		AssetURL: AssetPath,
	}
}

// WriteDocument renders doc as a complete HTML document.
func WriteDocument(w io.Writer, doc Document) error {
	return documentTemplate.Execute(w, doc)
}
