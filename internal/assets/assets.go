// Package assets embeds the browser script and stylesheet that activate album galleries.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
)

// Script and Stylesheet are the names the assets are served under.
const (
	Script     = "vimeoalbum.js"
	Stylesheet = "vimeoalbum.css"
)

//go:embed vimeoalbum.js vimeoalbum.css
var files embed.FS

// FS exposes the embedded assets.
func FS() fs.FS {
	return files
}

// Names lists every embedded asset.
func Names() []string {
	return []string{Script, Stylesheet}
}

// ContentType returns the media type an asset is served with.
func ContentType(name string) string {
	switch name {
	case Script:
		return "text/javascript; charset=utf-8"
	case Stylesheet:
		return "text/css; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Handler serves the embedded assets. Mount it behind http.StripPrefix.
func Handler() http.Handler {
	return http.FileServer(http.FS(files))
}
