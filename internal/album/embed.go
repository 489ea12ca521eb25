package album

import (
	"strings"

	"golang.org/x/net/html"
)

// hasIframe reports whether the embed snippet contains an iframe element.
func hasIframe(snippet string) bool {
	if strings.TrimSpace(snippet) == "" {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(snippet))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "iframe" {
				return true
			}
		}
	}
}
