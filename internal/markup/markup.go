// Package markup recognizes the album directive inside page sources.
package markup

import "regexp"

const (
	// DirectivePrefix opens an album directive.
	DirectivePrefix = "{{vimeoAlbum>"
	// DirectiveSuffix closes an album directive.
	DirectiveSuffix = "}}"
)

// Pattern matches a single-line album directive; the first group is the album id.
var Pattern = regexp.MustCompile(`\{\{vimeoAlbum>(.+?)\}\}`)

// Segment is either pass-through text or an album directive.
type Segment struct {
	Text    string
	AlbumID string
}

// IsDirective reports whether the segment came from a directive.
func (s Segment) IsDirective() bool {
	return s.AlbumID != ""
}

// AlbumIDs returns the album identifiers of every directive in text, in order.
func AlbumIDs(text string) []string {
	matches := Pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// Split cuts text into pass-through and directive segments, preserving order.
// Directive segments carry the raw directive in Text.
func Split(text string) []Segment {
	locs := Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, 2*len(locs)+1)
	cursor := 0
	for _, loc := range locs {
		if loc[0] > cursor {
			segments = append(segments, Segment{Text: text[cursor:loc[0]]})
		}
		segments = append(segments, Segment{
			Text:    text[loc[0]:loc[1]],
			AlbumID: text[loc[2]:loc[3]],
		})
		cursor = loc[1]
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	return segments
}
