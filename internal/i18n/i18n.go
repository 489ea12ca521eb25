// Package i18n holds the localized strings shown around album galleries.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Lang is a supported interface language code.
type Lang string

const (
	English Lang = "en"
	German  Lang = "de"
)

// Message keys.
const (
	PurgeLink      = "purgeLink"
	EmbedDisabled  = "embedDisabled"
	FetchFailed    = "fetchFailed"
	MalformedVideo = "malformedVideo"
	NoticeHeading  = "noticeHeading"
)

// Supported lists the available languages; the first entry is the fallback.
var Supported = []Lang{English, German}

var matcher = language.NewMatcher([]language.Tag{language.English, language.German})

var catalog = map[Lang]map[string]string{
	English: {
		PurgeLink:      "Refresh the album from Vimeo",
		EmbedDisabled:  "Embedding is deactivated for the video %q.",
		FetchFailed:    "The Vimeo album could not be loaded: %s",
		MalformedVideo: "The video %q could not be displayed.",
		NoticeHeading:  "Notices",
	},
	German: {
		PurgeLink:      "Album neu von Vimeo laden",
		EmbedDisabled:  "Das Einbetten ist für das Video %q deaktiviert.",
		FetchFailed:    "Das Vimeo-Album konnte nicht geladen werden: %s",
		MalformedVideo: "Das Video %q konnte nicht angezeigt werden.",
		NoticeHeading:  "Hinweise",
	},
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return English
	}
	return Supported[idx]
}

// T returns the localized message for key, formatted with args.
// Unknown languages fall back to English; unknown keys return the key.
func T(lang Lang, key string, args ...any) string {
	messages, ok := catalog[lang]
	if !ok {
		messages = catalog[English]
	}
	format, ok := messages[key]
	if !ok {
		format, ok = catalog[English][key]
		if !ok {
			return key
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
