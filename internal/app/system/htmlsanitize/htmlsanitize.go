// Package htmlsanitize strips dangerous markup from user-supplied HTML.
//
// Group "about" text and post bodies accept a limited amount of formatting;
// everything else (scripts, event handlers, javascript: URLs) is removed
// before the value is stored.
package htmlsanitize

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with unsafe HTML removed. Safe user-generated-content
// markup (paragraphs, emphasis, links, lists) is preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeHTML sanitizes s and returns it as template.HTML, ready to render
// without further escaping.
func SanitizeHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all HTML, leaving plain text. Used for fields that must
// never contain markup, like group names.
var strict = bluemonday.StrictPolicy()

func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strict.Sanitize(s)
}
