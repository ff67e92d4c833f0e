// Package sanitize strips or restricts markup in user-supplied text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes every tag. Content of script, style and similar
	// elements is dropped along with the tags.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy keeps basic formatting (paragraphs, emphasis, lists, links).
	ugcPolicy = bluemonday.UGCPolicy()
)

// maxPasses bounds Plain's unescape loop for inputs that keep producing markup.
const maxPasses = 4

// Plain strips all HTML and returns unescaped plain text suitable for storage
// and later escaping by html/template. Entity-encoded markup such as
// "&lt;script&gt;" is decoded and stripped too.
//
// A "<" that is never closed by ">" is kept as text, so "if a<b then"
// survives. Entities are decoded, so a literal "&amp;" is stored as "&".
func Plain(input string) string {
	current := input
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(escapeUnclosed(current)))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	// Still changing: fall back to the escaped form, which is inert.
	return strings.TrimSpace(strictPolicy.Sanitize(current))
}

// escapeUnclosed turns "<" into "&lt;" when no ">" follows it before the
// next "<" or the end of input. Such a "<" cannot open a tag.
func escapeUnclosed(input string) string {
	if !strings.Contains(input, "<") {
		return input
	}
	var b strings.Builder
	b.Grow(len(input))
	rest := input
	for {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		tail := rest[open+1:]
		closeAt := strings.IndexByte(tail, '>')
		nextOpen := strings.IndexByte(tail, '<')
		if closeAt < 0 || (nextOpen >= 0 && nextOpen < closeAt) {
			b.WriteString("&lt;")
		} else {
			b.WriteByte('<')
		}
		rest = tail
	}
}

// HTML keeps safe formatting and removes scripts, frames and event handlers.
// Used on rendered markdown before it reaches a template.
func HTML(input string) string {
	return ugcPolicy.Sanitize(input)
}
