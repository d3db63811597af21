// Package sanitize strips markup from free text submitted by anonymous
// visitors before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text removes every HTML tag and attribute and trims the result. The
// output is plain text: characters such as & and < are kept as typed, not
// entity-escaped. Entity-encoded markup is decoded and stripped too, so the
// result never contains a tag.
func Text(input string) string {
	text := input
	for {
		next := html.UnescapeString(strictPolicy.Sanitize(text))
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}

// TextFields sanitizes each referenced string in place. Nil pointers are skipped.
func TextFields(fields ...*string) {
	for _, field := range fields {
		if field == nil {
			continue
		}
		*field = Text(*field)
	}
}
