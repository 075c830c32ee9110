package live

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips any markup remnants from an extracted field, then
// collapses runs of whitespace. Scraped values may carry inline tags or
// entities; nothing downstream renders them as HTML.
func cleanText(s string) string {
	return strings.Join(strings.Fields(textPolicy.Sanitize(s)), " ")
}
