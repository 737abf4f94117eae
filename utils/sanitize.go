package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var labelPolicy = bluemonday.StrictPolicy()

// SanitizeLabel strips markup from a human label such as an account name.
// StrictPolicy escapes what it keeps, so entities are decoded back for storage.
func SanitizeLabel(input string) string {
	return strings.TrimSpace(html.UnescapeString(labelPolicy.Sanitize(input)))
}
