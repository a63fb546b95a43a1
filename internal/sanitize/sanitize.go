// Package sanitize cleans user supplied text before it is stored or written
// to a spreadsheet.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes markup and unprintable characters and trims the result.
// Entities produced by the policy are kept escaped.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(StripUnprintable(s)))
}

// StripUnprintable drops non-printable runes except common whitespace.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// Formula prefixes a single quote when s would start a spreadsheet formula,
// forcing the cell to be read as text.
func Formula(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
