// Package sanitize checks that user-submitted text is plain text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/whisperly/backend/internal/apperr"
)

var policy = bluemonday.StrictPolicy()

var ErrMarkup = apperr.Invalid("Content must not contain HTML markup")

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CheckPlain returns ErrMarkup when the strict policy would remove anything
// from s. Text that passes is stored as submitted and is never unescaped.
func CheckPlain(s string) error {
	// The policy re-escapes text and folds CR/CRLF, so compare decoded forms.
	got := newlines.Replace(html.UnescapeString(policy.Sanitize(s)))
	want := newlines.Replace(html.UnescapeString(s))
	if got != want {
		return ErrMarkup
	}
	return nil
}
