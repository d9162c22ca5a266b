// Package namesanitize cleans user-supplied display names before they are
// stored. Names come straight from upload forms and JSON bodies and end up
// rendered in web clients, so any markup is stripped rather than escaped.
package namesanitize

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxNameLength caps stored display names. Longer names are truncated,
// not rejected; a filename is not worth failing an upload over.
const MaxNameLength = 255

var (
	// policy strips all HTML; display names are plain text.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Clean strips markup, control characters, and surrounding whitespace from
// a display name and truncates it to MaxNameLength. Returns "" when
// nothing printable remains.
func Clean(name string) string {
	name = getPolicy().Sanitize(name)

	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)

	name = strings.TrimSpace(name)

	if len(name) > MaxNameLength {
		name = truncate(name, MaxNameLength)
	}
	return name
}

// truncate cuts at a rune boundary at or below max bytes.
func truncate(s string, max int) string {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
