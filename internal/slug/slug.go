// Package slug derives URL-safe identifiers from translated titles.
package slug

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFD decomposition, so
// "Vận chuyển" becomes "Van chuyen" before slugification.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Assigner builds slugs from titles. The clock is injectable so tests
// get deterministic suffixes.
type Assigner struct {
	now func() time.Time
}

// New returns an Assigner using the wall clock.
func New() *Assigner {
	return &Assigner{now: time.Now}
}

// NewWithClock returns an Assigner with a custom time source.
func NewWithClock(now func() time.Time) *Assigner {
	if now == nil {
		now = time.Now
	}
	return &Assigner{now: now}
}

// Make normalizes a translated title into a lowercase hyphenated slug
// and appends a millisecond timestamp to disambiguate repeated titles.
// Uniqueness is probabilistic: no existing slugs are consulted, so
// collisions are possible in the same millisecond.
func (a *Assigner) Make(title string) string {
	base := Slugify(title)
	suffix := strconv.FormatInt(a.now().UnixMilli(), 10)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Slugify lowercases, strips diacritics, and collapses every run of
// non-alphanumeric characters into a single hyphen.
func Slugify(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
