// Package apn normalizes Clark County assessor parcel numbers.
//
// The county writes an APN as four dash-separated digit groups,
// e.g. 176-04-612-023. Input files tend to carry them with the dashes
// dropped, with dots, or with stray whitespace, so callers canonicalize
// before handing an APN to the scraper.
package apn

import (
	"fmt"
	"regexp"
)

var (
	nonDigits = regexp.MustCompile(`[^0-9]`)
	canonical = regexp.MustCompile(`^\d{3}-\d{2}-\d{3}-\d{3}$`)
)

// Format regroups raw into the canonical XXX-XX-XXX-XXX form when it
// contains exactly eleven digits. Anything else comes back unchanged,
// the site is the final judge of what an APN is.
func Format(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) != 11 {
		return raw
	}
	return fmt.Sprintf("%s-%s-%s-%s", digits[0:3], digits[3:5], digits[5:8], digits[8:11])
}

// Valid reports whether raw could plausibly be an APN: either already
// canonical or carrying an eleven-digit run.
func Valid(raw string) bool {
	if canonical.MatchString(raw) {
		return true
	}
	return len(nonDigits.ReplaceAllString(raw, "")) == 11
}
