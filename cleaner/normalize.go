package cleaner

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer turns extracted container text into the form written to the
// output file. Implementations must be idempotent.
type Normalizer func(string) string

// Normalizer names accepted by the site catalog.
const (
	NormalizerGeneric  = "generic"
	NormalizerCollapse = "collapse"
)

// NormalizerByName returns the normalizer registered under name.
func NormalizerByName(name string) (Normalizer, bool) {
	switch name {
	case NormalizerGeneric:
		return NormalizeText, true
	case NormalizerCollapse:
		return CollapseWhitespace, true
	default:
		return nil, false
	}
}

// escapeReplacer turns escape sequences that leaked into page text as
// six literal characters back into the punctuation they stand for.
var escapeReplacer = strings.NewReplacer(
	"\\u201c", "\u201c",
	"\\u201d", "\u201d",
	"\\u2018", "\u2018",
	"\\u2019", "\u2019",
	"\\u2026", "\u2026",
	"\\u2013", "\u2013",
	"\\u2014", "\u2014",
	"\\u00a0", "\u00a0",
)

// NormalizeText is the generic normalizer used for documentation pages.
//
// Order matters for idempotence:
//  1. NFKC first, so fullwidth backslashes and letters cannot form an escape
//     sequence that only appears on a second pass.
//  2. Literal escapes such as \u201c and \u00a0 become characters.
//  3. NFKC again, which also folds the non-breaking space into a space.
//  4. The two-character sequence \n becomes a space.
//  5. Whitespace runs collapse to one space and the ends are trimmed.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = escapeReplacer.Replace(s)
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, `\n`, " ")
	return CollapseWhitespace(s)
}

// CollapseWhitespace replaces every run of Unicode whitespace with a single
// space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
