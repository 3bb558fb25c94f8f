// Package transcript prepares raw speech-to-text output for the intent
// heuristics.
//
// Browser speech recognition produces code-mixed text (Hindi, English and
// Romanized Hindi) with arbitrary casing and spacing. [Normalize] turns it
// into an [Utterance] with two views used for substring matching:
//
//   - Lower: NFC-normalised, whitespace-collapsed, trimmed, lower-cased.
//   - NoSpace: Lower with every space removed, so "ram lal" and "ramlal"
//     compare equal.
//
// Lower-casing uses a language-neutral Unicode caser, so Devanagari and
// other scripts without case pass through unchanged.
package transcript

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Utterance is the normalised form of one transcript. It is derived per
// request and never cached.
type Utterance struct {
	// Raw is the text exactly as received.
	Raw string

	// Lower is the trimmed, lower-cased text with whitespace runs collapsed
	// to a single ASCII space.
	Lower string

	// NoSpace is Lower with all spaces removed.
	NoSpace string
}

// IsEmpty reports whether the utterance has no content after normalisation.
func (u Utterance) IsEmpty() bool {
	return u.Lower == ""
}

// Tokens returns the space-separated tokens of Lower.
func (u Utterance) Tokens() []string {
	return strings.Fields(u.Lower)
}

// Normalize derives an [Utterance] from raw. Empty input is valid and yields
// an empty Utterance.
func Normalize(raw string) Utterance {
	return Utterance{
		Raw:     raw,
		Lower:   Lower(raw),
		NoSpace: NoSpace(raw),
	}
}

// Lower returns s NFC-normalised, whitespace-collapsed, trimmed and
// lower-cased. It is also used to fold configured keywords and contact names
// so that both sides of a substring comparison are in the same form.
func Lower(s string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	// A Caser keeps internal state and must not be shared across goroutines.
	return cases.Lower(language.Und).String(collapsed)
}

// NoSpace returns [Lower] of s with every space removed.
func NoSpace(s string) string {
	return strings.ReplaceAll(Lower(s), " ", "")
}
