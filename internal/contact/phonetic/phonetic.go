// Package phonetic implements the [contact.PhoneticMatcher] interface using
// Double Metaphone phonetic encoding combined with Jaro-Winkler string
// similarity.
//
// Speech-to-text engines routinely misspell Indian names ("Suneeta" for
// "Sunita", "Rajes" for "Rajesh"). For each contact name the matcher slides a
// window over the transcript tokens, as wide as the name has words, and
// scores every window:
//
//  1. Phonetic candidate: Double Metaphone codes of the window overlap with
//     the codes of the name. The window is accepted when its Jaro-Winkler
//     score reaches the phonetic threshold.
//
//  2. Fuzzy fallback: no code overlap (always the case for non-Latin
//     scripts, which Double Metaphone does not encode). The window is
//     accepted only when its Jaro-Winkler score reaches the stricter fuzzy
//     threshold.
//
// The highest accepted score is the confidence of the match.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/transcript"
)

const (
	defaultPhoneticThreshold = 0.85
	defaultFuzzyThreshold    = 0.93
)

// Compile-time interface assertion.
var _ contact.PhoneticMatcher = (*Matcher)(nil)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched window to be accepted. Default: 0.85.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when the
// window and the name share no phonetic code. Default: 0.93.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is a phonetic contact-name matcher. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match reports whether name sounds like some span of tokens. tokens must
// already be lower-cased; name is folded here.
func (m *Matcher) Match(tokens []string, name string) (float64, bool) {
	nameFull := transcript.Lower(name)
	if len(tokens) == 0 || nameFull == "" {
		return 0, false
	}
	nameTokens := strings.Fields(nameFull)
	nameCodes := codesForTokens(nameTokens)

	width := min(len(nameTokens), len(tokens))

	var (
		best         float64
		bestPhonetic bool
	)
	for n := 1; n <= width; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			window := tokens[i : i+n]
			score := bestJWScore(window, nameTokens, strings.Join(window, " "), nameFull)

			if codesOverlap(codesForTokens(window), nameCodes) {
				if score >= m.phoneticThreshold && (!bestPhonetic || score > best) {
					best, bestPhonetic = score, true
				}
			} else if !bestPhonetic && score >= m.fuzzyThreshold && score > best {
				best = score
			}
		}
	}

	if best == 0 {
		return 0, false
	}
	return best, true
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Tokens containing anything other than ASCII letters are
// skipped; empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		if !isASCIIWord(t) {
			continue
		}
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func isASCIIWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between a window
// and a name using three comparisons:
//
//  1. Full strings ("sunita devi" vs "suneeta devi").
//  2. Space-stripped strings ("sunitadevi" vs "suneetadevi").
//  3. Best pairwise word score, for names where only one word was spoken.
func bestJWScore(inputTokens, nameTokens []string, inputFull, nameFull string) float64 {
	score := matchr.JaroWinkler(inputFull, nameFull, false)

	if len(inputTokens) > 1 || len(nameTokens) > 1 {
		concat1 := strings.Join(inputTokens, "")
		concat2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(it, nt, false); s > score {
				score = s
			}
		}
	}

	return score
}
