package intent

import (
	"strings"

	"github.com/awaazpay/awaaz/internal/transcript"
)

// DefaultCallKeywords signal that the user wants to phone someone. They are
// matched as substrings of the lower-cased transcript.
var DefaultCallKeywords = []string{
	"call", "phone", "dial", "ring", "baat",
	"कॉल", "फोन", "फ़ोन",
}

// DefaultStopWords are filler tokens removed when deriving a recipient name
// from a transcript that matched no contact. They are compared against whole
// tokens, never substrings, so "to" does not eat into "tony".
var DefaultStopWords = []string{
	// English.
	"pay", "send", "to", "rupees", "rupee", "rs", "inr", "payment",
	"money", "transfer", "please",
	// Romanized Hindi.
	"ko", "rupaye", "rupaiye", "rupay", "bhejo", "bhej", "bhejna", "bhejiye",
	"karo", "kar", "kardo", "do", "dena", "de", "paisa", "paise",
	"ka", "ki", "ke", "se", "mein",
	// Devanagari.
	"को", "रुपये", "रुपए", "भेजो", "भेज", "दो", "करो", "पैसे",
}

// foldList lower-cases, trims and de-duplicates words, keeping first-seen
// order. Blank entries are dropped.
func foldList(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = transcript.Lower(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// wordSet is an immutable whole-token lookup set.
type wordSet map[string]struct{}

func newWordSet(words []string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range foldList(words) {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

// containsAny reports whether any of needles is a substring of lower.
func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
