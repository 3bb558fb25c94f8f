package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceholderRecipient is used when nothing name-like survives extraction.
const PlaceholderRecipient = "merchant"

// minRecipientRunes is the shortest residual accepted as a recipient name.
const minRecipientRunes = 2

// ExtractAmount returns the first digit run in lower.
func ExtractAmount(lower string) (string, bool) {
	m := digitRun.FindString(lower)
	return m, m != ""
}

// Extractor derives the recipient name on the fallback path, where no
// contact matched. It is immutable and safe for concurrent use.
type Extractor struct {
	stop wordSet
}

// NewExtractor returns an Extractor that drops the given stop words. A nil
// or empty list selects [DefaultStopWords].
func NewExtractor(stopWords []string) *Extractor {
	if len(foldList(stopWords)) == 0 {
		stopWords = DefaultStopWords
	}
	return &Extractor{stop: newWordSet(stopWords)}
}

// Residual removes every digit run and every stop-word token from lower and
// collapses the remaining whitespace. Punctuation is trimmed from the edges
// of each token. The result never contains a digit run, so extracting an
// amount from it again finds nothing.
func (e *Extractor) Residual(lower string) string {
	noDigits := digitRun.ReplaceAllString(lower, " ")

	var kept []string
	for _, tok := range strings.Fields(noDigits) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if tok == "" || e.stop.has(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Recipient returns the best-effort recipient name for lower, or
// [PlaceholderRecipient] when the residual is shorter than two runes. The
// name is returned in transcript case; display capitalization is the
// caller's concern.
func (e *Extractor) Recipient(lower string) string {
	r := e.Residual(lower)
	if utf8.RuneCountInString(r) < minRecipientRunes {
		return PlaceholderRecipient
	}
	return r
}
