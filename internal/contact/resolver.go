package contact

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/awaazpay/awaaz/internal/transcript"
)

// MinTokenLength is the minimum rune length of a name token (and of a
// space-stripped name) for it to take part in substring matching. Two-rune
// tokens collide with Hindi particles such as "ko" and "se".
const MinTokenLength = 3

// PhoneticMatcher scores how closely a contact name sounds like some span of
// the transcript. It is the last resolution tier and only runs when no
// candidate matched literally.
//
// Implementations must be safe for concurrent use.
type PhoneticMatcher interface {
	// Match compares name against the transcript tokens. tokens are
	// lower-cased, contain no digits and are at least MinTokenLength runes.
	// When matched is false, confidence must be 0.
	Match(tokens []string, name string) (confidence float64, matched bool)
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithPhoneticMatcher enables the phonetic tier. When nil (the default) only
// the literal strategies run.
func WithPhoneticMatcher(m PhoneticMatcher) Option {
	return func(r *Resolver) {
		r.phonetic = m
	}
}

// Resolver finds the contact named in an utterance. The fallback directory is
// folded once at construction; Resolver is read-only afterwards and safe for
// concurrent use.
type Resolver struct {
	directory []candidate
	phonetic  PhoneticMatcher
}

// NewResolver returns a Resolver whose fallback directory is directory, in
// the given order. Entries with an empty name are ignored.
func NewResolver(directory []Contact, opts ...Option) *Resolver {
	r := &Resolver{
		directory: make([]candidate, 0, len(directory)),
	}
	for _, c := range directory {
		if cand, ok := newCandidate(c, SourceDirectory); ok {
			r.directory = append(r.directory, cand)
		}
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// DirectorySize returns the number of usable fallback directory entries.
func (r *Resolver) DirectorySize() int {
	return len(r.directory)
}

// Resolve returns the first candidate, caller contacts before the fallback
// directory, matched by one of the literal strategies. For each candidate the
// strategies are tried in the order token, full, spaceless.
//
// When nothing matched literally and a [PhoneticMatcher] is configured, the
// candidates are scanned again in the same order and the first phonetic
// match is returned.
func (r *Resolver) Resolve(u transcript.Utterance, contacts []Contact) (Match, bool) {
	if u.IsEmpty() {
		return Match{}, false
	}

	cands := make([]candidate, 0, len(contacts)+len(r.directory))
	for _, c := range contacts {
		if cand, ok := newCandidate(c, SourceCaller); ok {
			cands = append(cands, cand)
		}
	}
	cands = append(cands, r.directory...)

	for _, c := range cands {
		if s, ok := c.matchLiteral(u); ok {
			return Match{Contact: c.contact, Source: c.source, Strategy: s, Confidence: 1}, true
		}
	}

	if r.phonetic == nil {
		return Match{}, false
	}
	tokens := phoneticTokens(u)
	if len(tokens) == 0 {
		return Match{}, false
	}
	for _, c := range cands {
		if conf, ok := r.phonetic.Match(tokens, c.contact.Name); ok {
			return Match{Contact: c.contact, Source: c.source, Strategy: StrategyPhonetic, Confidence: conf}, true
		}
	}
	return Match{}, false
}

// candidate is a contact with its name pre-folded for matching.
type candidate struct {
	contact   Contact
	source    Source
	tokens    []string
	full      string
	spaceless string
}

func newCandidate(c Contact, src Source) (candidate, bool) {
	full := transcript.Lower(c.Name)
	if full == "" {
		return candidate{}, false
	}
	var tokens []string
	for _, t := range strings.Fields(full) {
		if utf8.RuneCountInString(t) >= MinTokenLength {
			tokens = append(tokens, t)
		}
	}
	return candidate{
		contact:   c,
		source:    src,
		tokens:    tokens,
		full:      full,
		spaceless: strings.ReplaceAll(full, " ", ""),
	}, true
}

func (c candidate) matchLiteral(u transcript.Utterance) (Strategy, bool) {
	for _, t := range c.tokens {
		if strings.Contains(u.Lower, t) {
			return StrategyToken, true
		}
	}
	if strings.Contains(u.Lower, c.full) {
		return StrategyFull, true
	}
	if utf8.RuneCountInString(c.spaceless) >= MinTokenLength && strings.Contains(u.NoSpace, c.spaceless) {
		return StrategySpaceless, true
	}
	return "", false
}

// phoneticTokens returns the transcript tokens worth comparing by sound:
// punctuation trimmed, no digits, at least MinTokenLength runes.
func phoneticTokens(u transcript.Utterance) []string {
	var out []string
	for _, t := range u.Tokens() {
		t = strings.TrimFunc(t, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(t) < MinTokenLength {
			continue
		}
		if strings.ContainsFunc(t, unicode.IsDigit) {
			continue
		}
		out = append(out, t)
	}
	return out
}
