// Package contact resolves the person an utterance refers to.
//
// Candidates are the caller-supplied contacts followed by a fallback
// directory (emergency numbers plus operator-configured entries). The
// [Resolver] walks them in that order and returns the first contact whose
// name is found in the transcript. There is no scoring across contacts: the
// scan is greedy and order-sensitive, so caller contacts always win over the
// directory and earlier duplicates win over later ones.
package contact

import "strings"

// Contact is a callable / payable person or service. Contacts are
// request-scoped values; nothing here persists them.
type Contact struct {
	// Name is the display name in any case or script.
	Name string

	// Phone is the dialable number as supplied.
	Phone string

	// UPIID is the payment address (e.g. "amit@upi"). Empty when unknown.
	UPIID string
}

// HasUPIID reports whether the contact carries a payment identifier.
func (c Contact) HasUPIID() bool {
	return strings.TrimSpace(c.UPIID) != ""
}

// Source tells where a matched contact came from.
type Source string

const (
	// SourceCaller marks a contact from the request's contact list.
	SourceCaller Source = "caller"

	// SourceDirectory marks a fallback directory entry.
	SourceDirectory Source = "directory"
)

// Strategy names the rule that produced a match.
type Strategy string

const (
	// StrategyToken: one name token (≥ MinTokenLength runes) is a substring
	// of the transcript.
	StrategyToken Strategy = "token"

	// StrategyFull: the whole lower-cased name is a substring of the
	// transcript.
	StrategyFull Strategy = "full"

	// StrategySpaceless: the name without spaces is a substring of the
	// space-stripped transcript.
	StrategySpaceless Strategy = "spaceless"

	// StrategyPhonetic: the name sounds like a span of the transcript. Only
	// tried when no substring strategy matched any candidate.
	StrategyPhonetic Strategy = "phonetic"
)

// Match is a resolved contact together with how it was found.
type Match struct {
	Contact  Contact
	Source   Source
	Strategy Strategy

	// Confidence is 1 for substring strategies and the similarity score for
	// phonetic matches.
	Confidence float64
}

// LowConfidence reports whether the match was inferred rather than found
// literally in the transcript. Callers attach a warning to such results.
func (m Match) LowConfidence() bool {
	return m.Strategy == StrategyPhonetic
}
