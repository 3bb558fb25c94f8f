// Package safety blocks utterances that look like a fraud attempt before any
// payment or call link is produced.
//
// The [Filter] performs a plain substring search of the normalised transcript
// against an ordered keyword list. Matching is intentionally not limited to
// word boundaries: "pin" also fires inside "shopping". A false scam warning
// costs the user one repeat; a missed one can cost their savings.
package safety

import (
	"fmt"
	"strings"

	"github.com/awaazpay/awaaz/internal/transcript"
)

// DefaultKeywords is the built-in high-risk vocabulary. Order matters: when
// several keywords occur, the first one in this list is reported.
var DefaultKeywords = []string{
	"lottery",
	"lucky draw",
	"jackpot",
	"kbc",
	"prize",
	"inaam",
	"reward",
	"otp",
	"kyc",
	"cvv",
	"password",
	"pin",
	"लॉटरी",
	"इनाम",
	"ओटीपी",
	"पासवर्ड",
	"पिन",
}

// Filter checks normalised text for scam keywords. It is immutable after
// construction and safe for concurrent use.
type Filter struct {
	keywords []string
}

// New returns a Filter for the given keywords. Keywords are folded with
// [transcript.Lower]; blanks and duplicates are dropped while keeping the
// first occurrence's position. A nil or empty list selects [DefaultKeywords].
func New(keywords []string) *Filter {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	seen := make(map[string]struct{}, len(keywords))
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = transcript.Lower(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		folded = append(folded, k)
	}
	return &Filter{keywords: folded}
}

// Check returns the first keyword contained in lower. lower must already be
// normalised (see [transcript.Utterance.Lower]).
func (f *Filter) Check(lower string) (trigger string, found bool) {
	if lower == "" {
		return "", false
	}
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// Keywords returns a copy of the active keyword list.
func (f *Filter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// Warning is the user-facing caution for a blocked utterance.
func Warning(trigger string) string {
	return fmt.Sprintf(
		"Savdhaan! %q jaisi baatein aksar dhokha (fraud) hoti hain. Apna OTP, PIN ya password kisi ko na batayein. "+
			"Warning: requests mentioning %q are a common scam.",
		trigger, trigger,
	)
}
