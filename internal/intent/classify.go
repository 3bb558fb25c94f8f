package intent

import "regexp"

// digitRun is the amount pattern. Go's \d is ASCII-only, so Devanagari
// numerals are not amounts.
var digitRun = regexp.MustCompile(`\d+`)

// HasNumber reports whether lower contains at least one digit run.
func HasNumber(lower string) bool {
	return digitRun.MatchString(lower)
}

// Decide picks the intent for a transcript that passed the safety filter.
//
// With a resolved contact the call keyword is the deciding signal: a number
// alone means pay, but "Raju ko call karo uska number 98..." is a call.
// Without a contact any digit run is read as a payment to whoever the
// extractor finds, and the call keyword is not consulted.
func Decide(contactResolved, hasNumber, hasCallKeyword bool) Kind {
	if contactResolved {
		if !hasNumber || hasCallKeyword {
			return KindCall
		}
		return KindPay
	}
	if hasNumber {
		return KindPay
	}
	return KindUnknown
}
