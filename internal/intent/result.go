package intent

import (
	"fmt"
	"strings"

	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/deeplink"
)

// Kind is the classified intent.
type Kind string

const (
	KindScam    Kind = "scam"
	KindCall    Kind = "call"
	KindPay     Kind = "pay"
	KindUnknown Kind = "unknown"
)

// Result is the outcome of classifying one utterance. Exactly one of Scam,
// Call or Pay is non-nil, matching Kind; all three are nil for
// [KindUnknown].
type Result struct {
	Kind         Kind
	OriginalText string

	// Warning is always set for scam and unknown results. Call and pay
	// results carry one only when something was inferred rather than
	// matched exactly.
	Warning string

	Scam *ScamDetails
	Call *CallDetails
	Pay  *PayDetails
}

// ScamDetails names the keyword that tripped the safety filter.
type ScamDetails struct {
	Trigger string
}

// CallDetails describes a resolved call.
type CallDetails struct {
	Recipient    string
	Number       string
	TelLink      string
	ContactsLink string
	Source       contact.Source
	MatchedBy    contact.Strategy
	Confidence   float64
}

// PayDetails describes a payment to confirm.
type PayDetails struct {
	Amount    string
	Recipient string
	UPIID     string
	UPILink   string
	AppLinks  []deeplink.AppLink

	// UPIIDSynthesized is true when UPIID was derived from a phone number
	// or name rather than supplied with the contact.
	UPIIDSynthesized bool

	// Source and MatchedBy are empty on the fallback path, where the
	// recipient was extracted from the text.
	Source     contact.Source
	MatchedBy  contact.Strategy
	Confidence float64
}

// Warnings shown to the user. Hinglish first, English in brackets, because
// the confirmation screen is read aloud by text-to-speech.
const (
	WarningUnknownNoContacts = "Samajh nahi aaya. Aise boliye: \"Raju ko 500 rupaye bhejo\" ya \"Doctor ko call karo\". " +
		"(Could not understand. Try: \"Send 500 rupees to Raju\" or \"Call the doctor\".)"
	WarningUnknownWithContacts = "Yeh naam aapke contacts mein nahi mila. Poora naam ya rakam boliye. " +
		"(Name not found in your contacts. Say the full name or an amount.)"
	WarningPlaceholderRecipient = "Paane wale ka naam samajh nahi aaya, dhyan se jaanchiye. " +
		"(Recipient name not understood; check who you are paying.)"
)

func warningSynthesizedUPIID(id string) string {
	return fmt.Sprintf("UPI ID %q pakki nahi hai, bhejne se pehle jaanchiye. (UPI ID %q is unverified; check before paying.)", id, id)
}

func warningPhoneticMatch(name string) string {
	return fmt.Sprintf("Humne %q samjha, kya yeh sahi hai? (We matched %q by sound; please confirm.)", name, name)
}

func joinWarnings(ws ...string) string {
	out := ws[:0]
	for _, w := range ws {
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
