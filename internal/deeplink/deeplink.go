// Package deeplink builds the URIs the client dispatches after the user
// confirms an action: UPI payment links (generic and per-app), tel: and sms:
// links, and an Android contacts-search intent.
//
// Builders are immutable after construction and safe for concurrent use.
package deeplink

import (
	"net/url"
	"strings"
	"unicode"
)

// Default link bases. The UPI query keys (pa, pn, am, cu) are the NPCI
// wire names every UPI app understands.
const (
	DefaultUPIBase        = "upi://pay"
	DefaultContactsSearch = "intent:#Intent;action=android.intent.action.SEARCH;package=com.android.contacts;S.query={query};end"
	DefaultCurrency       = "INR"

	// PlaceholderUPIID is used when neither a phone number nor a usable
	// name is available to synthesize an address from.
	PlaceholderUPIID = "merchant@upi"

	queryToken = "{query}"
)

// App is a named UPI app whose scheme accepts the standard UPI query.
type App struct {
	Name string
	Base string
}

// DefaultApps are the app variants offered when a contact has no UPI id.
var DefaultApps = []App{
	{Name: "gpay", Base: "tez://upi/pay"},
	{Name: "phonepe", Base: "phonepe://pay"},
	{Name: "paytm", Base: "paytmmp://pay"},
}

// Payment is the data carried by a UPI link.
type Payment struct {
	UPIID  string
	Name   string
	Amount string
}

// AppLink is one named-app payment link.
type AppLink struct {
	App string `json:"app"`
	URL string `json:"url"`
}

// Option is a functional option for configuring a [Builder].
type Option func(*Builder)

// WithUPIBase overrides the generic UPI link base (default "upi://pay").
func WithUPIBase(base string) Option {
	return func(b *Builder) {
		if base != "" {
			b.upiBase = base
		}
	}
}

// WithApps replaces the named-app variants. An empty slice disables them.
func WithApps(apps []App) Option {
	return func(b *Builder) {
		b.apps = append([]App(nil), apps...)
	}
}

// WithContactsSearch overrides the contacts-search template. The literal
// "{query}" is replaced with the escaped recipient name.
func WithContactsSearch(template string) Option {
	return func(b *Builder) {
		b.contactsSearch = template
	}
}

// Builder renders deep links.
type Builder struct {
	upiBase        string
	apps           []App
	contactsSearch string
}

// NewBuilder returns a [Builder] with the defaults overridden by opts.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		upiBase:        DefaultUPIBase,
		apps:           append([]App(nil), DefaultApps...),
		contactsSearch: DefaultContactsSearch,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Pay returns the generic UPI payment link.
func (b *Builder) Pay(p Payment) string {
	return b.upiBase + "?" + payQuery(p)
}

// AppLinks returns one link per configured app, in configuration order. All
// variants share the query string of [Builder.Pay].
func (b *Builder) AppLinks(p Payment) []AppLink {
	if len(b.apps) == 0 {
		return nil
	}
	q := payQuery(p)
	out := make([]AppLink, 0, len(b.apps))
	for _, a := range b.apps {
		out = append(out, AppLink{App: a.Name, URL: a.Base + "?" + q})
	}
	return out
}

// ContactsSearch returns a link that opens the device contacts app searching
// for name. It returns "" when no template is configured or name is blank.
func (b *Builder) ContactsSearch(name string) string {
	name = strings.TrimSpace(name)
	if b.contactsSearch == "" || name == "" {
		return ""
	}
	return strings.ReplaceAll(b.contactsSearch, queryToken, escape(name))
}

// Tel returns a tel: link for number with whitespace removed.
func Tel(number string) string {
	return "tel:" + stripSpace(number)
}

// SMS returns an sms: link pre-filled with body.
func SMS(number, body string) string {
	link := "sms:" + stripSpace(number)
	if body != "" {
		link += "?body=" + escape(body)
	}
	return link
}

// SynthesizeUPIID derives a best-guess UPI address when the contact has
// none. Phone digits win ("+91 98765 43210" → "9876543210@upi"); otherwise
// the ASCII letters and digits of name are used ("Raju Bhai" →
// "rajubhai@upi"); otherwise [PlaceholderUPIID]. Synthesized addresses are
// unverified and callers must warn the user.
func SynthesizeUPIID(phone, name string) string {
	if d := digits(phone); d != "" {
		if len(d) == 12 && strings.HasPrefix(d, "91") {
			d = d[2:]
		}
		return d + "@upi"
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return PlaceholderUPIID
	}
	return sb.String() + "@upi"
}

func payQuery(p Payment) string {
	var sb strings.Builder
	sb.WriteString("pa=")
	sb.WriteString(escape(p.UPIID))
	sb.WriteString("&pn=")
	sb.WriteString(escape(p.Name))
	if p.Amount != "" {
		sb.WriteString("&am=")
		sb.WriteString(escape(p.Amount))
	}
	sb.WriteString("&cu=")
	sb.WriteString(DefaultCurrency)
	return sb.String()
}

// escape percent-encodes a query value. Spaces become %20 (UPI apps do not
// all decode "+") and "@" is left readable in addresses.
func escape(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return strings.ReplaceAll(e, "%40", "@")
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
