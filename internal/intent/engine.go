// Package intent turns one transcribed utterance into a confirmed-action
// proposal: a scam warning, a call, a payment, or "not understood".
//
// The pipeline is a pure function of the utterance, the caller's contacts
// and the immutable configuration the [Engine] was built with:
//
//	normalize → safety filter → contact resolver → decide → extract → links
//
// Ambiguity never becomes an error. Every path ends in one of the four
// [Kind] values, with a warning attached when something was guessed, because
// the client always asks the user to confirm before dispatching a link.
package intent

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/deeplink"
	"github.com/awaazpay/awaaz/internal/observe"
	"github.com/awaazpay/awaaz/internal/safety"
	"github.com/awaazpay/awaaz/internal/transcript"
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithSafetyFilter replaces the default scam keyword filter.
func WithSafetyFilter(f *safety.Filter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// WithResolver replaces the default contact resolver (built-in emergency
// directory, no phonetic tier).
func WithResolver(r *contact.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithLinkBuilder replaces the default deep-link builder.
func WithLinkBuilder(b *deeplink.Builder) Option {
	return func(e *Engine) {
		e.links = b
	}
}

// WithCallKeywords replaces [DefaultCallKeywords]. An empty list keeps the
// defaults.
func WithCallKeywords(words []string) Option {
	return func(e *Engine) {
		if folded := foldList(words); len(folded) > 0 {
			e.callKeywords = folded
		}
	}
}

// WithStopWords replaces [DefaultStopWords] for recipient extraction.
func WithStopWords(words []string) Option {
	return func(e *Engine) {
		e.extractor = NewExtractor(words)
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine classifies utterances. It is immutable after construction and safe
// for concurrent use.
type Engine struct {
	filter       *safety.Filter
	resolver     *contact.Resolver
	links        *deeplink.Builder
	extractor    *Extractor
	callKeywords []string
	metrics      *observe.Metrics
}

// NewEngine returns an [Engine] with defaults overridden by opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		filter:       safety.New(nil),
		resolver:     contact.NewResolver(contact.BuiltinDirectory()),
		links:        deeplink.NewBuilder(),
		extractor:    NewExtractor(nil),
		callKeywords: foldList(DefaultCallKeywords),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Classify runs the full pipeline over text. contacts are the caller's own
// contacts, tried in order before the fallback directory. ctx carries trace
// context only; classification never blocks.
func (e *Engine) Classify(ctx context.Context, text string, contacts []contact.Contact) Result {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "intent.Classify")
	defer span.End()

	res := e.classify(ctx, text, contacts)

	e.metrics.ClassifyDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("intent", string(res.Kind))))
	e.metrics.RecordIntent(ctx, string(res.Kind))
	span.SetAttributes(
		attribute.String("intent.kind", string(res.Kind)),
		attribute.Int("intent.contacts", len(contacts)),
		attribute.Bool("intent.warning", res.Warning != ""),
	)

	observe.Logger(ctx).Debug("utterance classified",
		"intent", res.Kind,
		"text", text,
		"contacts", len(contacts),
		"duration", time.Since(start),
	)
	return res
}

func (e *Engine) classify(ctx context.Context, text string, contacts []contact.Contact) Result {
	u := transcript.Normalize(text)
	res := Result{OriginalText: text}

	if trigger, ok := e.filter.Check(u.Lower); ok {
		e.metrics.RecordScamBlock(ctx, trigger)
		res.Kind = KindScam
		res.Warning = safety.Warning(trigger)
		res.Scam = &ScamDetails{Trigger: trigger}
		return res
	}

	m, resolved := e.resolver.Resolve(u, contacts)
	if resolved {
		e.metrics.RecordContactMatch(ctx, string(m.Source), string(m.Strategy))
	}

	hasNumber := HasNumber(u.Lower)
	hasCall := containsAny(u.Lower, e.callKeywords)

	switch Decide(resolved, hasNumber, hasCall) {
	case KindCall:
		e.call(&res, m)
	case KindPay:
		if resolved {
			e.payContact(&res, u, m)
		} else {
			e.payFallback(&res, u)
		}
	default:
		res.Kind = KindUnknown
		if len(contacts) > 0 {
			res.Warning = WarningUnknownWithContacts
		} else {
			res.Warning = WarningUnknownNoContacts
		}
	}
	return res
}

func (e *Engine) call(res *Result, m contact.Match) {
	c := m.Contact
	d := &CallDetails{
		Recipient:  c.Name,
		Number:     c.Phone,
		TelLink:    deeplink.Tel(c.Phone),
		Source:     m.Source,
		MatchedBy:  m.Strategy,
		Confidence: m.Confidence,
	}
	// Directory entries are service numbers, not device contacts.
	if m.Source == contact.SourceCaller {
		d.ContactsLink = e.links.ContactsSearch(c.Name)
	}
	res.Kind = KindCall
	res.Call = d
	if m.LowConfidence() {
		res.Warning = warningPhoneticMatch(c.Name)
	}
}

func (e *Engine) payContact(res *Result, u transcript.Utterance, m contact.Match) {
	c := m.Contact
	amount, _ := ExtractAmount(u.Lower)

	d := &PayDetails{
		Amount:     amount,
		Recipient:  c.Name,
		UPIID:      strings.TrimSpace(c.UPIID),
		Source:     m.Source,
		MatchedBy:  m.Strategy,
		Confidence: m.Confidence,
	}
	var warnings []string
	if m.LowConfidence() {
		warnings = append(warnings, warningPhoneticMatch(c.Name))
	}

	p := deeplink.Payment{UPIID: d.UPIID, Name: c.Name, Amount: amount}
	if !c.HasUPIID() {
		d.UPIID = deeplink.SynthesizeUPIID(c.Phone, c.Name)
		d.UPIIDSynthesized = true
		p.UPIID = d.UPIID
		d.AppLinks = e.links.AppLinks(p)
		warnings = append(warnings, warningSynthesizedUPIID(d.UPIID))
	}
	d.UPILink = e.links.Pay(p)

	res.Kind = KindPay
	res.Pay = d
	res.Warning = joinWarnings(warnings...)
}

func (e *Engine) payFallback(res *Result, u transcript.Utterance) {
	amount, _ := ExtractAmount(u.Lower)
	recipient := e.extractor.Recipient(u.Lower)
	id := deeplink.SynthesizeUPIID("", recipient)

	d := &PayDetails{
		Amount:           amount,
		Recipient:        recipient,
		UPIID:            id,
		UPIIDSynthesized: true,
		UPILink:          e.links.Pay(deeplink.Payment{UPIID: id, Name: recipient, Amount: amount}),
	}

	var placeholder string
	if recipient == PlaceholderRecipient {
		placeholder = WarningPlaceholderRecipient
	}
	res.Kind = KindPay
	res.Pay = d
	res.Warning = joinWarnings(placeholder, warningSynthesizedUPIID(id))
}
