package intent_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/deeplink"
	"github.com/awaazpay/awaaz/internal/intent"
	"github.com/awaazpay/awaaz/internal/observe"
	"github.com/awaazpay/awaaz/internal/safety"
)

func TestEngine_Scenarios(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	ctx := context.Background()

	t.Run("fallback pay", func(t *testing.T) {
		t.Parallel()
		res := e.Classify(ctx, "Raju ko 500 rupaye bhejo", nil)
		if res.Kind != intent.KindPay || res.Pay == nil {
			t.Fatalf("Kind = %q, want pay", res.Kind)
		}
		if res.Pay.Amount != "500" {
			t.Errorf("Amount = %q, want %q", res.Pay.Amount, "500")
		}
		if res.Pay.Recipient != "raju" {
			t.Errorf("Recipient = %q, want %q", res.Pay.Recipient, "raju")
		}
		if res.Pay.UPIID != "raju@upi" || !res.Pay.UPIIDSynthesized {
			t.Errorf("UPIID = %q (synthesized=%v), want synthesized raju@upi", res.Pay.UPIID, res.Pay.UPIIDSynthesized)
		}
		if !strings.Contains(res.Warning, "unverified") {
			t.Errorf("Warning = %q, want unverified UPI id notice", res.Warning)
		}
		if res.OriginalText != "Raju ko 500 rupaye bhejo" {
			t.Errorf("OriginalText = %q", res.OriginalText)
		}
	})

	t.Run("directory call", func(t *testing.T) {
		t.Parallel()
		res := e.Classify(ctx, "Doctor ko call karo", nil)
		if res.Kind != intent.KindCall || res.Call == nil {
			t.Fatalf("Kind = %q, want call", res.Kind)
		}
		if res.Call.Recipient != "Doctor" || res.Call.Number != "102" {
			t.Errorf("Call = %+v, want Doctor/102", res.Call)
		}
		if res.Call.TelLink != "tel:102" {
			t.Errorf("TelLink = %q, want tel:102", res.Call.TelLink)
		}
		if res.Call.ContactsLink != "" {
			t.Errorf("ContactsLink = %q, want none for directory entries", res.Call.ContactsLink)
		}
		if res.Warning != "" {
			t.Errorf("Warning = %q, want none", res.Warning)
		}
	})

	t.Run("scam", func(t *testing.T) {
		t.Parallel()
		res := e.Classify(ctx, "You won a lottery, share your OTP", nil)
		if res.Kind != intent.KindScam || res.Scam == nil {
			t.Fatalf("Kind = %q, want scam", res.Kind)
		}
		w := strings.ToLower(res.Warning)
		if !strings.Contains(w, "lottery") && !strings.Contains(w, "otp") {
			t.Errorf("Warning = %q, want it to name the trigger", res.Warning)
		}
		if res.Call != nil || res.Pay != nil {
			t.Error("scam result carries call/pay details")
		}
	})

	t.Run("gibberish", func(t *testing.T) {
		t.Parallel()
		res := e.Classify(ctx, "asdkj qwoeiu", nil)
		if res.Kind != intent.KindUnknown {
			t.Fatalf("Kind = %q, want unknown", res.Kind)
		}
		if res.Warning != intent.WarningUnknownNoContacts {
			t.Errorf("Warning = %q, want no-contacts guidance", res.Warning)
		}
	})

	t.Run("contact pay with upi id", func(t *testing.T) {
		t.Parallel()
		contacts := []contact.Contact{{Name: "Amit", Phone: "9999", UPIID: "amit@upi"}}
		res := e.Classify(ctx, "pay amit 200", contacts)
		if res.Kind != intent.KindPay || res.Pay == nil {
			t.Fatalf("Kind = %q, want pay", res.Kind)
		}
		p := res.Pay
		if p.Amount != "200" || p.Recipient != "Amit" || p.UPIID != "amit@upi" {
			t.Errorf("Pay = %+v", p)
		}
		if p.UPIIDSynthesized || len(p.AppLinks) != 0 {
			t.Errorf("Pay = %+v, want real id and no app variants", p)
		}
		if p.UPILink != "upi://pay?pa=amit@upi&pn=Amit&am=200&cu=INR" {
			t.Errorf("UPILink = %q", p.UPILink)
		}
		if res.Warning != "" {
			t.Errorf("Warning = %q, want none", res.Warning)
		}
	})

	t.Run("contact call", func(t *testing.T) {
		t.Parallel()
		contacts := []contact.Contact{{Name: "Amit", Phone: "9999"}}
		res := e.Classify(ctx, "call amit", contacts)
		if res.Kind != intent.KindCall || res.Call == nil {
			t.Fatalf("Kind = %q, want call", res.Kind)
		}
		if res.Call.Number != "9999" {
			t.Errorf("Number = %q, want 9999", res.Call.Number)
		}
		if res.Call.Source != contact.SourceCaller || res.Call.ContactsLink == "" {
			t.Errorf("Call = %+v, want caller contact with contacts-search link", res.Call)
		}
	})
}

func TestEngine_CallKeywordOverridesNumber(t *testing.T) {
	t.Parallel()

	contacts := []contact.Contact{{Name: "Raju", Phone: "9876543210"}}
	res := intent.NewEngine().Classify(context.Background(), "Raju ko call karo uska number 9876543210", contacts)
	if res.Kind != intent.KindCall {
		t.Fatalf("Kind = %q, want call", res.Kind)
	}
}

func TestEngine_ContactPayWithoutUPIID(t *testing.T) {
	t.Parallel()

	contacts := []contact.Contact{{Name: "Amit", Phone: "+91 98765 43210"}}
	res := intent.NewEngine().Classify(context.Background(), "amit ko 300 bhejo", contacts)
	if res.Kind != intent.KindPay || res.Pay == nil {
		t.Fatalf("Kind = %q, want pay", res.Kind)
	}
	p := res.Pay
	if p.Amount != "300" {
		t.Errorf("Amount = %q, want 300", p.Amount)
	}
	if p.UPIID != "9876543210@upi" || !p.UPIIDSynthesized {
		t.Errorf("UPIID = %q, want synthesized 9876543210@upi", p.UPIID)
	}
	if len(p.AppLinks) != len(deeplink.DefaultApps) {
		t.Errorf("AppLinks = %d, want %d", len(p.AppLinks), len(deeplink.DefaultApps))
	}
	if !strings.Contains(res.Warning, "9876543210@upi") {
		t.Errorf("Warning = %q, want it to name the synthesized id", res.Warning)
	}
}

func TestEngine_NoContactNumberIsAlwaysPay(t *testing.T) {
	t.Parallel()

	// Without a resolved contact the call keyword is not consulted.
	res := intent.NewEngine().Classify(context.Background(), "call 9876543210", nil)
	if res.Kind != intent.KindPay {
		t.Fatalf("Kind = %q, want pay", res.Kind)
	}
}

func TestEngine_PlaceholderRecipient(t *testing.T) {
	t.Parallel()

	res := intent.NewEngine().Classify(context.Background(), "500 bhejo", nil)
	if res.Kind != intent.KindPay || res.Pay == nil {
		t.Fatalf("Kind = %q, want pay", res.Kind)
	}
	if res.Pay.Recipient != intent.PlaceholderRecipient || res.Pay.UPIID != deeplink.PlaceholderUPIID {
		t.Errorf("Pay = %+v, want placeholder recipient and id", res.Pay)
	}
	if !strings.Contains(res.Warning, intent.WarningPlaceholderRecipient) {
		t.Errorf("Warning = %q, want placeholder notice", res.Warning)
	}
}

func TestEngine_DevanagariFallback(t *testing.T) {
	t.Parallel()

	res := intent.NewEngine().Classify(context.Background(), "राजू को 200 भेजो", nil)
	if res.Kind != intent.KindPay || res.Pay == nil {
		t.Fatalf("Kind = %q, want pay", res.Kind)
	}
	if res.Pay.Recipient != "राजू" || res.Pay.Amount != "200" {
		t.Errorf("Pay = %+v", res.Pay)
	}
	if res.Pay.UPIID != deeplink.PlaceholderUPIID {
		t.Errorf("UPIID = %q, want %q", res.Pay.UPIID, deeplink.PlaceholderUPIID)
	}
}

func TestEngine_UnknownWarningDependsOnContacts(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	res := e.Classify(context.Background(), "hello ji", []contact.Contact{{Name: "Amit", Phone: "1"}})
	if res.Kind != intent.KindUnknown || res.Warning != intent.WarningUnknownWithContacts {
		t.Errorf("got (%q, %q), want unknown with contacts guidance", res.Kind, res.Warning)
	}
	res = e.Classify(context.Background(), "", nil)
	if res.Kind != intent.KindUnknown || res.Warning != intent.WarningUnknownNoContacts {
		t.Errorf("empty text: got (%q, %q), want unknown with no-contacts guidance", res.Kind, res.Warning)
	}
}

func TestEngine_ScamTakesPrecedence(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	contacts := []contact.Contact{{Name: "Amit", Phone: "9999", UPIID: "amit@upi"}}

	for _, kw := range safety.DefaultKeywords {
		text := "Amit ko 500 bhejo aur " + kw + " batao"
		if res := e.Classify(context.Background(), text, contacts); res.Kind != intent.KindScam {
			t.Errorf("Classify(%q) = %q, want scam", text, res.Kind)
		}
	}
}

func TestEngine_CustomScamKeywords(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine(intent.WithSafetyFilter(safety.New([]string{"gift card"})))
	res := e.Classify(context.Background(), "Gift Card ka code bhejo", nil)
	if res.Kind != intent.KindScam || res.Scam.Trigger != "gift card" {
		t.Errorf("got %+v, want scam on gift card", res)
	}
}

func TestEngine_ContactsWinOverDirectory(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	contacts := []contact.Contact{{Name: "Police Uncle", Phone: "98111"}}
	res := e.Classify(context.Background(), "police ko phone karo", contacts)
	if res.Kind != intent.KindCall || res.Call.Number != "98111" {
		t.Errorf("got %+v, want caller contact 98111", res.Call)
	}
}

func TestEngine_EmptyContactsNeverCallerSourced(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	texts := []string{
		"Raju ko 500 rupaye bhejo", "Doctor ko call karo", "ambulance bulao",
		"pay amit 200", "call amit", "asdkj qwoeiu",
	}
	for _, text := range texts {
		res := e.Classify(context.Background(), text, nil)
		if res.Call != nil && res.Call.Source == contact.SourceCaller {
			t.Errorf("Classify(%q) resolved a caller contact from an empty list", text)
		}
		if res.Pay != nil && res.Pay.Source == contact.SourceCaller {
			t.Errorf("Classify(%q) resolved a caller contact from an empty list", text)
		}
	}
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine()
	contacts := []contact.Contact{
		{Name: "Amit", Phone: "9999"},
		{Name: "Amit Sharma", Phone: "8888", UPIID: "sharma@upi"},
	}
	first := e.Classify(context.Background(), "amit ko 150 bhejo", contacts)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Classify(context.Background(), "amit ko 150 bhejo", contacts)
			if got.Kind != first.Kind || got.Pay.UPILink != first.Pay.UPILink || got.Warning != first.Warning {
				t.Errorf("non-deterministic result: %+v vs %+v", got.Pay, first.Pay)
			}
		}()
	}
	wg.Wait()

	if first.Pay.Recipient != "Amit" {
		t.Errorf("Recipient = %q, want first listed contact %q", first.Pay.Recipient, "Amit")
	}
}

// soundsLike is a phonetic matcher that accepts a fixed name.
type soundsLike string

func (s soundsLike) Match(_ []string, name string) (float64, bool) {
	if name == string(s) {
		return 0.9, true
	}
	return 0, false
}

func TestEngine_PhoneticMatchWarns(t *testing.T) {
	t.Parallel()

	r := contact.NewResolver(contact.BuiltinDirectory(), contact.WithPhoneticMatcher(soundsLike("Sunita")))
	e := intent.NewEngine(intent.WithResolver(r))
	contacts := []contact.Contact{{Name: "Sunita", Phone: "7777", UPIID: "sunita@upi"}}

	res := e.Classify(context.Background(), "suneeta ko 100 bhejo", contacts)
	if res.Kind != intent.KindPay || res.Pay == nil {
		t.Fatalf("Kind = %q, want pay", res.Kind)
	}
	if res.Pay.MatchedBy != contact.StrategyPhonetic {
		t.Errorf("MatchedBy = %q, want phonetic", res.Pay.MatchedBy)
	}
	if !strings.Contains(res.Warning, "Sunita") {
		t.Errorf("Warning = %q, want it to name the inferred contact", res.Warning)
	}
}

func TestEngine_CustomCallKeywordsAndStopWords(t *testing.T) {
	t.Parallel()

	e := intent.NewEngine(
		intent.WithCallKeywords([]string{"lagao"}),
		intent.WithStopWords([]string{"ko", "bhejo", "ji"}),
	)
	contacts := []contact.Contact{{Name: "Raju", Phone: "5555"}}

	if res := e.Classify(context.Background(), "raju ko 5555 lagao", contacts); res.Kind != intent.KindCall {
		t.Errorf("Kind = %q, want call via custom keyword", res.Kind)
	}
	res := e.Classify(context.Background(), "mohan ji ko 20 bhejo", nil)
	if res.Pay == nil || res.Pay.Recipient != "mohan" {
		t.Errorf("Pay = %+v, want recipient mohan", res.Pay)
	}
}

func TestEngine_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	e := intent.NewEngine(intent.WithMetrics(m))
	e.Classify(context.Background(), "share your otp", nil)
	e.Classify(context.Background(), "Doctor ko call karo", nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := map[string]bool{
		"awaaz.classify.duration": false,
		"awaaz.intents":           false,
		"awaaz.scam.blocks":       false,
		"awaaz.contact.matches":   false,
	}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if _, ok := want[met.Name]; ok {
				want[met.Name] = true
			}
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %q not recorded", name)
		}
	}
}
