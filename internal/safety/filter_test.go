package safety_test

import (
	"strings"
	"testing"

	"github.com/awaazpay/awaaz/internal/safety"
	"github.com/awaazpay/awaaz/internal/transcript"
)

func TestFilter_Check(t *testing.T) {
	t.Parallel()

	f := safety.New(nil)

	tests := []struct {
		text        string
		wantTrigger string
		wantFound   bool
	}{
		{"You won a lottery, share your OTP", "lottery", true},
		{"Please share the OTP", "otp", true},
		{"KYC update karo warna account band", "kyc", true},
		{"aapka inaam nikla hai", "inaam", true},
		{"मेरा पासवर्ड क्या है", "पासवर्ड", true},
		// Substring matching is deliberate: "pin" fires inside "shopping".
		{"shopping ke liye 200 bhejo", "pin", true},
		{"Raju ko 500 rupaye bhejo", "", false},
		{"call amit", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			trigger, found := f.Check(transcript.Normalize(tc.text).Lower)
			if found != tc.wantFound {
				t.Fatalf("Check(%q) found = %v, want %v", tc.text, found, tc.wantFound)
			}
			if trigger != tc.wantTrigger {
				t.Errorf("Check(%q) trigger = %q, want %q", tc.text, trigger, tc.wantTrigger)
			}
		})
	}
}

func TestNew_FoldsAndDeduplicates(t *testing.T) {
	t.Parallel()

	f := safety.New([]string{"  Lucky   Draw ", "OTP", "otp", ""})
	got := f.Keywords()
	want := []string{"lucky draw", "otp"}
	if len(got) != len(want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if trigger, ok := f.Check("aap lucky draw jeete"); !ok || trigger != "lucky draw" {
		t.Errorf("Check() = (%q, %v), want (%q, true)", trigger, ok, "lucky draw")
	}
}

func TestNew_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	got := safety.New([]string{}).Keywords()
	if len(got) != len(safety.DefaultKeywords) {
		t.Errorf("len(Keywords()) = %d, want %d", len(got), len(safety.DefaultKeywords))
	}
}

func TestWarning_NamesTrigger(t *testing.T) {
	t.Parallel()

	w := safety.Warning("otp")
	if !strings.Contains(w, `"otp"`) {
		t.Errorf("Warning() = %q, want it to quote the trigger", w)
	}
}
