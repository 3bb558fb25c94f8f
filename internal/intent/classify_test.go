package intent

import "testing"

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		resolved       bool
		hasNumber      bool
		hasCallKeyword bool
		want           Kind
	}{
		{"contact only", true, false, false, KindCall},
		{"contact and call keyword", true, false, true, KindCall},
		{"contact and number", true, true, false, KindPay},
		{"call keyword overrides number", true, true, true, KindCall},
		{"number without contact", false, true, false, KindPay},
		{"no contact ignores call keyword", false, true, true, KindPay},
		{"call keyword alone", false, false, true, KindUnknown},
		{"nothing", false, false, false, KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(tc.resolved, tc.hasNumber, tc.hasCallKeyword); got != tc.want {
				t.Errorf("Decide(%v, %v, %v) = %q, want %q",
					tc.resolved, tc.hasNumber, tc.hasCallKeyword, got, tc.want)
			}
		})
	}
}

func TestHasNumber(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"call raju at 2pm": true,
		"pay amit 200":     true,
		"doctor ko call":   false,
		"":                 false,
	} {
		if got := HasNumber(in); got != want {
			t.Errorf("HasNumber(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContainsAny_Substring(t *testing.T) {
	t.Parallel()

	kw := foldList(DefaultCallKeywords)
	if !containsAny("raju ko phone lagao", kw) {
		t.Error("expected \"phone\" to be found")
	}
	if !containsAny("राजू को फोन करो", kw) {
		t.Error("expected Devanagari call keyword to be found")
	}
	if containsAny("raju ko 500 bhejo", kw) {
		t.Error("unexpected call keyword")
	}
}

func TestFoldList(t *testing.T) {
	t.Parallel()

	got := foldList([]string{" Call ", "CALL", "", "Phone"})
	if len(got) != 2 || got[0] != "call" || got[1] != "phone" {
		t.Errorf("foldList() = %q, want [call phone]", got)
	}
}
