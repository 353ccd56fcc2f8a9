package canvass

import "testing"

func TestPhoneTransform(t *testing.T) {
	phone := DefaultTransforms.Transform("phone")
	if got := phone("(650) 253-0000"); got != "+16502530000" {
		t.Fatalf("national number: %v", got)
	}
	if got := phone("+1 650 253 0000"); got != "+16502530000" {
		t.Fatalf("international number: %v", got)
	}
	if got := phone("12-ab"); got != "12" {
		t.Fatalf("unparsable: %v", got)
	}
	got := phone([]any{"650.253.0000", 7.0}).([]any)
	if got[0] != "+16502530000" || got[1] != 7.0 {
		t.Fatalf("array: %v", got)
	}
}

func TestEmailTransform(t *testing.T) {
	cases := map[string]string{
		"Bob <BOB@Example.COM>":  "bob@example.com",
		"mailto:amy@example.org": "amy@example.org",
		"carol@Bücher.Example":   "carol@xn--bcher-kva.example",
		"  dan@example.net.  ":   "dan@example.net",
		"not-an-address":         "not-an-address",
	}
	for in, want := range cases {
		if got := EmailTransform(in); got != want {
			t.Fatalf("EmailTransform(%q) = %v, want %q", in, got, want)
		}
	}
}

func TestStringTransforms(t *testing.T) {
	if got := LowerTransform("AbC"); got != "abc" {
		t.Fatalf("lower: %v", got)
	}
	if got := TrimTransform("  LS1   4AP "); got != "LS1 4AP" {
		t.Fatalf("trim: %v", got)
	}
	if got := LowerTransform(3.0); got != 3.0 {
		t.Fatalf("non-strings pass through: %v", got)
	}
}

func TestTests(t *testing.T) {
	fuzzy := DefaultTransforms.Test("fuzzy")
	for _, c := range []struct {
		value, filter string
		want          bool
	}{
		{"chairman", "chairmen", true},
		{"lead organiser", "organizer", true},
		{"lead", "chair", false},
		{"anything", "", false},
	} {
		if got := fuzzy(c.value, c.filter); got != c.want {
			t.Fatalf("fuzzy(%q, %q) = %v", c.value, c.filter, got)
		}
	}
	if !ContainsTest("leeds city", "city") || ContainsTest("leeds", "york") {
		t.Fatalf("contains")
	}
	if !PrefixTest("LS1 4AP", "LS1") || PrefixTest("LS1 4AP", "4AP") {
		t.Fatalf("prefix")
	}
	if !EqualsTest(3, "3") || !EqualsTest(false, false) || EqualsTest(false, "false") {
		t.Fatalf("equals")
	}
	reg := NewTransformRegistry()
	reg.RegisterTest("never", func(any, any) bool { return false })
	if reg.Test("never")("a", "a") || DefaultTransforms.Test("never") != nil {
		t.Fatalf("registry isolation")
	}
}
