package canvass

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

// TransformFunc normalises an item value and a filter value before they
// are compared.
type TransformFunc func(value any) any

// TestFunc decides whether an item value satisfies a filter value.
type TestFunc func(value, filterValue any) bool

// TransformRegistry resolves the transform and test names used in YAML
// schema definitions.
type TransformRegistry struct {
	transforms map[string]TransformFunc
	tests      map[string]TestFunc
}

func NewTransformRegistry() *TransformRegistry {
	r := &TransformRegistry{
		transforms: map[string]TransformFunc{
			"lower": LowerTransform,
			"trim":  TrimTransform,
			"phone": PhoneTransform(DefaultPhoneRegion),
			"email": EmailTransform,
		},
		tests: map[string]TestFunc{
			"equals":   EqualsTest,
			"contains": ContainsTest,
			"prefix":   PrefixTest,
			"fuzzy":    FuzzyTest(2),
		},
	}
	return r
}

func (r *TransformRegistry) Transform(name string) TransformFunc { return r.transforms[name] }
func (r *TransformRegistry) Test(name string) TestFunc           { return r.tests[name] }

// RegisterTransform adds or replaces a named transform.
func (r *TransformRegistry) RegisterTransform(name string, fn TransformFunc) {
	r.transforms[name] = fn
}

// RegisterTest adds or replaces a named test.
func (r *TransformRegistry) RegisterTest(name string, fn TestFunc) { r.tests[name] = fn }

// DefaultTransforms holds the built-in transforms and tests.
var DefaultTransforms = NewTransformRegistry()

// DefaultPhoneRegion is used to parse national phone numbers.
const DefaultPhoneRegion = "US"

func mapStrings(v any, fn func(string) string) any {
	switch x := v.(type) {
	case string:
		return fn(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = mapStrings(e, fn)
		}
		return out
	case []string:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = fn(e)
		}
		return out
	}
	return v
}

// LowerTransform lower-cases strings.
func LowerTransform(v any) any { return mapStrings(v, strings.ToLower) }

// TrimTransform trims and collapses whitespace.
func TrimTransform(v any) any {
	return mapStrings(v, func(s string) string { return strings.Join(strings.Fields(s), " ") })
}

// PhoneTransform formats phone numbers as E.164, trying region for
// national numbers. Unparsable input is reduced to its digits.
func PhoneTransform(region string) TransformFunc {
	return func(v any) any {
		return mapStrings(v, func(s string) string {
			n, err := phonenumbers.Parse(s, region)
			if err == nil && phonenumbers.IsValidNumber(n) {
				return phonenumbers.Format(n, phonenumbers.E164)
			}
			return strings.Map(func(r rune) rune {
				if unicode.IsDigit(r) || r == '+' {
					return r
				}
				return -1
			}, s)
		})
	}
}

// EmailTransform lower-cases e-mail addresses and converts the domain to
// its ASCII (punycode) form.
func EmailTransform(v any) any {
	return mapStrings(v, func(s string) string {
		s = strings.TrimSpace(strings.TrimPrefix(s, "mailto:"))
		if a, err := mail.ParseAddress(s); err == nil {
			s = a.Address
		}
		at := strings.LastIndex(s, "@")
		if at < 0 {
			return strings.ToLower(s)
		}
		domain := strings.TrimSuffix(strings.ToLower(s[at+1:]), ".")
		if puny, err := idna.ToASCII(domain); err == nil {
			domain = puny
		}
		return strings.ToLower(s[:at]) + "@" + domain
	})
}

// EqualsTest compares loosely: numbers by value, everything else by its
// string form.
func EqualsTest(value, filterValue any) bool { return looseEqual(value, filterValue) }

// ContainsTest matches when the item value contains the filter value.
func ContainsTest(value, filterValue any) bool {
	return strings.Contains(toString(value), toString(filterValue))
}

// PrefixTest matches when the item value starts with the filter value.
func PrefixTest(value, filterValue any) bool {
	return strings.HasPrefix(toString(value), toString(filterValue))
}

// FuzzyTest matches when the edit distance between the values, or
// between the filter value and any word of the item value, is at most
// maxDistance.
func FuzzyTest(maxDistance int) TestFunc {
	return func(value, filterValue any) bool {
		v, f := toString(value), toString(filterValue)
		if f == "" {
			return false
		}
		if strings.Contains(v, f) || levenshtein.ComputeDistance(v, f) <= maxDistance {
			return true
		}
		for _, word := range strings.Fields(v) {
			if levenshtein.ComputeDistance(word, f) <= maxDistance {
				return true
			}
		}
		return false
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	if n, ok := ParseNumber(v); ok {
		return idString(n)
	}
	return fmt.Sprint(v)
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		return ok && x == y
	}
	if _, isStr := a.(string); !isStr {
		if x, ok := ParseNumber(a); ok {
			y, ok := ParseNumber(b)
			return ok && x == y
		}
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := ParseDate(b)
		return ok && ta.Equal(tb)
	}
	return toString(a) == toString(b)
}
