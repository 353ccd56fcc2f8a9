package canvass

import (
	"net/url"
	"strings"
	"time"
)

// Operator prefixes a query value with a comparison.
type Operator string

const (
	OpEqual     Operator = ""
	OpNotEqual  Operator = "!"
	OpGreater   Operator = ">"
	OpLess      Operator = "<"
	OpGreaterEq Operator = ">="
	OpLessEq    Operator = "<="
	OpBlank     Operator = "~"
	OpNotBlank  Operator = "!~"
)

// Combinator wraps several field=value pairs into one query parameter.
type Combinator string

const (
	CombOr  Combinator = "$or"
	CombAnd Combinator = "$and"
	CombNot Combinator = "$not"
	CombNor Combinator = "$nor"
)

// QueryPair is one field=value term.
type QueryPair struct {
	Field string
	Value string
}

func (p QueryPair) String() string { return p.Field + "=" + p.Value }

// OperatorValue encodes value behind op. Blank and not-blank ignore the
// value.
func OperatorValue(op Operator, value any) string {
	switch op {
	case OpBlank, OpNotBlank:
		return string(op)
	}
	return string(op) + queryValue(value)
}

// EqualQuery is field=value.
func EqualQuery(field string, value any) url.Values {
	q := url.Values{}
	q.Set(field, queryValue(value))
	return q
}

// MultiFieldQuery matches value on any of fields: field1|field2=value.
func MultiFieldQuery(fields []string, value any) url.Values {
	return EqualQuery(MultiFieldKey(fields...), value)
}

func MultiFieldKey(fields ...string) string { return strings.Join(fields, "|") }

// CombinedQuery wraps pairs into a single combinator parameter, e.g.
// $or=field1=v1,field2=v2.
func CombinedQuery(c Combinator, pairs ...QueryPair) url.Values {
	q := url.Values{}
	if len(pairs) == 0 {
		return q
	}
	terms := make([]string, len(pairs))
	for i, p := range pairs {
		terms[i] = p.String()
	}
	q.Set(string(c), strings.Join(terms, ","))
	return q
}

// FilterPairs translates a filter value into query terms, one per field
// with a non-empty value, in field order. The transform of the field is
// applied to the value. Single-name fields are keyed by dialog name,
// multi-name fields by their model names joined with '|'. Array values
// give one term per element.
func FilterPairs(s *Schema, value map[string]any) []QueryPair {
	var out []QueryPair
	for _, f := range s.fields {
		v, ok := value[f.DialogName]
		if !ok || isEmptyValue(v) {
			continue
		}
		key := f.DialogName
		if len(f.ModelNames) > 1 {
			key = MultiFieldKey(f.ModelNames...)
		}
		if xs, ok := asSlice(v); ok {
			for _, x := range xs {
				out = append(out, QueryPair{Field: key, Value: queryValue(applyTransform(f, x))})
			}
			continue
		}
		out = append(out, QueryPair{Field: key, Value: queryValue(applyTransform(f, v))})
	}
	return out
}

// FilterQuery builds the REST query for a filter descriptor. AND gives
// plain parameters; OR and NOR wrap all terms in $or or $nor.
func FilterQuery(s *Schema, filter *Filter) url.Values {
	if filter == nil {
		return url.Values{}
	}
	pairs := FilterPairs(s, filter.Values)
	switch filter.Mode {
	case CombineOr:
		if len(pairs) > 1 {
			return CombinedQuery(CombOr, pairs...)
		}
	case CombineNor:
		return CombinedQuery(CombNor, pairs...)
	}
	q := url.Values{}
	for _, p := range pairs {
		q.Add(p.Field, p.Value)
	}
	return q
}

// MergeQuery adds every value of src into dst.
func MergeQuery(dst, src url.Values) url.Values {
	if dst == nil {
		dst = url.Values{}
	}
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	return dst
}

func applyTransform(f *Field, v any) any {
	if f.FilterTransform != nil {
		return f.FilterTransform(v)
	}
	return v
}

func queryValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return toString(v)
}
