package canvass

import (
	"net/url"
	"testing"
)

func TestOperatorValue(t *testing.T) {
	cases := map[Operator]string{
		OpEqual:     "5",
		OpNotEqual:  "!5",
		OpGreater:   ">5",
		OpLess:      "<5",
		OpGreaterEq: ">=5",
		OpLessEq:    "<=5",
		OpBlank:     "~",
		OpNotBlank:  "!~",
	}
	for op, want := range cases {
		if got := OperatorValue(op, 5); got != want {
			t.Fatalf("%q: got %q want %q", op, got, want)
		}
	}
}

func TestSimpleQueries(t *testing.T) {
	if got := EqualQuery("town", "leeds").Encode(); got != "town=leeds" {
		t.Fatalf("EqualQuery: %s", got)
	}
	q := MultiFieldQuery([]string{"firstname", "lastname"}, "amy")
	if q.Get("firstname|lastname") != "amy" {
		t.Fatalf("MultiFieldQuery: %v", q)
	}
	q = CombinedQuery(CombOr, QueryPair{"a", "1"}, QueryPair{"b", OperatorValue(OpGreater, 2)})
	if q.Get("$or") != "a=1,b=>2" {
		t.Fatalf("CombinedQuery: %v", q)
	}
	if len(CombinedQuery(CombAnd)) != 0 {
		t.Fatalf("empty combined query")
	}
}

func TestFilterQuery(t *testing.T) {
	m := testModel(t)
	person := m.Get("person")
	f := &Filter{Values: map[string]any{"name": "Amy", "role": "", "voted": true}}
	q := FilterQuery(person, f)
	want := url.Values{"firstname|lastname": {"amy"}, "voted": {"true"}}
	if q.Encode() != want.Encode() {
		t.Fatalf("AND: %s", q.Encode())
	}
	f.Mode = CombineOr
	if got := FilterQuery(person, f).Get("$or"); got != "firstname|lastname=amy,voted=true" {
		t.Fatalf("OR: %s", got)
	}
	f.Mode = CombineNor
	f.Values = map[string]any{"role": []any{"Lead", "Chair"}}
	if got := FilterQuery(person, f).Get("$nor"); got != "role=lead,role=chair" {
		t.Fatalf("NOR: %s", got)
	}
	if len(FilterQuery(person, nil)) != 0 {
		t.Fatalf("nil filter")
	}
}
