package canvass

import "testing"

func amyAndBo() []Entity {
	return []Entity{
		{IDKey: "1", "name": "Amy", "role": "r1"},
		{IDKey: "2", "name": "Bo", "role": "r2"},
	}
}

func TestFilterAndNor(t *testing.T) {
	s := peopleSchema(t)
	value := map[string]any{"name": "a"}
	if got := ids(Evaluate(amyAndBo(), s, value, CombineAnd)); !sameStrings(got, []string{"1"}) {
		t.Fatalf("AND: %v", got)
	}
	if got := ids(Evaluate(amyAndBo(), s, value, CombineNor)); !sameStrings(got, []string{"2"}) {
		t.Fatalf("NOR: %v", got)
	}
}

func TestFilterOr(t *testing.T) {
	s := peopleSchema(t)
	value := map[string]any{"name": "amy", "role": "r2"}
	if got := ids(Evaluate(amyAndBo(), s, value, CombineOr)); !sameStrings(got, []string{"1", "2"}) {
		t.Fatalf("OR: %v", got)
	}
	if got := ids(Evaluate(amyAndBo(), s, value, CombineAnd)); len(got) != 0 {
		t.Fatalf("AND: %v", got)
	}
}

// Fields without a filter value are not tested, so they count neither as
// a match nor as a miss.
func TestFilterNorIgnoresUntestedFields(t *testing.T) {
	s := peopleSchema(t)
	value := map[string]any{"name": "", "role": "r1", "age": nil}
	if got := ids(Evaluate(amyAndBo(), s, value, CombineNor)); !sameStrings(got, []string{"2"}) {
		t.Fatalf("NOR: %v", got)
	}
	if got := ids(Evaluate(amyAndBo(), s, map[string]any{}, CombineNor)); len(got) != 2 {
		t.Fatalf("NOR without criteria should keep all: %v", got)
	}
}

func TestFilterFalseAndZeroAreCriteria(t *testing.T) {
	s := peopleSchema(t)
	items := []Entity{
		{IDKey: "1", "voted": false, "age": 0.0},
		{IDKey: "2", "voted": true, "age": 40.0},
	}
	if got := ids(Evaluate(items, s, map[string]any{"voted": false}, CombineAnd)); !sameStrings(got, []string{"1"}) {
		t.Fatalf("voted=false: %v", got)
	}
	if got := ids(Evaluate(items, s, map[string]any{"age": 0}, CombineAnd)); !sameStrings(got, []string{"1"}) {
		t.Fatalf("age=0: %v", got)
	}
}

func TestFilterArrayValues(t *testing.T) {
	s, _ := NewSchema("x", "x", ModelProp{ID: 1, ModelName: "tags", Type: TypeStringArray})
	s.DefineFieldFromProps("tags", "", []int{1}, FieldSpec{})
	items := []Entity{{IDKey: "1", "tags": []any{"a", "b"}}, {IDKey: "2", "tags": []any{"c"}}}
	if got := ids(Evaluate(items, s, map[string]any{"tags": "b"}, CombineAnd)); !sameStrings(got, []string{"1"}) {
		t.Fatalf("array match: %v", got)
	}
}

func TestFilterMissingContainer(t *testing.T) {
	s, _ := NewSchema("x", "x", ModelProp{ID: 1, ModelName: "dob", ModelPath: []string{"details"}, Type: TypeString})
	s.DefineFieldFromProps("dob", "", []int{1}, FieldSpec{})
	items := []Entity{{IDKey: "1"}, {IDKey: "2", "details": Entity{"dob": "x"}}}
	if got := ids(Evaluate(items, s, map[string]any{"dob": "x"}, CombineAnd)); !sameStrings(got, []string{"2"}) {
		t.Fatalf("nested: %v", got)
	}
}

func TestExcludeBlank(t *testing.T) {
	s := peopleSchema(t)
	items := []Entity{
		{IDKey: "1", "name": "", "role": nil, "voted": false, "age": 0.0},
		{IDKey: "2", "role": "r1"},
	}
	if got := ids(ExcludeBlank(items, s)); !sameStrings(got, []string{"2"}) {
		t.Fatalf("ExcludeBlank: %v", got)
	}
	fe := FilterEngine{}
	if got := fe.Filter(items, s, map[string]any{}, CombineAnd, true); len(got) != 2 {
		t.Fatalf("allowBlank: %v", ids(got))
	}
}

func TestFilterReferenceField(t *testing.T) {
	m := testModel(t)
	person, address := m.Get("person"), m.Get("address")
	leeds := Entity{IDKey: "a1", "town": "Leeds"}
	items := []Entity{
		{IDKey: "p1", "address": Entity{IDKey: "a2", "town": "York"}},
		{IDKey: "p2", "address": "a1"},
		{IDKey: "p3", "address": "a9"},
	}
	fe := FilterEngine{Lookup: func(rs *Schema, id string) (Entity, bool) {
		if rs == address && id == "a1" {
			return leeds, true
		}
		return nil, false
	}}
	if got := ids(fe.Evaluate(items, person, map[string]any{"town": "leeds"}, CombineAnd)); !sameStrings(got, []string{"p2"}) {
		t.Fatalf("by id: %v", got)
	}
	if got := ids(fe.Evaluate(items, person, map[string]any{"town": "york"}, CombineAnd)); !sameStrings(got, []string{"p1"}) {
		t.Fatalf("embedded: %v", got)
	}
}

func TestParseCombineMode(t *testing.T) {
	for in, want := range map[string]CombineMode{"": CombineAnd, "OR": CombineOr, "nor": CombineNor} {
		if got, ok := ParseCombineMode(in); !ok || got != want {
			t.Fatalf("%q: %v %v", in, got, ok)
		}
	}
	if _, ok := ParseCombineMode("xor"); ok {
		t.Fatalf("xor accepted")
	}
}

func TestExcludeBlankWithoutSchema(t *testing.T) {
	items := []Entity{{}, {"name": "amy"}}
	if got := ExcludeBlank(items, nil); len(got) != 2 {
		t.Fatalf("items dropped without a schema: %v", got)
	}
}
