package canvass

import "testing"

// peopleSchema has fields name(0) role(1) age(2) dob(3) voted(4).
func peopleSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("person", "per",
		ModelProp{ID: 0, ModelName: IDKey, Type: TypeObjectID},
		ModelProp{ID: 1, ModelName: "name", Type: TypeString, FilterTransform: LowerTransform, FilterTest: ContainsTest},
		ModelProp{ID: 2, ModelName: "role", Type: TypeString},
		ModelProp{ID: 3, ModelName: "age", Type: TypeNumber},
		ModelProp{ID: 4, ModelName: "dob", Type: TypeDate},
		ModelProp{ID: 5, ModelName: "voted", Type: TypeBoolean},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	for i, f := range []struct {
		dialog string
		id     int
	}{{"name", 1}, {"role", 2}, {"age", 3}, {"dob", 4}, {"voted", 5}} {
		idx, err := s.DefineFieldFromProps(f.dialog, "", []int{f.id}, FieldSpec{})
		if err != nil {
			t.Fatalf("DefineFieldFromProps %s: %v", f.dialog, err)
		}
		if idx != i {
			t.Fatalf("field %s index: got %d want %d", f.dialog, idx, i)
		}
	}
	s.SortFields = []int{0, 2}
	return s
}

func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel("../schema")
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func ids(items []Entity) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.ID()
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
