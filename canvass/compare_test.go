package canvass

import (
	"errors"
	"testing"
)

func TestCompareDates(t *testing.T) {
	s := peopleSchema(t)
	bad, good := Entity{"dob": "invalid"}, Entity{"dob": "2020-01-01"}
	r, err := Compare(s, 3, bad, good)
	if err != nil || r <= 0 {
		t.Fatalf("invalid date should sort after a valid one: %d %v", r, err)
	}
	if r, _ := Compare(s, 3, bad, bad); r != 0 {
		t.Fatalf("invalid dates should be equal: %d", r)
	}
	if r, _ := Compare(s, 3, good, good); r != 0 {
		t.Fatalf("compare(a, a) = %d", r)
	}
	later := Entity{"dob": "2021-06-01"}
	c, _ := NewComparator(s, 3)
	if c.Compare(good, later) >= 0 {
		t.Fatalf("ascending dates")
	}
	c.Descending = true
	if c.Compare(good, later) <= 0 {
		t.Fatalf("descending dates")
	}
	if c.Compare(bad, good) <= 0 {
		t.Fatalf("descending must keep invalid dates last")
	}
}

func TestCompareTypes(t *testing.T) {
	s := peopleSchema(t)
	cases := []struct {
		field int
		a, b  Entity
		want  int
	}{
		{0, Entity{"name": "amy"}, Entity{"name": "bo"}, -1},
		{0, Entity{}, Entity{"name": "amy"}, -1},
		{2, Entity{"age": 30.0}, Entity{"age": 4.0}, 1},
		{2, Entity{"age": 3.0}, Entity{"age": 3.0}, 0},
		{4, Entity{"voted": false}, Entity{"voted": true}, -1},
		{4, Entity{}, Entity{"voted": false}, 0},
	}
	for i, c := range cases {
		got, err := Compare(s, c.field, c.a, c.b)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if sign(float64(got)) != c.want {
			t.Fatalf("case %d: got %d want %d", i, got, c.want)
		}
	}
}

func TestCompareLadder(t *testing.T) {
	s, _ := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "last", Type: TypeString},
		ModelProp{ID: 2, ModelName: "first", Type: TypeString},
	)
	idx, _ := s.DefineFieldFromProps("name", "", []int{1, 2}, FieldSpec{})
	a := Entity{"last": "smith", "first": "amy"}
	b := Entity{"last": "smith", "first": "bo"}
	if r, _ := Compare(s, idx, a, b); r >= 0 {
		t.Fatalf("tie on first name should fall through: %d", r)
	}
}

func TestComparatorArguments(t *testing.T) {
	if _, err := NewComparator(nil, 0); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("nil schema: %v", err)
	}
	if _, err := NewComparator(peopleSchema(t), 9); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("bad index: %v", err)
	}
}

func TestBasicCompare(t *testing.T) {
	if BasicCompare(nil, 1.0) >= 0 || BasicCompare(1.0, nil) <= 0 || BasicCompare(nil, nil) != 0 {
		t.Fatalf("nil ordering")
	}
	if BasicCompare("a", "b") >= 0 || BasicCompare(2.0, 1) <= 0 {
		t.Fatalf("natural ordering")
	}
}
