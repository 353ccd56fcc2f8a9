package canvass

import (
	"errors"
	"strings"
	"testing"
)

func TestNewSchemaDuplicateProp(t *testing.T) {
	_, err := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "a", Type: TypeString},
		ModelProp{ID: 1, ModelName: "b", Type: TypeString},
	)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestDefineFieldTypeMismatch(t *testing.T) {
	s, _ := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "a", Type: TypeString},
		ModelProp{ID: 2, ModelName: "b", Type: TypeNumber},
		ModelProp{ID: 3, ModelName: "c", Type: TypeString, FilterTest: PrefixTest},
	)
	if _, err := s.DefineFieldFromProps("ab", "AB", []int{1, 2}, FieldSpec{}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := s.DefineField(FieldSpec{DialogName: "none"}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
	idx, err := s.DefineFieldFromProps("ac", "", []int{1, 3}, FieldSpec{})
	if err != nil {
		t.Fatalf("DefineFieldFromProps: %v", err)
	}
	f, _ := s.Field(idx)
	if f.Type != TypeString || f.DisplayName != "ac" || f.FilterTest != nil {
		t.Fatalf("composed field: %+v", f)
	}
	if _, err := s.Field(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSchemaGetObject(t *testing.T) {
	s, _ := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "name", Type: TypeString},
		ModelProp{ID: 2, ModelName: "tags", Type: TypeStringArray},
		ModelProp{ID: 3, ModelName: "n", Type: TypeNumber, DefaultValue: 7.0},
		ModelProp{ID: 4, ModelName: "dob", Type: TypeDate, ModelPath: []string{"details"}},
	)
	e := s.GetObject()
	if e["name"] != "" || e["n"] != 7.0 {
		t.Fatalf("defaults: %v", e)
	}
	if tags, ok := e["tags"].([]any); !ok || len(tags) != 0 {
		t.Fatalf("array default: %#v", e["tags"])
	}
	if v, ok := e.Lookup("details", "dob"); !ok || v != nil {
		t.Fatalf("nested default: %v %v", v, ok)
	}
	e["tags"] = append(e["tags"].([]any), "x")
	if len(s.GetObject()["tags"].([]any)) != 0 {
		t.Fatalf("defaults shared between instances")
	}
}

func TestSchemaSortOptions(t *testing.T) {
	s := peopleSchema(t)
	opts := s.SortOptions()
	if len(opts) != 4 {
		t.Fatalf("SortOptions: %v", opts)
	}
	if opts[0].Value != "+per0" || opts[1].Value != "-per0" || opts[2].ID != "per2" {
		t.Fatalf("SortOptions values: %v", opts)
	}
	if !strings.HasSuffix(opts[1].Label, "descending") {
		t.Fatalf("label: %q", opts[1].Label)
	}
	if idx, ok := s.ParseSortOptionID("-per2"); !ok || idx != 2 {
		t.Fatalf("ParseSortOptionID: %d %v", idx, ok)
	}
	if _, ok := s.ParseSortOptionID("per99"); ok {
		t.Fatalf("out of range sort id accepted")
	}
}

func TestSchemaFieldList(t *testing.T) {
	s := peopleSchema(t)
	if got := s.FieldList(FieldCriteria{}); len(got) != 0 {
		t.Fatalf("empty criteria matched %d fields", len(got))
	}
	got := s.FieldList(FieldCriteria{"type": TypeString})
	if len(got) != 2 || got[0].DialogName != "name" || got[1].DialogName != "role" {
		t.Fatalf("by type: %v", got)
	}
	got = s.FieldList(FieldCriteria{
		"dialogName": func(v any) bool { return strings.HasPrefix(v.(string), "d") },
	})
	if len(got) != 1 || got[0].DialogName != "dob" {
		t.Fatalf("by predicate: %v", got)
	}
	if got := s.FieldList(FieldCriteria{"unknown": 1}); len(got) != 0 {
		t.Fatalf("unknown criterion matched")
	}
}

func TestSchemaLinkAndStorageKind(t *testing.T) {
	s, _ := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "one", Type: TypeObject},
		ModelProp{ID: 2, ModelName: "many", Type: TypeObjectArray},
	)
	link := s.SchemaLink(2)
	if link.Prop().ModelName != "many" {
		t.Fatalf("link prop: %v", link.Prop())
	}
	if s.StorageKind(1) != StorageObject || s.StorageKind(2) != StorageList || s.StorageKind(9) != StorageAuto {
		t.Fatalf("storage kinds")
	}
}

func TestSchemaFilterStubAndNewID(t *testing.T) {
	s := peopleSchema(t)
	stub := s.GetFilterStub(map[string]any{"name": "amy"})
	if len(stub) != 5 || stub["name"] != "amy" || stub["role"] != nil {
		t.Fatalf("stub: %v", stub)
	}
	stub = s.GetFilterStub(func(f *Field) any { return f.Index })
	if stub["dob"] != 3 {
		t.Fatalf("stub fn: %v", stub)
	}
	id := s.NewID()
	if !strings.HasPrefix(id, "per-") || id == s.NewID() {
		t.Fatalf("NewID: %s", id)
	}
}

func TestSchemaCaption(t *testing.T) {
	s := peopleSchema(t)
	if c := s.Caption(Entity{"name": "Amy"}); c != "Amy" {
		t.Fatalf("caption: %q", c)
	}
	if c := s.Caption(Entity{IDKey: "p1"}); c != "p1" {
		t.Fatalf("caption id: %q", c)
	}
}

func TestReadProperty(t *testing.T) {
	s := peopleSchema(t)
	src := map[string]any{IDKey: "p1", "name": "Amy", "dob": "2020-01-02", "extra": true}
	e := s.ReadProperty(src, &ReadOptions{Convert: ConvertDates(s), Prune: []int{5}})
	if e.ID() != "p1" || e["name"] != "Amy" {
		t.Fatalf("read: %v", e)
	}
	if _, ok := e["extra"]; ok {
		t.Fatalf("unknown property copied")
	}
	if v, ok := e["age"]; !ok || v != nil {
		t.Fatalf("missing source property should be nil: %v %v", v, ok)
	}
	if _, ok := e["voted"]; ok {
		t.Fatalf("pruned property kept")
	}
	if d, ok := ParseDate(e["dob"]); !ok || d.Day() != 2 {
		t.Fatalf("date not converted: %#v", e["dob"])
	}
	e = s.ReadProperty(map[string]any{"nm": "Bo"}, &ReadOptions{IDs: []int{1}, FromProperty: map[int]string{1: "nm"}})
	if len(e) != 1 || e["name"] != "Bo" {
		t.Fatalf("fromProperty: %v", e)
	}
}

type upperReader struct{}

func (upperReader) ReadResponseObject(raw map[string]any, _ *StandardArgs) Entity {
	return Entity{"town": strings.ToUpper(raw["town"].(string))}
}

type readers map[string]EntityReader

func (r readers) Reader(name string) (EntityReader, bool) {
	x, ok := r[name]
	return x, ok
}

func TestReadEmbeddedAndSequence(t *testing.T) {
	s, _ := NewSchema("x", "x",
		ModelProp{ID: 1, ModelName: "home", Type: TypeObject, Factory: "address"},
		ModelProp{ID: 2, ModelName: "others", Type: TypeObjectArray, Factory: "address"},
	)
	src := []any{
		map[string]any{"home": map[string]any{"town": "leeds"}, "others": []any{map[string]any{"town": "york"}, "a9"}},
	}
	into := []Entity{nil, {"keep": true}}
	out := s.Read(src, &ReadOptions{Readers: readers{"address": upperReader{}}, Into: into}).([]Entity)
	if len(out) != 2 || out[1]["keep"] != true {
		t.Fatalf("into: %v", out)
	}
	home := out[0]["home"].(Entity)
	if home["town"] != "LEEDS" {
		t.Fatalf("embedded: %v", home)
	}
	others := out[0]["others"].([]any)
	if others[0].(Entity)["town"] != "YORK" || others[1] != "a9" {
		t.Fatalf("embedded array: %v", others)
	}
}

func TestZeroRefFieldIsNoReference(t *testing.T) {
	other, _ := NewSchema("other", "o", ModelProp{ID: 0, ModelName: "town", Type: TypeString})
	s, err := NewSchema("x", "x",
		ModelProp{ID: 0, ModelName: "plain", Type: TypeObjectID, RefSchema: other},
		ModelProp{ID: 1, ModelName: "home", Type: TypeObjectID, RefSchema: other, RefField: refID(0)},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	plain, _ := s.DefineFieldFromProps("plain", "", []int{0}, FieldSpec{})
	home, _ := s.DefineFieldFromProps("home", "", []int{1}, FieldSpec{})
	if f, _ := s.Field(plain); f.IsRef() {
		t.Fatalf("prop without RefField treated as a reference")
	}
	if f, _ := s.Field(home); !f.IsRef() || *f.RefField != 0 {
		t.Fatalf("prop with RefField 0 should reference prop 0")
	}
	if got := s.FieldList(FieldCriteria{"refField": 0}); len(got) != 1 || got[0].DialogName != "home" {
		t.Fatalf("FieldList by refField: %v", got)
	}
}
