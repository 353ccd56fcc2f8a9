package canvass

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewModelFromPath(t *testing.T) {
	m := testModel(t)
	if !sameStrings(m.Names(), []string{"address", "person"}) {
		t.Fatalf("names: %v", m.Names())
	}
	p := m.Get("person")
	if p.IDTag != "per" || p.Label != "Person" {
		t.Fatalf("person: %+v", p)
	}
	town := p.FieldByDialogName("town")
	if town == nil || !town.IsRef() || town.RefSchema != m.Get("address") {
		t.Fatalf("town should reference address: %+v", town)
	}
	name := p.FieldByDialogName("name")
	if !sameStrings(name.ModelNames, []string{"firstname", "lastname"}) || name.FilterTest == nil {
		t.Fatalf("name field: %+v", name)
	}
	dob := p.FieldByDialogName("dob")
	if !sameStrings(dob.Path, []string{"details"}) || dob.Type != TypeDate {
		t.Fatalf("dob field: %+v", dob)
	}
	if res := m.Resources["address"]; res == nil || res.URL != "addresses/:id" {
		t.Fatalf("address resource: %+v", res)
	}
	if len(p.SortOptions()) != 6 {
		t.Fatalf("sort options: %v", p.SortOptions())
	}
}

func TestDefaultUsesEnvPath(t *testing.T) {
	t.Setenv("CANVASS_SCHEMA_PATH", "../schema")
	defaultModel = nil
	defer func() { defaultModel = nil }()
	if Default().Get("address") == nil {
		t.Fatalf("expected address schema")
	}
}

func TestParseModelErrors(t *testing.T) {
	_, err := ParseModel([]byte(`
a:
  props:
    - {id: 1, name: x, transform: nope}
`), nil)
	if !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("unknown transform: %v", err)
	}
	_, err = ParseModel([]byte(`
a:
  props:
    - {id: 1, name: x, type: string}
    - {id: 2, name: y, type: number}
  fields:
    - {dialog: xy, props: [1, 2]}
`), nil)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("mixed field: %v", err)
	}
	_, err = ParseModel([]byte(`
a:
  props:
    - {id: 1, name: x, refSchema: missing}
`), nil)
	if err == nil {
		t.Fatalf("unknown refSchema accepted")
	}
}

func TestModelCustomTransform(t *testing.T) {
	reg := NewTransformRegistry()
	reg.RegisterTest("never", func(any, any) bool { return false })
	m, err := ParseModel([]byte(`
a:
  props:
    - {id: 1, name: x, test: never}
  fields:
    - {dialog: x, props: [1]}
`), reg)
	if err != nil {
		t.Fatalf("ParseModel: %v", err)
	}
	if m.Get("a").FieldByDialogName("x").FilterTest(1, 1) {
		t.Fatalf("custom test not used")
	}
}

func TestModelDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	doc := []byte("a:\n  props:\n    - {id: 1, name: x}\n")
	for _, name := range []string{"one.yml", "two.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), doc, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := NewModel(dir); err == nil {
		t.Fatalf("duplicate schema accepted")
	}
}

func TestBindArgs(t *testing.T) {
	m := testModel(t)
	id := 6
	args := &StandardArgs{SchemaName: "person", SubObjects: []*StandardArgs{{SchemaID: &id}}}
	if err := m.BindArgs(args); err != nil {
		t.Fatalf("BindArgs: %v", err)
	}
	if args.Schema != m.Get("person") {
		t.Fatalf("schema not bound")
	}
	if err := m.BindArgs(&StandardArgs{SchemaName: "nope"}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("unknown schema: %v", err)
	}
}
