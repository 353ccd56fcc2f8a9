package canvass

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model holds the entity-type schemas loaded from YAML definitions.
type Model struct {
	Path      string
	Schemata  map[string]*Schema
	Resources map[string]*RestResource

	transforms *TransformRegistry
	specs      map[string]schemaSpec
}

type fieldSpec struct {
	Dialog    string   `yaml:"dialog" json:"dialog"`
	Display   string   `yaml:"display" json:"display"`
	Props     []int    `yaml:"props" json:"props"`
	Names     []string `yaml:"names" json:"names"`
	Type      string   `yaml:"type" json:"type"`
	Transform string   `yaml:"transform" json:"transform"`
	Test      string   `yaml:"test" json:"test"`
	RefSchema string   `yaml:"refSchema" json:"refSchema"`
	RefField  *int     `yaml:"refField" json:"refField"`
	Path      []string `yaml:"path" json:"path"`
}

type schemaSpec struct {
	Label    string        `yaml:"label" json:"label"`
	IDTag    string        `yaml:"idTag" json:"idTag"`
	Props    []propSpec    `yaml:"props" json:"props"`
	Fields   []fieldSpec   `yaml:"fields" json:"fields"`
	Sort     []int         `yaml:"sort" json:"sort"`
	Resource *RestResource `yaml:"resource" json:"resource"`
}

func newModel(path string, reg *TransformRegistry) *Model {
	if reg == nil {
		reg = DefaultTransforms
	}
	return &Model{
		Path:       path,
		Schemata:   map[string]*Schema{},
		Resources:  map[string]*RestResource{},
		transforms: reg,
		specs:      map[string]schemaSpec{},
	}
}

// NewModel loads every *.yml / *.yaml file below path.
func NewModel(path string) (*Model, error) {
	m := newModel(path, nil)
	if err := m.loadAll(); err != nil {
		return nil, err
	}
	if err := m.Generate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseModel builds a model from a single YAML document using the given
// transform registry (nil for DefaultTransforms).
func ParseModel(data []byte, reg *TransformRegistry) (*Model, error) {
	m := newModel("", reg)
	if err := m.load(data); err != nil {
		return nil, err
	}
	if err := m.Generate(); err != nil {
		return nil, err
	}
	return m, nil
}

var defaultModel *Model

// Default returns the model found at CANVASS_SCHEMA_PATH, or "schema".
func Default() *Model {
	if defaultModel == nil {
		path := os.Getenv("CANVASS_SCHEMA_PATH")
		if path == "" {
			path = "schema"
		}
		m, err := NewModel(path)
		if err != nil {
			panic(fmt.Errorf("failed to load schema model from %s: %w", path, err))
		}
		defaultModel = m
	}
	return defaultModel
}

func (m *Model) loadAll() error {
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".yml") && !strings.HasSuffix(d.Name(), ".yaml") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := m.load(raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
	return filepath.WalkDir(m.Path, walk)
}

// load parses one file, a map of entity-type name to definition, and
// installs the schemas with their props. Fields wait for Generate so that
// references to schemas from other files resolve.
func (m *Model) load(raw []byte) error {
	defs := map[string]schemaSpec{}
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return err
	}
	for name, spec := range defs {
		if _, ok := m.Schemata[name]; ok {
			return fmt.Errorf("duplicate schema name: %s", name)
		}
		props := make([]ModelProp, 0, len(spec.Props))
		for _, ps := range spec.Props {
			p, err := newModelProp(ps, m.transforms)
			if err != nil {
				return fmt.Errorf("schema %s: %w", name, err)
			}
			props = append(props, p)
		}
		s, err := NewSchema(name, spec.IDTag, props...)
		if err != nil {
			return err
		}
		if spec.Label != "" {
			s.Label = spec.Label
		}
		m.Schemata[name] = s
		m.specs[name] = spec
		if spec.Resource != nil {
			m.Resources[name] = spec.Resource
		}
	}
	return nil
}

// Generate resolves schema references and defines the fields.
func (m *Model) Generate() error {
	names := make([]string, 0, len(m.specs))
	for name := range m.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, spec := m.Schemata[name], m.specs[name]
		for _, ps := range spec.Props {
			if ps.RefSchema == "" {
				continue
			}
			ref := m.Schemata[ps.RefSchema]
			if ref == nil {
				return fmt.Errorf("schema %s: prop %s: unknown refSchema %s", name, ps.Name, ps.RefSchema)
			}
			s.Prop(ps.ID).RefSchema = ref
		}
	}
	for _, name := range names {
		s, spec := m.Schemata[name], m.specs[name]
		if len(s.fields) > 0 {
			continue
		}
		for _, fd := range spec.Fields {
			if err := m.defineField(s, fd); err != nil {
				return err
			}
		}
		s.SortFields = append([]int{}, spec.Sort...)
	}
	m.specs = map[string]schemaSpec{}
	return nil
}

func (m *Model) defineField(s *Schema, fd fieldSpec) error {
	spec := FieldSpec{
		DialogName:  fd.Dialog,
		DisplayName: fd.Display,
		ModelNames:  fd.Names,
		RefField:    fd.RefField,
		Path:        fd.Path,
	}
	if fd.Type != "" {
		t, ok := ParseValueType(fd.Type)
		if !ok {
			return fmt.Errorf("schema %s: field %s: unknown type %q: %w", s.Name, fd.Dialog, fd.Type, ErrTypeMismatch)
		}
		spec.Type = t
	}
	if fd.Transform != "" {
		if spec.FilterTransform = m.transforms.Transform(fd.Transform); spec.FilterTransform == nil {
			return fmt.Errorf("schema %s: field %s: unknown transform %q: %w", s.Name, fd.Dialog, fd.Transform, ErrMissingArgument)
		}
	}
	if fd.Test != "" {
		if spec.FilterTest = m.transforms.Test(fd.Test); spec.FilterTest == nil {
			return fmt.Errorf("schema %s: field %s: unknown test %q: %w", s.Name, fd.Dialog, fd.Test, ErrMissingArgument)
		}
	}
	if fd.RefSchema != "" {
		if spec.RefSchema = m.Schemata[fd.RefSchema]; spec.RefSchema == nil {
			return fmt.Errorf("schema %s: field %s: unknown refSchema %s", s.Name, fd.Dialog, fd.RefSchema)
		}
	}
	var err error
	if len(fd.Props) > 0 {
		_, err = s.DefineFieldFromProps(fd.Dialog, fd.Display, fd.Props, spec)
	} else {
		_, err = s.DefineField(spec)
	}
	return err
}

func (m *Model) Get(name string) *Schema { return m.Schemata[name] }

// Names returns the schema names in sorted order.
func (m *Model) Names() []string {
	out := make([]string, 0, len(m.Schemata))
	for name := range m.Schemata {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BindArgs resolves the schema names of args and of its sub-objects.
func (m *Model) BindArgs(args *StandardArgs) error {
	if args == nil {
		return nil
	}
	if args.Schema == nil && args.SchemaName != "" {
		if args.Schema = m.Schemata[args.SchemaName]; args.Schema == nil {
			return fmt.Errorf("args: unknown schema %s: %w", args.SchemaName, ErrMissingArgument)
		}
	}
	for _, sub := range args.SubObjects {
		if err := m.BindArgs(sub); err != nil {
			return err
		}
	}
	return nil
}
