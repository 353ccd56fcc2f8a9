package canvass

import "fmt"

// ModelProp is one declared field of an entity type as it is stored and
// sent on the wire. ID is unique within its schema.
type ModelProp struct {
	ID           int
	ModelName    string
	ModelPath    []string // nested container holding the value, if any
	Factory      string   // entity type of an embedded or referenced document
	DefaultValue any
	Type         ValueType

	FilterTransform TransformFunc
	FilterTest      TestFunc

	RefSchema *Schema
	RefField  *int // prop id in RefSchema; nil for none
}

// Path is the full storage path of the prop within an entity.
func (p *ModelProp) Path() []string {
	out := make([]string, 0, len(p.ModelPath)+1)
	out = append(out, p.ModelPath...)
	return append(out, p.ModelName)
}

// Default returns a fresh copy of the prop's default value.
func (p *ModelProp) Default() any {
	if p.DefaultValue != nil {
		return deepCopy(p.DefaultValue)
	}
	return p.Type.Zero()
}

type propSpec struct {
	ID        int      `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Path      []string `yaml:"path" json:"path"`
	Type      string   `yaml:"type" json:"type"`
	Factory   string   `yaml:"factory" json:"factory"`
	Default   any      `yaml:"default" json:"default"`
	Transform string   `yaml:"transform" json:"transform"`
	Test      string   `yaml:"test" json:"test"`
	RefSchema string   `yaml:"refSchema" json:"refSchema"`
	RefField  *int     `yaml:"refField" json:"refField"`
}

func newModelProp(spec propSpec, reg *TransformRegistry) (ModelProp, error) {
	p := ModelProp{
		ID:           spec.ID,
		ModelName:    spec.Name,
		ModelPath:    append([]string{}, spec.Path...),
		Factory:      spec.Factory,
		DefaultValue: spec.Default,
		Type:         TypeString,
	}
	if spec.Type != "" {
		t, ok := ParseValueType(spec.Type)
		if !ok {
			return p, fmt.Errorf("prop %s: unknown type %q: %w", spec.Name, spec.Type, ErrTypeMismatch)
		}
		p.Type = t
	}
	if spec.Transform != "" {
		p.FilterTransform = reg.Transform(spec.Transform)
		if p.FilterTransform == nil {
			return p, fmt.Errorf("prop %s: unknown transform %q: %w", spec.Name, spec.Transform, ErrMissingArgument)
		}
	}
	if spec.Test != "" {
		p.FilterTest = reg.Test(spec.Test)
		if p.FilterTest == nil {
			return p, fmt.Errorf("prop %s: unknown test %q: %w", spec.Name, spec.Test, ErrMissingArgument)
		}
	}
	if spec.RefField != nil {
		p.RefField = refID(*spec.RefField)
	}
	return p, nil
}

func refID(id int) *int { return &id }
