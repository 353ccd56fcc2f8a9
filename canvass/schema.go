package canvass

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Field is a presentation-level grouping over one or more model props.
// All of a field's model names share the same value type.
type Field struct {
	Index       int
	DialogName  string
	DisplayName string
	ModelNames  []string
	Type        ValueType

	FilterTransform TransformFunc
	FilterTest      TestFunc

	RefSchema *Schema
	RefField  *int
	Path      []string // container holding the model names, if nested
}

// FieldSpec describes a field to define. When Type is TypeUnknown the type
// and the filter hooks are taken from the model props named in ModelNames.
type FieldSpec struct {
	DialogName  string
	DisplayName string
	ModelNames  []string
	Type        ValueType

	FilterTransform TransformFunc
	FilterTest      TestFunc

	RefSchema *Schema
	RefField  *int
	Path      []string
}

// SchemaLink addresses one model prop of a schema. Path, type and storage
// kind are derived from it.
type SchemaLink struct {
	Schema   *Schema
	SchemaID int
}

// Prop returns the linked model prop, or nil.
func (l SchemaLink) Prop() *ModelProp {
	if l.Schema == nil {
		return nil
	}
	return l.Schema.Prop(l.SchemaID)
}

// SortOption is a selectable sort order. Value carries a leading '+' for
// ascending or '-' for descending in front of ID.
type SortOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Descending reports whether a sort value selects descending order.
func Descending(sortValue string) bool { return strings.HasPrefix(sortValue, "-") }

// SortKey strips the direction character from a sort value.
func SortKey(sortValue string) string {
	return strings.TrimLeft(sortValue, "+-")
}

// Schema describes an entity type: its model props and its fields.
type Schema struct {
	Name  string
	IDTag string
	Label string

	props    []*ModelProp
	propByID map[int]*ModelProp
	fields   []*Field

	// SortFields lists the field indices offered as sort options.
	SortFields []int
}

// NewSchema builds a schema from its model props. Prop ids must be unique.
func NewSchema(name, idTag string, props ...ModelProp) (*Schema, error) {
	s := &Schema{Name: name, IDTag: idTag, Label: name, propByID: map[int]*ModelProp{}}
	for _, p := range props {
		if err := s.addProp(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) addProp(p ModelProp) error {
	if _, ok := s.propByID[p.ID]; ok {
		return fmt.Errorf("schema %s: prop id %d: %w", s.Name, p.ID, ErrDuplicateKey)
	}
	pp := p
	s.props = append(s.props, &pp)
	s.propByID[p.ID] = &pp
	return nil
}

// Props returns the model props in declaration order.
func (s *Schema) Props() []*ModelProp { return s.props }

// Prop returns the model prop with the given id, or nil.
func (s *Schema) Prop(id int) *ModelProp { return s.propByID[id] }

// PropByName returns the model prop with the given model name, or nil.
func (s *Schema) PropByName(name string) *ModelProp {
	for _, p := range s.props {
		if p.ModelName == name {
			return p
		}
	}
	return nil
}

// IDProp returns the prop holding the entity id, if declared.
func (s *Schema) IDProp() *ModelProp { return s.PropByName(IDKey) }

// Fields returns the fields in definition order; a field's index is its
// position in this table.
func (s *Schema) Fields() []*Field { return s.fields }

// DefineField appends a field and returns its index.
func (s *Schema) DefineField(spec FieldSpec) (int, error) {
	if len(spec.ModelNames) == 0 {
		return -1, fmt.Errorf("schema %s: field %q without model names: %w", s.Name, spec.DialogName, ErrMissingArgument)
	}
	f := &Field{
		Index:           len(s.fields),
		DialogName:      spec.DialogName,
		DisplayName:     spec.DisplayName,
		ModelNames:      append([]string{}, spec.ModelNames...),
		Type:            spec.Type,
		FilterTransform: spec.FilterTransform,
		FilterTest:      spec.FilterTest,
		RefSchema:       spec.RefSchema,
		Path:            append([]string(nil), spec.Path...),
	}
	if spec.RefField != nil {
		f.RefField = refID(*spec.RefField)
	}
	if f.Type == TypeUnknown {
		if err := s.composeField(f, spec); err != nil {
			return -1, err
		}
	}
	if f.DisplayName == "" {
		f.DisplayName = f.DialogName
	}
	s.fields = append(s.fields, f)
	return f.Index, nil
}

// DefineFieldFromProps composes a field from the model props with the
// given ids. Props of differing value types are an ErrTypeMismatch.
// Non-zero members of overrides take precedence over the props.
func (s *Schema) DefineFieldFromProps(dialogName, displayName string, ids []int, overrides FieldSpec) (int, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		p := s.Prop(id)
		if p == nil {
			return -1, fmt.Errorf("schema %s: field %q: prop id %d: %w", s.Name, dialogName, id, ErrIndexOutOfRange)
		}
		names = append(names, p.ModelName)
	}
	overrides.DialogName = dialogName
	overrides.DisplayName = displayName
	overrides.ModelNames = names
	overrides.Type = TypeUnknown
	return s.DefineField(overrides)
}

func (s *Schema) composeField(f *Field, spec FieldSpec) error {
	var first *ModelProp
	for _, name := range f.ModelNames {
		p := s.PropByName(name)
		if p == nil {
			return fmt.Errorf("schema %s: field %q: unknown model name %q: %w", s.Name, f.DialogName, name, ErrMissingArgument)
		}
		if first == nil {
			first = p
			continue
		}
		if p.Type != first.Type {
			return fmt.Errorf("schema %s: field %q: %s is %s, %s is %s: %w",
				s.Name, f.DialogName, first.ModelName, first.Type, p.ModelName, p.Type, ErrTypeMismatch)
		}
	}
	f.Type = first.Type
	if f.FilterTransform == nil {
		f.FilterTransform = first.FilterTransform
	}
	if f.FilterTest == nil {
		f.FilterTest = first.FilterTest
	}
	if f.RefSchema == nil {
		f.RefSchema = first.RefSchema
	}
	if spec.RefField == nil {
		f.RefField = first.RefField
	}
	if f.Path == nil && len(first.ModelPath) > 0 {
		f.Path = append([]string{}, first.ModelPath...)
	}
	return nil
}

// Field returns the field at index.
func (s *Schema) Field(index int) (*Field, error) {
	if index < 0 || index >= len(s.fields) {
		return nil, fmt.Errorf("schema %s: field %d: %w", s.Name, index, ErrIndexOutOfRange)
	}
	return s.fields[index], nil
}

// FieldByDialogName returns the field with the given dialog name, or nil.
func (s *Schema) FieldByDialogName(name string) *Field {
	for _, f := range s.fields {
		if f.DialogName == name {
			return f
		}
	}
	return nil
}

// ForEachField calls fn for every field in index order.
func (s *Schema) ForEachField(fn func(index int, f *Field)) {
	for i, f := range s.fields {
		fn(i, f)
	}
}

// FieldCriteria maps a field property name ("dialogName", "displayName",
// "modelNames", "type", "path", "refSchema", "refField", "index") to
// either a func(any) bool predicate or a value that must be equal.
type FieldCriteria map[string]any

// FieldList returns the fields matching every criterion. Empty criteria
// match nothing.
func (s *Schema) FieldList(criteria FieldCriteria) []*Field {
	if len(criteria) == 0 {
		return nil
	}
	var out []*Field
	for _, f := range s.fields {
		if f.matches(criteria) {
			out = append(out, f)
		}
	}
	return out
}

func (f *Field) matches(criteria FieldCriteria) bool {
	for name, want := range criteria {
		got, ok := f.property(name)
		if !ok {
			return false
		}
		if pred, isPred := want.(func(any) bool); isPred {
			if !pred(got) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func (f *Field) property(name string) (any, bool) {
	switch name {
	case "dialogName":
		return f.DialogName, true
	case "displayName":
		return f.DisplayName, true
	case "modelNames":
		return f.ModelNames, true
	case "type":
		return f.Type, true
	case "path":
		return f.Path, true
	case "refSchema":
		return f.RefSchema, true
	case "refField":
		if f.RefField == nil {
			return nil, true
		}
		return *f.RefField, true
	case "index":
		return f.Index, true
	}
	return nil, false
}

// Lookup resolves one of the field's model names within e, following the
// field's path.
func (f *Field) Lookup(e Entity, modelName string) (any, bool) {
	path := make([]string, 0, len(f.Path)+1)
	path = append(path, f.Path...)
	return e.Lookup(append(path, modelName)...)
}

// IsRef reports whether the field dereferences another schema's field.
func (f *Field) IsRef() bool { return f.RefSchema != nil && f.RefField != nil }

// GetObject returns an entity with every model prop set to its default.
func (s *Schema) GetObject() Entity {
	e := Entity{}
	for _, p := range s.props {
		e.Put(p.Default(), p.Path()...)
	}
	return e
}

// GetFilterStub returns a filter value keyed by every field's dialog name.
// fill is a func(*Field) any, a map of dialog names to values (missing
// names are left nil), or a value used for every field.
func (s *Schema) GetFilterStub(fill any) map[string]any {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		switch x := fill.(type) {
		case func(*Field) any:
			out[f.DialogName] = x(f)
		case map[string]any:
			out[f.DialogName] = x[f.DialogName]
		default:
			out[f.DialogName] = deepCopy(fill)
		}
	}
	return out
}

// SchemaLink returns an addressable pointer to the model prop id.
func (s *Schema) SchemaLink(id int) SchemaLink { return SchemaLink{Schema: s, SchemaID: id} }

// StorageKind tells whether values of the model prop id are stored as a
// list (array types) or as an object.
func (s *Schema) StorageKind(id int) StorageKind {
	p := s.Prop(id)
	if p == nil {
		return StorageAuto
	}
	if p.Type.IsArray() {
		return StorageList
	}
	return StorageObject
}

// SortOptionID encodes a field index as a sort option id.
func (s *Schema) SortOptionID(index int) string { return s.IDTag + strconv.Itoa(index) }

// ParseSortOptionID decodes a sort option id produced by SortOptionID.
// Without an id tag the ids are bare numbers and nothing is decoded.
func (s *Schema) ParseSortOptionID(id string) (int, bool) {
	id = SortKey(id)
	if s.IDTag == "" || !strings.HasPrefix(id, s.IDTag) {
		return -1, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, s.IDTag))
	if err != nil || n < 0 || n >= len(s.fields) {
		return -1, false
	}
	return n, true
}

// SortOptions returns an ascending and a descending option for every
// given field index, or for SortFields when none are given.
func (s *Schema) SortOptions(indices ...int) []SortOption {
	if len(indices) == 0 {
		indices = s.SortFields
	}
	out := make([]SortOption, 0, 2*len(indices))
	for _, i := range indices {
		f, err := s.Field(i)
		if err != nil {
			continue
		}
		id := s.SortOptionID(i)
		out = append(out,
			SortOption{ID: id, Label: f.DisplayName + " ascending", Value: "+" + id},
			SortOption{ID: id, Label: f.DisplayName + " descending", Value: "-" + id},
		)
	}
	return out
}

// NewID generates an id namespaced by the schema's id tag.
func (s *Schema) NewID() string {
	if s.IDTag == "" {
		return uuid.New().String()
	}
	return s.IDTag + "-" + uuid.New().String()
}

// Caption builds a display string from the first field's values, falling
// back to the entity id.
func (s *Schema) Caption(e Entity) string {
	if len(s.fields) > 0 {
		f := s.fields[0]
		parts := make([]string, 0, len(f.ModelNames))
		for _, name := range f.ModelNames {
			if v, ok := f.Lookup(e, name); ok && truthy(v) {
				parts = append(parts, toString(v))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if id := e.ID(); id != "" {
		return id
	}
	return s.Label
}
