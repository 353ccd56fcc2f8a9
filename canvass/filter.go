package canvass

import "strings"

// CombineMode joins per-field filter results.
type CombineMode int

const (
	CombineAnd CombineMode = iota
	CombineOr
	CombineNor
)

func (m CombineMode) String() string {
	switch m {
	case CombineOr:
		return "or"
	case CombineNor:
		return "nor"
	}
	return "and"
}

// ParseCombineMode reads "and", "or" or "nor".
func ParseCombineMode(s string) (CombineMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and":
		return CombineAnd, true
	case "or":
		return CombineOr, true
	case "nor":
		return CombineNor, true
	}
	return CombineAnd, false
}

// Evaluator is a custom filter replacing the generic engine for a list.
type Evaluator func(items []Entity, schema *Schema, value map[string]any) []Entity

// Filter describes how a resource list is filtered. Values is keyed by
// field dialog name.
type Filter struct {
	Values      map[string]any
	AllowBlank  bool
	Mode        CombineMode
	Evaluator   Evaluator
	LastApplied map[string]any
	Hidden      []string
}

// IsEmptyFilter reports whether no value carries a criterion.
func IsEmptyFilter(value map[string]any) bool {
	for _, v := range value {
		if !isEmptyValue(v) {
			return false
		}
	}
	return true
}

// Clone copies the filter's values; the evaluator is shared.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Values = deepCopy(f.Values).(map[string]any)
	if f.LastApplied != nil {
		cp.LastApplied = deepCopy(f.LastApplied).(map[string]any)
	}
	cp.Hidden = append([]string(nil), f.Hidden...)
	return &cp
}

// RefLookup resolves a referenced entity by schema and id, e.g. from the
// store.
type RefLookup func(refSchema *Schema, id string) (Entity, bool)

// FilterEngine evaluates filter values against a schema's fields.
type FilterEngine struct {
	// Lookup dereferences reference fields holding bare ids; embedded
	// sub-documents need no lookup.
	Lookup RefLookup
}

// Evaluate filters items with a zero FilterEngine.
func Evaluate(items []Entity, schema *Schema, value map[string]any, mode CombineMode) []Entity {
	return FilterEngine{}.Evaluate(items, schema, value, mode)
}

// ExcludeBlank drops items for which every model name of every field is
// blank. Without a schema the items are returned as is.
func ExcludeBlank(items []Entity, schema *Schema) []Entity {
	if schema == nil {
		return items
	}
	out := make([]Entity, 0, len(items))
	for _, item := range items {
		if !blankItem(item, schema) {
			out = append(out, item)
		}
	}
	return out
}

func blankItem(item Entity, schema *Schema) bool {
	for _, f := range schema.fields {
		for _, name := range f.ModelNames {
			if v, ok := f.Lookup(item, name); ok && truthy(v) {
				return false
			}
		}
	}
	return true
}

// Filter runs the blank pre-pass (unless allowBlank) and Evaluate.
func (fe FilterEngine) Filter(items []Entity, schema *Schema, value map[string]any, mode CombineMode, allowBlank bool) []Entity {
	if !allowBlank {
		items = ExcludeBlank(items, schema)
	}
	return fe.Evaluate(items, schema, value, mode)
}

// Evaluate keeps the items satisfying value. Only fields with a
// non-empty value are tested; a field matches when any of its model names
// matches. AND needs every tested field to match, OR at least one, NOR
// none. Fields without a value count toward neither side.
func (fe FilterEngine) Evaluate(items []Entity, schema *Schema, value map[string]any, mode CombineMode) []Entity {
	type criterion struct {
		field *Field
		want  any
	}
	var criteria []criterion
	for _, f := range schema.fields {
		v, ok := value[f.DialogName]
		if !ok || isEmptyValue(v) {
			continue
		}
		if f.FilterTransform != nil {
			v = f.FilterTransform(v)
		}
		criteria = append(criteria, criterion{field: f, want: v})
	}
	out := make([]Entity, 0, len(items))
	for _, item := range items {
		matched := 0
		for _, c := range criteria {
			if fe.matchField(item, c.field, c.want) {
				matched++
			}
		}
		keep := false
		switch mode {
		case CombineAnd:
			keep = matched == len(criteria)
		case CombineOr:
			keep = len(criteria) == 0 || matched > 0
		case CombineNor:
			keep = matched == 0
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

func (fe FilterEngine) matchField(item Entity, f *Field, want any) bool {
	for _, name := range f.ModelNames {
		got, ok := f.Lookup(item, name)
		if !ok {
			continue
		}
		if f.IsRef() {
			if got, ok = fe.deref(got, f); !ok {
				continue
			}
		}
		if f.FilterTransform != nil {
			got = f.FilterTransform(got)
		}
		if matchValue(got, want, f.FilterTest) {
			return true
		}
	}
	return false
}

// deref resolves a reference field through its embedded sub-document, or
// through the lookup when only the id is present.
func (fe FilterEngine) deref(v any, f *Field) (any, bool) {
	p := f.RefSchema.Prop(*f.RefField)
	if p == nil {
		return nil, false
	}
	one := func(x any) (any, bool) {
		sub, ok := asEntity(x)
		if !ok {
			id := idString(x)
			if id == "" || fe.Lookup == nil {
				return nil, false
			}
			if sub, ok = fe.Lookup(f.RefSchema, id); !ok {
				return nil, false
			}
		}
		return sub.Lookup(p.Path()...)
	}
	if xs, ok := v.([]any); ok {
		out := make([]any, 0, len(xs))
		for _, x := range xs {
			if r, ok := one(x); ok {
				out = append(out, r)
			}
		}
		return out, len(out) > 0
	}
	return one(v)
}

// matchValue applies test (or loose equality). Array item values match
// when any element does.
func matchValue(got, want any, test TestFunc) bool {
	if xs, ok := asSlice(got); ok {
		for _, x := range xs {
			if matchValue(x, want, test) {
				return true
			}
		}
		return false
	}
	if test != nil {
		return test(got, want)
	}
	return looseEqual(got, want)
}
