package canvass

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

const (
	// IDKey is the wire and storage property holding an entity's id.
	IDKey = "_id"
	// SelectedKey holds the per-item selection flag managed by ResourceList.
	SelectedKey = "isSelected"
)

// Entity is a plain keyed record as decoded from the REST API.
// Keys are model prop names; nested containers follow a prop's model path.
type Entity map[string]any

// ID returns the entity id as a string, or "" if it has none.
func (e Entity) ID() string {
	return idString(e[IDKey])
}

// Clone deep-copies the entity.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return deepCopy(e).(Entity)
}

// Lookup resolves a value through nested containers. A missing
// intermediate container yields ok=false rather than an error.
func (e Entity) Lookup(path ...string) (any, bool) {
	var cur any = e
	for _, p := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Put stores value under path, creating intermediate containers.
func (e Entity) Put(value any, path ...string) {
	if len(path) == 0 {
		return
	}
	m := map[string]any(e)
	for _, p := range path[:len(path)-1] {
		next, ok := asMap(m[p])
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// Merge shallow-merges the own properties of patch onto e.
func (e Entity) Merge(patch map[string]any, copyValues bool) {
	for k, v := range patch {
		if copyValues {
			v = deepCopy(v)
		}
		e[k] = v
	}
}

// Selected reports the selection flag set by ResourceList helpers.
func (e Entity) Selected() bool {
	b, _ := e[SelectedKey].(bool)
	return b
}

// EqualFunc decides whether two items are the same for list operations.
type EqualFunc func(a, b Entity) bool

// DeepEqual is the default structural equality.
func DeepEqual(a, b Entity) bool { return reflect.DeepEqual(a, b) }

// SameID compares entities by their id property.
func SameID(a, b Entity) bool {
	ida, idb := a.ID(), b.ID()
	return ida != "" && ida == idb
}

type deepCopier interface {
	DeepCopy() any
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Entity:
		out := make(Entity, len(x))
		for k, vv := range x {
			out[k] = deepCopy(vv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = deepCopy(vv)
		}
		return out
	case []Entity:
		out := make([]Entity, len(x))
		for i, vv := range x {
			out[i] = vv.Clone()
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case []float64:
		return append([]float64(nil), x...)
	case []int:
		return append([]int(nil), x...)
	case []bool:
		return append([]bool(nil), x...)
	case deepCopier:
		return x.DeepCopy()
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Entity:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	}
	return nil, false
}

func isNilMap(v any) bool {
	switch m := v.(type) {
	case Entity:
		return m == nil
	case map[string]any:
		return m == nil
	}
	return false
}

func asEntity(v any) (Entity, bool) {
	m, ok := asMap(v)
	return Entity(m), ok
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []Entity:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		if x == math.Trunc(x) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}

// truthy mirrors the loose notion of a "blank" value used by filters:
// nil, false, zero, NaN, "" and empty collections are blank.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case time.Time:
		return !x.IsZero()
	}
	if s, ok := asSlice(v); ok {
		return len(s) > 0
	}
	if m, ok := asMap(v); ok {
		return len(m) > 0
	}
	return true
}

// isEmptyValue reports whether a filter value carries no criterion.
// Unlike truthy, false and 0 are real criteria.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	if s, ok := asSlice(v); ok {
		return len(s) == 0
	}
	if m, ok := asMap(v); ok {
		return len(m) == 0
	}
	return false
}
