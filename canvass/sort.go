package canvass

import (
	"fmt"
	"strconv"
)

// ResolveSort returns the comparator selected by sortBy. An empty sortBy
// takes the first option's value. The key (sortBy without its direction
// character) is either a schema sort option id, compared by field type,
// or a bare model prop id, compared with BasicCompare. Schemas without an
// id tag read a bare number as a field index only when it names one of
// options. Direction is not applied here; callers reverse on a leading
// '-'.
func ResolveSort(s *Schema, options []SortOption, sortBy string) (CompareFunc, error) {
	if sortBy == "" && len(options) > 0 {
		sortBy = options[0].Value
	}
	key := SortKey(sortBy)
	if key == "" {
		return nil, fmt.Errorf("sort: no sort key: %w", ErrMissingArgument)
	}
	if s == nil {
		return nil, fmt.Errorf("sort %q: schema: %w", sortBy, ErrMissingArgument)
	}
	idx, ok := s.ParseSortOptionID(key)
	if !ok && s.IDTag == "" && hasSortOption(options, key) {
		idx, ok = s.untaggedSortIndex(key)
	}
	if ok {
		c, err := NewComparator(s, idx)
		if err != nil {
			return nil, err
		}
		return c.Func(), nil
	}
	if id, err := strconv.Atoi(key); err == nil {
		if p := s.Prop(id); p != nil {
			return PropComparator(p), nil
		}
	}
	return nil, fmt.Errorf("sort %q: schema %s: %w", sortBy, s.Name, ErrIndexOutOfRange)
}

// SchemaSortResolver binds ResolveSort to a schema.
func SchemaSortResolver(s *Schema) SortResolver {
	return func(options []SortOption, sortBy string) (CompareFunc, error) {
		return ResolveSort(s, options, sortBy)
	}
}

func hasSortOption(options []SortOption, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (s *Schema) untaggedSortIndex(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || n >= len(s.fields) {
		return -1, false
	}
	return n, true
}
