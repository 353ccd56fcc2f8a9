package canvass

// CollectionKind tags the variant held by a Collection.
type CollectionKind int

const (
	RawSequenceKind CollectionKind = iota
	ResourceListKind
)

// Collection is either a raw item sequence or a resource list.
type Collection struct {
	kind CollectionKind
	raw  []Entity
	list *ResourceList
}

// RawSequence wraps a plain slice of items.
func RawSequence(items []Entity) Collection {
	return Collection{kind: RawSequenceKind, raw: items}
}

// ListCollection wraps a resource list.
func ListCollection(l *ResourceList) Collection {
	return Collection{kind: ResourceListKind, list: l}
}

func (c Collection) Kind() CollectionKind { return c.kind }

// List returns the wrapped resource list, if that is the variant.
func (c Collection) List() (*ResourceList, bool) {
	if c.kind == ResourceListKind {
		return c.list, c.list != nil
	}
	return nil, false
}

// Items returns the base items of either variant.
func (c Collection) Items() []Entity {
	switch c.kind {
	case ResourceListKind:
		if c.list == nil {
			return nil
		}
		return c.list.Items
	}
	return c.raw
}

func (c Collection) Len() int { return len(c.Items()) }

// entitiesOf converts decoded JSON (an object, an array of objects or
// []Entity) into a slice of entities. Non-object elements are skipped.
func entitiesOf(v any) []Entity {
	switch x := v.(type) {
	case nil:
		return nil
	case []Entity:
		return x
	case Entity:
		return []Entity{x}
	case map[string]any:
		return []Entity{x}
	}
	xs, ok := asSlice(v)
	if !ok {
		return nil
	}
	out := make([]Entity, 0, len(xs))
	for _, x := range xs {
		if e, ok := asEntity(x); ok {
			out = append(out, e)
		}
	}
	return out
}
