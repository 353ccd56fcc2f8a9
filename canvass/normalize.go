package canvass

import (
	"fmt"

	"go.uber.org/zap"
)

// StandardArgs describes where a server response (or a part of it) is
// stored. Sub-objects describe embedded documents that are stored on
// their own and replaced by their ids in the enclosing document.
type StandardArgs struct {
	// ObjectStoreKeys are the ids the value is stored under. The first is
	// the primary entry; the others become copy-on-write duplicates of it.
	ObjectStoreKeys []string `json:"objId,omitempty"`
	// Factory is the entity type storing the value.
	Factory    string          `json:"factory,omitempty"`
	SubObjects []*StandardArgs `json:"subObj,omitempty"`
	// Schema describes the entity holding this value; with SchemaID it
	// derives Path, Type, Storage and Factory.
	Schema     *Schema          `json:"-"`
	SchemaName string           `json:"schema,omitempty"`
	SchemaID   *int             `json:"schemaId,omitempty"`
	Path       []string         `json:"path,omitempty"`
	Type       ValueType        `json:"-"`
	Storage    StorageKind      `json:"-"`
	Flags      Flags            `json:"flags,omitempty"`
	OnComplete func(result any) `json:"-"`
	// Custom carries caller-specific arguments, see CustomArg.
	Custom map[string]any `json:"custom,omitempty"`

	parent       *StandardArgs
	standardized bool
}

// Link returns the addressed model prop, if Schema and SchemaID are set.
func (a *StandardArgs) Link() (SchemaLink, bool) {
	if a.Schema == nil || a.SchemaID == nil {
		return SchemaLink{}, false
	}
	return a.Schema.SchemaLink(*a.SchemaID), true
}

// Parent returns the enclosing descriptor of a standardized sub-object.
func (a *StandardArgs) Parent() *StandardArgs { return a.parent }

// FullPath joins the paths of the ancestors and a, root first.
func (a *StandardArgs) FullPath() []string {
	var chain []*StandardArgs
	for cur := a; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var out []string
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Path...)
	}
	return out
}

// StandardizeArgs returns a copy of raw with its defaults filled in and
// its sub-objects standardized recursively. A sub-object without a schema
// addresses a prop of the parent's schema. Path, Type, Storage and
// Factory default to what the addressed prop declares. Requesting list
// storage for a scalar type is an ErrTypeMismatch.
func StandardizeArgs(raw *StandardArgs, parent *StandardArgs) (*StandardArgs, error) {
	if raw == nil {
		return nil, fmt.Errorf("standard args: %w", ErrMissingArgument)
	}
	a := *raw
	a.parent = parent
	a.standardized = true
	a.ObjectStoreKeys = append([]string{}, raw.ObjectStoreKeys...)
	a.Path = append([]string(nil), raw.Path...)
	if a.Schema == nil && parent != nil && a.SchemaID != nil {
		a.Schema = parent.Schema
	}
	if link, ok := a.Link(); ok {
		if p := link.Prop(); p != nil {
			if a.Path == nil {
				a.Path = p.Path()
			}
			if a.Type == TypeUnknown {
				a.Type = p.Type
			}
			if a.Storage == StorageAuto {
				a.Storage = link.Schema.StorageKind(p.ID)
			}
			if a.Factory == "" {
				a.Factory = p.Factory
			}
		}
	}
	if a.Storage == StorageList && a.Type != TypeUnknown && !a.Type.IsArray() {
		return nil, fmt.Errorf("standard args %v: list storage for %s: %w", a.Path, a.Type, ErrTypeMismatch)
	}
	a.SubObjects = make([]*StandardArgs, 0, len(raw.SubObjects))
	for _, sub := range raw.SubObjects {
		s, err := StandardizeArgs(sub, &a)
		if err != nil {
			return nil, err
		}
		a.SubObjects = append(a.SubObjects, s)
	}
	return &a, nil
}

// CustomArg fetches a caller-specific argument. A missing required
// argument is an ErrMissingArgument; a value of another type is an
// ErrTypeMismatch.
func CustomArg[T any](args *StandardArgs, name string, required bool) (T, error) {
	var zero T
	var v any
	var ok bool
	if args != nil {
		v, ok = args.Custom[name]
	}
	if !ok || v == nil {
		if required {
			return zero, fmt.Errorf("argument %q: %w", name, ErrMissingArgument)
		}
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("argument %q is %T, want %T: %w", name, v, zero, ErrTypeMismatch)
	}
	return t, nil
}

// Normalizer distributes server responses over the object store.
type Normalizer struct {
	store     *Store
	factories *FactoryRegistry
	logger    *zap.SugaredLogger
}

func NewNormalizer(store *Store, factories *FactoryRegistry, logger *zap.SugaredLogger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Normalizer{store: store, factories: factories, logger: logger}
}

// StoreServerResponse stores response as described by args and returns
// the stored entity or list, or the located raw value when args names
// no store keys. Sub-objects are stored first, depth-first, and replaced
// in response by their ids.
func (n *Normalizer) StoreServerResponse(response any, args *StandardArgs) (any, error) {
	std, err := StandardizeArgs(args, nil)
	if err != nil {
		return nil, err
	}
	return n.storeArgs(response, std)
}

// StoreSubDocument stores the part of response addressed by args (a
// sub-object of parent) and then rewrites response in place so the
// embedded object becomes its id, or an array of objects an array of ids.
func (n *Normalizer) StoreSubDocument(response any, args *StandardArgs, parent *StandardArgs) (any, error) {
	std := args
	if !args.standardized || args.parent != parent {
		var err error
		if std, err = StandardizeArgs(args, parent); err != nil {
			return nil, err
		}
	}
	result, err := n.storeArgs(response, std)
	if err != nil {
		return nil, err
	}
	for _, sl := range locate(response, std.FullPath()) {
		if sl.set == nil {
			continue
		}
		sl.set(referenceOf(sl.value))
		n.logger.Debugw("normalizer rewrote sub-document", "path", std.FullPath(), "factory", std.Factory)
	}
	return result, nil
}

func (n *Normalizer) storeArgs(response any, args *StandardArgs) (any, error) {
	for _, sub := range args.SubObjects {
		if _, err := n.StoreSubDocument(response, sub, args); err != nil {
			return nil, err
		}
	}
	slots := locate(response, args.FullPath())
	if len(slots) == 0 {
		return nil, nil
	}
	value := slots[0].value
	if len(slots) > 1 {
		xs := make([]any, 0, len(slots))
		for _, sl := range slots {
			xs = append(xs, sl.value)
		}
		value = xs
	}
	var result any
	var err error
	switch {
	case len(args.ObjectStoreKeys) > 0:
		result, err = n.storeKeyed(value, args)
	case args.parent != nil:
		result, err = n.storeByID(value, args)
	default:
		result = value
	}
	if err != nil {
		return nil, err
	}
	if args.OnComplete != nil {
		args.OnComplete(result)
	}
	return result, nil
}

// storeKeyed writes value under the primary key and duplicates it under
// the remaining keys.
func (n *Normalizer) storeKeyed(value any, args *StandardArgs) (any, error) {
	flags := args.Flags
	if flags == NoFlag {
		flags = CreateOrReset
	}
	primary := args.ObjectStoreKeys[0]
	asList := args.Storage == StorageList
	if args.Storage == StorageAuto {
		_, asList = asSlice(value)
	}
	f, hasFactory := n.factory(args.Factory)
	var result any
	var err error
	switch {
	case hasFactory && asList:
		items := f.readItems(value, args)
		result, err = f.SetList(primary, RawSequence(items), flags)
	case hasFactory:
		m, ok := asMap(value)
		if !ok {
			return value, nil
		}
		result, err = f.SetObj(primary, f.ReadResponseObject(m, args), flags)
	case asList:
		var l *ResourceList
		if l, err = CreateList(n.store, primary, ListOptions{}, flags|AllowExisting); err == nil {
			l.SetItems(entitiesOf(value), flags&CopyOnWrite)
			result = l
		}
	default:
		result, err = n.store.Set(primary, value, flags, nil)
	}
	if err != nil {
		return nil, err
	}
	for _, key := range args.ObjectStoreKeys[1:] {
		switch {
		case hasFactory && asList:
			_, err = f.DuplicateList(key, primary, Overwrite|CopyOnWrite, nil)
		case hasFactory:
			_, err = f.DuplicateObj(key, primary, Overwrite|CopyOnWrite, nil)
		default:
			_, err = n.store.Duplicate(key, primary, Overwrite|CopyOnWrite, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	n.logger.Debugw("normalizer stored response", "keys", args.ObjectStoreKeys, "factory", args.Factory, "list", asList)
	return result, nil
}

// storeByID stores embedded documents without explicit keys under their
// own ids, descending into arrays. Values without an id are left
// alone.
func (n *Normalizer) storeByID(value any, args *StandardArgs) (any, error) {
	f, hasFactory := n.factory(args.Factory)
	var one func(x any) (any, error)
	one = func(x any) (any, error) {
		if xs, ok := asSlice(x); ok {
			out := make([]any, 0, len(xs))
			for _, y := range xs {
				r, err := one(y)
				if err != nil {
					return nil, err
				}
				out = append(out, r)
			}
			return out, nil
		}
		m, ok := asMap(x)
		if !ok {
			return x, nil
		}
		id := idString(m[IDKey])
		if id == "" {
			return x, nil
		}
		flags := args.Flags
		if flags == NoFlag {
			flags = CreateOrReset
		}
		if hasFactory {
			return f.SetObj(id, f.ReadResponseObject(m, args), flags)
		}
		return n.store.Set(id, m, flags, nil)
	}
	return one(value)
}

// GetServerResponse reads the values stored under the keys of args and
// of its sub-objects, in that order. Missing keys are skipped.
func (n *Normalizer) GetServerResponse(args *StandardArgs) ([]any, error) {
	std, err := StandardizeArgs(args, nil)
	if err != nil {
		return nil, err
	}
	var out []any
	n.collect(std, &out)
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func (n *Normalizer) collect(args *StandardArgs, out *[]any) {
	f, hasFactory := n.factory(args.Factory)
	for _, key := range args.ObjectStoreKeys {
		var v any
		var ok bool
		if hasFactory {
			v, ok = f.get(key)
		} else {
			v, ok = n.store.Get(key, NoFlag)
		}
		if ok {
			*out = append(*out, v)
		}
	}
	for _, sub := range args.SubObjects {
		n.collect(sub, out)
	}
}

func (n *Normalizer) factory(name string) (*StandardFactory, bool) {
	if name == "" || n.factories == nil {
		return nil, false
	}
	return n.factories.Get(name)
}

type slot struct {
	value any
	set   func(any)
}

// locate walks path into v. Arrays met on the way are descended into
// element by element; missing containers end the walk without error.
func locate(v any, path []string) []slot {
	var out []slot
	var walk func(cur any, path []string, set func(any))
	walk = func(cur any, path []string, set func(any)) {
		if len(path) == 0 {
			if cur != nil {
				out = append(out, slot{value: cur, set: set})
			}
			return
		}
		if xs, ok := cur.([]any); ok {
			for i := range xs {
				walk(xs[i], path, func(x any) { xs[i] = x })
			}
			return
		}
		m, ok := asMap(cur)
		if !ok {
			return
		}
		key := path[0]
		next, ok := m[key]
		if !ok {
			return
		}
		walk(next, path[1:], func(x any) { m[key] = x })
	}
	walk(v, path, nil)
	return out
}

// referenceOf turns an embedded object into its id and an array of
// objects into an array of ids. Values that are already ids are kept.
func referenceOf(v any) any {
	if xs, ok := asSlice(v); ok {
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = referenceOf(x)
		}
		return out
	}
	if m, ok := asMap(v); ok {
		if id, ok := m[IDKey]; ok && id != nil {
			return idString(id)
		}
	}
	return v
}
