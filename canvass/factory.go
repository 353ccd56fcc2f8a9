package canvass

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"go.uber.org/zap"
)

// FactoryConfig declares one entity type.
type FactoryConfig struct {
	Name   string
	Schema *Schema
	// Prefix namespaces the type's store keys; it defaults to Name.
	Prefix   string
	Resource *RestResource
	// SortOptions default to the schema's sort options.
	SortOptions       []SortOption
	ItemsPerPage      int
	MaxDisplayedPages int
	// Convert post-processes values read from responses; it defaults to
	// ConvertDates for the schema.
	Convert func(id int, raw any) any
	// Reader replaces the default schema-driven response reader.
	Reader EntityReader
}

// ActionFunc calls one REST action of an entity type.
type ActionFunc func(ctx context.Context, params map[string]any, body any) (any, error)

// StandardFactory binds a schema, the object store, resource lists and a
// REST resource into the operations of one entity type.
type StandardFactory struct {
	Name   string
	Schema *Schema

	ns        Namespace
	cfg       FactoryConfig
	store     *Store
	registry  *FactoryRegistry
	transport Transport
	actions   map[string]ActionFunc
	logger    *zap.SugaredLogger
}

// Key is the store key of id.
func (f *StandardFactory) Key(id string) string { return f.ns.Key(id) }

// Namespace returns the factory's key namespace.
func (f *StandardFactory) Namespace() Namespace { return f.ns }

func (f *StandardFactory) newEntity() any { return f.Schema.GetObject() }

func (f *StandardFactory) entity(v any, err error) (Entity, error) {
	if err != nil || v == nil {
		return nil, err
	}
	e, ok := asEntity(v)
	if !ok {
		return nil, fmt.Errorf("%s: stored value is %T: %w", f.Name, v, ErrTypeMismatch)
	}
	return e, nil
}

// NewObj creates a default-valued entity under id.
func (f *StandardFactory) NewObj(id string, flags Flags) (Entity, error) {
	return f.entity(f.store.Create(f.Key(id), Constructor(f.newEntity), flags))
}

// InitObj resets id to the defaults and merges data onto it.
func (f *StandardFactory) InitObj(id string, data map[string]any, flags Flags) (Entity, error) {
	return f.entity(f.store.Set(f.Key(id), data, flags|CreateOrReset, Constructor(f.newEntity)))
}

// SetObj merges data onto id, creating it with the defaults when the
// flags permit.
func (f *StandardFactory) SetObj(id string, data map[string]any, flags Flags) (Entity, error) {
	return f.entity(f.store.Set(f.Key(id), data, flags, Constructor(f.newEntity)))
}

func (f *StandardFactory) GetObj(id string, flags Flags) (Entity, bool) {
	v, ok := f.store.Get(f.Key(id), flags)
	if !ok {
		return nil, false
	}
	e, ok := asEntity(v)
	return e, ok
}

func (f *StandardFactory) DelObj(id string, flags Flags) (Entity, bool) {
	v, ok := f.store.Delete(f.Key(id), flags)
	e, _ := asEntity(v)
	return e, ok
}

func (f *StandardFactory) DuplicateObj(newID, srcID string, flags Flags, preset func(newValue, oldValue any)) (Entity, error) {
	return f.entity(f.store.Duplicate(f.Key(newID), f.Key(srcID), flags, preset))
}

// ListOptions returns the options of a new list of this type.
func (f *StandardFactory) ListOptions(title string) ListOptions {
	opts := ListOptions{
		Title:             title,
		Schema:            f.Schema,
		Paged:             true,
		ItemsPerPage:      f.cfg.ItemsPerPage,
		MaxDisplayedPages: f.cfg.MaxDisplayedPages,
		SortOptions:       f.SortOptions(),
		Resolver:          f.GetSortFunction,
	}
	if f.registry != nil {
		opts.Lookup = f.registry.RefLookup()
	}
	if len(opts.SortOptions) > 0 {
		opts.SortBy = opts.SortOptions[0].Value
	}
	return opts
}

// NewList creates a resource list under id.
func (f *StandardFactory) NewList(id, title string, flags Flags) (*ResourceList, error) {
	return CreateList(f.store, f.Key(id), f.ListOptions(title), flags)
}

// InitList resets the list under id and fills it with items.
func (f *StandardFactory) InitList(id string, items Collection, flags Flags) (*ResourceList, error) {
	l, err := f.NewList(id, "", flags|CreateOrReset)
	if err != nil {
		return nil, err
	}
	l.SetItems(items.Items(), flags)
	return l, nil
}

// SetList replaces the items of the list under id, creating the list when
// it is absent and the flags permit.
func (f *StandardFactory) SetList(id string, items Collection, flags Flags) (*ResourceList, error) {
	l, ok := f.GetList(id, NoFlag)
	if !ok || flags.Has(CreateOrReset) {
		if !createPermitted(flags) {
			return nil, nil
		}
		var err error
		if l, err = f.NewList(id, "", flags|AllowExisting); err != nil {
			return nil, err
		}
	}
	l.SetItems(items.Items(), flags)
	return l, nil
}

func (f *StandardFactory) GetList(id string, flags Flags) (*ResourceList, bool) {
	v, ok := f.store.Get(f.Key(id), flags)
	if !ok {
		return nil, false
	}
	l, ok := v.(*ResourceList)
	return l, ok
}

func (f *StandardFactory) DelList(id string, flags Flags) (*ResourceList, bool) {
	v, ok := f.store.Delete(f.Key(id), flags)
	l, _ := v.(*ResourceList)
	return l, ok
}

func (f *StandardFactory) DuplicateList(newID, srcID string, flags Flags, preset func(newValue, oldValue any)) (*ResourceList, error) {
	v, err := f.store.Duplicate(f.Key(newID), f.Key(srcID), flags, preset)
	if err != nil {
		return nil, err
	}
	l, ok := v.(*ResourceList)
	if !ok {
		return nil, fmt.Errorf("%s: list %q is %T: %w", f.Name, srcID, v, ErrTypeMismatch)
	}
	return l, nil
}

// get returns the entity or list stored under id.
func (f *StandardFactory) get(id string) (any, bool) {
	return f.store.Get(f.Key(id), NoFlag)
}

// FilterOptions tunes NewFilter.
type FilterOptions struct {
	AllowBlank bool
	Mode       CombineMode
	Hidden     []string
}

// NewFilter returns a filter with an entry for every field, taking the
// values present in base.
func (f *StandardFactory) NewFilter(base map[string]any, eval Evaluator, opts FilterOptions) *Filter {
	values := f.Schema.GetFilterStub(nil)
	for k, v := range base {
		values[k] = deepCopy(v)
	}
	return &Filter{
		Values:     values,
		AllowBlank: opts.AllowBlank,
		Mode:       opts.Mode,
		Evaluator:  eval,
		Hidden:     append([]string(nil), opts.Hidden...),
	}
}

// RegisterRestAction returns the callable for a REST action of the
// type's resource, registering it on first use.
func (f *StandardFactory) RegisterRestAction(name string) (ActionFunc, error) {
	if fn, ok := f.actions[name]; ok {
		return fn, nil
	}
	if f.cfg.Resource == nil {
		return nil, fmt.Errorf("%s: action %q: no rest resource: %w", f.Name, name, ErrMissingArgument)
	}
	if _, ok := f.cfg.Resource.Action(name); !ok {
		return nil, fmt.Errorf("%s: action %q: %w", f.Name, name, ErrMissingArgument)
	}
	fn := func(ctx context.Context, params map[string]any, body any) (any, error) {
		return f.request(ctx, name, params, body, nil)
	}
	f.actions[name] = fn
	return fn, nil
}

func (f *StandardFactory) request(ctx context.Context, action string, params map[string]any, body any, extra url.Values) (any, error) {
	if f.transport == nil {
		return nil, fmt.Errorf("%s: action %q: transport: %w", f.Name, action, ErrMissingArgument)
	}
	req, err := f.cfg.Resource.Build(action, params, body)
	if err != nil {
		return nil, err
	}
	req.Query = MergeQuery(req.Query, extra)
	f.logger.Debugw("rest action", "action", action, "method", req.Method, "path", req.Path)
	return f.transport.Do(ctx, req)
}

// Call runs a REST action.
func (f *StandardFactory) Call(ctx context.Context, action string, params map[string]any, body any) (any, error) {
	fn, err := f.RegisterRestAction(action)
	if err != nil {
		return nil, err
	}
	return fn(ctx, params, body)
}

// GetFilteredList queries the REST resource with the filter and returns
// the decoded items.
func (f *StandardFactory) GetFilteredList(ctx context.Context, filter *Filter, extra url.Values) ([]Entity, error) {
	if _, err := f.RegisterRestAction("query"); err != nil {
		return nil, err
	}
	q := MergeQuery(FilterQuery(f.Schema, filter), extra)
	rsp, err := f.request(ctx, "query", nil, nil, q)
	if err != nil {
		return nil, err
	}
	return f.readItems(rsp, nil), nil
}

// GetFilteredResource queries the REST resource with the filter and
// stores the result as the list id, filtered by the same filter.
func (f *StandardFactory) GetFilteredResource(ctx context.Context, id string, filter *Filter, flags Flags) (*ResourceList, error) {
	items, err := f.GetFilteredList(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	l, err := f.SetList(id, RawSequence(items), flags&^ApplyFilter|AllowExisting|Create)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		l.Filter = filter
		l.ApplyFilter(filter.Values)
	}
	return l, nil
}

// SortOptions returns the type's sort options.
func (f *StandardFactory) SortOptions() []SortOption {
	if f.cfg.SortOptions != nil {
		return f.cfg.SortOptions
	}
	return f.Schema.SortOptions()
}

// GetSortOption finds a sort option by id or value.
func (f *StandardFactory) GetSortOption(idOrValue string) (SortOption, bool) {
	for _, o := range f.SortOptions() {
		if o.Value == idOrValue {
			return o, true
		}
	}
	for _, o := range f.SortOptions() {
		if o.ID == idOrValue {
			return o, true
		}
	}
	return SortOption{}, false
}

// GetSortFunction resolves the comparator of a sort value.
func (f *StandardFactory) GetSortFunction(options []SortOption, sortBy string) (CompareFunc, error) {
	if options == nil {
		options = f.SortOptions()
	}
	return ResolveSort(f.Schema, options, sortBy)
}

func (f *StandardFactory) readOptions(args *StandardArgs) *ReadOptions {
	opts := &ReadOptions{Convert: f.cfg.Convert, Args: args}
	if f.registry != nil {
		opts.Readers = f.registry
	}
	return opts
}

// ReadResponse decodes a response object or array of objects.
func (f *StandardFactory) ReadResponse(response any, args *StandardArgs) any {
	if f.cfg.Reader != nil {
		if xs, ok := asSlice(response); ok {
			out := make([]Entity, 0, len(xs))
			for _, x := range xs {
				m, _ := asMap(x)
				out = append(out, f.cfg.Reader.ReadResponseObject(m, args))
			}
			return out
		}
		if m, ok := asMap(response); ok {
			return f.cfg.Reader.ReadResponseObject(m, args)
		}
		return nil
	}
	return f.Schema.Read(response, f.readOptions(args))
}

// ReadResponseObject decodes one response object.
func (f *StandardFactory) ReadResponseObject(raw map[string]any, args *StandardArgs) Entity {
	if f.cfg.Reader != nil {
		return f.cfg.Reader.ReadResponseObject(raw, args)
	}
	return f.Schema.ReadProperty(raw, f.readOptions(args))
}

func (f *StandardFactory) readItems(response any, args *StandardArgs) []Entity {
	switch v := f.ReadResponse(response, args).(type) {
	case []Entity:
		return v
	case Entity:
		return []Entity{v}
	}
	return []Entity{}
}

// FactoryRegistry holds one StandardFactory per entity type and resolves
// embedded-document readers for them.
type FactoryRegistry struct {
	store     *Store
	transport Transport
	factories map[string]*StandardFactory
	logger    *zap.SugaredLogger
}

func NewFactoryRegistry(store *Store, transport Transport, logger *zap.SugaredLogger) *FactoryRegistry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if store == nil {
		store = NewStore(logger)
	}
	return &FactoryRegistry{store: store, transport: transport, factories: map[string]*StandardFactory{}, logger: logger}
}

func (r *FactoryRegistry) Store() *Store { return r.store }

// Register creates the factory of an entity type. Registering a name
// again returns the existing factory unchanged.
func (r *FactoryRegistry) Register(cfg FactoryConfig) (*StandardFactory, error) {
	if f, ok := r.factories[cfg.Name]; ok {
		return f, nil
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("factory: name: %w", ErrMissingArgument)
	}
	if cfg.Schema == nil {
		return nil, fmt.Errorf("factory %s: schema: %w", cfg.Name, ErrMissingArgument)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = cfg.Name
	}
	if cfg.Convert == nil {
		cfg.Convert = ConvertDates(cfg.Schema)
	}
	f := &StandardFactory{
		Name:      cfg.Name,
		Schema:    cfg.Schema,
		ns:        NewNamespace(cfg.Prefix),
		cfg:       cfg,
		store:     r.store,
		registry:  r,
		transport: r.transport,
		actions:   map[string]ActionFunc{},
		logger:    r.logger.With("factory", cfg.Name),
	}
	if cfg.Resource != nil {
		for _, name := range cfg.Resource.ActionNames() {
			if _, err := f.RegisterRestAction(name); err != nil {
				return nil, err
			}
		}
	}
	r.factories[cfg.Name] = f
	r.logger.Debugw("factory registered", "name", cfg.Name, "prefix", cfg.Prefix)
	return f, nil
}

// RegisterModel registers a factory for every schema of m. base supplies
// the settings shared by all of them.
func (r *FactoryRegistry) RegisterModel(m *Model, base FactoryConfig) error {
	for _, name := range m.Names() {
		cfg := base
		cfg.Name, cfg.Schema, cfg.Resource = name, m.Get(name), m.Resources[name]
		if _, err := r.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (r *FactoryRegistry) Get(name string) (*StandardFactory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names lists the registered entity types, sorted.
func (r *FactoryRegistry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reader resolves the response reader of an entity type.
func (r *FactoryRegistry) Reader(entityType string) (EntityReader, bool) {
	f, ok := r.factories[entityType]
	if !ok {
		return nil, false
	}
	return f, true
}

// RefLookup resolves referenced entities through the factory owning the
// referenced schema.
func (r *FactoryRegistry) RefLookup() RefLookup {
	return func(refSchema *Schema, id string) (Entity, bool) {
		for _, f := range r.factories {
			if f.Schema == refSchema {
				return f.GetObj(id, NoFlag)
			}
		}
		return nil, false
	}
}

// Normalizer returns a normalizer writing through the registry.
func (r *FactoryRegistry) Normalizer() *Normalizer {
	return NewNormalizer(r.store, r, r.logger)
}

// Owner returns the factory whose namespace holds key.
func (r *FactoryRegistry) Owner(key string) (*StandardFactory, bool) {
	for _, name := range r.Names() {
		if f := r.factories[name]; f.ns.Owns(key) {
			return f, true
		}
	}
	return nil, false
}

// Restore installs a snapshot record. Lists under a factory's namespace
// get that factory's list options.
func (r *FactoryRegistry) Restore(rec Record) error {
	var opts ListOptions
	if f, ok := r.Owner(rec.Key); ok {
		id, _ := f.ns.Parse(rec.Key)
		opts = f.ListOptions(id)
	}
	return r.store.Restore(rec, opts)
}
