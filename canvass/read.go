package canvass

// EntityReader decodes a raw server object of one entity type into an
// entity instance.
type EntityReader interface {
	ReadResponseObject(raw map[string]any, args *StandardArgs) Entity
}

// ReaderLookup resolves the reader registered for an entity type.
type ReaderLookup interface {
	Reader(entityType string) (EntityReader, bool)
}

// ReadOptions selects and shapes the props read from a server object.
type ReadOptions struct {
	// IDs selects the model props to read; nil reads all of them.
	IDs []int
	// Exclude skips model props; ignored when IDs is set.
	Exclude []int
	// Prune lists model props removed from the result after it is built.
	Prune []int
	// FromProperty overrides the source property name per model prop id.
	FromProperty map[int]string
	// Convert post-processes every raw value, e.g. ConvertDates.
	Convert func(id int, raw any) any
	// Readers resolves embedded sub-document decoders by entity type.
	Readers ReaderLookup
	// Args is handed to embedded readers.
	Args *StandardArgs
	// Into receives the results of reading a sequence, index by index.
	Into []Entity
}

// Read decodes src: a sequence is read element-wise (into opts.Into when
// given, keeping index correspondence) and returned as []Entity; a
// single object is returned as an Entity. Anything else returns nil.
func (s *Schema) Read(src any, opts *ReadOptions) any {
	if opts == nil {
		opts = &ReadOptions{}
	}
	if xs, ok := asSlice(src); ok {
		out := opts.Into
		for i, x := range xs {
			m, _ := asMap(x)
			e := s.ReadProperty(m, opts)
			if i < len(out) {
				out[i] = e
			} else {
				out = append(out, e)
			}
		}
		if out == nil {
			out = []Entity{}
		}
		return out
	}
	if m, ok := asMap(src); ok {
		return s.ReadProperty(m, opts)
	}
	return nil
}

// ReadProperty builds an entity from the selected model props of src.
// Missing source properties are stored as nil. Props that name an entity
// type with a registered reader have their embedded objects decoded by
// that reader, element-wise for arrays.
func (s *Schema) ReadProperty(src map[string]any, opts *ReadOptions) Entity {
	if opts == nil {
		opts = &ReadOptions{}
	}
	out := Entity{}
	for _, p := range s.selectProps(opts) {
		name := p.ModelName
		if from, ok := opts.FromProperty[p.ID]; ok && from != "" {
			name = from
		}
		value, ok := src[name]
		if !ok {
			out.Put(nil, p.Path()...)
			continue
		}
		if p.Factory != "" && opts.Readers != nil && value != nil {
			if r, found := opts.Readers.Reader(p.Factory); found {
				value = readEmbedded(r, value, opts.Args)
			}
		}
		if opts.Convert != nil {
			value = opts.Convert(p.ID, value)
		}
		out.Put(value, p.Path()...)
	}
	for _, id := range opts.Prune {
		if p := s.Prop(id); p != nil {
			prune(out, p.Path())
		}
	}
	return out
}

func (s *Schema) selectProps(opts *ReadOptions) []*ModelProp {
	if opts.IDs != nil {
		out := make([]*ModelProp, 0, len(opts.IDs))
		for _, id := range opts.IDs {
			if p := s.Prop(id); p != nil {
				out = append(out, p)
			}
		}
		return out
	}
	if len(opts.Exclude) == 0 {
		return s.props
	}
	skip := make(map[int]bool, len(opts.Exclude))
	for _, id := range opts.Exclude {
		skip[id] = true
	}
	out := make([]*ModelProp, 0, len(s.props))
	for _, p := range s.props {
		if !skip[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// readEmbedded decodes embedded objects in place; ids and other scalars
// are left untouched.
func readEmbedded(r EntityReader, value any, args *StandardArgs) any {
	if xs, ok := value.([]any); ok {
		for i, x := range xs {
			if m, isMap := asMap(x); isMap {
				xs[i] = r.ReadResponseObject(m, args)
			}
		}
		return xs
	}
	if m, ok := asMap(value); ok {
		return r.ReadResponseObject(m, args)
	}
	return value
}

func prune(e Entity, path []string) {
	if len(path) == 0 {
		return
	}
	m := map[string]any(e)
	for _, p := range path[:len(path)-1] {
		next, ok := asMap(m[p])
		if !ok {
			return
		}
		m = next
	}
	delete(m, path[len(path)-1])
}
