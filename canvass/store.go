package canvass

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Constructor builds a fresh value for a store entry.
type Constructor func() any

// Patcher is implemented by stored values that merge patches themselves
// instead of being treated as plain records.
type Patcher interface {
	ApplyPatch(patch map[string]any, copyValues bool)
}

// Store is the session-wide key/value registry of records and lists.
// It performs no locking; overlapping writers to one key are last-write-wins.
type Store struct {
	entries map[string]any
	logger  *zap.SugaredLogger
}

func NewStore(logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{entries: map[string]any{}, logger: logger}
}

// instantiate builds a value from init: nil or EmptyObject gives an empty
// record, a Constructor (or func() any) is called, anything else is a
// template that is deep-copied.
func instantiate(init any, flags Flags) any {
	if init == nil || flags.Has(EmptyObject) {
		return Entity{}
	}
	switch c := init.(type) {
	case Constructor:
		return c()
	case func() any:
		return c()
	case func() Entity:
		return c()
	}
	return deepCopy(init)
}

// Create installs a new value under key. An existing key is an
// ErrDuplicateKey unless the flags request a reset (CreateOrReset) or
// accept the existing value (AllowExisting, which returns it unchanged).
func (s *Store) Create(key string, init any, flags Flags) (any, error) {
	if cur, ok := s.entries[key]; ok && !flags.Has(CreateOrReset) {
		if flags.Has(AllowExisting) {
			return s.read(cur, flags), nil
		}
		return nil, fmt.Errorf("create %q: %w", key, ErrDuplicateKey)
	}
	v := instantiate(init, flags)
	s.entries[key] = v
	s.logger.Debugw("store create", "key", key, "flags", flags.String())
	return s.read(v, flags), nil
}

// Duplicate deep-copies the value under srcKey into newKey. preset, if
// given, sees the new value and the value it replaces (nil if none)
// before the copy is installed.
func (s *Store) Duplicate(newKey, srcKey string, flags Flags, preset func(newValue, oldValue any)) (any, error) {
	src, ok := s.entries[srcKey]
	if !ok {
		return nil, fmt.Errorf("duplicate %q from %q: %w", newKey, srcKey, ErrSourceNotFound)
	}
	old, exists := s.entries[newKey]
	if exists && !flags.Has(Overwrite) && !flags.Has(AllowExisting) {
		return nil, fmt.Errorf("duplicate %q from %q: %w", newKey, srcKey, ErrDuplicateKey)
	}
	cp := deepCopy(src)
	if l, ok := cp.(*ResourceList); ok {
		l.ID = newKey
	}
	if preset != nil {
		preset(cp, old)
	}
	s.entries[newKey] = cp
	s.logger.Debugw("store duplicate", "key", newKey, "source", srcKey, "replaced", exists)
	return s.read(cp, flags), nil
}

// Get returns the value under key, deep-copied when CopyOnRead is set.
func (s *Store) Get(key string, flags Flags) (any, bool) {
	v, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return s.read(v, flags), true
}

// Set creates the entry if it is absent and the flags permit it, then
// shallow-merges patch onto it. A nil patch (or nil map) leaves the value
// as is; a patch that is not a record replaces the value outright. It
// returns nil when the entry is absent and the flags forbid creating it.
func (s *Store) Set(key string, patch any, flags Flags, init any) (any, error) {
	cur, ok := s.entries[key]
	switch {
	case flags.Has(CreateOrReset), !ok && createPermitted(flags):
		v, err := s.Create(key, init, flags&^CopyOnRead)
		if err != nil {
			return nil, err
		}
		cur = v
	case !ok:
		return nil, nil
	}
	pm, isMap := asMap(patch)
	switch {
	case patch == nil, isNilMap(patch):
	case isMap:
		switch c := cur.(type) {
		case Patcher:
			c.ApplyPatch(pm, flags.Has(CopyOnWrite))
		case Entity:
			c.Merge(pm, flags.Has(CopyOnWrite))
		case map[string]any:
			Entity(c).Merge(pm, flags.Has(CopyOnWrite))
		default:
			cur = writeValue(pm, flags)
			s.entries[key] = cur
		}
	default:
		cur = writeValue(patch, flags)
		s.entries[key] = cur
	}
	return s.read(cur, flags), nil
}

// Delete removes key. With CopyOnRead the removed value is returned as a
// deep copy; ok reports whether the key existed.
func (s *Store) Delete(key string, flags Flags) (any, bool) {
	v, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	s.logger.Debugw("store delete", "key", key)
	if flags.Has(CopyOnRead) {
		return deepCopy(v), true
	}
	return nil, true
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool { _, ok := s.entries[key]; return ok }

func (s *Store) Len() int { return len(s.entries) }

// Keys lists the keys with the given prefix in sorted order.
func (s *Store) Keys(prefix string) []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) read(v any, flags Flags) any {
	if flags.Has(CopyOnRead) {
		return deepCopy(v)
	}
	return v
}

func writeValue(v any, flags Flags) any {
	if flags.Has(CopyOnWrite) {
		v = deepCopy(v)
	}
	if m, ok := v.(map[string]any); ok {
		return Entity(m)
	}
	return v
}

// createPermitted is false only for update-only writes: AllowExisting or
// Overwrite without any create bit.
func createPermitted(flags Flags) bool {
	if flags.Has(Create) || flags.Has(CreateOrReset) {
		return true
	}
	return flags&(AllowExisting|Overwrite) == 0
}
