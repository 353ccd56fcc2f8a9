package canvass

import (
	"fmt"
	"slices"
)

// SortResolver turns the selected sort option into a comparator.
type SortResolver func(options []SortOption, sortBy string) (CompareFunc, error)

// ChangeListener is notified after a list's base items change.
type ChangeListener func(l *ResourceList)

// ListOptions configures a new resource list.
type ListOptions struct {
	Title  string
	Schema *Schema
	Filter *Filter
	// Paged attaches a pager; zero sizes take the pager defaults.
	Paged             bool
	ItemsPerPage      int
	MaxDisplayedPages int
	SortOptions       []SortOption
	SortBy            string
	Resolver          SortResolver
	Lookup            RefLookup
}

// ResourceList is a named, stored collection: the base items, the
// filtered view over them, an optional pager, the filter and sort state
// and the selection flags of the items.
type ResourceList struct {
	ID    string
	Title string

	Items         []Entity
	FilteredItems []Entity
	Count         int
	FilteredCount int
	SelectedCount int

	Schema      *Schema
	Filter      *Filter
	Pager       *Pager[Entity]
	SortOptions []SortOption
	SortBy      string

	resolver  SortResolver
	engine    FilterEngine
	listeners map[int]ChangeListener
	nextID    int
}

func NewResourceList(id string, opts ListOptions) *ResourceList {
	l := &ResourceList{
		ID:            id,
		Title:         opts.Title,
		Items:         []Entity{},
		FilteredItems: []Entity{},
		Schema:        opts.Schema,
		Filter:        opts.Filter,
		SortOptions:   append([]SortOption(nil), opts.SortOptions...),
		SortBy:        opts.SortBy,
		resolver:      opts.Resolver,
		engine:        FilterEngine{Lookup: opts.Lookup},
		listeners:     map[int]ChangeListener{},
	}
	if l.Filter == nil {
		l.Filter = &Filter{Values: map[string]any{}}
	}
	if opts.Paged {
		l.Pager = NewPager(l.FilteredItems, 1, opts.ItemsPerPage, opts.MaxDisplayedPages)
	}
	return l
}

// CreateList installs a new resource list in the store under key,
// following the store's create policy.
func CreateList(s *Store, key string, opts ListOptions, flags Flags) (*ResourceList, error) {
	v, err := s.Create(key, Constructor(func() any { return NewResourceList(key, opts) }), flags&^(CopyOnRead|EmptyObject))
	if err != nil {
		return nil, err
	}
	l, ok := v.(*ResourceList)
	if !ok {
		return nil, fmt.Errorf("list %q: stored value is %T: %w", key, v, ErrTypeMismatch)
	}
	return l, nil
}

// OnChange registers a listener and returns a function removing it.
func (l *ResourceList) OnChange(fn ChangeListener) (remove func()) {
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() { delete(l.listeners, id) }
}

func (l *ResourceList) notify() {
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := l.listeners[id]; ok {
			fn(l)
		}
	}
}

// SetItems replaces the base items (a deep copy with CopyOnWrite),
// re-applies the filter with ApplyFilter and always notifies listeners.
// Without ApplyFilter the filtered view is reset to the base items.
func (l *ResourceList) SetItems(items []Entity, flags Flags) {
	if items == nil {
		items = []Entity{}
	}
	if flags.Has(CopyOnWrite) {
		items = deepCopy(items).([]Entity)
	}
	l.Items = items
	l.recount()
	if flags.Has(ApplyFilter) {
		l.ApplyFilter(nil)
	} else {
		l.setFiltered(l.Items)
	}
	l.notify()
}

// AddItems appends items, skipping those already present (by eq, default
// DeepEqual) when preventDuplicates is set, and returns how many were
// added. Listeners are notified only when the count changed.
func (l *ResourceList) AddItems(items []Entity, flags Flags, preventDuplicates bool, eq EqualFunc) int {
	if eq == nil {
		eq = DeepEqual
	}
	before := len(l.Items)
	for _, item := range items {
		if preventDuplicates && l.indexOf(item, eq) >= 0 {
			continue
		}
		if flags.Has(CopyOnWrite) {
			item = item.Clone()
		}
		l.Items = append(l.Items, item)
	}
	return l.afterChange(before, flags)
}

// RemoveItems removes the first match (by eq, default DeepEqual) of each
// item and returns how many were removed. Listeners are notified only
// when the count changed.
func (l *ResourceList) RemoveItems(items []Entity, flags Flags, eq EqualFunc) int {
	if eq == nil {
		eq = DeepEqual
	}
	before := len(l.Items)
	for _, item := range items {
		if i := l.indexOf(item, eq); i >= 0 {
			l.Items = slices.Delete(l.Items, i, i+1)
		}
	}
	return -l.afterChange(before, flags)
}

func (l *ResourceList) afterChange(before int, flags Flags) int {
	l.recount()
	if flags.Has(ApplyFilter) {
		l.ApplyFilter(nil)
	} else {
		l.resync()
	}
	changed := len(l.Items) - before
	if changed != 0 {
		l.notify()
	}
	return changed
}

// resync keeps the filtered view a subset of the base items: an active
// filter is re-applied, otherwise the view is the base items.
func (l *ResourceList) resync() {
	l.ensureFilter()
	if l.Filter.LastApplied != nil && l.filterActive(l.Filter.LastApplied) {
		l.ApplyFilter(l.Filter.LastApplied)
		return
	}
	l.setFiltered(l.Items)
}

func (l *ResourceList) ensureFilter() {
	if l.Filter == nil {
		l.Filter = &Filter{Values: map[string]any{}}
	}
}

func (l *ResourceList) filterActive(value map[string]any) bool {
	return !IsEmptyFilter(value) || !l.Filter.AllowBlank
}

func (l *ResourceList) indexOf(item Entity, eq EqualFunc) int { return indexIn(l.Items, item, eq) }

func indexIn(items []Entity, item Entity, eq EqualFunc) int {
	for i, x := range items {
		if eq(x, item) {
			return i
		}
	}
	return -1
}

// ApplyFilter filters the base items by value, or by the stored filter
// values when value is nil, and records it as the last applied filter.
// An empty value with blanks allowed leaves the base items unfiltered.
func (l *ResourceList) ApplyFilter(value map[string]any) {
	l.ensureFilter()
	if value == nil {
		value = l.Filter.Values
	}
	l.Filter.LastApplied = value
	switch {
	case !l.filterActive(value):
		l.setFiltered(l.Items)
	case l.Filter.Evaluator != nil:
		l.setFiltered(l.Filter.Evaluator(l.Items, l.Schema, value))
	case l.Schema != nil:
		l.setFiltered(l.engine.Filter(l.Items, l.Schema, value, l.Filter.Mode, l.Filter.AllowBlank))
	default:
		l.setFiltered(l.Items)
	}
}

func (l *ResourceList) setFiltered(items []Entity) {
	if items == nil {
		items = []Entity{}
	}
	l.FilteredItems = items
	l.FilteredCount = len(items)
	if l.Pager != nil {
		l.Pager.Configure(l.FilteredItems, 0, 0, 0)
	}
}

// Sort orders the base items in place using the comparator resolved from
// the sort option (resolve, then the list's own resolver, then the
// schema). A sort value with a leading '-' reverses the order. The last
// filter is re-applied afterwards.
func (l *ResourceList) Sort(resolve SortResolver, options []SortOption, sortBy string) error {
	if options == nil {
		options = l.SortOptions
	}
	if sortBy == "" {
		sortBy = l.SortBy
	}
	if sortBy == "" && len(options) > 0 {
		sortBy = options[0].Value
	}
	if resolve == nil {
		resolve = l.resolver
	}
	if resolve == nil {
		resolve = SchemaSortResolver(l.Schema)
	}
	cmp, err := resolve(options, sortBy)
	if err != nil {
		return err
	}
	l.SortBy = sortBy
	slices.SortStableFunc(l.Items, cmp)
	if Descending(sortBy) {
		slices.Reverse(l.Items)
	}
	l.resync()
	return nil
}

// CompareTo reports whether every item of l has a match (by eq, default
// DeepEqual) somewhere in other. Lengths must be equal. The check is a
// containment test: order is ignored and duplicates are not counted.
func (l *ResourceList) CompareTo(other Collection, eq EqualFunc) bool {
	if len(l.Items) != other.Len() {
		return false
	}
	return l.CompareRange(other, eq, 0, len(l.Items))
}

// CompareRange is CompareTo restricted to the index range [start, end)
// of both collections.
func (l *ResourceList) CompareRange(other Collection, eq EqualFunc, start, end int) bool {
	if eq == nil {
		eq = DeepEqual
	}
	theirs := other.Items()
	if start < 0 || end > len(l.Items) || end > len(theirs) || start > end {
		return false
	}
	window := theirs[start:end]
	for _, item := range l.Items[start:end] {
		if indexIn(window, item, eq) < 0 {
			return false
		}
	}
	return true
}

// GetFromList returns the item at index.
func (l *ResourceList) GetFromList(index int) (Entity, error) {
	if err := l.checkIndex(index); err != nil {
		return nil, err
	}
	return l.Items[index], nil
}

// SetInList replaces the item at index.
func (l *ResourceList) SetInList(index int, item Entity, flags Flags) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if flags.Has(CopyOnWrite) {
		item = item.Clone()
	}
	l.Items[index] = item
	l.recount()
	l.resync()
	return nil
}

// UpdateInList shallow-merges patch onto the item at index and re-applies
// the active filter.
func (l *ResourceList) UpdateInList(index int, patch map[string]any, flags Flags) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	l.Items[index].Merge(patch, flags.Has(CopyOnWrite))
	l.recount()
	l.resync()
	return nil
}

// FindInList returns the index of the first item satisfying pred, or -1.
func (l *ResourceList) FindInList(pred func(Entity) bool) int {
	return slices.IndexFunc(l.Items, pred)
}

// ForEach calls fn for every base item.
func (l *ResourceList) ForEach(fn func(index int, item Entity)) {
	for i, item := range l.Items {
		fn(i, item)
	}
}

func (l *ResourceList) checkIndex(index int) error {
	if index < 0 || index >= len(l.Items) {
		return fmt.Errorf("list %q: index %d of %d: %w", l.ID, index, len(l.Items), ErrIndexOutOfRange)
	}
	return nil
}

func (l *ResourceList) recount() {
	l.Count = len(l.Items)
	l.SelectedCount = l.CountSelected()
}

// ToggleSelected flips the selection flag of item and returns its new
// state.
func (l *ResourceList) ToggleSelected(item Entity) bool {
	sel := !item.Selected()
	item[SelectedKey] = sel
	l.SelectedCount = l.CountSelected()
	return sel
}

// SetAllSelected sets the selection flag of every base item.
func (l *ResourceList) SetAllSelected(selected bool) {
	for _, item := range l.Items {
		item[SelectedKey] = selected
	}
	l.SelectedCount = l.CountSelected()
}

// SelectedItems returns the selected base items.
func (l *ResourceList) SelectedItems() []Entity {
	out := []Entity{}
	for _, item := range l.Items {
		if item.Selected() {
			out = append(out, item)
		}
	}
	return out
}

// MapSelected returns fn applied to each selected base item.
func (l *ResourceList) MapSelected(fn func(Entity) any) []any {
	sel := l.SelectedItems()
	out := make([]any, len(sel))
	for i, item := range sel {
		out[i] = fn(item)
	}
	return out
}

func (l *ResourceList) CountSelected() int {
	n := 0
	for _, item := range l.Items {
		if item.Selected() {
			n++
		}
	}
	return n
}

// FindFirstSelected returns the first selected base item and its index,
// or -1.
func (l *ResourceList) FindFirstSelected() (Entity, int) {
	return l.findFirst(true)
}

// FindFirstUnselected returns the first unselected base item and its
// index, or -1.
func (l *ResourceList) FindFirstUnselected() (Entity, int) {
	return l.findFirst(false)
}

func (l *ResourceList) findFirst(selected bool) (Entity, int) {
	for i, item := range l.Items {
		if item.Selected() == selected {
			return item, i
		}
	}
	return nil, -1
}

// ApplyPatch lets Store.Set update a stored list: "title" and "sortBy"
// are copied, "items" replaces the base items.
func (l *ResourceList) ApplyPatch(patch map[string]any, copyValues bool) {
	if t, ok := patch["title"].(string); ok {
		l.Title = t
	}
	if s, ok := patch["sortBy"].(string); ok {
		l.SortBy = s
	}
	if items, ok := patch["items"]; ok {
		flags := NoFlag
		if copyValues {
			flags = CopyOnWrite
		}
		l.SetItems(entitiesOf(items), flags)
	}
}

// DeepCopy copies the list with its items; listeners are not copied.
func (l *ResourceList) DeepCopy() any {
	cp := &ResourceList{
		ID:          l.ID,
		Title:       l.Title,
		Items:       deepCopy(l.Items).([]Entity),
		Schema:      l.Schema,
		Filter:      l.Filter.Clone(),
		SortOptions: append([]SortOption(nil), l.SortOptions...),
		SortBy:      l.SortBy,
		resolver:    l.resolver,
		engine:      l.engine,
		listeners:   map[int]ChangeListener{},
	}
	if l.Pager != nil {
		cp.Pager = NewPager([]Entity{}, l.Pager.CurrentPage, l.Pager.ItemsPerPage, l.Pager.MaxDisplayedPageNumbers)
	}
	cp.recount()
	cp.resync()
	if cp.Pager != nil && l.Pager != nil {
		cp.Pager.SetPage(l.Pager.CurrentPage)
	}
	return cp
}
