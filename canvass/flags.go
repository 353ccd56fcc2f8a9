package canvass

import "strings"

// Flags selects the creation and copy policy of store and list operations.
// The zero value means create-if-absent with live references.
type Flags uint32

const NoFlag Flags = 0

const (
	Create        Flags = 1 << iota // create the entry if it is absent
	CreateOrReset                   // create if absent, re-initialise if present
	CopyOnWrite                     // store a deep copy of the written value
	CopyOnRead                      // return a deep copy of the stored value
	AllowExisting                   // an existing entry is not an error
	Overwrite                       // replace an existing entry
	EmptyObject                     // initialise with an empty record
	ApplyFilter                     // re-apply a list's filter after changing it
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Create, "create"},
	{CreateOrReset, "createOrReset"},
	{CopyOnWrite, "copyOnWrite"},
	{CopyOnRead, "copyOnRead"},
	{AllowExisting, "allowExisting"},
	{Overwrite, "overwrite"},
	{EmptyObject, "emptyObject"},
	{ApplyFilter, "applyFilter"},
}

// Has reports whether all bits of x are set in f.
func (f Flags) Has(x Flags) bool { return x != 0 && f&x == x }

func (f Flags) String() string {
	if f == NoFlag {
		return "none"
	}
	parts := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags reads a "|" separated list of flag names, as written by String.
func ParseFlags(s string) (Flags, bool) {
	var out Flags
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return NoFlag, true
	}
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, fn := range flagNames {
			if fn.name == strings.TrimSpace(part) {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return NoFlag, false
		}
	}
	return out, true
}
