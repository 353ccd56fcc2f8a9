package canvass

import "strings"

// Namespace partitions object store keys by entity type.
// Format: <prefix>.<id>
type Namespace struct {
	prefix string
}

func NewNamespace(prefix string) Namespace {
	return Namespace{prefix: strings.TrimSuffix(prefix, ".")}
}

func (ns Namespace) Prefix() string { return ns.prefix }

// Key namespaces an id. Keys already carrying the prefix are returned as is.
func (ns Namespace) Key(id string) string {
	if ns.prefix == "" || ns.Owns(id) {
		return id
	}
	return ns.prefix + "." + id
}

// Parse strips the namespace from a key.
func (ns Namespace) Parse(key string) (id string, ok bool) {
	if ns.prefix == "" {
		return key, key != ""
	}
	id, ok = strings.CutPrefix(key, ns.prefix+".")
	return id, ok && id != ""
}

// Owns reports whether key lies in the namespace.
func (ns Namespace) Owns(key string) bool {
	_, ok := ns.Parse(key)
	return ok
}
