package health

import (
	"fmt"
	"sort"
)

// VersionKey is the reserved payload key under which a node's version
// travels on the wire.
const VersionKey = "Version"

// Field is one key/value pair of a payload.
type Field struct {
	Key   string
	Value any
}

// Data is an ordered payload. Order is preserved through rendering.
type Data []Field

// DataFromMap converts a plain map into Data with keys sorted, so that
// rendering stays deterministic.
func DataFromMap(m map[string]any) Data {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := make(Data, 0, len(keys))
	for _, k := range keys {
		d = append(d, Field{Key: k, Value: m[k]})
	}
	return d
}

// Get returns the value of the first field with the given key.
func (d Data) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field keys in order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, f := range d {
		keys = append(keys, f.Key)
	}
	return keys
}

// Len returns the number of fields.
func (d Data) Len() int {
	return len(d)
}

// With returns a copy of d with the field set, replacing an existing key in place.
func (d Data) With(key string, value any) Data {
	out := make(Data, len(d), len(d)+1)
	copy(out, d)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// MergePayload folds an optional version into the entry list, producing the
// payload view: entries in order, then "Version" when version is set.
// It returns nil when there is neither.
func MergePayload(version string, entries []*Node) Data {
	if len(entries) == 0 && version == "" {
		return nil
	}
	d := make(Data, 0, len(entries)+1)
	for _, e := range entries {
		d = append(d, Field{Key: e.Key, Value: e})
	}
	if version != "" {
		d = append(d, Field{Key: VersionKey, Value: version})
	}
	return d
}

// SplitPayload is the inverse of MergePayload. A "Version" field that is not
// a node becomes the version; node values become entries keyed by their
// field key; every other value becomes the missing sentinel.
func SplitPayload(d Data) (version string, entries []*Node) {
	for _, f := range d {
		if n, ok := asNode(f.Value); ok {
			entries = append(entries, n.withKey(f.Key))
			continue
		}
		if f.Key == VersionKey && f.Value != nil && !isNilNode(f.Value) {
			version = fmt.Sprint(f.Value)
			continue
		}
		entries = append(entries, Missing(f.Key))
	}
	return version, entries
}

// Payload returns the payload view of n.
func (n *Node) Payload() Data {
	return MergePayload(n.Version, n.Entries)
}

func asNode(v any) (*Node, bool) {
	switch n := v.(type) {
	case *Node:
		return n, n != nil
	case Node:
		return &n, true
	default:
		return nil, false
	}
}

func isNilNode(v any) bool {
	n, ok := v.(*Node)
	return ok && n == nil
}
